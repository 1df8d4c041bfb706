package fusion

import (
	"context"
	"fmt"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/finchat/pkg/models"
)

// NoSymbolMessage is rendered into the prompt when no candidate symbol
// appears in the user's message.
const NoSymbolMessage = "No specific ticker symbol detected in your query. Please include a stock symbol (e.g., AAPL for Apple) if you want stock information."

// MarketData is the slice of the market provider the fusion engine
// consumes. All three lookups degrade to absent data on failure.
type MarketData interface {
	RealtimeQuote(ctx context.Context, symbol string) *models.RealtimeQuote
	SearchSymbol(ctx context.Context, symbol string, maxPages int) (*models.TickerRecord, error)
	EsgScores(ctx context.Context, symbol string) models.EsgProfile
}

// Engine builds fused ticker profiles from the market data sources.
type Engine struct {
	market    MarketData
	extractor SymbolExtractor
	maxPages  int
}

// EngineOption configures the fusion engine.
type EngineOption func(*Engine)

// WithExtractor replaces the symbol extraction heuristic.
func WithExtractor(e SymbolExtractor) EngineOption {
	return func(en *Engine) { en.extractor = e }
}

// WithMaxPages bounds the directory scan per lookup.
func WithMaxPages(n int) EngineOption {
	return func(en *Engine) { en.maxPages = n }
}

// NewEngine creates a fusion engine over the given market data source.
func NewEngine(market MarketData, opts ...EngineOption) *Engine {
	e := &Engine{
		market:    market,
		extractor: RegexExtractor{},
		maxPages:  5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractSymbol returns the candidate symbol in text, if any.
func (e *Engine) ExtractSymbol(text string) (string, bool) {
	return e.extractor.Extract(text)
}

// BuildProfile fetches the realtime quote and the directory record for
// a symbol concurrently and merges them, quote fields winning on
// overlap. Returns nil when both sources come back empty.
func (e *Engine) BuildProfile(ctx context.Context, symbol string) *models.FusedProfile {
	var (
		quote  *models.RealtimeQuote
		record *models.TickerRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quote = e.market.RealtimeQuote(gctx, symbol)
		return nil
	})
	g.Go(func() error {
		rec, err := e.market.SearchSymbol(gctx, symbol, e.maxPages)
		if err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Msg("directory lookup empty")
			return nil
		}
		record = rec
		return nil
	})
	// The goroutines absorb their own failures; Wait only orders them
	// before the merge.
	_ = g.Wait()

	return merge(symbol, quote, record)
}

// Enrich resolves a symbol from the message and renders the market
// data summary block destined for the prompt. Absence of data at any
// stage degrades to an explicit English sentence.
func (e *Engine) Enrich(ctx context.Context, message string) string {
	symbol, ok := e.ExtractSymbol(message)
	if !ok {
		log.Info().Msg("no ticker symbol detected in query")
		return NoSymbolMessage
	}

	log.Info().Str("symbol", symbol).Msg("building profile for target symbol")
	profile := e.BuildProfile(ctx, symbol)
	if profile == nil {
		log.Warn().Str("symbol", symbol).Msg("no data found for target symbol")
		return fmt.Sprintf("No information available for %s.", symbol)
	}

	esg := e.market.EsgScores(ctx, profile.Symbol)
	profile.ESG = &esg

	return Summarize(profile)
}

// merge builds the fused profile. Directory fields are applied first,
// quote fields second so they take precedence; fields absent from both
// sources stay at the sentinel.
func merge(symbol string, q *models.RealtimeQuote, rec *models.TickerRecord) *models.FusedProfile {
	if q == nil && rec == nil {
		return nil
	}

	p := &models.FusedProfile{
		Symbol:     symbol,
		Name:       models.NA,
		Price:      models.NA,
		ChangePct:  models.NA,
		Open:       models.NA,
		High:       models.NA,
		Low:        models.NA,
		Volume:     models.NA,
		MarketCap:  models.NA,
		Week52High: models.NA,
		Week52Low:  models.NA,
		Sector:     models.NA,
		Industry:   models.NA,
	}

	if rec != nil {
		overlay(&p.Symbol, rec.Symbol)
		overlay(&p.Name, rec.Name)
		overlay(&p.Price, rec.LastSale)
		overlay(&p.ChangePct, rec.PctChange)
		overlay(&p.MarketCap, rec.MarketCap)
		overlay(&p.Week52High, rec.Week52High)
		overlay(&p.Week52Low, rec.Week52Low)
		overlay(&p.Sector, rec.Sector)
		overlay(&p.Industry, rec.Industry)
	}
	if q != nil {
		overlay(&p.Symbol, q.Symbol)
		overlay(&p.Name, q.Name)
		overlay(&p.Price, q.Price)
		overlay(&p.ChangePct, q.ChangePct)
		overlay(&p.Open, q.Open)
		overlay(&p.High, q.High)
		overlay(&p.Low, q.Low)
		overlay(&p.Volume, q.Volume)
		overlay(&p.MarketCap, q.MarketCap)
	}
	return p
}

// overlay replaces *dst with v when v carries real data.
func overlay(dst *string, v string) {
	if models.Present(v) {
		*dst = v
	}
}
