// Package rapidyahoo implements the RapidAPI-hosted Yahoo Finance data
// provider. It wraps the yahoo-finance15 ticker directory and realtime
// quote APIs and the yahoo-finance127 ESG scores API in the standard
// provider/fetcher framework.
//
// The directory API is paginated and aggressively rate limited; all
// calls go through the shared retrying fetch client.
package rapidyahoo

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/seenimoa/finchat/internal/config"
	"github.com/seenimoa/finchat/internal/infra"
	"github.com/seenimoa/finchat/internal/provider"
	"github.com/seenimoa/finchat/pkg/models"
)

const providerName = "rapidyahoo"

// browserUA mirrors a desktop browser; the RapidAPI gateway rejects
// default Go user agents on these hosts.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Provider implements provider.Provider for the RapidAPI Yahoo hosts.
type Provider struct {
	provider.BaseProvider
	cfg    config.UpstreamConfig
	client *infra.Client

	directory *directoryFetcher
	quote     *quoteFetcher
	esg       *esgFetcher
}

// New creates the provider and registers its fetchers.
func New(cfg config.UpstreamConfig, client *infra.Client) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Yahoo Finance via RapidAPI - directory, quotes, and ESG scores",
			"https://rapidapi.com",
			[]provider.ProviderCredential{
				{
					Name:        "rapidapi_key",
					Description: "RapidAPI application key",
					Required:    true,
					EnvVar:      "FINCHAT_UPSTREAM_RAPIDAPI_KEY",
				},
			},
		),
		cfg:    cfg,
		client: client,
	}

	p.directory = newDirectoryFetcher(p)
	p.quote = newQuoteFetcher(p)
	p.esg = newEsgFetcher(p)

	p.RegisterFetcher(p.directory)
	p.RegisterFetcher(p.quote)
	p.RegisterFetcher(p.esg)

	return p
}

// Ping checks connectivity by requesting the first directory page.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.directory.listPage(ctx, 1); err != nil {
		return fmt.Errorf("rapidyahoo ping: %w", err)
	}
	return nil
}

// --- Typed convenience API used by the fusion engine ---

// ListPage returns one page of the ticker directory. A malformed page
// contributes zero records without an error.
func (p *Provider) ListPage(ctx context.Context, page int) ([]models.TickerRecord, error) {
	return p.directory.listPage(ctx, page)
}

// SearchSymbol scans directory pages for the symbol, short-circuiting
// on the first page that contains it. Returns ErrSymbolNotFound after
// maxPages pages.
func (p *Provider) SearchSymbol(ctx context.Context, symbol string, maxPages int) (*models.TickerRecord, error) {
	return p.directory.search(ctx, symbol, maxPages)
}

// RealtimeQuote returns the realtime quote for a symbol, or nil when
// the upstream call fails. Failures degrade to absent data, never to a
// pipeline abort.
func (p *Provider) RealtimeQuote(ctx context.Context, symbol string) *models.RealtimeQuote {
	q, err := p.quote.get(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("realtime quote unavailable")
		return nil
	}
	return q
}

// EsgScores returns the ESG profile for a symbol. Any upstream failure
// yields the empty profile, never an error.
func (p *Provider) EsgScores(ctx context.Context, symbol string) models.EsgProfile {
	e, err := p.esg.get(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("ESG scores unavailable")
		return models.EsgProfile{}
	}
	return e
}

// --- Shared helpers ---

func (p *Provider) tickersHeaders() map[string]string {
	return map[string]string{
		"x-rapidapi-host": p.cfg.TickersHost,
		"x-rapidapi-key":  p.cfg.RapidAPIKey,
		"User-Agent":      browserUA,
		"Accept":          "application/json",
		"Accept-Encoding": "identity",
	}
}

func (p *Provider) esgHeaders() map[string]string {
	return map[string]string{
		"x-rapidapi-host": p.cfg.EsgHost,
		"x-rapidapi-key":  p.cfg.RapidAPIKey,
		"User-Agent":      browserUA,
		"Accept":          "application/json",
		"Accept-Encoding": "identity",
	}
}
