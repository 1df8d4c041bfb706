package rapidyahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/seenimoa/finchat/internal/provider"
	"github.com/seenimoa/finchat/pkg/models"
)

// quoteFetcher retrieves single-symbol realtime quotes.
type quoteFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newQuoteFetcher(p *Provider) *quoteFetcher {
	return &quoteFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelRealtimeQuote,
			"Realtime single-symbol stock quote",
			[]string{provider.ParamSymbol},
			nil,
			time.Minute, 5, time.Second,
		),
		p: p,
	}
}

func (f *quoteFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	q, err := f.get(ctx, params[provider.ParamSymbol])
	if err != nil {
		return nil, err
	}
	return &provider.FetchResult{Data: q, FetchedAt: time.Now()}, nil
}

func (f *quoteFetcher) get(ctx context.Context, symbol string) (*models.RealtimeQuote, error) {
	cacheKey := "quote:" + symbol
	if cached, ok := f.CacheGet(cacheKey); ok {
		q := cached.(models.RealtimeQuote)
		return &q, nil
	}

	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("ticker", symbol)
	params.Set("type", "STOCKS")

	var resp quoteResponse
	if err := f.p.client.GetJSON(ctx, f.p.cfg.QuoteURL, f.p.tickersHeaders(), params, &resp); err != nil {
		return nil, fmt.Errorf("realtime quote %s: %w", symbol, err)
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}

	r := resp.Body[0]
	name := r.LongName
	if name == "" {
		name = r.ShortName
	}

	quote := models.RealtimeQuote{
		Symbol:    models.OrNA(r.Symbol),
		Name:      models.OrNA(name),
		Price:     fmtFloat(r.RegularMarketPrice),
		ChangePct: fmtPct(r.RegularMarketChangePercent),
		Open:      fmtFloat(r.RegularMarketOpen),
		High:      fmtFloat(r.RegularMarketDayHigh),
		Low:       fmtFloat(r.RegularMarketDayLow),
		Volume:    fmtInt(r.RegularMarketVolume),
		MarketCap: fmtFloat(r.MarketCap),
	}

	f.CacheSet(cacheKey, quote)
	return &quote, nil
}
