package rapidyahoo

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/phuslu/log"

	"github.com/seenimoa/finchat/internal/provider"
	"github.com/seenimoa/finchat/pkg/models"
)

// ErrSymbolNotFound is returned when a symbol does not appear within
// the scanned directory pages. It is informational, not fatal: the
// pipeline renders an explicit "no data" sentence and proceeds.
var ErrSymbolNotFound = errors.New("rapidyahoo: symbol not found in directory")

// directoryFetcher enumerates the paginated ticker directory.
type directoryFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newDirectoryFetcher(p *Provider) *directoryFetcher {
	return &directoryFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelTickerDirectory,
			"Paginated stock directory listing with symbol search",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamPages},
			15*time.Minute, 5, time.Second,
		),
		p: p,
	}
}

func (f *directoryFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := params[provider.ParamSymbol]
	maxPages := f.p.cfg.SearchPages
	if v := params[provider.ParamPages]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxPages = n
		}
	}

	rec, err := f.search(ctx, symbol, maxPages)
	if err != nil {
		return nil, err
	}
	return &provider.FetchResult{Data: rec, FetchedAt: time.Now()}, nil
}

// listPage fetches one directory page. A page whose body is malformed
// is logged and contributes zero records rather than an error, so a
// bad page never aborts a multi-page scan.
func (f *directoryFetcher) listPage(ctx context.Context, page int) ([]models.TickerRecord, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("type", "STOCKS")

	_, body, err := f.p.client.Get(ctx, f.p.cfg.TickersURL, f.p.tickersHeaders(), params)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Body == nil {
		log.Warn().Int("page", page).Msg("directory page missing body list, skipping")
		return nil, nil
	}

	var records []models.TickerRecord
	if err := json.Unmarshal(envelope.Body, &records); err != nil {
		log.Warn().Err(err).Int("page", page).Msg("directory page body malformed, skipping")
		return nil, nil
	}

	for i := range records {
		records[i] = normalizeRecord(records[i])
	}
	log.Info().Int("page", page).Int("records", len(records)).Msg("directory page fetched")
	return records, nil
}

// search scans pages starting at 1 and stops the moment the target
// symbol is observed on a page. Pages that fail to fetch are skipped;
// aggregation is concatenation in page order with no deduplication.
func (f *directoryFetcher) search(ctx context.Context, symbol string, maxPages int) (*models.TickerRecord, error) {
	cacheKey := "search:" + symbol
	if cached, ok := f.CacheGet(cacheKey); ok {
		rec := cached.(models.TickerRecord)
		return &rec, nil
	}

	for page := 1; page <= maxPages; page++ {
		records, err := f.listPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Int("page", page).Str("symbol", symbol).Msg("directory page fetch failed, skipping")
			continue
		}

		for i := range records {
			if records[i].Symbol == symbol {
				log.Info().Str("symbol", symbol).Int("page", page).Msg("found target symbol")
				f.CacheSet(cacheKey, records[i])
				return &records[i], nil
			}
		}
	}

	log.Warn().Str("symbol", symbol).Int("pages", maxPages).Msg("symbol not found in directory scan")
	return nil, ErrSymbolNotFound
}
