package rapidyahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/finchat/internal/provider"
	"github.com/seenimoa/finchat/pkg/models"
)

// esgFetcher retrieves sustainability scores for one symbol.
type esgFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newEsgFetcher(p *Provider) *esgFetcher {
	return &esgFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelEsgScores,
			"ESG sustainability scores (total, environmental, social, governance)",
			[]string{provider.ParamSymbol},
			nil,
			time.Hour, 5, time.Second,
		),
		p: p,
	}
}

func (f *esgFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	e, err := f.get(ctx, params[provider.ParamSymbol])
	if err != nil {
		return nil, err
	}
	return &provider.FetchResult{Data: e, FetchedAt: time.Now()}, nil
}

func (f *esgFetcher) get(ctx context.Context, symbol string) (models.EsgProfile, error) {
	cacheKey := "esg:" + symbol
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(models.EsgProfile), nil
	}

	if err := f.RateLimit(ctx); err != nil {
		return models.EsgProfile{}, err
	}

	url := fmt.Sprintf(f.p.cfg.EsgURL, symbol)

	var resp esgResponse
	if err := f.p.client.GetJSON(ctx, url, f.p.esgHeaders(), nil, &resp); err != nil {
		return models.EsgProfile{}, fmt.Errorf("esg scores %s: %w", symbol, err)
	}

	// A response without totalEsg is "no ESG data", not an error.
	profile := models.EsgProfile{
		TotalScore:       resp.TotalEsg.display(),
		EnvironmentScore: resp.EnvironmentScore.display(),
		SocialScore:      resp.SocialScore.display(),
		GovernanceScore:  resp.GovernanceScore.display(),
	}

	f.CacheSet(cacheKey, profile)
	return profile, nil
}
