package fusion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seenimoa/finchat/pkg/models"
)

type fakeMarket struct {
	quote     *models.RealtimeQuote
	record    *models.TickerRecord
	searchErr error
	esg       models.EsgProfile
}

func (f *fakeMarket) RealtimeQuote(ctx context.Context, symbol string) *models.RealtimeQuote {
	return f.quote
}

func (f *fakeMarket) SearchSymbol(ctx context.Context, symbol string, maxPages int) (*models.TickerRecord, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.record == nil {
		return nil, errors.New("symbol not found")
	}
	return f.record, nil
}

func (f *fakeMarket) EsgScores(ctx context.Context, symbol string) models.EsgProfile {
	return f.esg
}

func TestExtractSymbol(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"plain ticker", "How is TSLA doing today?", "TSLA", true},
		{"lowercase only", "what do you think about apple stock", "", false},
		{"first of several", "Is IBM or AAPL the better buy?", "IBM", true},
		{"acronym wins", "What is the USA inflation impact on MSFT?", "USA", true},
		{"single letter", "Thoughts on F as a value play?", "F", true},
		{"too long", "TOOLONG is not a ticker", "", false},
		{"empty", "", "", false},
	}

	e := NewEngine(&fakeMarket{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := e.ExtractSymbol(tc.text)
			if got != tc.want || found != tc.found {
				t.Errorf("ExtractSymbol(%q) = (%q, %v), want (%q, %v)", tc.text, got, found, tc.want, tc.found)
			}
		})
	}
}

func TestBuildProfileQuotePrecedence(t *testing.T) {
	market := &fakeMarket{
		quote: &models.RealtimeQuote{
			Symbol:    "TSLA",
			Name:      "Tesla, Inc.",
			Price:     "250",
			ChangePct: "2.5%",
			Open:      "245.3",
			Volume:    "98000000",
			MarketCap: models.NA,
		},
		record: &models.TickerRecord{
			Symbol:     "TSLA",
			Name:       "Tesla Inc. Common Stock",
			LastSale:   "$248.10",
			PctChange:  "1.9%",
			MarketCap:  "$790B",
			Sector:     "Consumer Cyclical",
			Industry:   "Auto Manufacturers",
			Week52High: "$299.29",
			Week52Low:  "$138.80",
		},
	}
	e := NewEngine(market)

	p := e.BuildProfile(context.Background(), "TSLA")
	if p == nil {
		t.Fatal("expected a profile")
	}
	// Quote wins where both sources carry data.
	if p.Price != "250" || p.ChangePct != "2.5%" || p.Name != "Tesla, Inc." {
		t.Errorf("quote fields must take precedence: %+v", p)
	}
	// Directory fills what the quote lacks, including sentinel fields.
	if p.Sector != "Consumer Cyclical" || p.Week52High != "$299.29" {
		t.Errorf("directory fields missing: %+v", p)
	}
	if p.MarketCap != "$790B" {
		t.Errorf("sentinel quote field must not mask directory data: %q", p.MarketCap)
	}
	// Quote-only fields survive.
	if p.Open != "245.3" || p.Volume != "98000000" {
		t.Errorf("quote-only fields missing: %+v", p)
	}
	// ESG is attached later, by Enrich.
	if p.ESG != nil {
		t.Errorf("BuildProfile must not attach ESG: %+v", p.ESG)
	}
}

func TestBuildProfileQuoteOnly(t *testing.T) {
	market := &fakeMarket{
		quote: &models.RealtimeQuote{Symbol: "TSLA", Name: "Tesla, Inc.", Price: "250", ChangePct: "2.5%"},
	}
	p := NewEngine(market).BuildProfile(context.Background(), "TSLA")
	if p == nil {
		t.Fatal("expected a profile from quote alone")
	}
	if p.Price != "250" || p.Sector != models.NA {
		t.Errorf("unexpected profile: %+v", p)
	}
}

func TestBuildProfileDirectoryOnly(t *testing.T) {
	market := &fakeMarket{
		record: &models.TickerRecord{Symbol: "TGT", Name: "Target Corporation", LastSale: "$151.20"},
	}
	p := NewEngine(market).BuildProfile(context.Background(), "TGT")
	if p == nil {
		t.Fatal("expected a profile from directory alone")
	}
	if p.Price != "$151.20" || p.Name != "Target Corporation" {
		t.Errorf("unexpected profile: %+v", p)
	}
}

func TestBuildProfileBothAbsent(t *testing.T) {
	p := NewEngine(&fakeMarket{}).BuildProfile(context.Background(), "ZZZZ")
	if p != nil {
		t.Errorf("expected nil profile when both sources are empty, got %+v", p)
	}
}

func TestEnrichNoSymbol(t *testing.T) {
	e := NewEngine(&fakeMarket{})
	got := e.Enrich(context.Background(), "what should I invest in this year")
	if got != NoSymbolMessage {
		t.Errorf("expected no-symbol message, got %q", got)
	}
}

func TestEnrichNoData(t *testing.T) {
	e := NewEngine(&fakeMarket{})
	got := e.Enrich(context.Background(), "Tell me about ZZZZ")
	if got != "No information available for ZZZZ." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestEnrichEndToEnd(t *testing.T) {
	market := &fakeMarket{
		quote: &models.RealtimeQuote{
			Symbol: "TSLA", Name: "Tesla, Inc.", Price: "250", ChangePct: "2.5%",
		},
		record: &models.TickerRecord{
			Symbol: "TSLA", Sector: "Consumer Cyclical", Industry: "Auto Manufacturers",
		},
		esg: models.EsgProfile{
			TotalScore: "18.5", EnvironmentScore: "3.1", SocialScore: "9.2", GovernanceScore: "6.2",
		},
	}
	e := NewEngine(market)

	got := e.Enrich(context.Background(), "How is TSLA doing and is it ESG friendly?")
	for _, want := range []string{
		"TSLA (Tesla, Inc.): Price $250 (2.5%)",
		"Sector: Consumer Cyclical",
		"Industry: Auto Manufacturers",
		"ESG Score: 18.5, Environmental: 3.1, Social: 9.2, Governance: 6.2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestSummarizeSkipsAbsentFields(t *testing.T) {
	p := &models.FusedProfile{
		Symbol: "TGT", Name: "Target Corporation", Price: "$151.20", ChangePct: models.NA,
		Open: models.NA, High: models.NA, Low: models.NA, Volume: models.NA,
		MarketCap: models.NA, Week52High: models.NA, Week52Low: models.NA,
		Sector: models.NA, Industry: models.NA,
	}
	got := Summarize(p)
	want := "TGT (Target Corporation): Price $151.20 (N/A); ESG data not fetched"
	if got != want {
		t.Errorf("Summarize = %q, want %q", got, want)
	}
}

func TestSummarizeEsgClauses(t *testing.T) {
	base := &models.FusedProfile{Symbol: "TGT", Name: "Target Corporation", Price: "$151.20", ChangePct: "1%"}

	if got := Summarize(base); !strings.HasSuffix(got, "; ESG data not fetched") {
		t.Errorf("nil ESG clause wrong: %q", got)
	}

	base.ESG = &models.EsgProfile{TotalScore: models.NA}
	if got := Summarize(base); !strings.HasSuffix(got, "; No ESG data available") {
		t.Errorf("empty ESG clause wrong: %q", got)
	}
}
