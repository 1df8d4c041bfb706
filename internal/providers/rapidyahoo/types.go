package rapidyahoo

import (
	"strconv"

	"github.com/seenimoa/finchat/pkg/models"
)

// --- Upstream API response types ---

// quoteResponse wraps the realtime quote API response.
type quoteResponse struct {
	Body []quoteResult `json:"body"`
}

type quoteResult struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	LongName                   string  `json:"longName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	MarketCap                  float64 `json:"marketCap"`
}

// esgResponse wraps the ESG scores API response. Each score arrives as
// a sub-object with a pre-formatted display field.
type esgResponse struct {
	TotalEsg         *scoreField `json:"totalEsg"`
	EnvironmentScore *scoreField `json:"environmentScore"`
	SocialScore      *scoreField `json:"socialScore"`
	GovernanceScore  *scoreField `json:"governanceScore"`
}

type scoreField struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

func (s *scoreField) display() string {
	if s == nil || s.Fmt == "" {
		return models.NA
	}
	return s.Fmt
}

// --- Formatting helpers ---

// fmtFloat renders an upstream numeric field as a display string. Zero
// means the field was absent from the JSON and maps to the sentinel.
func fmtFloat(f float64) string {
	if f == 0 {
		return models.NA
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fmtPct(f float64) string {
	if f == 0 {
		return models.NA
	}
	return strconv.FormatFloat(f, 'f', -1, 64) + "%"
}

func fmtInt(n int64) string {
	if n == 0 {
		return models.NA
	}
	return strconv.FormatInt(n, 10)
}

// normalizeRecord fills missing directory fields with the sentinel so
// downstream rendering never sees empty strings.
func normalizeRecord(r models.TickerRecord) models.TickerRecord {
	r.Name = models.OrNA(r.Name)
	r.LastSale = models.OrNA(r.LastSale)
	r.NetChange = models.OrNA(r.NetChange)
	r.PctChange = models.OrNA(r.PctChange)
	r.MarketCap = models.OrNA(r.MarketCap)
	r.Sector = models.OrNA(r.Sector)
	r.Industry = models.OrNA(r.Industry)
	r.Week52High = models.OrNA(r.Week52High)
	r.Week52Low = models.OrNA(r.Week52Low)
	return r
}
