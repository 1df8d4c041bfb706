// Package models defines the standard data models shared across the
// application: directory listings, realtime quotes, ESG profiles, and
// the fused ticker profile consumed by prompt assembly.
package models

import "strings"

// NA is the sentinel used for absent or unparseable upstream values.
const NA = "N/A"

// TickerRecord is one row from the paginated ticker directory listing.
// Values arrive pre-formatted as display strings; missing fields default
// to the N/A sentinel rather than failing the parse.
type TickerRecord struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	LastSale   string `json:"lastsale"`
	NetChange  string `json:"netchange"`
	PctChange  string `json:"pctchange"`
	MarketCap  string `json:"marketCap"`
	Sector     string `json:"sector"`
	Industry   string `json:"industry"`
	Week52High string `json:"week52High"`
	Week52Low  string `json:"week52Low"`
}

// RealtimeQuote is a single-symbol realtime quote. A nil quote means
// the upstream call failed; the pipeline degrades rather than aborts.
type RealtimeQuote struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	ChangePct string `json:"change_pct"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Volume    string `json:"volume"`
	MarketCap string `json:"market_cap"`
}

// EsgProfile holds sustainability scores as formatted display strings.
// The zero value means "no ESG data available" and is never an error.
type EsgProfile struct {
	TotalScore       string `json:"total_esg"`
	EnvironmentScore string `json:"environment_score"`
	SocialScore      string `json:"social_score"`
	GovernanceScore  string `json:"governance_score"`
}

// Empty reports whether no ESG data was returned for the symbol.
func (e EsgProfile) Empty() bool {
	return !Present(e.TotalScore)
}

// FusedProfile merges a realtime quote with a directory record for one
// symbol. Quote-sourced fields take precedence on overlap. Constructed
// fresh per query and discarded after prompt assembly.
type FusedProfile struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	ChangePct  string `json:"change_pct"`
	Open       string `json:"open"`
	High       string `json:"high"`
	Low        string `json:"low"`
	Volume     string `json:"volume"`
	MarketCap  string `json:"market_cap"`
	Week52High string `json:"52w_high"`
	Week52Low  string `json:"52w_low"`
	Sector     string `json:"sector"`
	Industry   string `json:"industry"`

	// ESG is nil when no ESG lookup was performed for this profile.
	ESG *EsgProfile `json:"esg,omitempty"`
}

// Present reports whether a field value carries real data, i.e. it is
// neither empty nor the N/A sentinel.
func Present(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NA
}

// OrNA returns v, or the N/A sentinel when v is empty.
func OrNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return NA
	}
	return v
}
