package fusion

import (
	"fmt"
	"strings"

	"github.com/seenimoa/finchat/pkg/models"
)

// Summarize renders a fused profile as a single line of prompt-ready
// text. Symbol, name, price, and change always render, sentinel or
// not; optional fields render only when they carry real data; the ESG
// clause closes the line.
func Summarize(p *models.FusedProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): Price $%s (%s)", p.Symbol, p.Name, p.Price, p.ChangePct)

	appendField(&b, "Open", "$", p.Open)
	appendField(&b, "High", "$", p.High)
	appendField(&b, "Low", "$", p.Low)
	appendField(&b, "Volume", "", p.Volume)
	appendField(&b, "Market Cap", "$", p.MarketCap)
	appendField(&b, "52w High", "$", p.Week52High)
	appendField(&b, "52w Low", "$", p.Week52Low)
	appendField(&b, "Sector", "", p.Sector)
	appendField(&b, "Industry", "", p.Industry)

	b.WriteString("; " + esgClause(p.ESG))
	return b.String()
}

func appendField(b *strings.Builder, label, unit, value string) {
	if models.Present(value) {
		fmt.Fprintf(b, "; %s: %s%s", label, unit, value)
	}
}

func esgClause(e *models.EsgProfile) string {
	switch {
	case e == nil:
		return "ESG data not fetched"
	case e.Empty():
		return "No ESG data available"
	default:
		return fmt.Sprintf("ESG Score: %s, Environmental: %s, Social: %s, Governance: %s",
			e.TotalScore, e.EnvironmentScore, e.SocialScore, e.GovernanceScore)
	}
}
