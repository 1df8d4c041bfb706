package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/finchat/pkg/models"
)

// promptTimeFormat stamps the market-data block in the prompt.
const promptTimeFormat = "2006-01-02 15:04:05"

// BuildPrompt assembles the generation prompt: serialized history, the
// raw user message, the market-data block stamped with the generation
// timestamp, and the literal Answer cue. The concatenation order is
// fixed; the same inputs always yield byte-identical output.
func BuildPrompt(history []models.ConversationTurn, userMessage, summary string, ts time.Time) string {
	var hb strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&hb, "User: %s\nBot: %s\n\n", turn.User, turn.Bot)
	}

	return fmt.Sprintf(
		"Conversation History:\n%s\n\nUser Query: %s\n\nCurrent Market Data (as of %s):\n%s\n\nAnswer:",
		hb.String(),
		userMessage,
		ts.Format(promptTimeFormat),
		summary,
	)
}
