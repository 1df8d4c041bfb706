package models

import "time"

// ConversationTurn is one user/bot exchange within a session.
type ConversationTurn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// NewsArticle is a single financial news item from an RSS source.
type NewsArticle struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
