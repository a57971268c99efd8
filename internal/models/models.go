// Package models defines the data structures shared across the QuotaChat client.
package models

import "time"

// Identity is the authenticated user's account snapshot. Exactly one Identity
// is live at a time (or none, meaning unauthenticated); it is owned by the
// session store and replaced wholesale on every balance-affecting response.
type Identity struct {
	UserID          string  `json:"user_id"`
	Username        string  `json:"username"`
	Balance         float64 `json:"balance"`
	AvailableTokens int64   `json:"available_tokens"`
}

// ChatTurn is one persisted, billed request/response exchange as returned by
// the history endpoint. Immutable once fetched.
type ChatTurn struct {
	ID           string    `json:"id"`
	InputText    string    `json:"input_text"`
	ResponseText string    `json:"response_text"`
	TokensUsed   int64     `json:"tokens_used"`
	AmountUsed   float64   `json:"amount_used"`
	Timestamp    time.Time `json:"timestamp"`
}

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptEntry is one displayed message, user or assistant authored.
// Tokens and Cost are set together once the turn is confirmed, never
// individually. Entries derived from persisted history carry a Timestamp;
// optimistic entries do not until the backend confirms the turn.
type TranscriptEntry struct {
	ID        string
	Role      Role
	Content   string
	Tokens    *int64
	Cost      *float64
	Timestamp *time.Time
	Pending   bool
}

// Billed reports whether the entry carries confirmed token/cost accounting.
func (e TranscriptEntry) Billed() bool {
	return e.Tokens != nil && e.Cost != nil
}

// LoginCredentials is the payload for the login endpoint.
type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterCredentials is the payload for the register endpoint.
type RegisterCredentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}
