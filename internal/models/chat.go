package models

import "time"

// Role tags the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SeedMessageID identifies the synthetic assistant message that opens a
// chat session. It is excluded from the history forwarded to the chat
// endpoint.
const SeedMessageID = "system"

// SeedMessageText is the canned opener shown when chat mode starts.
const SeedMessageText = "Ask me anything about your translated document."

// ChatMessage is one turn in a document chat. Messages are append-only
// and ordered by insertion.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
