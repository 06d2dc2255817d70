package chat

import "time"

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Greeting opens every new transcript.
const Greeting = "Hi! I can answer questions about this GitHub repository. What would you like to know?"

// Message is a single transcript entry. Messages are never edited once
// appended.
type Message struct {
	ID        int       `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	IsError   bool      `json:"isError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsUser reports whether the message was typed by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}
