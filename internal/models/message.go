package models

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is one entry of the conversation history. It is never edited after creation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
