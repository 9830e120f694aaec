package domain

import "time"

// Role identifies the author of a chat message.
type Role string

// Chat message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MaxHistory bounds per-conversation history. Appending beyond the cap drops
// the oldest entries; truncation is lossy and irreversible.
const MaxHistory = 20

// ChatMessage is a single conversation turn. Immutable once appended.
type ChatMessage struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

// NewChatMessage creates a timestamped chat message.
func NewChatMessage(role Role, content string, metadata map[string]any) ChatMessage {
	return ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// Conversation is the mutable per-conversation state threaded through every
// turn. Not safe for concurrent mutation: the context store serializes writers
// per conversation id.
type Conversation struct {
	id          string
	userID      string
	sessionData map[string]any
	history     []ChatMessage
}

// NewConversation creates an empty conversation context.
func NewConversation(id, userID string, sessionData map[string]any) *Conversation {
	if sessionData == nil {
		sessionData = make(map[string]any)
	}
	return &Conversation{id: id, userID: userID, sessionData: sessionData}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string { return c.id }

// UserID returns the optional owning user id.
func (c *Conversation) UserID() string { return c.userID }

// SessionData returns the per-conversation session map.
func (c *Conversation) SessionData() map[string]any { return c.sessionData }

// History returns a copy of the message history, oldest first.
func (c *Conversation) History() []ChatMessage {
	out := make([]ChatMessage, len(c.history))
	copy(out, c.history)
	return out
}

// LastN returns up to n most recent messages, oldest first.
func (c *Conversation) LastN(n int) []ChatMessage {
	if n <= 0 || len(c.history) == 0 {
		return nil
	}
	if n > len(c.history) {
		n = len(c.history)
	}
	out := make([]ChatMessage, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}

// Len returns the current history length.
func (c *Conversation) Len() int { return len(c.history) }

// Append adds a message and enforces the history cap, dropping the oldest entries.
func (c *Conversation) Append(msg ChatMessage) {
	c.history = append(c.history, msg)
	if len(c.history) > MaxHistory {
		c.history = c.history[len(c.history)-MaxHistory:]
	}
}
