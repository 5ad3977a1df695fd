package models

// Chat is a 1:1 conversation. Participants holds the single non-self
// counterpart; Messages is append-only and chronologically ordered.
//
// LastMessage caches the tail of Messages: present iff the list is
// non-empty. Callers must not maintain it by hand; the repository
// normalizes it on every write (see NormalizeLastMessage).
//
// IsTyping is transient UI state and is deliberately excluded from the
// durable snapshot so it cannot flicker across sessions.
type Chat struct {
	ID           string    `json:"id"`
	Participants []User    `json:"participants"`
	Messages     []Message `json:"messages"`
	UnreadCount  int       `json:"unread_count"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	IsTyping     bool      `json:"-"`
}

// Counterpart returns the non-self participant, or nil for a malformed chat.
func (c *Chat) Counterpart() *User {
	if len(c.Participants) == 0 {
		return nil
	}
	return &c.Participants[0]
}

// IsAgentChat reports whether the counterpart is an automated agent.
func (c *Chat) IsAgentChat() bool {
	u := c.Counterpart()
	return u != nil && u.IsAgent
}

// FindMessage returns a pointer into Messages for the given id, or nil.
func (c *Chat) FindMessage(id string) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i]
		}
	}
	return nil
}

// NormalizeLastMessage re-derives the cached LastMessage from the message
// list tail. A copy is cached so later tail mutations go through the
// repository rather than aliasing the slice.
func (c *Chat) NormalizeLastMessage() {
	if len(c.Messages) == 0 {
		c.LastMessage = nil
		return
	}
	tail := c.Messages[len(c.Messages)-1]
	c.LastMessage = &tail
}
