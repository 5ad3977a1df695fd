// Package ai is the external reply collaborator. Its contract is total:
// Reply always returns text, falling back to a canned string on any
// internal failure, so callers never need a failure branch.
package ai

import "context"

// Role tags a turn in the conversation history.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of the role-tagged history handed to the responder.
type Turn struct {
	Role Role
	Text string
}

// Responder produces a reply for the latest user text given the ordered
// conversation history. Implementations never return an error.
type Responder interface {
	Reply(ctx context.Context, text string, history []Turn) string
}

// Fallback is the reply served when the remote call cannot produce one.
const Fallback = "Sorry, I'm having trouble answering right now. Please try again in a moment."

// Static is a Responder returning a fixed string, used in tests and when
// no API key is configured.
type Static struct {
	Text string
}

func (s Static) Reply(context.Context, string, []Turn) string {
	if s.Text == "" {
		return Fallback
	}
	return s.Text
}
