package models

import (
	"fmt"
	"sync/atomic"
	"time"
)

// AttachmentKind enumerates the supported attachment payload kinds.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentFile  AttachmentKind = "file"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
)

// Attachment is an immutable payload embedded in a Message at compose time.
// URL carries a data URI in this design; there is no blob store.
type Attachment struct {
	ID       string         `json:"id"`
	Kind     AttachmentKind `json:"kind"`
	URL      string         `json:"url"`
	Name     string         `json:"name"`
	Size     string         `json:"size,omitempty"`
	Duration string         `json:"duration,omitempty"`
}

// Reaction records one user's emoji reaction on a message. At most one
// entry exists per (emoji, user) pair; a second toggle removes the entry.
type Reaction struct {
	Emoji  string `json:"emoji"`
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// Message is appended to exactly one chat and never moved. Status, text and
// reactions may be mutated in place through the owning repository.
type Message struct {
	ID          string       `json:"id"`
	SenderID    string       `json:"sender_id"`
	Text        string       `json:"text"`
	Timestamp   time.Time    `json:"timestamp"`
	Status      Status       `json:"status"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`
	Edited      bool         `json:"edited,omitempty"`
}

// msgSeq disambiguates messages created within the same nanosecond so IDs
// stay strictly increasing under normal clock behavior.
var msgSeq uint64

// NewMessageID returns a sortable time-derived message ID.
// Format: <unix_nano_padded>-<seq>.
func NewMessageID() string {
	ts := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&msgSeq, 1)
	return fmt.Sprintf("%020d-%06d", ts, s)
}

// HasReaction reports whether the (emoji, userID) pair is present.
func (m *Message) HasReaction(emoji, userID string) bool {
	for _, r := range m.Reactions {
		if r.Emoji == emoji && r.UserID == userID {
			return true
		}
	}
	return false
}

// ToggleReaction adds the (emoji, userID) reaction if absent and removes it
// if present. The operation is its own inverse.
func (m *Message) ToggleReaction(emoji, userID string) {
	for i, r := range m.Reactions {
		if r.Emoji == emoji && r.UserID == userID {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return
		}
	}
	m.Reactions = append(m.Reactions, Reaction{Emoji: emoji, UserID: userID, Count: 1})
}

// AdvanceStatus moves the message to next only if that is a forward
// transition. Returns true when the status changed.
func (m *Message) AdvanceStatus(next Status) bool {
	if !m.Status.CanAdvance(next) {
		return false
	}
	m.Status = next
	return true
}
