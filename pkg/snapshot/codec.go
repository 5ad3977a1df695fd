// Package snapshot serializes the whole chat collection to and from its
// durable form. Decode is strict: anything it cannot fully reconstruct,
// including timestamps that do not parse to a valid instant, is reported
// as a corrupt snapshot so the caller can fall back to seed data instead
// of surfacing the failure.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"luminachat/pkg/models"
)

// ErrCorruptSnapshot marks a persisted payload that cannot be decoded.
var ErrCorruptSnapshot = errors.New("snapshot: corrupt payload")

// Encode renders the chat collection as its durable string form. Message
// timestamps round-trip as RFC 3339 with nanoseconds; transient fields
// (typing indicator) are excluded by the model's JSON mapping.
func Encode(chats []models.Chat) (string, error) {
	if chats == nil {
		chats = []models.Chat{}
	}
	b, err := json.Marshal(chats)
	if err != nil {
		return "", fmt.Errorf("snapshot encode: %w", err)
	}
	return string(b), nil
}

// Decode parses a durable payload back into the chat collection. Any
// structural mismatch or invalid timestamp yields ErrCorruptSnapshot.
func Decode(raw string) ([]models.Chat, error) {
	var chats []models.Chat
	if err := json.Unmarshal([]byte(raw), &chats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	for i := range chats {
		if err := validateChat(&chats[i]); err != nil {
			return nil, fmt.Errorf("%w: chat %q: %v", ErrCorruptSnapshot, chats[i].ID, err)
		}
	}
	return chats, nil
}

func validateChat(c *models.Chat) error {
	if c.ID == "" {
		return errors.New("missing chat id")
	}
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.ID == "" {
			return fmt.Errorf("message %d missing id", i)
		}
		if m.Timestamp.IsZero() {
			return fmt.Errorf("message %q has no valid timestamp", m.ID)
		}
		if m.Status != "" && !m.Status.Valid() {
			return fmt.Errorf("message %q has unknown status %q", m.ID, m.Status)
		}
	}
	if c.LastMessage != nil && c.LastMessage.Timestamp.IsZero() {
		return errors.New("last message has no valid timestamp")
	}
	return nil
}
