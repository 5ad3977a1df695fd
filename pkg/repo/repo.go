// Package repo owns the authoritative in-memory chat collection for one
// session. The durable store is the cross-session source of truth; any
// divergence is resolved by reloading, never by merging.
package repo

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"luminachat/pkg/metrics"
	"luminachat/pkg/models"
	"luminachat/pkg/snapshot"
	"luminachat/pkg/store"
)

// Repository holds one session's view of the chat collection. All entry
// points are serialized by an internal mutex; cross-session writers are
// reconciled through reload-on-notification.
type Repository struct {
	mu    sync.Mutex
	chats []models.Chat

	// typing holds the transient per-chat typing indicator. It lives
	// outside the chat collection because every mutation swaps the
	// collection for a freshly decoded snapshot, which never carries
	// the flag.
	typing map[string]bool

	adapter store.Adapter
	seed    []models.Chat
	log     *zap.Logger
}

// New constructs a repository over adapter. seed is the collection
// substituted when storage is empty or holds a corrupt snapshot.
func New(adapter store.Adapter, seed []models.Chat, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{adapter: adapter, seed: seed, log: log, typing: map[string]bool{}}
}

// LoadAll refreshes the in-memory collection from durable storage. An
// absent or corrupt snapshot falls back to the seed collection; only
// storage I/O failures propagate.
func (r *Repository) LoadAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chats, err := r.readLocked()
	if err != nil {
		return err
	}
	r.chats = chats
	metrics.SnapshotLoads.Inc()
	return nil
}

// readLocked reads through the codec without touching in-memory state.
func (r *Repository) readLocked() ([]models.Chat, error) {
	raw, err := r.adapter.Get(store.KeyChats)
	if errors.Is(err, store.ErrNotFound) {
		return cloneChats(r.seed), nil
	}
	if err != nil {
		return nil, err
	}
	chats, derr := snapshot.Decode(raw)
	if derr != nil {
		r.log.Warn("corrupt_snapshot_replaced_with_seed", zap.Error(derr))
		metrics.SnapshotCorruptions.Inc()
		return cloneChats(r.seed), nil
	}
	return chats, nil
}

// ReplaceAll persists the full collection and swaps the in-memory state.
// This is the only write path; it is last-writer-wins at whole-collection
// granularity. The LastMessage invariant is normalized before encoding.
func (r *Repository) ReplaceAll(chats []models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaceLocked(chats)
}

func (r *Repository) replaceLocked(chats []models.Chat) error {
	for i := range chats {
		chats[i].NormalizeLastMessage()
	}
	raw, err := snapshot.Encode(chats)
	if err != nil {
		return err
	}
	if err := r.adapter.Set(store.KeyChats, raw); err != nil {
		return err
	}
	r.chats = chats
	metrics.SnapshotWrites.Inc()
	return nil
}

// Chats returns a copy of the current collection in stored order. New
// chats are prepended at creation, so recent conversations surface first.
func (r *Repository) Chats() []models.Chat {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := cloneChats(r.chats)
	for i := range out {
		out[i].IsTyping = r.typing[out[i].ID]
	}
	return out
}

// Chat returns a copy of the chat with the given id.
func (r *Repository) Chat(id string) (models.Chat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.chats {
		if r.chats[i].ID == id {
			c := cloneChat(&r.chats[i])
			c.IsTyping = r.typing[id]
			return c, true
		}
	}
	return models.Chat{}, false
}

// MutateMessage re-reads the latest persisted snapshot, applies updater to
// the single matching message and persists the result. The re-read before
// write is mandatory: it prevents a delayed status timer from clobbering a
// message appended by a concurrent actor. No matching chat or message is a
// silent no-op.
func (r *Repository) MutateMessage(chatID, msgID string, updater func(*models.Message)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chats, err := r.readLocked()
	if err != nil {
		return err
	}
	found := false
	for i := range chats {
		if chats[i].ID != chatID {
			continue
		}
		if m := chats[i].FindMessage(msgID); m != nil {
			updater(m)
			found = true
		}
		break
	}
	if !found {
		r.log.Debug("mutate_message_no_match", zap.String("chat", chatID), zap.String("message", msgID))
		return nil
	}
	return r.replaceLocked(chats)
}

// MutateChat applies updater to the matching chat against fresh persisted
// state, then persists. Same no-op semantics as MutateMessage.
func (r *Repository) MutateChat(chatID string, updater func(*models.Chat)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chats, err := r.readLocked()
	if err != nil {
		return err
	}
	found := false
	for i := range chats {
		if chats[i].ID == chatID {
			updater(&chats[i])
			found = true
			break
		}
	}
	if !found {
		r.log.Debug("mutate_chat_no_match", zap.String("chat", chatID))
		return nil
	}
	return r.replaceLocked(chats)
}

// MarkRead zeroes the unread counter for the chat.
func (r *Repository) MarkRead(chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chats := cloneChats(r.chats)
	for i := range chats {
		if chats[i].ID == chatID {
			chats[i].UnreadCount = 0
			return r.replaceLocked(chats)
		}
	}
	return nil
}

// StartChat creates a chat with the given counterpart unless one already
// exists, in which case the existing chat is returned. New chats are
// prepended so they surface first.
func (r *Repository) StartChat(user models.User) (models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.chats {
		if cp := r.chats[i].Counterpart(); cp != nil && cp.ID == user.ID {
			return cloneChat(&r.chats[i]), nil
		}
	}
	chat := models.Chat{
		ID:           "c_" + uuid.NewString(),
		Participants: []models.User{user},
		Messages:     []models.Message{},
		UnreadCount:  0,
	}
	chats := append([]models.Chat{chat}, cloneChats(r.chats)...)
	if err := r.replaceLocked(chats); err != nil {
		return models.Chat{}, err
	}
	return cloneChat(&chat), nil
}

// AppendMessage appends msg to the chat against fresh persisted state.
func (r *Repository) AppendMessage(chatID string, msg models.Message) error {
	return r.MutateChat(chatID, func(c *models.Chat) {
		c.Messages = append(c.Messages, msg)
	})
}

// ToggleReaction toggles the (emoji, userID) reaction on a message. Two
// identical toggles restore the original reaction list.
func (r *Repository) ToggleReaction(chatID, msgID, emoji, userID string) error {
	return r.MutateMessage(chatID, msgID, func(m *models.Message) {
		m.ToggleReaction(emoji, userID)
	})
}

// EditMessage replaces a message's text and sets its edited flag. Position
// and id are untouched; the cached last message is refreshed by the
// normalization pass on write.
func (r *Repository) EditMessage(chatID, msgID, text string) error {
	return r.MutateMessage(chatID, msgID, func(m *models.Message) {
		m.Text = text
		m.Edited = true
	})
}

// SetTyping flips the transient typing indicator in memory only. The flag
// never reaches durable storage, so other sessions do not observe it, and
// it survives snapshot reloads until explicitly cleared.
func (r *Repository) SetTyping(chatID string, typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if typing {
		r.typing[chatID] = true
		return
	}
	delete(r.typing, chatID)
}

// Search returns chats whose counterpart name contains q, case-insensitive.
func (r *Repository) Search(q string) []models.Chat {
	q = strings.ToLower(strings.TrimSpace(q))
	all := r.Chats()
	if q == "" {
		return all
	}
	var out []models.Chat
	for i := range all {
		if cp := all[i].Counterpart(); cp != nil && strings.Contains(strings.ToLower(cp.Name), q) {
			out = append(out, all[i])
		}
	}
	return out
}

// HasChatWith reports whether a chat with the given counterpart exists.
func (r *Repository) HasChatWith(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.chats {
		if cp := r.chats[i].Counterpart(); cp != nil && cp.ID == userID {
			return true
		}
	}
	return false
}

func cloneChats(in []models.Chat) []models.Chat {
	out := make([]models.Chat, len(in))
	for i := range in {
		out[i] = cloneChat(&in[i])
	}
	return out
}

func cloneChat(c *models.Chat) models.Chat {
	out := *c
	out.Participants = append([]models.User(nil), c.Participants...)
	out.Messages = make([]models.Message, len(c.Messages))
	for i := range c.Messages {
		out.Messages[i] = cloneMessage(&c.Messages[i])
	}
	if c.LastMessage != nil {
		lm := cloneMessage(c.LastMessage)
		out.LastMessage = &lm
	}
	return out
}

func cloneMessage(m *models.Message) models.Message {
	out := *m
	out.Attachments = append([]models.Attachment(nil), m.Attachments...)
	out.Reactions = append([]models.Reaction(nil), m.Reactions...)
	return out
}
