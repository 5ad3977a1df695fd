// Package directory holds the static user directory plus the persisted
// registry of previously-seen users.
package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"luminachat/pkg/models"
	"luminachat/pkg/store"
)

// AgentUser is the built-in automated assistant participant.
var AgentUser = models.User{
	ID:       "lumina_ai",
	Name:     "Lumina AI",
	Avatar:   "https://picsum.photos/id/532/200/200",
	IsOnline: true,
	IsAgent:  true,
}

// AvailableUsers is the static directory searchable from the sidebar.
var AvailableUsers = []models.User{
	{ID: "u1", Name: "Анна Смирнова", Avatar: "https://picsum.photos/id/65/200/200", IsOnline: true},
	{ID: "u2", Name: "Максим Волков", Avatar: "https://picsum.photos/id/91/200/200"},
	{ID: "u3", Name: "Design Team", Avatar: "https://picsum.photos/id/180/200/200"},
	{ID: "u4", Name: "Елена Соколова", Avatar: "https://picsum.photos/id/342/200/200", IsOnline: true},
	{ID: "u5", Name: "Дмитрий Петров", Avatar: "https://picsum.photos/id/338/200/200", IsOnline: true},
	{ID: "u6", Name: "Tech Support", Avatar: "https://picsum.photos/id/445/200/200"},
}

// Directory resolves users from the static list and the durable
// known-users registry.
type Directory struct {
	adapter store.Adapter
	log     *zap.Logger
}

// New returns a directory over the given storage adapter.
func New(adapter store.Adapter, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{adapter: adapter, log: log}
}

// Lookup finds a user by id across the agent, the static directory and
// the registry.
func (d *Directory) Lookup(id string) (models.User, bool) {
	if id == AgentUser.ID {
		return AgentUser, true
	}
	for _, u := range AvailableUsers {
		if u.ID == id {
			return u, true
		}
	}
	for _, u := range d.Known() {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// Search returns directory users whose name contains q, case-insensitive,
// excluding ids present in exclude. An empty query matches nothing.
func (d *Directory) Search(q string, exclude map[string]bool) []models.User {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	var out []models.User
	for _, u := range AvailableUsers {
		if exclude[u.ID] {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, u)
		}
	}
	return out
}

// Known returns the persisted known-users registry. A corrupt registry is
// treated as empty; it is rebuilt as users are remembered again.
func (d *Directory) Known() []models.User {
	raw, err := d.adapter.Get(store.KeyRegistry)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		d.log.Warn("registry_read_failed", zap.Error(err))
		return nil
	}
	var users []models.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		d.log.Warn("registry_corrupt_ignored", zap.Error(err))
		return nil
	}
	return users
}

// Remember appends user to the registry unless the id is already present.
// The registry is append-only and deduplicated by id.
func (d *Directory) Remember(user models.User) error {
	users := d.Known()
	for _, u := range users {
		if u.ID == user.ID {
			return nil
		}
	}
	users = append(users, user)
	b, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("registry encode: %w", err)
	}
	return d.adapter.Set(store.KeyRegistry, string(b))
}
