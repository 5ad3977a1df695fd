// Package session manages the locally fabricated user record and the
// small per-session preference keys (welcome marker, theme).
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"luminachat/pkg/models"
	"luminachat/pkg/store"
)

// Theme is the UI theme preference.
type Theme string

const (
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
	ThemeSystem Theme = "system"
)

// ErrNoUser is returned when no user is logged in.
var ErrNoUser = errors.New("session: no current user")

// ErrBadTheme is returned for a value outside the theme enumeration.
var ErrBadTheme = errors.New("session: unknown theme")

// Session wraps the storage keys owned by the current session.
type Session struct {
	adapter store.Adapter
	log     *zap.Logger
}

// New returns a session over the given adapter.
func New(adapter store.Adapter, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{adapter: adapter, log: log}
}

// Login fabricates and persists a user record from a name and email. The
// name falls back to the email local part; the avatar is seeded from the
// email; a random 6-digit code is attached.
func (s *Session) Login(name, email string) (models.User, error) {
	if name == "" {
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		} else {
			name = "User"
		}
	}
	user := models.User{
		ID:       "me_" + uuid.NewString(),
		Name:     name,
		Email:    email,
		Avatar:   "https://api.dicebear.com/7.x/avataaars/svg?seed=" + email,
		Code:     fmt.Sprintf("%06d", rand.Intn(1000000)),
		IsOnline: true,
	}
	if err := s.saveUser(user); err != nil {
		return models.User{}, err
	}
	s.log.Info("user_logged_in", zap.String("id", user.ID), zap.String("name", user.Name))
	return user, nil
}

// CurrentUser returns the persisted user record, or ErrNoUser.
func (s *Session) CurrentUser() (models.User, error) {
	raw, err := s.adapter.Get(store.KeyUser)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrNoUser
	}
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		// a mangled user record behaves like a logged-out session
		s.log.Warn("user_record_corrupt", zap.Error(err))
		return models.User{}, ErrNoUser
	}
	return user, nil
}

// UpdateProfile overwrites the current user record. The id must match the
// logged-in user.
func (s *Session) UpdateProfile(user models.User) error {
	cur, err := s.CurrentUser()
	if err != nil {
		return err
	}
	if cur.ID != user.ID {
		return fmt.Errorf("session: profile id mismatch")
	}
	return s.saveUser(user)
}

// Logout removes the user record.
func (s *Session) Logout() error {
	return s.adapter.Delete(store.KeyUser)
}

func (s *Session) saveUser(user models.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.adapter.Set(store.KeyUser, string(b))
}

// WelcomeSeen reports whether the welcome marker has been written.
func (s *Session) WelcomeSeen() bool {
	_, err := s.adapter.Get(store.KeyWelcome)
	return err == nil
}

// MarkWelcomeSeen writes the opaque welcome marker.
func (s *Session) MarkWelcomeSeen() error {
	return s.adapter.Set(store.KeyWelcome, "true")
}

// Theme returns the stored theme preference, defaulting to dark.
func (s *Session) Theme() Theme {
	raw, err := s.adapter.Get(store.KeyTheme)
	if err != nil {
		return ThemeDark
	}
	switch Theme(raw) {
	case ThemeDark, ThemeLight, ThemeSystem:
		return Theme(raw)
	}
	return ThemeDark
}

// SetTheme stores the theme preference.
func (s *Session) SetTheme(t Theme) error {
	switch t {
	case ThemeDark, ThemeLight, ThemeSystem:
		return s.adapter.Set(store.KeyTheme, string(t))
	}
	return fmt.Errorf("%w: %q", ErrBadTheme, t)
}
