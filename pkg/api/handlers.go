package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"luminachat/pkg/models"
	"luminachat/pkg/session"
)

const maxBody = 1 << 20

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "cannot read body")
		return nil, false
	}
	return body, true
}

func parseBody(pool *fastjson.ParserPool, w http.ResponseWriter, r *http.Request) (*fastjson.Parser, *fastjson.Value, bool) {
	body, ok := readBody(w, r)
	if !ok {
		return nil, nil, false
	}
	p := pool.Get()
	v, err := p.ParseBytes(body)
	if err != nil {
		pool.Put(p)
		jsonError(w, http.StatusBadRequest, "invalid json")
		return nil, nil, false
	}
	return p, v, true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	p, v, ok := parseBody(&s.loginPool, w, r)
	if !ok {
		return
	}
	defer s.loginPool.Put(p)

	name := string(v.GetStringBytes("name"))
	email := string(v.GetStringBytes("email"))
	if email == "" {
		jsonError(w, http.StatusBadRequest, "email required")
		return
	}
	user, err := s.session.Login(name, email)
	if err != nil {
		s.log.Error("login_failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "login failed")
		return
	}
	jsonWrite(w, http.StatusOK, user)
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	if err := s.session.Logout(); err != nil {
		jsonError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	jsonWrite(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request) {
	user, err := s.session.CurrentUser()
	if errors.Is(err, session.ErrNoUser) {
		jsonError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "session read failed")
		return
	}
	jsonWrite(w, http.StatusOK, user)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	p, v, ok := parseBody(&s.loginPool, w, r)
	if !ok {
		return
	}
	defer s.loginPool.Put(p)

	cur, err := s.session.CurrentUser()
	if errors.Is(err, session.ErrNoUser) {
		jsonError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "session read failed")
		return
	}
	if name := string(v.GetStringBytes("name")); name != "" {
		cur.Name = name
	}
	if avatar := string(v.GetStringBytes("avatar")); avatar != "" {
		cur.Avatar = avatar
	}
	if phone := string(v.GetStringBytes("phone")); phone != "" {
		cur.Phone = phone
	}
	if err := s.session.UpdateProfile(cur); err != nil {
		jsonError(w, http.StatusInternalServerError, "profile update failed")
		return
	}
	jsonWrite(w, http.StatusOK, cur)
}

func (s *Server) getTheme(w http.ResponseWriter, _ *http.Request) {
	jsonWrite(w, http.StatusOK, map[string]string{"theme": string(s.session.Theme())})
}

func (s *Server) setTheme(w http.ResponseWriter, r *http.Request) {
	p, v, ok := parseBody(&s.prefPool, w, r)
	if !ok {
		return
	}
	defer s.prefPool.Put(p)

	t := session.Theme(v.GetStringBytes("theme"))
	if err := s.session.SetTheme(t); err != nil {
		jsonError(w, http.StatusBadRequest, "unknown theme")
		return
	}
	jsonWrite(w, http.StatusOK, map[string]string{"theme": string(t)})
}

func (s *Server) getWelcome(w http.ResponseWriter, _ *http.Request) {
	jsonWrite(w, http.StatusOK, map[string]bool{"seen": s.session.WelcomeSeen()})
}

func (s *Server) markWelcome(w http.ResponseWriter, _ *http.Request) {
	if err := s.session.MarkWelcomeSeen(); err != nil {
		jsonError(w, http.StatusInternalServerError, "cannot persist welcome marker")
		return
	}
	jsonWrite(w, http.StatusOK, map[string]bool{"seen": true})
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	exclude := map[string]bool{}
	for _, c := range s.repo.Chats() {
		if cp := c.Counterpart(); cp != nil {
			exclude[cp.ID] = true
		}
	}
	users := s.dir.Search(q, exclude)
	if users == nil {
		users = []models.User{}
	}
	jsonWrite(w, http.StatusOK, users)
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	chats := s.repo.Search(r.URL.Query().Get("q"))
	if chats == nil {
		chats = []models.Chat{}
	}
	jsonWrite(w, http.StatusOK, chats)
}

func (s *Server) startChat(w http.ResponseWriter, r *http.Request) {
	p, v, ok := parseBody(&s.chatPool, w, r)
	if !ok {
		return
	}
	defer s.chatPool.Put(p)

	userID := string(v.GetStringBytes("user_id"))
	user, found := s.dir.Lookup(userID)
	if !found {
		jsonError(w, http.StatusNotFound, "unknown user")
		return
	}
	// only first contact lands in the known-users registry
	if !s.repo.HasChatWith(user.ID) {
		if err := s.dir.Remember(user); err != nil {
			s.log.Warn("remember_user_failed", zap.String("user", user.ID), zap.Error(err))
		}
	}
	chat, err := s.repo.StartChat(user)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "cannot start chat")
		return
	}
	jsonWrite(w, http.StatusOK, chat)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]
	if err := s.repo.MarkRead(chatID); err != nil {
		jsonError(w, http.StatusInternalServerError, "cannot mark read")
		return
	}
	jsonWrite(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]
	cur, err := s.session.CurrentUser()
	if errors.Is(err, session.ErrNoUser) {
		jsonError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "session read failed")
		return
	}

	p, v, ok := parseBody(&s.messagePool, w, r)
	if !ok {
		return
	}
	defer s.messagePool.Put(p)

	text := string(v.GetStringBytes("text"))
	attachments := parseAttachments(v)
	if text == "" && len(attachments) == 0 {
		jsonError(w, http.StatusBadRequest, "empty message")
		return
	}
	if _, found := s.repo.Chat(chatID); !found {
		jsonError(w, http.StatusNotFound, "unknown chat")
		return
	}
	msg, err := s.driver.Send(cur, chatID, text, attachments)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "send failed")
		return
	}
	jsonWrite(w, http.StatusAccepted, msg)
}

func parseAttachments(v *fastjson.Value) []models.Attachment {
	arr := v.GetArray("attachments")
	if len(arr) == 0 {
		return nil
	}
	out := make([]models.Attachment, 0, len(arr))
	for _, a := range arr {
		out = append(out, models.Attachment{
			ID:       string(a.GetStringBytes("id")),
			Kind:     models.AttachmentKind(a.GetStringBytes("kind")),
			URL:      string(a.GetStringBytes("url")),
			Name:     string(a.GetStringBytes("name")),
			Size:     string(a.GetStringBytes("size")),
			Duration: string(a.GetStringBytes("duration")),
		})
	}
	return out
}

func (s *Server) editMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	p, v, ok := parseBody(&s.editPool, w, r)
	if !ok {
		return
	}
	defer s.editPool.Put(p)

	text := string(v.GetStringBytes("text"))
	if text == "" {
		jsonError(w, http.StatusBadRequest, "text required")
		return
	}
	if err := s.repo.EditMessage(vars["id"], vars["mid"], text); err != nil {
		jsonError(w, http.StatusInternalServerError, "edit failed")
		return
	}
	jsonWrite(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) toggleReaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cur, err := s.session.CurrentUser()
	if errors.Is(err, session.ErrNoUser) {
		jsonError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "session read failed")
		return
	}

	p, v, ok := parseBody(&s.reactionPool, w, r)
	if !ok {
		return
	}
	defer s.reactionPool.Put(p)

	emoji := string(v.GetStringBytes("emoji"))
	if emoji == "" {
		jsonError(w, http.StatusBadRequest, "emoji required")
		return
	}
	if err := s.repo.ToggleReaction(vars["id"], vars["mid"], emoji, cur.ID); err != nil {
		jsonError(w, http.StatusInternalServerError, "reaction failed")
		return
	}
	jsonWrite(w, http.StatusOK, map[string]bool{"ok": true})
}
