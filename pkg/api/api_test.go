package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"luminachat/pkg/ai"
	"luminachat/pkg/directory"
	"luminachat/pkg/lifecycle"
	"luminachat/pkg/models"
	"luminachat/pkg/repo"
	"luminachat/pkg/session"
	"luminachat/pkg/store"
)

type fixture struct {
	srv    *httptest.Server
	repo   *repo.Repository
	driver *lifecycle.Driver
}

func newFixture(t *testing.T, limiter *rate.Limiter) *fixture {
	t.Helper()
	mem := store.NewMemory()
	log := zap.NewNop()

	r := repo.New(mem, repo.DefaultSeed(), log)
	require.NoError(t, r.LoadAll())

	delays := lifecycle.Delays{
		Sent: time.Millisecond, Delivered: time.Millisecond,
		Read: time.Millisecond, AgentRead: time.Millisecond,
	}
	d := lifecycle.New(r, ai.Static{Text: "pong"}, delays, log)
	t.Cleanup(d.Close)

	s := New(r, d, session.New(mem, log), directory.New(mem, log), limiter, log)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, repo: r, driver: d}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (f *fixture) login(t *testing.T) models.User {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/v1/login", map[string]string{"name": "Tester", "email": "t@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user models.User
	decodeInto(t, resp, &user)
	return user
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/healthz", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/metrics", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginAndMe(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodGet, "/v1/me", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	user := f.login(t)
	require.Equal(t, "Tester", user.Name)

	resp = f.do(t, http.MethodGet, "/v1/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.User
	decodeInto(t, resp, &got)
	require.Equal(t, user.ID, got.ID)
}

func TestLoginRequiresEmail(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodPost, "/v1/login", map[string]string{"name": "NoEmail"})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartChatFlow(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	resp := f.do(t, http.MethodPost, "/v1/chats", map[string]string{"user_id": "u1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var chat models.Chat
	decodeInto(t, resp, &chat)
	require.Len(t, chat.Participants, 1)
	require.Equal(t, "u1", chat.Participants[0].ID)
	require.Empty(t, chat.Messages)
	require.Zero(t, chat.UnreadCount)

	// unknown directory user
	resp = f.do(t, http.MethodPost, "/v1/chats", map[string]string{"user_id": "ghost"})
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// the chat list includes the seed chat plus the new one, newest first
	resp = f.do(t, http.MethodGet, "/v1/chats", nil)
	var chats []models.Chat
	decodeInto(t, resp, &chats)
	require.Len(t, chats, 2)
	require.Equal(t, chat.ID, chats[0].ID)
}

func TestSendMessageFlow(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	resp := f.do(t, http.MethodPost, "/v1/chats", map[string]string{"user_id": "u1"})
	var chat models.Chat
	decodeInto(t, resp, &chat)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/v1/chats/%s/messages", chat.ID),
		map[string]interface{}{
			"text": "hello",
			"attachments": []map[string]string{
				{"id": "a1", "kind": "image", "url": "data:image/png;base64,AA", "name": "x.png"},
			},
		})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var msg models.Message
	decodeInto(t, resp, &msg)
	require.Equal(t, models.StatusSending, msg.Status)
	require.Len(t, msg.Attachments, 1)
	require.Equal(t, models.AttachmentImage, msg.Attachments[0].Kind)

	f.driver.Wait()
	got, ok := f.repo.Chat(chat.ID)
	require.True(t, ok)
	require.Len(t, got.Messages, 1)
	require.Equal(t, models.StatusRead, got.Messages[0].Status)
}

func TestSendEmptyMessageRejected(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	resp := f.do(t, http.MethodPost, "/v1/chats", map[string]string{"user_id": "u1"})
	var chat models.Chat
	decodeInto(t, resp, &chat)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/v1/chats/%s/messages", chat.ID), map[string]string{"text": ""})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendRequiresLogin(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodPost, "/v1/chats/c_welcome/messages", map[string]string{"text": "hi"})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReactAndEdit(t *testing.T) {
	f := newFixture(t, nil)
	user := f.login(t)

	resp := f.do(t, http.MethodPost, "/v1/chats", map[string]string{"user_id": "u1"})
	var chat models.Chat
	decodeInto(t, resp, &chat)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/v1/chats/%s/messages", chat.ID), map[string]string{"text": "original"})
	var msg models.Message
	decodeInto(t, resp, &msg)
	f.driver.Wait()

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/v1/chats/%s/messages/%s/reactions", chat.ID, msg.ID), map[string]string{"emoji": "🔥"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, _ := f.repo.Chat(chat.ID)
	require.True(t, got.Messages[0].HasReaction("🔥", user.ID))

	resp = f.do(t, http.MethodPatch, fmt.Sprintf("/v1/chats/%s/messages/%s", chat.ID, msg.ID), map[string]string{"text": "edited"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, _ = f.repo.Chat(chat.ID)
	require.Equal(t, "edited", got.Messages[0].Text)
	require.True(t, got.Messages[0].Edited)
}

func TestUserSearch(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	resp := f.do(t, http.MethodGet, "/v1/users/search?q=анна", nil)
	var users []models.User
	decodeInto(t, resp, &users)
	require.Len(t, users, 1)
	require.Equal(t, "u1", users[0].ID)

	// once a chat exists the user drops out of search results
	resp = f.do(t, http.MethodPost, "/v1/chats", map[string]string{"user_id": "u1"})
	resp.Body.Close()
	resp = f.do(t, http.MethodGet, "/v1/users/search?q=анна", nil)
	decodeInto(t, resp, &users)
	require.Empty(t, users)
}

func TestThemeEndpoint(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodPut, "/v1/theme", map[string]string{"theme": "light"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/v1/theme", nil)
	var got map[string]string
	decodeInto(t, resp, &got)
	require.Equal(t, "light", got["theme"])

	resp = f.do(t, http.MethodPut, "/v1/theme", map[string]string{"theme": "sparkly"})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimitExhausted(t *testing.T) {
	f := newFixture(t, rate.NewLimiter(rate.Limit(0.001), 1))

	resp := f.do(t, http.MethodGet, "/healthz", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/healthz", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
