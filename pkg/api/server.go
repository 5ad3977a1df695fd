// Package api is the HTTP hosting shell over the chat core: a JSON
// surface for the session, chats, messages and preferences.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"luminachat/pkg/directory"
	"luminachat/pkg/lifecycle"
	"luminachat/pkg/repo"
	"luminachat/pkg/session"
)

// Server bundles the core components behind the HTTP surface.
type Server struct {
	log     *zap.Logger
	repo    *repo.Repository
	driver  *lifecycle.Driver
	session *session.Session
	dir     *directory.Directory

	limiter *rate.Limiter

	// fastjson pools, one per body shape
	loginPool    fastjson.ParserPool
	chatPool     fastjson.ParserPool
	messagePool  fastjson.ParserPool
	reactionPool fastjson.ParserPool
	editPool     fastjson.ParserPool
	prefPool     fastjson.ParserPool
}

// New builds the API server over the given components.
func New(r *repo.Repository, d *lifecycle.Driver, s *session.Session, dir *directory.Directory, limiter *rate.Limiter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Server{log: log, repo: r, driver: d, session: s, dir: dir, limiter: limiter}
}

// Router returns the configured mux router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogging(s.log))
	r.Use(rateLimit(s.limiter))

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/login", s.login).Methods(http.MethodPost)
	v1.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	v1.HandleFunc("/me", s.me).Methods(http.MethodGet)
	v1.HandleFunc("/me", s.updateProfile).Methods(http.MethodPut)
	v1.HandleFunc("/theme", s.getTheme).Methods(http.MethodGet)
	v1.HandleFunc("/theme", s.setTheme).Methods(http.MethodPut)
	v1.HandleFunc("/welcome", s.getWelcome).Methods(http.MethodGet)
	v1.HandleFunc("/welcome", s.markWelcome).Methods(http.MethodPost)

	v1.HandleFunc("/users/search", s.searchUsers).Methods(http.MethodGet)

	v1.HandleFunc("/chats", s.listChats).Methods(http.MethodGet)
	v1.HandleFunc("/chats", s.startChat).Methods(http.MethodPost)
	v1.HandleFunc("/chats/{id}/read", s.markRead).Methods(http.MethodPost)
	v1.HandleFunc("/chats/{id}/messages", s.sendMessage).Methods(http.MethodPost)
	v1.HandleFunc("/chats/{id}/messages/{mid}", s.editMessage).Methods(http.MethodPatch)
	v1.HandleFunc("/chats/{id}/messages/{mid}/reactions", s.toggleReaction).Methods(http.MethodPost)

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	jsonWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}
