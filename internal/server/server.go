// Package server exposes the assistant over HTTP. Sessions are created
// explicitly and addressed by id; every other route operates on one
// session's wizard state.
package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"smartstore-assistant/internal/common/config"
	"smartstore-assistant/internal/common/errors"
	"smartstore-assistant/internal/common/logger"
	"smartstore-assistant/internal/gateway"
	"smartstore-assistant/internal/history"
	"smartstore-assistant/internal/store"
	"smartstore-assistant/internal/wizard"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// sessionManager tracks live wizard sessions by id.
type sessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*wizard.Session
}

func newSessionManager() *sessionManager {
	return &sessionManager{sessions: make(map[string]*wizard.Session)}
}

func (m *sessionManager) create(sess *wizard.Session) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return id
}

func (m *sessionManager) get(id string) (*wizard.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Server wires the wizard to HTTP routes.
type Server struct {
	cfg      config.Config
	store    *store.Store
	gw       *gateway.Gateway
	sessions *sessionManager
	log      logger.Logger
}

func New(cfg config.Config, st *store.Store, gw *gateway.Gateway, log logger.Logger) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		gw:       gw,
		sessions: newSessionManager(),
		log:      log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}/step", s.withSession(s.handleGetStep))
	mux.HandleFunc("POST /api/sessions/{id}/step", s.withSession(s.handleSetStep))
	mux.HandleFunc("POST /api/sessions/{id}/restart", s.withSession(s.handleRestart))

	mux.HandleFunc("GET /api/sessions/{id}/checklist", s.withSession(s.handleGetChecklist))
	mux.HandleFunc("POST /api/sessions/{id}/checklist/{itemId}/toggle", s.withSession(s.handleToggleChecklist))

	mux.HandleFunc("GET /api/sessions/{id}/form", s.withSession(s.handleGetForm))
	mux.HandleFunc("PUT /api/sessions/{id}/form/{field}", s.withSession(s.handleSetField))
	mux.HandleFunc("POST /api/sessions/{id}/verify", s.withSession(s.handleVerify))
	mux.HandleFunc("POST /api/sessions/{id}/confirm-new", s.withSession(s.handleConfirmNew))
	mux.HandleFunc("POST /api/sessions/{id}/submit", s.withSession(s.handleSubmit))

	mux.HandleFunc("POST /api/sessions/{id}/history/search", s.withSession(s.handleHistorySearch))
	mux.HandleFunc("POST /api/sessions/{id}/history/branch-password", s.withSession(s.handleRegisterBranchPassword))

	mux.HandleFunc("GET /api/snapshot/branches", s.handleBranches)

	return s.logging(mux)
}

// logging is the access-log middleware.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		})
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *wizard.Session)

func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		sess, ok := s.sessions.get(id)
		if !ok {
			s.writeError(w, errors.NewSessionNotFoundError(id))
			return
		}
		next(w, r, sess)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.cfg.App.Version,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := wizard.NewSession(s.store, s.gw, s.cfg.Sync, s.log)
	id := s.sessions.create(sess)
	s.log.Info("session created", map[string]interface{}{"sessionId": id})
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId": id,
		"step":      sess.Step(),
	})
}

func (s *Server) handleGetStep(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"step": sess.Step()})
}

func (s *Server) handleSetStep(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	var req struct {
		Step string `json:"step"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if err := sess.GoTo(wizard.Step(req.Step)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"step": sess.Step()})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	if err := sess.Restart(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"step": sess.Step()})
}

func (s *Server) handleGetChecklist(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    sess.ChecklistItems(),
		"complete": sess.ChecklistComplete(),
	})
}

func (s *Server) handleToggleChecklist(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	items, known := sess.ToggleChecklist(r.PathValue("itemId"))
	if !known {
		s.writeError(w, errors.NewValidationError("unknown checklist item: "+r.PathValue("itemId")))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"complete": sess.ChecklistComplete(),
	})
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"form":               sess.Form(),
		"verificationStatus": sess.VerificationStatus(),
	})
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	var req struct {
		Value string `json:"value"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	value, err := sess.SetField(r.PathValue("field"), req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"value":              value,
		"verificationStatus": sess.VerificationStatus(),
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	outcome, err := sess.VerifyIdentity()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome":            outcome,
		"verificationStatus": sess.VerificationStatus(),
	})
}

func (s *Server) handleConfirmNew(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	sess.ConfirmNewSalesperson()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"verificationStatus": sess.VerificationStatus(),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	record, err := sess.Submit(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"record": record})
}

// handleHistorySearch applies all search parameters in one call,
// authenticates the scope, and returns the requested page. Note that the
// person scope authenticates silently: a wrong password comes back as an
// empty page, never as a 401.
func (s *Server) handleHistorySearch(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	var req struct {
		Scope    string `json:"scope"`
		Branch   string `json:"branch"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Page     int    `json:"page"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}

	sess.SetSearchScope(history.Scope(req.Scope))
	sess.SetSearchBranch(req.Branch)
	sess.SetSearchName(req.Name)
	sess.SetSearchPassword(req.Password)
	if req.Page > 0 {
		sess.SetSearchPage(req.Page)
	}

	if err := sess.AuthenticateSearch(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.SearchResults())
}

func (s *Server) handleRegisterBranchPassword(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	var req struct {
		Password string `json:"password"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if err := sess.RegisterBranchPassword(r.Context(), req.Password); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "registration sent"})
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	snap := s.gw.Snapshot()
	branches := snap.Branches
	if branches == nil {
		branches = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"branches": branches})
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		s.writeError(w, errors.NewValidationError("malformed request body"))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("response encode failed", nil)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. The body always
// carries the structured error so clients can branch on the code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrCodeValidationFailed, errors.ErrCodePasswordTooShort:
		status = http.StatusBadRequest
	case errors.ErrCodeAuthenticationFailed:
		status = http.StatusUnauthorized
	case errors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeRegistrationRequired,
		errors.ErrCodeIdentityUnverified,
		errors.ErrCodeChecklistIncomplete:
		status = http.StatusConflict
	case errors.ErrCodeSubmitInFlight:
		status = http.StatusTooManyRequests
	case errors.ErrCodeRemoteCallFailed, errors.ErrCodeSnapshotFetchFailed:
		status = http.StatusBadGateway
	}

	var std *errors.StandardError
	if !stderrors.As(err, &std) {
		std = &errors.StandardError{
			Code:      "INTERNAL",
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		}
	}
	s.writeJSON(w, status, map[string]interface{}{"error": std})
}

// Addr returns the configured listen address, defaulting to :8080.
func (s *Server) Addr() string {
	addr := strings.TrimSpace(s.cfg.Server.Address)
	if addr == "" {
		addr = ":8080"
	}
	return addr
}
