// Package controllertest provides an in-process fake controller for tests.
//
// The fake serves the subset of the controller REST API that alarm-ack uses
// and records what it was asked: query page sizes, submitted events, logouts
// and request ids.
package controllertest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/oshokin/alarm-ack/internal/config"
	"github.com/oshokin/alarm-ack/internal/controller"
	"github.com/oshokin/alarm-ack/internal/domain/event"
)

const (
	// DefaultTenantID is the tenant returned by the fake profile endpoint.
	DefaultTenantID = "1234567890"
	// DefaultTenantName is the tenant display name.
	DefaultTenantName = "Acme Networks"

	sessionCookie = "AUTH_TOKEN"
)

// Server is a fake controller backed by httptest.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	tenantID   string
	tenantName string
	tokens     map[string]struct{}
	users      map[string]string
	sessions   map[string]struct{}
	events     []event.Event

	failQueryAt  int
	failTenant   bool
	failUpdates  bool
	failLogout   bool
	emptyProfile bool
	tls          bool

	queries       []int
	updates       []event.Event
	rawUpdates    []string
	logouts       int
	loginAttempts int
	requestIDs    []string
}

// Option configures the fake.
type Option func(*Server)

// WithToken registers a valid API token.
func WithToken(token string) Option {
	return func(s *Server) {
		s.tokens[token] = struct{}{}
	}
}

// WithUser registers credentials accepted by the login endpoint.
func WithUser(email, password string) Option {
	return func(s *Server) {
		s.users[email] = password
	}
}

// WithAlarms seeds n unacknowledged alarm events.
func WithAlarms(n int) Option {
	return func(s *Server) {
		s.events = append(s.events, Alarms(n)...)
	}
}

// WithFailingQuery makes the n-th event query (1-based) fail with 500.
func WithFailingQuery(n int) Option {
	return func(s *Server) {
		s.failQueryAt = n
	}
}

// WithFailingTenant makes tenant lookup fail with 500.
func WithFailingTenant() Option {
	return func(s *Server) {
		s.failTenant = true
	}
}

// WithFailingUpdates makes every event update fail with 500.
func WithFailingUpdates() Option {
	return func(s *Server) {
		s.failUpdates = true
	}
}

// WithFailingLogout makes the logout endpoint fail with 500.
func WithFailingLogout() Option {
	return func(s *Server) {
		s.failLogout = true
	}
}

// WithEmptyProfile makes the profile endpoint answer 200 without a tenant id.
func WithEmptyProfile() Option {
	return func(s *Server) {
		s.emptyProfile = true
	}
}

// WithTLS serves over HTTPS with a self-signed certificate.
// Clients need the transport of Server.Client to trust it.
func WithTLS() Option {
	return func(s *Server) {
		s.tls = true
	}
}

// NewServer starts a fake controller and closes it when the test ends.
func NewServer(t *testing.T, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		tenantID:   DefaultTenantID,
		tenantName: DefaultTenantName,
		tokens:     make(map[string]struct{}),
		users:      make(map[string]string),
		sessions:   make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	api := config.DefaultAPIVersions()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /"+api.Login+"/api/login", s.handleLogin)
	mux.HandleFunc("GET /"+api.Profile+"/api/profile", s.authorized(s.handleProfile))
	mux.HandleFunc("GET /"+api.Tenants+"/api/tenants/{tenant_id}", s.authorized(s.handleTenant))
	mux.HandleFunc("POST /"+api.EventsQuery+"/api/tenants/{tenant_id}/events/query", s.authorized(s.handleQuery))
	mux.HandleFunc("PUT /"+api.Events+"/api/tenants/{tenant_id}/events/{event_id}", s.authorized(s.handleUpdate))
	mux.HandleFunc("GET /"+api.Logout+"/api/logout", s.handleLogout)

	if s.tls {
		s.Server = httptest.NewTLSServer(mux)
	} else {
		s.Server = httptest.NewServer(mux)
	}
	t.Cleanup(s.Close)

	return s
}

// Alarms builds n unacknowledged alarm events, newest first.
func Alarms(n int) []event.Event {
	events := make([]event.Event, 0, n)
	for i := range n {
		events = append(events, event.Event{
			"id":           fmt.Sprintf("17%017d", n-i),
			"acknowledged": false,
			"suppressed":   false,
			"type":         "alarm",
			"code":         "DEVICEHW_INTERFACE_DOWN",
			"severity":     "major",
			"element_id":   "15000000000000000001",
		})
	}

	return events
}

// Queries returns the page sizes of every event query received.
func (s *Server) Queries() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.queries)
}

// Updates returns every event body submitted through the update endpoint.
func (s *Server) Updates() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.updates)
}

// RawUpdates returns the undecoded body of every event update.
func (s *Server) RawUpdates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.rawUpdates)
}

// Logouts returns how many times logout was called.
func (s *Server) Logouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.logouts
}

// LoginAttempts returns how many times login was called.
func (s *Server) LoginAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loginAttempts
}

// Unacknowledged returns how many seeded events are still unacknowledged.
func (s *Server) Unacknowledged() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending())
}

// RequestIDs returns the request id header of every request received.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.requestIDs)
}

// AddAlarms seeds more events while the server is running.
func (s *Server) AddAlarms(events ...event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, events...)
}

// authorized rejects requests without a known token or session cookie.
func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requestIDs = append(s.requestIDs, r.Header.Get(controller.HeaderRequestID))
		ok := s.isAuthenticated(r)
		s.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"_error": []map[string]string{{"code": "UNAUTHORIZED", "message": "Invalid token"}},
			})

			return
		}

		next(w, r)
	}
}

// isAuthenticated must be called with mu held.
func (s *Server) isAuthenticated(r *http.Request) bool {
	if _, ok := s.tokens[r.Header.Get(controller.HeaderAuthToken)]; ok {
		return true
	}

	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}

	_, ok := s.sessions[cookie.Value]

	return ok
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := decode(r.Body, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loginAttempts++

	password, ok := s.users[body.Email]
	if !ok || password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"_error": []map[string]string{{"code": "LOGIN_FAILED", "message": "Invalid credentials"}},
		})

		return
	}

	session := "session-" + strconv.Itoa(s.loginAttempts)
	s.sessions[session] = struct{}{}

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: session, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]any{"api_endpoint": s.URL})
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenantID := s.tenantID
	if s.emptyProfile {
		tenantID = ""
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant_id": tenantID,
		"email":     "operator@example.com",
	})
}

func (s *Server) handleTenant(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failTenant || r.PathValue("tenant_id") != s.tenantID {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "tenant lookup failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": s.tenantID, "name": s.tenantName})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var query event.Query
	if err := decode(r.Body, &query); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, query.Limit.Count)

	if s.failQueryAt == len(s.queries) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}

	pending := s.pending()
	count := min(max(query.Limit.Count, 0), len(pending))

	writeJSON(w, http.StatusOK, map[string]any{
		"total_count": len(pending),
		"items":       pending[:count],
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var ev event.Event
	if err = decode(bytes.NewReader(raw), &ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates = append(s.updates, ev)
	s.rawUpdates = append(s.rawUpdates, string(raw))

	if s.failUpdates {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "update failed"})
		return
	}

	id := r.PathValue("event_id")
	for i, stored := range s.events {
		if stored.ID() == id {
			s.events[i] = ev
			writeJSON(w, http.StatusOK, ev)

			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logouts++

	if s.failLogout {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "logout failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{})
}

// pending must be called with mu held.
func (s *Server) pending() []event.Event {
	var result []event.Event

	for _, ev := range s.events {
		if !ev.IsAcknowledged() {
			result = append(result, ev)
		}
	}

	return result
}

func decode(body io.Reader, v any) error {
	return event.Codec.NewDecoder(body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = event.Codec.NewEncoder(w).Encode(v)
}
