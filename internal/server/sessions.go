package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
	"github.com/MeKo-Tech/colorstrip/internal/render"
	"github.com/MeKo-Tech/colorstrip/internal/strip"
	"github.com/google/uuid"
)

// ErrTooManySessions is returned by Create when the store is full.
var ErrTooManySessions = errors.New("too many sessions")

const maxSessionBody = 64 << 10

// Session is one server-side strip driven by events from a client.
type Session struct {
	ID string

	mu        sync.Mutex
	strip     *strip.Strip
	lastSeen  time.Time
	changes   []colormodel.ColorValue
	completes []colormodel.ColorValue
}

// EventResult is what a session reports after handling an event.
type EventResult struct {
	Handled   bool                    `json:"handled"`
	Changes   []colormodel.ColorValue `json:"changes"`
	Completes []colormodel.ColorValue `json:"completes"`
	State     strip.State             `json:"state"`
}

// Dispatch applies ev and returns the values the strip emitted while handling it.
func (s *Session) Dispatch(ev strip.Event) (EventResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.changes, s.completes = nil, nil
	handled, err := s.strip.Dispatch(ev)
	if err != nil {
		return EventResult{}, err
	}

	res := EventResult{
		Handled:   handled,
		Changes:   s.changes,
		Completes: s.completes,
		State:     s.strip.State(),
	}
	if res.Changes == nil {
		res.Changes = []colormodel.ColorValue{}
	}
	if res.Completes == nil {
		res.Completes = []colormodel.ColorValue{}
	}
	return res, nil
}

// State returns the strip's current state.
func (s *Session) State() strip.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strip.State()
}

// Render draws the strip with its pointer at the given device pixel ratio.
func (s *Session) Render(scale float64) ([]byte, error) {
	s.mu.Lock()
	opts, st := render.OptionsFromStrip(s.strip, scale)
	s.mu.Unlock()

	img, err := render.Render(opts, st)
	if err != nil {
		return nil, err
	}
	return render.PNGBytes(img, "speed")
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionStore keeps strip sessions in memory and expires idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// SessionConfig configures a SessionStore.
type SessionConfig struct {
	TTL         time.Duration
	MaxSessions int
}

// NewSessionStore creates an empty store. Call Start to run the janitor.
func NewSessionStore(cfg SessionConfig, logger *slog.Logger) *SessionStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      cfg.TTL,
		max:      cfg.MaxSessions,
		now:      time.Now,
		logger:   logger,
	}
}

// Start runs the janitor until ctx is done or Stop is called.
func (st *SessionStore) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	st.cancel = cancel
	st.done = make(chan struct{})

	interval := st.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}

	go func() {
		defer close(st.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := st.Expire(); n > 0 {
					st.log().Debug("expired idle sessions", "count", n)
				}
			}
		}
	}()
}

// Stop ends the janitor and waits for it to exit.
func (st *SessionStore) Stop() {
	if st.cancel == nil {
		return
	}
	st.cancel()
	<-st.done
}

// Create starts a session for cfg. The strip's callbacks are replaced so
// emitted values can be returned to the client.
func (st *SessionStore) Create(cfg strip.Config) (*Session, error) {
	sess := &Session{ID: uuid.NewString(), lastSeen: st.now()}
	cfg.OnChange = func(c colormodel.ColorValue) { sess.changes = append(sess.changes, c) }
	cfg.OnChangeComplete = func(c colormodel.ColorValue) { sess.completes = append(sess.completes, c) }
	sess.strip = strip.New(cfg)

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.sessions) >= st.max {
		return nil, ErrTooManySessions
	}
	st.sessions[sess.ID] = sess
	return sess, nil
}

// Get returns a live session and marks it as used.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		sess.touch(st.now())
	}
	return sess, ok
}

// Delete removes a session and reports whether it existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Expire removes sessions idle for longer than the TTL and returns how many.
func (st *SessionStore) Expire() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, sess := range st.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Register adds the session endpoints under /api/sessions to mux.
func (st *SessionStore) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", st.handleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", st.withSession(st.handleState))
	mux.HandleFunc("DELETE /api/sessions/{id}", st.handleDelete)
	mux.HandleFunc("POST /api/sessions/{id}/events", st.withSession(st.handleEvent))
	mux.HandleFunc("GET /api/sessions/{id}/strip.png", st.withSession(st.handleStrip))
}

type sessionResponse struct {
	ID    string      `json:"id"`
	State strip.State `json:"state"`
}

func (st *SessionStore) handleCreate(w http.ResponseWriter, r *http.Request) {
	var cfg strip.Config
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSessionBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid strip config: %v", err), st.log())
			return
		}
	}

	sess, err := st.Create(cfg)
	if errors.Is(err, ErrTooManySessions) {
		writeError(w, http.StatusServiceUnavailable, err.Error(), st.log())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), st.log())
		return
	}

	st.log().Debug("session created", "id", sess.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, State: sess.State()}, st.log())
}

func (st *SessionStore) withSession(next func(http.ResponseWriter, *http.Request, *Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := st.Get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "session not found", st.log())
			return
		}
		next(w, r, sess)
	}
}

func (st *SessionStore) handleState(w http.ResponseWriter, r *http.Request, sess *Session) {
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, State: sess.State()}, st.log())
}

func (st *SessionStore) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !st.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found", st.log())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (st *SessionStore) handleEvent(w http.ResponseWriter, r *http.Request, sess *Session) {
	var ev strip.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSessionBody)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid event: %v", err), st.log())
		return
	}

	res, err := sess.Dispatch(ev)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), st.log())
		return
	}
	writeJSON(w, http.StatusOK, res, st.log())
}

func (st *SessionStore) handleStrip(w http.ResponseWriter, r *http.Request, sess *Session) {
	scale := 1.0
	if v := r.URL.Query().Get("scale"); v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil || s <= 0 || s > 4 {
			writeError(w, http.StatusBadRequest, "scale must be in (0, 4]", st.log())
			return
		}
		scale = s
	}

	data, err := sess.Render(scale)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), st.log())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (st *SessionStore) log() *slog.Logger {
	if st.logger != nil {
		return st.logger
	}
	return slog.Default()
}
