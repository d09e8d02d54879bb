package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oksasatya/devconnector/internal/domain/entity"
)

// Status is the session lifecycle position.
type Status int

const (
	StatusIdle Status = iota
	StatusResolving
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusResolving:
		return "resolving"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Alert is a user-facing notice produced by a failed login or registration.
type Alert struct {
	Msg      string
	Severity string
}

// State is the session snapshot handed to callers.
type State struct {
	Status   Status
	Identity *entity.User
	Alerts   []Alert
}

// event is the closed set of things that can happen to a session.
type event interface{ isEvent() }

type evResolveStart struct{}
type evResolved struct{ user *entity.User }
type evResolveFailed struct{}
type evAuthenticated struct{ user *entity.User }
type evAuthFailed struct{ alerts []Alert }
type evLoggedOut struct{}

func (evResolveStart) isEvent()  {}
func (evResolved) isEvent()      {}
func (evResolveFailed) isEvent() {}
func (evAuthenticated) isEvent() {}
func (evAuthFailed) isEvent()    {}
func (evLoggedOut) isEvent()     {}

// reduce maps an event onto the current state. The switch is exhaustive over
// the event set; anything else is a programming error, not a fallthrough.
func reduce(s State, ev event) (State, error) {
	switch e := ev.(type) {
	case evResolveStart:
		s.Status = StatusResolving
		return s, nil
	case evResolved:
		s.Status = StatusAuthenticated
		s.Identity = e.user
		return s, nil
	case evResolveFailed:
		s.Status = StatusUnauthenticated
		s.Identity = nil
		return s, nil
	case evAuthenticated:
		s.Status = StatusAuthenticated
		s.Identity = e.user
		s.Alerts = nil
		return s, nil
	case evAuthFailed:
		s.Status = StatusUnauthenticated
		s.Identity = nil
		s.Alerts = append(s.Alerts, e.alerts...)
		return s, nil
	case evLoggedOut:
		s.Status = StatusUnauthenticated
		s.Identity = nil
		return s, nil
	default:
		return s, fmt.Errorf("unknown session event %T", ev)
	}
}

// Session drives the auth lifecycle against the API and keeps the stored
// token consistent with the state: after any terminal transition, a token is
// stored if and only if the session is authenticated.
type Session struct {
	api   *API
	store Storage

	mu        sync.Mutex
	state     State
	resolving bool
}

func NewSession(api *API, store Storage) *Session {
	return &Session{api: api, store: store, state: State{Status: StatusIdle}}
}

// State returns a copy of the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Alerts = append([]Alert(nil), s.state.Alerts...)
	return st
}

func (s *Session) dispatch(ev event) error {
	next, err := reduce(s.state, ev)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Boot restores a previous session. With no stored token it settles on
// Unauthenticated immediately; otherwise it attaches the token and resolves
// it against the server.
func (s *Session) Boot(ctx context.Context) error {
	tok, err := s.store.Load()
	if err != nil || tok == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.dispatch(evLoggedOut{})
	}

	s.api.SetToken(tok)
	s.mu.Lock()
	if err := s.dispatch(evResolveStart{}); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	return s.Resolve(ctx)
}

// Resolve checks the attached token against the server. Any failure, be it a
// rejection, a timeout or a transport error, logs the session out: an
// ambiguous token is treated as no token. Concurrent calls coalesce; only
// one resolve is in flight at a time.
func (s *Session) Resolve(ctx context.Context) error {
	s.mu.Lock()
	if s.resolving {
		s.mu.Unlock()
		return nil
	}
	s.resolving = true
	s.mu.Unlock()

	u, err := s.api.CurrentUser(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolving = false
	if err != nil {
		_ = s.store.Clear()
		s.api.ClearToken()
		return s.dispatch(evResolveFailed{})
	}
	return s.dispatch(evResolved{user: u})
}

// Login exchanges credentials for a session. On failure nothing is persisted
// and the server's field errors become alerts.
func (s *Session) Login(ctx context.Context, email, password string) error {
	tok, err := s.api.Login(ctx, email, password)
	if err != nil {
		return s.authFailed(err)
	}
	return s.adoptToken(ctx, tok)
}

// Register signs up and flows straight into an authenticated session.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	tok, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		return s.authFailed(err)
	}
	return s.adoptToken(ctx, tok)
}

// Logout drops the token everywhere.
func (s *Session) Logout() error {
	_ = s.store.Clear()
	s.api.ClearToken()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(evLoggedOut{})
}

func (s *Session) adoptToken(ctx context.Context, tok string) error {
	s.api.SetToken(tok)
	u, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.api.ClearToken()
		return s.authFailed(err)
	}
	if err := s.store.Save(tok); err != nil {
		s.api.ClearToken()
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(evAuthenticated{user: u})
}

func (s *Session) authFailed(cause error) error {
	alerts := alertsFrom(cause)
	s.mu.Lock()
	if err := s.dispatch(evAuthFailed{alerts: alerts}); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return cause
}

func alertsFrom(err error) []Alert {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		out := make([]Alert, 0, len(apiErr.Errors))
		for _, fe := range apiErr.Errors {
			out = append(out, Alert{Msg: fe.Msg, Severity: "danger"})
		}
		return out
	}
	return []Alert{{Msg: "Could not reach the server", Severity: "danger"}}
}
