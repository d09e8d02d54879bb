package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/devconnector/internal/domain/entity"
	"github.com/oksasatya/devconnector/pkg/response"
)

// APIError carries the server's {"errors":[...]} body alongside the status.
type APIError struct {
	Status int
	Errors []response.FieldError
}

func (e *APIError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Msg)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, strings.Join(msgs, "; "))
}

// API is the HTTP client for the server. SetToken attaches the credential to
// every subsequent request; ClearToken detaches it.
type API struct {
	BaseURL string

	mu    sync.Mutex
	token string
	http  *http.Client
}

func NewAPI(baseURL string, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (a *API) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

func (a *API) ClearToken() {
	a.SetToken("")
}

func (a *API) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := a.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode >= 400 {
		return parseAPIError(res.StatusCode, raw)
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// parseAPIError understands both error shapes the server emits: the
// {"errors":[...]} list and the plain {"msg":...} reply.
func parseAPIError(status int, raw []byte) error {
	var eb struct {
		Errors []response.FieldError `json:"errors"`
		Msg    string                `json:"msg"`
	}
	_ = json.Unmarshal(raw, &eb)
	if len(eb.Errors) == 0 {
		msg := eb.Msg
		if msg == "" {
			msg = http.StatusText(status)
		}
		eb.Errors = []response.FieldError{{Msg: msg}}
	}
	return &APIError{Status: status, Errors: eb.Errors}
}

type tokenReply struct {
	Token string `json:"token"`
}

// Register creates an account and returns the issued token. The token is not
// attached; the session decides when to adopt it.
func (a *API) Register(ctx context.Context, name, email, password string) (string, error) {
	var tr tokenReply
	err := a.do(ctx, http.MethodPost, "/api/users", map[string]string{
		"name": name, "email": email, "password": password,
	}, &tr)
	if err != nil {
		return "", err
	}
	return tr.Token, nil
}

func (a *API) Login(ctx context.Context, email, password string) (string, error) {
	var tr tokenReply
	err := a.do(ctx, http.MethodPost, "/api/auth", map[string]string{
		"email": email, "password": password,
	}, &tr)
	if err != nil {
		return "", err
	}
	return tr.Token, nil
}

// CurrentUser resolves the attached token to its identity.
func (a *API) CurrentUser(ctx context.Context) (*entity.User, error) {
	var u entity.User
	if err := a.do(ctx, http.MethodGet, "/api/auth", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// MyProfile fetches the caller's own profile.
func (a *API) MyProfile(ctx context.Context) (*entity.Profile, error) {
	var p entity.Profile
	if err := a.do(ctx, http.MethodGet, "/api/profile/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile creates or merges the caller's profile.
func (a *API) UpsertProfile(ctx context.Context, fields map[string]string) (*entity.Profile, error) {
	var p entity.Profile
	if err := a.do(ctx, http.MethodPost, "/api/profile", fields, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
