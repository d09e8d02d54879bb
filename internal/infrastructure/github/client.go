// Package github looks up a user's public repositories. Best-effort
// passthrough: any upstream failure maps to ErrNotFound, never a 500.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnector/pkg/helpers"
)

// ErrNotFound covers every upstream failure cause: unknown user, rate
// limiting, network trouble. Callers surface it as "no profile found".
var ErrNotFound = errors.New("no github profile found")

const lookupTimeout = 5 * time.Second

// Repo is the subset of the repository listing the API exposes.
type Repo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description,omitempty"`
	Stars       int    `json:"stargazers_count"`
	Watchers    int    `json:"watchers_count"`
	Forks       int    `json:"forks_count"`
}

type Client struct {
	BaseURL  string
	http     *http.Client
	rdb      *redis.Client
	logger   *logrus.Logger
	clientID string
	secret   string
	cacheTTL time.Duration
}

// NewClient builds a lookup client. rdb may be nil; caching is then skipped.
func NewClient(rdb *redis.Client, logger *logrus.Logger, clientID, secret string, cacheTTL time.Duration) *Client {
	return &Client{
		BaseURL:  "https://api.github.com",
		http:     &http.Client{Timeout: lookupTimeout},
		rdb:      rdb,
		logger:   logger,
		clientID: clientID,
		secret:   secret,
		cacheTTL: cacheTTL,
	}
}

func cacheKey(username string) string { return "gh:repos:" + username }

// Repos returns the user's five most recently created public repositories.
// Responses are cached in redis for cacheTTL; cache failures are ignored.
func (c *Client) Repos(ctx context.Context, username string) ([]Repo, error) {
	if c.rdb != nil {
		var cached []Repo
		if ok, err := helpers.RedisGetJSON(ctx, c.rdb, cacheKey(username), &cached); err == nil && ok {
			return cached, nil
		}
	}

	q := url.Values{}
	q.Set("per_page", "5")
	q.Set("sort", "created:asc")
	if c.clientID != "" && c.secret != "" {
		q.Set("client_id", c.clientID)
		q.Set("client_secret", c.secret)
	}
	u := c.BaseURL + "/users/" + url.PathEscape(username) + "/repos?" + q.Encode()

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, ErrNotFound
	}
	req.Header.Set("User-Agent", "devconnector")
	req.Header.Set("Accept", "application/vnd.github+json")

	res, err := c.http.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("username", username).Warn("github lookup failed")
		}
		return nil, ErrNotFound
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, ErrNotFound
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, ErrNotFound
	}
	var repos []Repo
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, ErrNotFound
	}

	if c.rdb != nil {
		if err := helpers.RedisSetJSON(ctx, c.rdb, cacheKey(username), repos, c.cacheTTL); err != nil && c.logger != nil {
			c.logger.WithError(err).Warn("github cache write failed")
		}
	}
	return repos, nil
}
