package stealth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// RobotsChecker caches and checks robots.txt rules per domain.
type RobotsChecker struct {
	rules    map[string]*robotstxt.RobotsData
	expiry   map[string]time.Time
	mu       sync.RWMutex
	fetches  singleflight.Group
	client   *http.Client
	cacheTTL time.Duration
	failTTL  time.Duration
	enabled  bool
}

// NewRobotsChecker creates a new robots.txt checker. client must not route
// through a StealthTransport, or the robots fetch would check itself.
func NewRobotsChecker(client *http.Client, enabled bool) *RobotsChecker {
	return &RobotsChecker{
		rules:    make(map[string]*robotstxt.RobotsData),
		expiry:   make(map[string]time.Time),
		client:   client,
		cacheTTL: 1 * time.Hour,
		failTTL:  5 * time.Minute,
		enabled:  enabled,
	}
}

// IsAllowed checks if the given URL is allowed by robots.txt. An unreachable
// or unparsable robots.txt allows everything.
func (r *RobotsChecker) IsAllowed(ctx context.Context, userAgent string, u *url.URL) bool {
	if !r.enabled {
		return true
	}

	data := r.getRobots(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true
	}
	return data.TestAgent(u.EscapedPath(), userAgent)
}

// getRobots returns the cached rules for origin, fetching them when stale.
// Concurrent callers for one origin share a single fetch, and no lock is
// held while it runs. A failed fetch is remembered as nil (allow all) for
// failTTL so a broken host is not retried on every request.
func (r *RobotsChecker) getRobots(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.RLock()
	data, ok := r.rules[origin]
	exp := r.expiry[origin]
	r.mu.RUnlock()

	if ok && time.Now().Before(exp) {
		return data
	}

	v, _, _ := r.fetches.Do(origin, func() (any, error) {
		data, err := r.fetchRobots(ctx, origin)
		ttl := r.cacheTTL
		if err != nil {
			if ctx.Err() != nil {
				return (*robotstxt.RobotsData)(nil), err
			}
			slog.Debug("robots.txt unavailable, allowing all", "op", "stealth.getRobots", "origin", origin, "error", err)
			data, ttl = nil, r.failTTL
		}

		r.mu.Lock()
		r.rules[origin] = data
		r.expiry[origin] = time.Now().Add(ttl)
		r.mu.Unlock()
		return data, nil
	})
	return v.(*robotstxt.RobotsData)
}

func (r *RobotsChecker) fetchRobots(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
