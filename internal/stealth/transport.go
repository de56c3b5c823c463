package stealth

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// StealthTransport is an http.RoundTripper that applies the request pipeline:
// Fingerprint → RobotsCheck → InFlight slot → RateLimiter → HumanDelay → Proxy → Send.
// The in-flight slot is held until the response body is closed.
type StealthTransport struct {
	Base        http.RoundTripper
	Robots      *RobotsChecker
	Fingerprint *FingerprintPool
	Proxy       *ProxyRotator
	Delay       *HumanDelay
	RateLimiter *rate.Limiter
	InFlight    *semaphore.Weighted
}

// ErrDisallowed is returned for URLs excluded by robots.txt.
type ErrDisallowed struct{ URL string }

func (e *ErrDisallowed) Error() string { return "blocked by robots.txt: " + e.URL }

// Permanent tells retry loops not to repeat the request.
func (e *ErrDisallowed) Permanent() bool { return true }

func (t *StealthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req = req.Clone(ctx)

	if t.Fingerprint != nil {
		fp := t.Fingerprint.Next()
		req.Header.Set("User-Agent", fp.UserAgent)
		for key, vals := range fp.Headers {
			if req.Header.Get(key) == "" {
				for _, v := range vals {
					req.Header.Add(key, v)
				}
			}
		}
	}

	if t.Robots != nil && !t.Robots.IsAllowed(ctx, req.Header.Get("User-Agent"), req.URL) {
		return nil, &ErrDisallowed{URL: req.URL.String()}
	}

	if t.InFlight != nil {
		if err := t.InFlight.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("in-flight slot: %w", err)
		}
	}
	release := func() {
		if t.InFlight != nil {
			t.InFlight.Release(1)
		}
	}

	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(ctx); err != nil {
			release()
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	if t.Delay != nil {
		if err := t.Delay.Wait(ctx, req.URL.Host); err != nil {
			release()
			return nil, fmt.Errorf("delay: %w", err)
		}
	}

	transport := t.Base
	if t.Proxy != nil {
		transport = t.Proxy.Next().Transport()
	}
	if transport == nil {
		transport = http.DefaultTransport
	}

	resp, err := transport.RoundTrip(req)
	if err != nil {
		release()
		return nil, err
	}
	resp.Body = &releasingBody{ReadCloser: resp.Body, release: release}
	return resp, nil
}

type releasingBody struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}
