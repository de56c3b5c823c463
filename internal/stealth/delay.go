package stealth

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// DelayProfile names a per-host download delay.
type DelayProfile string

const (
	ProfileCautious   DelayProfile = "cautious"
	ProfileNormal     DelayProfile = "normal"
	ProfileAggressive DelayProfile = "aggressive"
)

var profileDelays = map[DelayProfile]time.Duration{
	ProfileCautious:   2 * time.Second,
	ProfileNormal:     500 * time.Millisecond,
	ProfileAggressive: 100 * time.Millisecond,
}

// HumanDelay spaces consecutive requests to the same host by a randomized
// gap between half and one and a half times Base. Different hosts do not
// wait on each other.
type HumanDelay struct {
	Base time.Duration

	mu   sync.Mutex
	next map[string]time.Time
}

// NewHumanDelay returns the delay for profile; unknown profiles get normal.
func NewHumanDelay(profile DelayProfile) *HumanDelay {
	base, ok := profileDelays[profile]
	if !ok {
		base = profileDelays[ProfileNormal]
	}
	return &HumanDelay{Base: base, next: make(map[string]time.Time)}
}

// Wait blocks until host's slot opens and books the following one.
func (h *HumanDelay) Wait(ctx context.Context, host string) error {
	h.mu.Lock()
	now := time.Now()
	at := h.next[host]
	if at.Before(now) {
		at = now
	}
	h.next[host] = at.Add(h.RequestDelay())
	h.mu.Unlock()

	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestDelay draws one gap in [Base/2, 3*Base/2).
func (h *HumanDelay) RequestDelay() time.Duration {
	lo, hi := h.Base/2, h.Base*3/2
	if lo >= hi {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)))
}
