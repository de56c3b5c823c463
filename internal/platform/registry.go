package platform

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnsupported is returned for platforms with no registered crawler.
var ErrUnsupported = errors.New("unsupported platform")

// Registry maps platform names (as used in the brands catalog) to crawlers.
type Registry struct {
	mu       sync.RWMutex
	crawlers map[string]Crawler
}

func NewRegistry() *Registry {
	return &Registry{crawlers: make(map[string]Crawler)}
}

func (r *Registry) Register(name string, c Crawler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crawlers[name] = c
}

func (r *Registry) Get(name string) (Crawler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.crawlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
	return c, nil
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.crawlers))
	for name := range r.crawlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
