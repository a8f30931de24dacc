package preview

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	Scheme = "preview://"

	DefaultTTL = 15 * time.Minute
)

type resource struct {
	data      []byte
	mimeType  string
	expiresAt time.Time
}

// Registry holds renderable bytes behind preview:// URLs until they are
// revoked or outlive the TTL. Expired entries are dropped on the next Create.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]resource
	ttl       time.Duration
	now       func() time.Time
}

// NewRegistry returns a registry whose entries live at most ttl; ttl <= 0 means DefaultTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Registry{
		resources: make(map[string]resource),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (r *Registry) Create(data []byte, mimeType string) string {
	id := uuid.NewString()
	now := r.now()

	r.mu.Lock()
	r.pruneLocked(now)
	r.resources[id] = resource{
		data:      append([]byte(nil), data...),
		mimeType:  mimeType,
		expiresAt: now.Add(r.ttl),
	}
	r.mu.Unlock()

	return Scheme + id
}

// Open accepts either the full URL or the bare id.
func (r *Registry) Open(url string) ([]byte, string, bool) {
	r.mu.RLock()
	res, ok := r.resources[strings.TrimPrefix(url, Scheme)]
	r.mu.RUnlock()

	if !ok || !r.now().Before(res.expiresAt) {
		return nil, "", false
	}

	return res.data, res.mimeType, true
}

func (r *Registry) Revoke(url string) {
	r.mu.Lock()
	delete(r.resources, strings.TrimPrefix(url, Scheme))
	r.mu.Unlock()
}

// Prune drops every expired entry and reports how many were removed.
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.pruneLocked(r.now())
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.resources)
}

func (r *Registry) pruneLocked(now time.Time) int {
	n := 0
	for id, res := range r.resources {
		if !now.Before(res.expiresAt) {
			delete(r.resources, id)
			n++
		}
	}

	return n
}
