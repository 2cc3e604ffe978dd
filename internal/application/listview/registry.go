package listview

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default registry limits.
const (
	DefaultPageTTL  = 30 * time.Minute
	DefaultMaxPages = 256
)

// Registry tracks live page activations by id.
// Pages idle beyond the TTL, or the oldest pages once MaxPages is reached,
// are torn down.
type Registry[T Record] struct {
	mu    sync.Mutex
	pages map[string]*Page[T]
	name  NameFunc[T]
	ttl   time.Duration
	max   int

	now   func() time.Time
	newID func() string
}

// NewRegistry creates a registry whose pages search with name.
// Non-positive ttl or max use the defaults.
func NewRegistry[T Record](name NameFunc[T], ttl time.Duration, max int) *Registry[T] {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	if max <= 0 {
		max = DefaultMaxPages
	}
	return &Registry[T]{
		pages: make(map[string]*Page[T]),
		name:  name,
		ttl:   ttl,
		max:   max,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Activate starts a new page activation.
// POST: returned page is registered, idle and not yet loaded
func (r *Registry[T]) Activate() *Page[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweepLocked(now)
	for len(r.pages) >= r.max {
		r.evictOldestLocked()
	}
	p := NewPage(r.newID(), r.name)
	p.touch(now)
	r.pages[p.id] = p
	return p
}

// Get returns the live page with the given id and marks it as used.
func (r *Registry[T]) Get(id string) (*Page[T], bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweepLocked(now)
	p, ok := r.pages[id]
	if !ok {
		return nil, false
	}
	p.touch(now)
	return p, true
}

// Resolve returns the live page for id, or activates a new one.
// The boolean is true when a new page was activated.
func (r *Registry[T]) Resolve(id string) (*Page[T], bool) {
	if p, ok := r.Get(id); ok {
		return p, false
	}
	return r.Activate(), true
}

// Remove tears down and forgets the page with the given id.
func (r *Registry[T]) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pages[id]; ok {
		p.Teardown()
		delete(r.pages, id)
	}
}

// Len returns the number of live pages.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

func (r *Registry[T]) sweepLocked(now time.Time) {
	for id, p := range r.pages {
		if now.Sub(p.idleSince()) > r.ttl {
			p.Teardown()
			delete(r.pages, id)
		}
	}
}

func (r *Registry[T]) evictOldestLocked() {
	if len(r.pages) == 0 {
		return
	}
	type aged struct {
		id   string
		seen time.Time
	}
	list := make([]aged, 0, len(r.pages))
	for id, p := range r.pages {
		list = append(list, aged{id, p.idleSince()})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seen.Before(list[j].seen) })
	oldest := list[0].id
	r.pages[oldest].Teardown()
	delete(r.pages, oldest)
}
