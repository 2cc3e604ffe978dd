package listview

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Record is any list item with a stable identity.
type Record interface {
	Key() string
}

// NameFunc returns the searchable subject name of a record.
// The boolean is false when the name is absent.
type NameFunc[T any] func(T) (string, bool)

// Fetcher loads the full list for a page.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Filter returns the records whose subject name contains query,
// case-insensitively. An empty query returns items unchanged.
// PRE: name is non-nil
// POST: result preserves input order; records without a name never match a non-empty query
// INVARIANT: items is not mutated
func Filter[T any](items []T, query string, name NameFunc[T]) []T {
	if query == "" {
		return items
	}
	needle := strings.ToLower(query)
	out := make([]T, 0, len(items))
	for _, it := range items {
		n, ok := name(it)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(n), needle) {
			out = append(out, it)
		}
	}
	return out
}

// Page is the state of one list-detail page activation: the loaded list,
// the current search text and the record bound to the detail modal.
type Page[T Record] struct {
	id   string
	name NameFunc[T]

	once sync.Once

	mu       sync.Mutex
	items    []T
	loaded   bool
	loadErr  error
	torn     bool
	query    string
	selected *T
	visible  bool
	lastUsed time.Time
}

// NewPage creates an idle page with an empty list.
func NewPage[T Record](id string, name NameFunc[T]) *Page[T] {
	return &Page[T]{id: id, name: name, lastUsed: time.Now()}
}

// ID returns the page instance identifier.
func (p *Page[T]) ID() string {
	return p.id
}

// Load runs fetch exactly once for this page. Later calls return the
// outcome of the first one without fetching again.
// A failed fetch is logged and leaves the list empty. If the page was torn
// down while the fetch was in flight, the result is discarded.
// PRE: fetch is non-nil
// POST: page is loaded (possibly empty); returns the fetch error, if any
func (p *Page[T]) Load(ctx context.Context, fetch Fetcher[T]) error {
	p.once.Do(func() {
		items, err := fetch(ctx)

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.torn {
			slog.Debug("list_fetch_discarded", "page", p.id)
			return
		}
		p.loaded = true
		if err != nil {
			p.loadErr = err
			slog.Warn("list_fetch_failed", "page", p.id, "error", err)
			return
		}
		p.items = items
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadErr
}

// SetQuery replaces the search text. It never triggers a fetch.
func (p *Page[T]) SetQuery(q string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = q
}

// Select binds the record with the given key to the detail modal and shows it.
// Any prior selection is replaced. Returns false if no loaded record has that key.
// POST: on true, Detail() returns the record
func (p *Page[T]) Select(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].Key() == key {
			rec := p.items[i]
			p.selected = &rec
			p.visible = true
			return true
		}
	}
	return false
}

// Close clears the selection and hides the modal together.
// POST: Detail() reports no record
func (p *Page[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = nil
	p.visible = false
}

// Detail returns the record shown in the modal.
// The boolean is true only when a record is selected and the modal is visible.
func (p *Page[T]) Detail() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var zero T
	if p.selected == nil || !p.visible {
		return zero, false
	}
	return *p.selected, true
}

// Lookup finds a loaded record by key without changing the selection.
func (p *Page[T]) Lookup(key string) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.items {
		if it.Key() == key {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Teardown marks the page as gone. In-flight loads discard their result
// and the page state is released.
func (p *Page[T]) Teardown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.torn = true
	p.items = nil
	p.selected = nil
	p.visible = false
}

// TornDown reports whether Teardown has been called.
func (p *Page[T]) TornDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.torn
}

// View is a render-ready snapshot of a page.
type View[T Record] struct {
	PageID   string
	Query    string
	Rows     []T
	Total    int
	Loaded   bool
	LoadErr  error
	Selected T
	Visible  bool
}

// Snapshot computes the filtered rows and modal state for rendering.
// INVARIANT: page state is not mutated
func (p *Page[T]) Snapshot() View[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := View[T]{
		PageID:  p.id,
		Query:   p.query,
		Rows:    Filter(p.items, p.query, p.name),
		Total:   len(p.items),
		Loaded:  p.loaded,
		LoadErr: p.loadErr,
	}
	if p.selected != nil && p.visible {
		v.Selected = *p.selected
		v.Visible = true
	}
	return v
}

func (p *Page[T]) idleSince() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastUsed
}

func (p *Page[T]) touch(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastUsed = now
}
