// Package query is an explicit cache service for upstream list and lookup
// queries. Entries are keyed by resource, query kind and the canonical
// filter encoding, so two different filter sets never collide. Pages are
// immutable once installed; rewrites replace an entry's page, never edit
// it, so pointers handed to readers stay valid.
package query

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medidesk/medidesk/internal/platform/api"
)

// Query kinds. Lists go stale quickly; lookup datasets feed dropdowns and
// live longer.
const (
	KindList   = "list"
	KindLookup = "lookup"
)

// Key identifies one cached query.
type Key struct {
	Resource string
	Kind     string
	Filters  string
}

// NewKey builds a Key with the filters in canonical order. url.Values.Encode
// sorts by parameter name, so equal filter sets always map to the same Key.
func NewKey(resource, kind string, filters url.Values) Key {
	return Key{Resource: resource, Kind: kind, Filters: filters.Encode()}
}

// Prefix selects every cached entry of a resource, optionally narrowed to
// one query kind. Mutations invalidate by list prefix so every mounted view
// of the resource refetches regardless of its filters.
type Prefix struct {
	Resource string
	Kind     string
}

// ListPrefix matches all list entries of a resource.
func ListPrefix(resource string) Prefix {
	return Prefix{Resource: resource, Kind: KindList}
}

// ResourcePrefix matches every entry of a resource, lists and lookups.
func ResourcePrefix(resource string) Prefix {
	return Prefix{Resource: resource}
}

// Matches reports whether the key falls under this prefix.
func (p Prefix) Matches(k Key) bool {
	if k.Resource != p.Resource {
		return false
	}
	return p.Kind == "" || p.Kind == k.Kind
}

// FetchFunc loads a page from the upstream when the cache cannot serve it.
type FetchFunc func(ctx context.Context) (*api.Page, error)

type entry struct {
	page      *api.Page
	fetchedAt time.Time
	stale     bool

	// gen is bumped for every fetch issued and for every cache rewrite; a
	// fetch that resolves against an older generation is discarded silently.
	gen    uint64
	cancel context.CancelFunc
}

// Cache holds cached pages for all resources of the dashboard.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry

	listTTL   time.Duration
	lookupTTL time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the cache logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a Cache with the given staleness windows.
func New(listTTL, lookupTTL time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries:   make(map[Key]*entry),
		listTTL:   listTTL,
		lookupTTL: lookupTTL,
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) ttl(kind string) time.Duration {
	if kind == KindLookup {
		return c.lookupTTL
	}
	return c.listTTL
}

// Fetch returns the cached page for key when it is fresh, otherwise calls
// fetch and stores the result. A result that arrives after the entry moved
// to a newer generation (a later fetch, an invalidation or an optimistic
// rewrite) is returned to its own caller but never written to the cache.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch FetchFunc) (*api.Page, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.page != nil && !e.stale && c.now().Sub(e.fetchedAt) < c.ttl(key.Kind) {
		page := e.page
		c.mu.Unlock()
		return page, nil
	}
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.gen++
	gen := e.gen
	fctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	c.mu.Unlock()

	page, err := fetch(fctx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	cur, live := c.entries[key]
	superseded := !live || cur.gen != gen
	if err != nil {
		return nil, err
	}
	if superseded {
		c.logger.Debug().
			Str("resource", key.Resource).
			Str("kind", key.Kind).
			Msg("discarding superseded fetch result")
		return page, nil
	}
	cur.page = page
	cur.fetchedAt = c.now()
	cur.stale = false
	cur.cancel = nil
	return page, nil
}

// Peek returns the cached page for key without fetching or freshness
// checks. The second result reports whether a page is cached at all.
func (c *Cache) Peek(key Key) (*api.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.page == nil {
		return nil, false
	}
	return e.page, true
}

// Invalidate marks every entry under the prefix stale, forcing a refetch on
// next access. Returns the number of entries marked.
func (c *Cache) Invalidate(p Prefix) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !p.Matches(k) {
			continue
		}
		e.stale = true
		e.gen++
		n++
	}
	if n > 0 {
		c.logger.Debug().
			Str("resource", p.Resource).
			Str("kind", p.Kind).
			Int("entries", n).
			Msg("cache invalidated")
	}
	return n
}

// CancelInFlight aborts every running fetch under the prefix. Late
// responses are discarded via the generation bump.
func (c *Cache) CancelInFlight(p Prefix) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !p.Matches(k) {
			continue
		}
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		e.gen++
	}
}

// Snapshot is the verbatim saved state of one cache entry, taken before an
// optimistic rewrite so a failed mutation can be rolled back in full.
// Installed pages are never edited, so the snapshot holds the original
// pointer rather than a copy.
type Snapshot struct {
	Key       Key
	Page      *api.Page
	FetchedAt time.Time
	Stale     bool
}

// stageDelete runs the local half of the optimistic delete protocol in one
// critical section: cancel in-flight fetches under the prefix, snapshot
// every matching entry, then install a rewritten clone of each cached page
// with the row dropped. Pages already handed to readers are never touched,
// so a concurrent reader sees either the old page or the new one in full.
func (c *Cache) stageDelete(p Prefix, id string) []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snaps []Snapshot
	for k, e := range c.entries {
		if !p.Matches(k) {
			continue
		}
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		e.gen++
		if e.page == nil {
			continue
		}
		snaps = append(snaps, Snapshot{
			Key:       k,
			Page:      e.page,
			FetchedAt: e.fetchedAt,
			Stale:     e.stale,
		})
		next := e.page.Clone()
		next.RemoveRow(id)
		e.page = next
	}
	return snaps
}

// restore puts snapshotted entries back verbatim.
func (c *Cache) restore(snaps []Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range snaps {
		e, ok := c.entries[s.Key]
		if !ok {
			e = &entry{}
			c.entries[s.Key] = e
		}
		e.page = s.Page
		e.fetchedAt = s.FetchedAt
		e.stale = s.Stale
		e.gen++
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
