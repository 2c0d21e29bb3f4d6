// Package viewstate keeps a view's filter, search and page state in sync
// with URL query parameters, so back/forward navigation and shared links
// reproduce a given view.
package viewstate

import (
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/medidesk/medidesk/pkg/pagination"
)

// Sentinel filter values meaning "no filter applied". They are never
// serialized into the URL.
var sentinels = map[string]bool{"": true, "0": true, "-1": true}

// State is the persisted view state of one list view.
type State struct {
	Page    int
	Limit   int
	Filters map[string]string
}

// Filter returns the value of one filter key, "" when unset.
func (s State) Filter(key string) string {
	return s.Filters[key]
}

// Active reports whether the filter carries a real value.
func Active(value string) bool {
	return !sentinels[value]
}

// Decode initializes view state from URL query parameters. Only the listed
// filter keys are read; sentinel values count as unset.
func Decode(q url.Values, filterKeys []string) State {
	s := State{
		Page:    1,
		Limit:   pagination.DefaultLimit,
		Filters: make(map[string]string),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		s.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		s.Limit = limit
		if s.Limit > pagination.MaxLimit {
			s.Limit = pagination.MaxLimit
		}
	}
	for _, key := range filterKeys {
		if v := q.Get(key); Active(v) {
			s.Filters[key] = v
		}
	}
	return s
}

// Encode serializes view state into URL query parameters. Sentinel filter
// values are omitted rather than written literally; page and limit are
// omitted at their defaults so a pristine view has a clean URL.
func Encode(s State) url.Values {
	q := url.Values{}
	if s.Page > 1 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	if s.Limit > 0 && s.Limit != pagination.DefaultLimit {
		q.Set("limit", strconv.Itoa(s.Limit))
	}
	for key, v := range s.Filters {
		if Active(v) {
			q.Set(key, v)
		}
	}
	return q
}

// Debouncer delays a callback until its trigger has been quiet for the
// configured window. Re-triggering restarts the window.
type Debouncer struct {
	wait time.Duration

	mu    sync.Mutex
	timer *time.Timer
	fn    func()
}

// NewDebouncer creates a Debouncer with the given quiet window.
func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// Trigger schedules fn after the quiet window, replacing any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.fn = fn
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		pending := d.fn
		d.fn = nil
		d.timer = nil
		d.mu.Unlock()
		if pending != nil {
			pending()
		}
	})
}

// Flush runs any pending call immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	pending := d.fn
	d.fn = nil
	d.mu.Unlock()
	if pending != nil {
		pending()
	}
}

// Stop discards any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.fn = nil
}

// Syncer applies state changes and commits the encoded URL parameters.
// Select and date filters commit synchronously; search text is debounced so
// typing does not produce a history entry per keystroke.
type Syncer struct {
	mu        sync.Mutex
	state     State
	searchKey string
	debounce  *Debouncer
	commit    func(url.Values)
}

// NewSyncer builds a Syncer initialized from the current URL parameters.
// searchKey names the free-text filter that is debounced by wait.
func NewSyncer(q url.Values, filterKeys []string, searchKey string, wait time.Duration, commit func(url.Values)) *Syncer {
	return &Syncer{
		state:     Decode(q, filterKeys),
		searchKey: searchKey,
		debounce:  NewDebouncer(wait),
		commit:    commit,
	}
}

// State returns a copy of the current view state.
func (s *Syncer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.state
	cp.Filters = make(map[string]string, len(s.state.Filters))
	for k, v := range s.state.Filters {
		cp.Filters[k] = v
	}
	return cp
}

// SetFilter applies a select or date filter and commits immediately.
// Changing a filter resets the view to the first page.
func (s *Syncer) SetFilter(key, value string) {
	s.mu.Lock()
	if Active(value) {
		s.state.Filters[key] = value
	} else {
		delete(s.state.Filters, key)
	}
	s.state.Page = 1
	q := Encode(s.state)
	s.mu.Unlock()
	s.commit(q)
}

// SetSearch applies the free-text filter after the quiet window elapses.
func (s *Syncer) SetSearch(value string) {
	s.debounce.Trigger(func() {
		s.SetFilter(s.searchKey, value)
	})
}

// SetPage commits a page change immediately.
func (s *Syncer) SetPage(page int) {
	s.mu.Lock()
	if page < 1 {
		page = 1
	}
	s.state.Page = page
	q := Encode(s.state)
	s.mu.Unlock()
	s.commit(q)
}

// Flush commits any pending debounced search immediately.
func (s *Syncer) Flush() {
	s.debounce.Flush()
}
