package viewstate

import (
	"net/url"
	"sync"
	"testing"
	"time"
)

var doctorFilters = []string{"SearchTerm", "SpecializationId", "Status"}

func TestDecode(t *testing.T) {
	q := url.Values{}
	q.Set("page", "3")
	q.Set("limit", "25")
	q.Set("SearchTerm", "smith")
	q.Set("SpecializationId", "0")
	q.Set("Status", "-1")

	s := Decode(q, doctorFilters)
	if s.Page != 3 || s.Limit != 25 {
		t.Errorf("unexpected page/limit: %d/%d", s.Page, s.Limit)
	}
	if s.Filter("SearchTerm") != "smith" {
		t.Errorf("expected search filter, got %q", s.Filter("SearchTerm"))
	}
	if _, ok := s.Filters["SpecializationId"]; ok {
		t.Error("sentinel 0 must count as unset")
	}
	if _, ok := s.Filters["Status"]; ok {
		t.Error("sentinel -1 must count as unset")
	}
}

func TestDecode_Defaults(t *testing.T) {
	s := Decode(url.Values{}, doctorFilters)
	if s.Page != 1 {
		t.Errorf("expected page 1, got %d", s.Page)
	}
	if s.Limit != 10 {
		t.Errorf("expected default limit, got %d", s.Limit)
	}

	q := url.Values{}
	q.Set("page", "bogus")
	q.Set("limit", "-5")
	s = Decode(q, doctorFilters)
	if s.Page != 1 || s.Limit != 10 {
		t.Errorf("malformed params must fall back to defaults, got %d/%d", s.Page, s.Limit)
	}
}

func TestEncode_OmitsSentinels(t *testing.T) {
	s := State{
		Page:  1,
		Limit: 10,
		Filters: map[string]string{
			"SearchTerm":       "smith",
			"SpecializationId": "0",
			"Status":           "-1",
			"Gender":           "",
		},
	}
	q := Encode(s)

	if got := q.Encode(); got != "SearchTerm=smith" {
		t.Errorf("expected only the active filter serialized, got %q", got)
	}
}

func TestEncode_PageAndLimit(t *testing.T) {
	q := Encode(State{Page: 4, Limit: 25})
	if q.Get("page") != "4" || q.Get("limit") != "25" {
		t.Errorf("expected page/limit serialized, got %q", q.Encode())
	}

	q = Encode(State{Page: 1, Limit: 10})
	if len(q) != 0 {
		t.Errorf("defaults must be omitted, got %q", q.Encode())
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := State{
		Page:    2,
		Limit:   20,
		Filters: map[string]string{"SearchTerm": "ward", "Status": "1"},
	}
	got := Decode(Encode(s), []string{"SearchTerm", "Status"})
	if got.Page != s.Page || got.Limit != s.Limit {
		t.Errorf("page/limit lost: %+v", got)
	}
	if got.Filter("SearchTerm") != "ward" || got.Filter("Status") != "1" {
		t.Errorf("filters lost: %+v", got.Filters)
	}
}

func TestSyncer_SelectFilterCommitsImmediately(t *testing.T) {
	var mu sync.Mutex
	var commits []url.Values
	s := NewSyncer(url.Values{}, doctorFilters, "SearchTerm", 50*time.Millisecond, func(q url.Values) {
		mu.Lock()
		commits = append(commits, q)
		mu.Unlock()
	})

	s.SetFilter("Status", "2")

	mu.Lock()
	defer mu.Unlock()
	if len(commits) != 1 {
		t.Fatalf("expected 1 synchronous commit, got %d", len(commits))
	}
	if commits[0].Get("Status") != "2" {
		t.Errorf("unexpected committed params %q", commits[0].Encode())
	}
}

func TestSyncer_SearchIsDebounced(t *testing.T) {
	var mu sync.Mutex
	var commits []url.Values
	s := NewSyncer(url.Values{}, doctorFilters, "SearchTerm", 40*time.Millisecond, func(q url.Values) {
		mu.Lock()
		commits = append(commits, q)
		mu.Unlock()
	})

	// A keystroke burst produces no commits inside the quiet window.
	s.SetSearch("s")
	s.SetSearch("sm")
	s.SetSearch("smi")

	mu.Lock()
	if len(commits) != 0 {
		mu.Unlock()
		t.Fatalf("search must not commit before the quiet window, got %d commits", len(commits))
	}
	mu.Unlock()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(commits) != 1 {
		t.Fatalf("expected exactly 1 debounced commit, got %d", len(commits))
	}
	if commits[0].Get("SearchTerm") != "smi" {
		t.Errorf("expected last value committed, got %q", commits[0].Encode())
	}
}

func TestSyncer_FilterChangeResetsPage(t *testing.T) {
	q := url.Values{}
	q.Set("page", "5")
	var last url.Values
	s := NewSyncer(q, doctorFilters, "SearchTerm", time.Millisecond, func(q url.Values) { last = q })

	s.SetFilter("Status", "1")
	if last.Get("page") != "" {
		t.Errorf("filter change must reset to page 1, got page=%q", last.Get("page"))
	}
	if s.State().Page != 1 {
		t.Errorf("expected state page 1, got %d", s.State().Page)
	}
}

func TestSyncer_Flush(t *testing.T) {
	var mu sync.Mutex
	var commits int
	s := NewSyncer(url.Values{}, doctorFilters, "SearchTerm", time.Hour, func(q url.Values) {
		mu.Lock()
		commits++
		mu.Unlock()
	})

	s.SetSearch("smith")
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	if commits != 1 {
		t.Errorf("flush must commit the pending search, got %d commits", commits)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	fired := make(chan struct{}, 1)
	d.Trigger(func() { fired <- struct{}{} })
	d.Stop()

	select {
	case <-fired:
		t.Error("stopped debouncer must not fire")
	case <-time.After(50 * time.Millisecond):
	}
}
