package resource

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medidesk/medidesk/internal/platform/api"
	"github.com/medidesk/medidesk/internal/platform/query"
	"github.com/medidesk/medidesk/internal/platform/viewstate"
	"github.com/medidesk/medidesk/internal/platform/websocket"
)

type doctorRow struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (r doctorRow) RowID() string { return strconv.Itoa(r.ID) }

// mockGateway is an in-memory Gateway for tests.
type mockGateway struct {
	mu        sync.Mutex
	rows      []doctorRow
	listCalls int
	failWith  error
}

func (m *mockGateway) page() *api.Page {
	p := &api.Page{TotalCount: len(m.rows)}
	for _, r := range m.rows {
		raw, _ := json.Marshal(r)
		p.Items = append(p.Items, raw)
	}
	return p
}

func (m *mockGateway) ListPage(_ context.Context, _ url.Values) (*api.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.page(), nil
}

func (m *mockGateway) LookupPage(ctx context.Context) (*api.Page, error) {
	return m.ListPage(ctx, nil)
}

func (m *mockGateway) Create(_ context.Context, payload map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.rows = append(m.rows, doctorRow{ID: len(m.rows) + 1, Name: payload["name"]})
	return nil
}

func (m *mockGateway) Update(_ context.Context, id string, payload map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for i, r := range m.rows {
		if strconv.Itoa(r.ID) == id {
			m.rows[i].Name = payload["name"]
			return nil
		}
	}
	return &api.Error{Status: 404, Message: "not found"}
}

func (m *mockGateway) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for i, r := range m.rows {
		if strconv.Itoa(r.ID) == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return &api.Error{Status: 404, Message: "not found"}
}

// recordingPublisher captures published invalidation events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e websocket.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) last(t *testing.T) websocket.Event {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		t.Fatal("expected a published event")
	}
	return p.events[len(p.events)-1]
}

func newTestService(gw *mockGateway) (*Service[doctorRow], *query.Cache, *recordingPublisher) {
	cache := query.New(2*time.Minute, 10*time.Minute)
	pub := &recordingPublisher{}
	svc := NewService[doctorRow]("doctors", gw, cache, pub, zerolog.Nop())
	return svc, cache, pub
}

func listState() viewstate.State {
	return viewstate.State{Page: 1, Limit: 10, Filters: map[string]string{}}
}

func TestService_ListCaches(t *testing.T) {
	gw := &mockGateway{rows: []doctorRow{{1, "Dr. Adams"}, {2, "Dr. Beck"}}}
	svc, _, _ := newTestService(gw)

	for i := 0; i < 3; i++ {
		rows, page, err := svc.List(context.Background(), listState())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 2 || page.TotalCount != 2 {
			t.Fatalf("unexpected page: %d rows, total %d", len(rows), page.TotalCount)
		}
	}
	if gw.listCalls != 1 {
		t.Errorf("expected a single upstream call, got %d", gw.listCalls)
	}
}

func TestService_ListDistinctFiltersFetchSeparately(t *testing.T) {
	gw := &mockGateway{rows: []doctorRow{{1, "Dr. Adams"}}}
	svc, _, _ := newTestService(gw)

	stateA := listState()
	stateA.Filters["SearchTerm"] = "adams"
	stateB := listState()
	stateB.Filters["SearchTerm"] = "beck"

	svc.List(context.Background(), stateA)
	svc.List(context.Background(), stateB)

	if gw.listCalls != 2 {
		t.Errorf("distinct filter sets must fetch independently, got %d calls", gw.listCalls)
	}
}

func TestService_CreateInvalidatesAndPublishes(t *testing.T) {
	gw := &mockGateway{rows: []doctorRow{{1, "Dr. Adams"}}}
	svc, _, pub := newTestService(gw)

	svc.List(context.Background(), listState())
	if err := svc.Create(context.Background(), map[string]string{"name": "Dr. Beck"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, _, err := svc.List(context.Background(), listState())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected refetch after create, got %d rows", len(rows))
	}
	if gw.listCalls != 2 {
		t.Errorf("expected invalidation to force a refetch, got %d calls", gw.listCalls)
	}

	e := pub.last(t)
	if e.Resource != "doctors" || e.Action != websocket.ActionCreated {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestService_CreateFailureDoesNotInvalidate(t *testing.T) {
	gw := &mockGateway{rows: []doctorRow{{1, "Dr. Adams"}}}
	svc, _, pub := newTestService(gw)

	svc.List(context.Background(), listState())

	gw.failWith = &api.Error{Status: 409, Message: "duplicate"}
	if err := svc.Create(context.Background(), map[string]string{"name": "Dr. Adams"}); err == nil {
		t.Fatal("expected an error")
	}
	gw.failWith = nil

	svc.List(context.Background(), listState())
	if gw.listCalls != 1 {
		t.Errorf("a failed create must not invalidate, got %d calls", gw.listCalls)
	}
	if len(pub.events) != 0 {
		t.Error("a failed create must not publish")
	}
}

func TestService_DeleteOptimistic(t *testing.T) {
	gw := &mockGateway{rows: []doctorRow{{1, "Dr. Adams"}, {2, "Dr. Beck"}}}
	svc, cache, pub := newTestService(gw)

	state := listState()
	svc.List(context.Background(), state)

	if err := svc.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The cached page dropped the row even before any refetch.
	key := query.NewKey("doctors", query.KindList, UpstreamQuery(state))
	page, ok := cache.Peek(key)
	if !ok {
		t.Fatal("expected the list entry to survive")
	}
	if len(page.Items) != 1 || page.TotalCount != 1 {
		t.Errorf("expected optimistic rewrite, got %d items total %d", len(page.Items), page.TotalCount)
	}

	e := pub.last(t)
	if e.Action != websocket.ActionDeleted || e.ID != "1" {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestService_DeleteRollbackOnFailure(t *testing.T) {
	gw := &mockGateway{rows: []doctorRow{{1, "Dr. Adams"}, {2, "Dr. Beck"}}}
	svc, cache, pub := newTestService(gw)

	state := listState()
	svc.List(context.Background(), state)

	key := query.NewKey("doctors", query.KindList, UpstreamQuery(state))
	before, _ := cache.Peek(key)
	beforeCopy := before.Clone()

	gw.failWith = &api.Error{Status: 409, Message: "doctor has appointments"}
	err := svc.Delete(context.Background(), "1")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != 409 {
		t.Fatalf("expected the upstream error back, got %v", err)
	}

	after, ok := cache.Peek(key)
	if !ok {
		t.Fatal("expected the list entry to survive")
	}
	if len(after.Items) != len(beforeCopy.Items) || after.TotalCount != beforeCopy.TotalCount {
		t.Error("rollback must restore the pre-delete page")
	}
	if len(pub.events) != 0 {
		t.Error("a failed delete must not publish")
	}
}

func TestService_LookupUsesSeparateCache(t *testing.T) {
	gw := &mockGateway{rows: []doctorRow{{1, "Dr. Adams"}}}
	svc, _, _ := newTestService(gw)

	svc.Lookup(context.Background())
	svc.Lookup(context.Background())
	if gw.listCalls != 1 {
		t.Errorf("expected lookup to be cached, got %d calls", gw.listCalls)
	}

	// Mutations invalidate lists only; the lookup entry survives.
	svc.Create(context.Background(), map[string]string{"name": "Dr. Beck"})
	svc.Lookup(context.Background())
	if gw.listCalls != 1 {
		t.Errorf("lookup entry must survive a list invalidation, got %d calls", gw.listCalls)
	}
}

func TestService_Transition(t *testing.T) {
	gw := &mockGateway{rows: []doctorRow{{1, "Dr. Adams"}}}
	svc, _, pub := newTestService(gw)

	svc.List(context.Background(), listState())

	called := false
	err := svc.Transition(context.Background(), "1", func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected transition to run, err=%v", err)
	}

	svc.List(context.Background(), listState())
	if gw.listCalls != 2 {
		t.Errorf("expected transition to invalidate lists, got %d calls", gw.listCalls)
	}
	e := pub.last(t)
	if e.Action != websocket.ActionTransition || e.ID != "1" {
		t.Errorf("unexpected event %+v", e)
	}
}
