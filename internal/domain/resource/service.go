package resource

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/medidesk/medidesk/internal/platform/api"
	"github.com/medidesk/medidesk/internal/platform/query"
	"github.com/medidesk/medidesk/internal/platform/table"
	"github.com/medidesk/medidesk/internal/platform/viewstate"
	"github.com/medidesk/medidesk/internal/platform/websocket"
)

// Service runs every list and mutation of one resource through the query
// cache. Mutations invalidate the resource's list prefix on success so all
// mounted views refetch regardless of their filters; deletes are optimistic.
type Service[T table.Row] struct {
	name      string
	gateway   Gateway
	cache     *query.Cache
	publisher websocket.EventPublisher
	logger    zerolog.Logger
}

// NewService creates a Service for the named resource.
func NewService[T table.Row](name string, gateway Gateway, cache *query.Cache, publisher websocket.EventPublisher, logger zerolog.Logger) *Service[T] {
	return &Service[T]{
		name:      name,
		gateway:   gateway,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// Name returns the resource name.
func (s *Service[T]) Name() string { return s.name }

// List fetches one page of rows through the cache, keyed by the canonical
// filter encoding so distinct filter sets never collide.
func (s *Service[T]) List(ctx context.Context, state viewstate.State) ([]T, *api.Page, error) {
	q := UpstreamQuery(state)
	key := query.NewKey(s.name, query.KindList, q)
	page, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (*api.Page, error) {
		return s.gateway.ListPage(ctx, q)
	})
	if err != nil {
		return nil, nil, err
	}
	rows, err := api.DecodeItems[T](page)
	if err != nil {
		return nil, nil, err
	}
	return rows, page, nil
}

// Lookup fetches the dropdown dataset through the longer-lived cache.
func (s *Service[T]) Lookup(ctx context.Context) (*api.Page, error) {
	key := query.NewKey(s.name, query.KindLookup, url.Values{})
	return s.cache.Fetch(ctx, key, func(ctx context.Context) (*api.Page, error) {
		return s.gateway.LookupPage(ctx)
	})
}

// Create proxies a validated form submission upstream and invalidates the
// resource's lists on success.
func (s *Service[T]) Create(ctx context.Context, payload map[string]string) error {
	if err := s.gateway.Create(ctx, payload); err != nil {
		return err
	}
	s.settle(ctx, websocket.ActionCreated, "")
	return nil
}

// Update proxies an edit upstream and invalidates on success.
func (s *Service[T]) Update(ctx context.Context, id string, payload map[string]string) error {
	if err := s.gateway.Update(ctx, id, payload); err != nil {
		return err
	}
	s.settle(ctx, websocket.ActionUpdated, id)
	return nil
}

// Delete applies the optimistic protocol: cached pages drop the row before
// the upstream answers, and are restored verbatim if it refuses.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	err := query.Delete(ctx, s.cache, query.ListPrefix(s.name), id, func(ctx context.Context) error {
		return s.gateway.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, websocket.ActionDeleted, id)
	return nil
}

// Transition runs a resource-specific status endpoint (disable, archive,
// cancel, reschedule) with the same invalidation discipline as the common
// mutations.
func (s *Service[T]) Transition(ctx context.Context, id string, do func(ctx context.Context) error) error {
	if err := do(ctx); err != nil {
		return err
	}
	s.settle(ctx, websocket.ActionTransition, id)
	return nil
}

func (s *Service[T]) settle(ctx context.Context, action, id string) {
	s.cache.Invalidate(query.ListPrefix(s.name))
	s.publish(ctx, action, id)
}

func (s *Service[T]) publish(ctx context.Context, action, id string) {
	if s.publisher == nil {
		return
	}
	event := websocket.Event{Resource: s.name, Action: action, ID: id}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("resource", s.name).Msg("publish invalidation event")
	}
}
