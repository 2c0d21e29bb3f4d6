// Package resource is the shared machinery behind every dashboard list
// view: an upstream gateway, a cache-aware service and an HTTP handler
// serving the rendered view model. Resource packages supply the typed row,
// columns, filters and form rules.
package resource

import (
	"context"
	"net/url"
	"strconv"

	"github.com/medidesk/medidesk/internal/platform/api"
	"github.com/medidesk/medidesk/internal/platform/viewstate"
)

// Gateway is the upstream REST surface of one resource.
type Gateway interface {
	ListPage(ctx context.Context, query url.Values) (*api.Page, error)
	LookupPage(ctx context.Context) (*api.Page, error)
	Create(ctx context.Context, payload map[string]string) error
	Update(ctx context.Context, id string, payload map[string]string) error
	Delete(ctx context.Context, id string) error
}

// APIGateway implements Gateway against the hospital API.
type APIGateway struct {
	client *api.Client
	path   string
}

// NewAPIGateway creates a gateway for the resource mounted at path, e.g.
// "/doctors".
func NewAPIGateway(client *api.Client, path string) *APIGateway {
	return &APIGateway{client: client, path: path}
}

// Client exposes the underlying upstream client for resource-specific
// transition endpoints.
func (g *APIGateway) Client() *api.Client { return g.client }

// Path returns the resource's upstream mount point.
func (g *APIGateway) Path() string { return g.path }

func (g *APIGateway) ListPage(ctx context.Context, query url.Values) (*api.Page, error) {
	return g.client.ListPage(ctx, g.path, query)
}

// LookupPage fetches the full dataset for dropdowns in one page.
func (g *APIGateway) LookupPage(ctx context.Context) (*api.Page, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("limit", strconv.Itoa(100))
	return g.client.ListPage(ctx, g.path, q)
}

func (g *APIGateway) Create(ctx context.Context, payload map[string]string) error {
	return g.client.Post(ctx, g.path, payload, nil)
}

func (g *APIGateway) Update(ctx context.Context, id string, payload map[string]string) error {
	return g.client.Put(ctx, g.path+"/"+url.PathEscape(id), payload, nil)
}

func (g *APIGateway) Delete(ctx context.Context, id string) error {
	return g.client.Delete(ctx, g.path+"/"+url.PathEscape(id))
}

// UpstreamQuery builds the upstream list query from view state. Unlike the
// URL codec, page and limit are always explicit here.
func UpstreamQuery(state viewstate.State) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(state.Page))
	q.Set("limit", strconv.Itoa(state.Limit))
	for k, v := range state.Filters {
		if viewstate.Active(v) {
			q.Set(k, v)
		}
	}
	return q
}
