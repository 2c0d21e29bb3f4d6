package resource

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medidesk/medidesk/internal/platform/forms"
	"github.com/medidesk/medidesk/internal/platform/table"
	"github.com/medidesk/medidesk/internal/platform/viewstate"
	"github.com/medidesk/medidesk/pkg/pagination"
)

// Handler serves one resource's view-model and form endpoints.
type Handler[T table.Row] struct {
	svc        *Service[T]
	renderer   *table.Renderer[T]
	filterKeys []string
	newForm    func() *forms.Form
}

// NewHandler creates a Handler, validating the renderer's column
// definitions once up front.
func NewHandler[T table.Row](svc *Service[T], renderer *table.Renderer[T], filterKeys []string, newForm func() *forms.Form) (*Handler[T], error) {
	if err := renderer.Validate(); err != nil {
		return nil, fmt.Errorf("%s columns: %w", svc.Name(), err)
	}
	return &Handler[T]{
		svc:        svc,
		renderer:   renderer,
		filterKeys: filterKeys,
		newForm:    newForm,
	}, nil
}

// Service returns the underlying service, for resource-specific transition
// routes.
func (h *Handler[T]) Service() *Service[T] { return h.svc }

// RegisterRoutes registers the resource's endpoints on the provided group.
func (h *Handler[T]) RegisterRoutes(g *echo.Group) {
	base := "/views/" + h.svc.Name()
	g.GET(base, h.ListView)
	g.GET(base+"/lookup", h.LookupView)
	g.POST(base, h.Create)
	g.PUT(base+"/:id", h.Update)
	g.DELETE(base+"/:id", h.Delete)
}

// ListView renders one page of the resource as a table view model.
func (h *Handler[T]) ListView(c echo.Context) error {
	state := viewstate.Decode(c.QueryParams(), h.filterKeys)
	rows, page, err := h.svc.List(c.Request().Context(), state)
	if err != nil {
		return RespondError(c, err)
	}

	params := pagination.Params{Page: state.Page, Limit: state.Limit}
	model := Model{
		Table:      h.renderer.Render(rows),
		Pagination: pagination.NewControl(params, page.TotalCount),
		Filters:    state.Filters,
	}
	return c.JSON(http.StatusOK, model)
}

// LookupView serves the dropdown dataset.
func (h *Handler[T]) LookupView(c echo.Context) error {
	page, err := h.svc.Lookup(c.Request().Context())
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Create validates a submitted form and proxies it upstream.
func (h *Handler[T]) Create(c echo.Context) error {
	values := map[string]string{}
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	form := h.newForm()
	form.OpenCreate()
	for k, v := range values {
		form.Set(k, v)
	}

	err := form.Submit(func(payload map[string]string) error {
		return h.svc.Create(c.Request().Context(), payload)
	})
	if err != nil {
		return RespondError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

// Update validates an edit form and proxies it upstream.
func (h *Handler[T]) Update(c echo.Context) error {
	values := map[string]string{}
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	form := h.newForm()
	form.OpenEdit(values)

	id := c.Param("id")
	err := form.Submit(func(payload map[string]string) error {
		return h.svc.Update(c.Request().Context(), id, payload)
	})
	if err != nil {
		return RespondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a row with the optimistic cache protocol.
func (h *Handler[T]) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return RespondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
