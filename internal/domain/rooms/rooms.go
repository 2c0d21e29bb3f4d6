// Package rooms is the rooms screen, including the disable and archive
// status transitions.
package rooms

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medidesk/medidesk/internal/domain/resource"
	"github.com/medidesk/medidesk/internal/platform/api"
	"github.com/medidesk/medidesk/internal/platform/forms"
	"github.com/medidesk/medidesk/internal/platform/query"
	"github.com/medidesk/medidesk/internal/platform/table"
	"github.com/medidesk/medidesk/internal/platform/websocket"
)

const Name = "rooms"

var FilterKeys = []string{"SearchTerm", "Status"}

// Room statuses as reported upstream.
const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
	StatusDisabled  = "disabled"
	StatusArchived  = "archived"
)

// Row is one room as listed by the upstream API.
type Row struct {
	ID       int    `json:"id"`
	Number   string `json:"number"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
}

func (r Row) RowID() string { return strconv.Itoa(r.ID) }

func Columns() []table.Column {
	return []table.Column{
		{Kind: table.KindIndex, Label: "#", Width: "48px"},
		{Kind: table.KindField, Key: "number", Label: "Room"},
		{Kind: table.KindField, Key: "type", Label: "Type"},
		{Kind: table.KindField, Key: "capacity", Label: "Capacity", Align: "center"},
		{Kind: table.KindField, Key: "status", Label: "Status", Align: "center"},
	}
}

// Renderer builds the rooms table. Disable and archive are hidden once the
// room already is in that state.
func Renderer() *table.Renderer[Row] {
	return table.NewRenderer[Row](Columns()).Actions(
		table.Action[Row]{Name: "edit", Label: "Edit", Icon: "pencil"},
		table.Action[Row]{
			Name: "disable", Label: "Disable", Icon: "ban",
			Hide: func(r Row) bool { return r.Status == StatusDisabled || r.Status == StatusArchived },
		},
		table.Action[Row]{
			Name: "archive", Label: "Archive", Icon: "box", Style: "danger",
			Hide: func(r Row) bool { return r.Status == StatusArchived },
		},
		table.Action[Row]{Name: "delete", Label: "Delete", Icon: "trash", Style: "danger"},
	)
}

func NewForm() *forms.Form {
	f := forms.New(map[string]string{"status": StatusAvailable})
	f.Rules("number", forms.Required("Room number"), forms.MaxLen("Room number", 16))
	f.Rules("type", forms.Required("Room type"))
	f.Rules("capacity", forms.Required("Capacity"), forms.Digits("Capacity"))
	f.Rules("status", forms.OneOf("Status", StatusAvailable, StatusOccupied, StatusDisabled, StatusArchived))
	return f
}

// Handler adds the room status transitions to the common resource routes.
type Handler struct {
	*resource.Handler[Row]
	client *api.Client
}

// NewHandler wires the rooms view.
func NewHandler(client *api.Client, cache *query.Cache, publisher websocket.EventPublisher, logger zerolog.Logger) (*Handler, error) {
	gateway := resource.NewAPIGateway(client, "/rooms")
	svc := resource.NewService[Row](Name, gateway, cache, publisher, logger)
	base, err := resource.NewHandler(svc, Renderer(), FilterKeys, NewForm)
	if err != nil {
		return nil, err
	}
	return &Handler{Handler: base, client: client}, nil
}

// RegisterRoutes registers the common routes plus the transitions.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	h.Handler.RegisterRoutes(g)
	g.PATCH("/views/rooms/:id/disable", h.Disable)
	g.PATCH("/views/rooms/:id/archive", h.Archive)
}

// Disable marks a room out of service.
func (h *Handler) Disable(c echo.Context) error {
	return h.transition(c, "disable")
}

// Archive retires a room from the active inventory.
func (h *Handler) Archive(c echo.Context) error {
	return h.transition(c, "archive")
}

func (h *Handler) transition(c echo.Context, action string) error {
	id := c.Param("id")
	err := h.Service().Transition(c.Request().Context(), id, func(ctx context.Context) error {
		return h.client.Patch(ctx, "/rooms/"+url.PathEscape(id)+"/"+action, nil, nil)
	})
	if err != nil {
		return resource.RespondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
