// Package notifications is the notifications screen, including the
// mark-read transition.
package notifications

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

const Name = "notifications"

var FilterKeys = []string{"SearchTerm", "Type"}

// Row is one notification as listed by the upstream API.
type Row struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Type      string `json:"type"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

func (r Row) RowID() string { return strconv.Itoa(r.ID) }

func Columns() []table.Column {
	return []table.Column{
		{Kind: table.KindIndex, Label: "#", Width: "48px"},
		{Kind: table.KindField, Key: "title", Label: "Title"},
		{Kind: table.KindField, Key: "type", Label: "Type", Align: "center"},
		{Kind: table.KindField, Key: "isRead", Label: "Read", Align: "center"},
		{Kind: table.KindField, Key: "createdAt", Label: "Received", Align: "center"},
	}
}

func Renderer() *table.Renderer[Row] {
	return table.NewRenderer[Row](Columns()).
		Cell("isRead", func(r Row) string {
			if r.IsRead {
				return "Yes"
			}
			return "No"
		}).
		Actions(
			table.Action[Row]{
				Name: "read", Label: "Mark Read", Icon: "check",
				Hide: func(r Row) bool { return r.IsRead },
			},
			table.Action[Row]{Name: "delete", Label: "Delete", Icon: "trash", Style: "danger"},
		)
}

func NewForm() *forms.Form {
	f := forms.New(nil)
	f.Rules("title", forms.Required("Title"), forms.MaxLen("Title", 120))
	f.Rules("body", forms.Required("Body"))
	return f
}

// Handler adds the mark-read transition to the common resource routes.
type Handler struct {
	*resource.Handler[Row]
	client *api.Client
}

// NewHandler wires the notifications view.
func NewHandler(client *api.Client, cache *query.Cache, publisher websocket.EventPublisher, logger zerolog.Logger) (*Handler, error) {
	gateway := resource.NewAPIGateway(client, "/notifications")
	svc := resource.NewService[Row](Name, gateway, cache, publisher, logger)
	base, err := resource.NewHandler(svc, Renderer(), FilterKeys, NewForm)
	if err != nil {
		return nil, err
	}
	return &Handler{Handler: base, client: client}, nil
}

// RegisterRoutes registers the common routes plus the transition.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	h.Handler.RegisterRoutes(g)
	g.PATCH("/views/notifications/:id/read", h.MarkRead)
}

// MarkRead flags a notification as seen.
func (h *Handler) MarkRead(c echo.Context) error {
	id := c.Param("id")
	err := h.Service().Transition(c.Request().Context(), id, func(ctx context.Context) error {
		return h.client.Patch(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
	})
	if err != nil {
		return resource.RespondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
