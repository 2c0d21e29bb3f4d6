// Package appointments is the appointments screen, including the cancel
// and reschedule transitions.
package appointments

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

const Name = "appointments"

var FilterKeys = []string{"SearchTerm", "Status", "DoctorName", "AppointmentDate"}

// Appointment statuses as reported upstream.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Row is one appointment as listed by the upstream API.
type Row struct {
	ID              int    `json:"id"`
	PatientName     string `json:"patientName"`
	DoctorName      string `json:"doctorName"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Status          string `json:"status"`
}

func (r Row) RowID() string { return strconv.Itoa(r.ID) }

// settled reports whether the appointment reached a terminal status.
func (r Row) settled() bool {
	return r.Status == StatusCompleted || r.Status == StatusCancelled
}

func Columns() []table.Column {
	return []table.Column{
		{Kind: table.KindIndex, Label: "#", Width: "48px"},
		{Kind: table.KindField, Key: "patientName", Label: "Patient"},
		{Kind: table.KindField, Key: "doctorName", Label: "Doctor"},
		{Kind: table.KindField, Key: "appointmentDate", Label: "Date", Align: "center"},
		{Kind: table.KindField, Key: "appointmentTime", Label: "Time", Align: "center"},
		{Kind: table.KindField, Key: "status", Label: "Status", Align: "center"},
	}
}

// Renderer builds the appointments table. Cancel and reschedule disappear
// once the appointment is completed or cancelled.
func Renderer() *table.Renderer[Row] {
	return table.NewRenderer[Row](Columns()).Actions(
		table.Action[Row]{Name: "edit", Label: "Edit", Icon: "pencil"},
		table.Action[Row]{
			Name: "reschedule", Label: "Reschedule", Icon: "calendar",
			Hide: Row.settled,
		},
		table.Action[Row]{
			Name: "cancel", Label: "Cancel", Icon: "x-circle", Style: "danger",
			Hide: Row.settled,
		},
		table.Action[Row]{Name: "delete", Label: "Delete", Icon: "trash", Style: "danger"},
	)
}

func NewForm() *forms.Form {
	f := forms.New(map[string]string{"status": StatusScheduled})
	f.Rules("patientId", forms.Required("Patient"))
	f.Rules("doctorId", forms.Required("Doctor"))
	f.Rules("appointmentDate", forms.Required("Date"))
	f.Rules("appointmentTime", forms.Required("Time"))
	f.Rules("status", forms.OneOf("Status", StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow))
	return f
}

// Handler adds the appointment transitions to the common resource routes.
type Handler struct {
	*resource.Handler[Row]
	client *api.Client
}

// NewHandler wires the appointments view.
func NewHandler(client *api.Client, cache *query.Cache, publisher websocket.EventPublisher, logger zerolog.Logger) (*Handler, error) {
	gateway := resource.NewAPIGateway(client, "/appointments")
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
	g.POST("/views/appointments/:id/cancel", h.Cancel)
	g.POST("/views/appointments/:id/reschedule", h.Reschedule)
}

// Cancel voids an appointment, forwarding the optional reason.
func (h *Handler) Cancel(c echo.Context) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return h.transition(c, "cancel", map[string]string{"reason": body.Reason})
}

// Reschedule moves an appointment to a new date and time slot.
func (h *Handler) Reschedule(c echo.Context) error {
	var body struct {
		AppointmentDate string `json:"appointmentDate"`
		AppointmentTime string `json:"appointmentTime"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	fields := map[string]string{}
	if body.AppointmentDate == "" {
		fields["appointmentDate"] = "Date is required"
	}
	if body.AppointmentTime == "" {
		fields["appointmentTime"] = "Time is required"
	}
	if len(fields) > 0 {
		return resource.RespondError(c, &forms.ValidationError{Fields: fields})
	}
	return h.transition(c, "reschedule", map[string]string{
		"appointmentDate": body.AppointmentDate,
		"appointmentTime": body.AppointmentTime,
	})
}

func (h *Handler) transition(c echo.Context, action string, payload map[string]string) error {
	id := c.Param("id")
	err := h.Service().Transition(c.Request().Context(), id, func(ctx context.Context) error {
		return h.client.Post(ctx, "/appointments/"+url.PathEscape(id)+"/"+action, payload, nil)
	})
	if err != nil {
		return resource.RespondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
