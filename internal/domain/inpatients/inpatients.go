// Package inpatients is the inpatients screen.
package inpatients

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/medidesk/medidesk/internal/domain/resource"
	"github.com/medidesk/medidesk/internal/platform/api"
	"github.com/medidesk/medidesk/internal/platform/forms"
	"github.com/medidesk/medidesk/internal/platform/query"
	"github.com/medidesk/medidesk/internal/platform/table"
	"github.com/medidesk/medidesk/internal/platform/websocket"
)

const Name = "inpatients"

var FilterKeys = []string{"SearchTerm", "DoctorName"}

// Row is one admission as listed by the upstream API.
type Row struct {
	ID            int    `json:"id"`
	PatientName   string `json:"patientName"`
	DoctorName    string `json:"doctorName"`
	RoomNumber    string `json:"roomNumber"`
	AdmissionDate string `json:"admissionDate"`
	DischargeDate string `json:"dischargeDate"`
}

func (r Row) RowID() string { return strconv.Itoa(r.ID) }

func Columns() []table.Column {
	return []table.Column{
		{Kind: table.KindIndex, Label: "#", Width: "48px"},
		{Kind: table.KindField, Key: "patientName", Label: "Patient"},
		{Kind: table.KindField, Key: "doctorName", Label: "Doctor"},
		{Kind: table.KindField, Key: "roomNumber", Label: "Room", Align: "center"},
		{Kind: table.KindField, Key: "admissionDate", Label: "Admitted", Align: "center"},
		{Kind: table.KindField, Key: "dischargeDate", Label: "Discharged", Align: "center"},
	}
}

func Renderer() *table.Renderer[Row] {
	return table.NewRenderer[Row](Columns()).
		Cell("dischargeDate", func(r Row) string {
			if r.DischargeDate == "" {
				return "-"
			}
			return r.DischargeDate
		}).
		Actions(
			table.Action[Row]{Name: "edit", Label: "Edit", Icon: "pencil"},
			table.Action[Row]{Name: "delete", Label: "Delete", Icon: "trash", Style: "danger"},
		)
}

func NewForm() *forms.Form {
	f := forms.New(nil)
	f.Rules("patientId", forms.Required("Patient"))
	f.Rules("doctorId", forms.Required("Doctor"))
	f.Rules("roomId", forms.Required("Room"))
	f.Rules("admissionDate", forms.Required("Admission date"))
	return f
}

// NewHandler wires the inpatients view.
func NewHandler(client *api.Client, cache *query.Cache, publisher websocket.EventPublisher, logger zerolog.Logger) (*resource.Handler[Row], error) {
	gateway := resource.NewAPIGateway(client, "/inpatients")
	svc := resource.NewService[Row](Name, gateway, cache, publisher, logger)
	return resource.NewHandler(svc, Renderer(), FilterKeys, NewForm)
}
