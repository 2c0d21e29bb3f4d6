// Package payments is the payments screen.
package payments

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

const Name = "payments"

var FilterKeys = []string{"SearchTerm", "Status"}

// Payment statuses as reported upstream.
const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusRefunded = "refunded"
)

// Row is one payment as listed by the upstream API.
type Row struct {
	ID          int    `json:"id"`
	PatientName string `json:"patientName"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	Status      string `json:"status"`
	PaidAt      string `json:"paidAt"`
}

func (r Row) RowID() string { return strconv.Itoa(r.ID) }

func Columns() []table.Column {
	return []table.Column{
		{Kind: table.KindIndex, Label: "#", Width: "48px"},
		{Kind: table.KindField, Key: "patientName", Label: "Patient"},
		{Kind: table.KindField, Key: "amount", Label: "Amount", Align: "right"},
		{Kind: table.KindField, Key: "method", Label: "Method", Align: "center"},
		{Kind: table.KindField, Key: "status", Label: "Status", Align: "center"},
		{Kind: table.KindField, Key: "paidAt", Label: "Paid At", Align: "center"},
	}
}

func Renderer() *table.Renderer[Row] {
	return table.NewRenderer[Row](Columns()).Actions(
		table.Action[Row]{Name: "edit", Label: "Edit", Icon: "pencil"},
		table.Action[Row]{
			Name: "delete", Label: "Delete", Icon: "trash", Style: "danger",
			Hide: func(r Row) bool { return r.Status == StatusPaid },
		},
	)
}

func NewForm() *forms.Form {
	f := forms.New(map[string]string{"status": StatusPending})
	f.Rules("patientId", forms.Required("Patient"))
	f.Rules("amount", forms.Required("Amount"), forms.Decimal("Amount"))
	f.Rules("method", forms.OneOf("Method", "cash", "card", "insurance"))
	f.Rules("status", forms.OneOf("Status", StatusPending, StatusPaid, StatusRefunded))
	return f
}

// NewHandler wires the payments view.
func NewHandler(client *api.Client, cache *query.Cache, publisher websocket.EventPublisher, logger zerolog.Logger) (*resource.Handler[Row], error) {
	gateway := resource.NewAPIGateway(client, "/payments")
	svc := resource.NewService[Row](Name, gateway, cache, publisher, logger)
	return resource.NewHandler(svc, Renderer(), FilterKeys, NewForm)
}
