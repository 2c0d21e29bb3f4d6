// Package doctors is the doctors screen: a searchable, filterable list
// with create/edit/delete forms.
package doctors

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

// Name is the resource name, shared by cache keys, routes and events.
const Name = "doctors"

// FilterKeys are the URL filter parameters of the doctors view.
var FilterKeys = []string{"SearchTerm", "SpecializationId", "Status"}

// Row is one doctor as listed by the upstream API.
type Row struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Status         string `json:"status"`
}

func (r Row) RowID() string { return strconv.Itoa(r.ID) }

// Columns defines the doctors table.
func Columns() []table.Column {
	return []table.Column{
		{Kind: table.KindIndex, Label: "#", Width: "48px"},
		{Kind: table.KindField, Key: "name", Label: "Name"},
		{Kind: table.KindField, Key: "specialization", Label: "Specialization"},
		{Kind: table.KindField, Key: "phone", Label: "Phone"},
		{Kind: table.KindField, Key: "email", Label: "Email"},
		{Kind: table.KindField, Key: "status", Label: "Status", Align: "center"},
	}
}

// Renderer builds the doctors table renderer with its row actions.
func Renderer() *table.Renderer[Row] {
	return table.NewRenderer[Row](Columns()).Actions(
		table.Action[Row]{Name: "edit", Label: "Edit", Icon: "pencil"},
		table.Action[Row]{Name: "delete", Label: "Delete", Icon: "trash", Style: "danger"},
	)
}

// NewForm builds the doctor dialog form.
func NewForm() *forms.Form {
	f := forms.New(map[string]string{"status": "active"})
	f.Rules("name", forms.Required("Name"), forms.MaxLen("Name", 80))
	f.Rules("specializationId", forms.Required("Specialization"), forms.Digits("Specialization"))
	f.Rules("phone", forms.Required("Phone"), forms.Digits("Phone"), forms.MinLen("Phone", 7))
	f.Rules("email", forms.Email("Email"))
	f.Rules("status", forms.OneOf("Status", "active", "inactive"))
	return f
}

// NewHandler wires the doctors view.
func NewHandler(client *api.Client, cache *query.Cache, publisher websocket.EventPublisher, logger zerolog.Logger) (*resource.Handler[Row], error) {
	gateway := resource.NewAPIGateway(client, "/doctors")
	svc := resource.NewService[Row](Name, gateway, cache, publisher, logger)
	return resource.NewHandler(svc, Renderer(), FilterKeys, NewForm)
}
