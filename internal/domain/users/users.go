// Package users is the staff accounts screen.
package users

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

const Name = "users"

var FilterKeys = []string{"SearchTerm", "Role"}

// Account roles known to the upstream API.
const (
	RoleAdmin        = "admin"
	RoleReceptionist = "receptionist"
	RoleAccountant   = "accountant"
)

// Row is one staff account as listed by the upstream API.
type Row struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

func (r Row) RowID() string { return strconv.Itoa(r.ID) }

func Columns() []table.Column {
	return []table.Column{
		{Kind: table.KindIndex, Label: "#", Width: "48px"},
		{Kind: table.KindField, Key: "name", Label: "Name"},
		{Kind: table.KindField, Key: "email", Label: "Email"},
		{Kind: table.KindField, Key: "role", Label: "Role", Align: "center"},
		{Kind: table.KindField, Key: "isActive", Label: "Active", Align: "center"},
	}
}

func Renderer() *table.Renderer[Row] {
	return table.NewRenderer[Row](Columns()).
		Cell("isActive", func(r Row) string {
			if r.IsActive {
				return "Yes"
			}
			return "No"
		}).
		Actions(
			table.Action[Row]{Name: "edit", Label: "Edit", Icon: "pencil"},
			table.Action[Row]{
				Name: "delete", Label: "Delete", Icon: "trash", Style: "danger",
				Hide: func(r Row) bool { return r.Role == RoleAdmin },
			},
		)
}

func NewForm() *forms.Form {
	f := forms.New(map[string]string{"role": RoleReceptionist})
	f.Rules("name", forms.Required("Name"), forms.MaxLen("Name", 80))
	f.Rules("email", forms.Required("Email"), forms.Email("Email"))
	f.Rules("role", forms.OneOf("Role", RoleAdmin, RoleReceptionist, RoleAccountant))
	return f
}

// NewHandler wires the users view.
func NewHandler(client *api.Client, cache *query.Cache, publisher websocket.EventPublisher, logger zerolog.Logger) (*resource.Handler[Row], error) {
	gateway := resource.NewAPIGateway(client, "/users")
	svc := resource.NewService[Row](Name, gateway, cache, publisher, logger)
	return resource.NewHandler(svc, Renderer(), FilterKeys, NewForm)
}
