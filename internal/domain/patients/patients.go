// Package patients is the patients screen.
package patients

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/medidesk/medidesk/internal/domain/resource"
	"github.com/medidesk/medidesk/internal/platform/api"
	"github.com/medidesk/medidesk/internal/platform/forms"
	"github.com/medidesk/medidesk/internal/platform/query"
	"github.com/medidesk/medidesk/internal/platform/table"
	"github.com/medidesk/medidesk/internal/platform/websocket"
)

const Name = "patients"

// PhonePrefix is the fixed country code stored with every patient phone
// number. Forms edit only the local digits.
const PhonePrefix = "+90"

var FilterKeys = []string{"SearchTerm", "Gender", "BloodType"}

// Row is one patient as listed by the upstream API.
type Row struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	BloodType string `json:"bloodType"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birthDate"`
}

func (r Row) RowID() string { return strconv.Itoa(r.ID) }

func Columns() []table.Column {
	return []table.Column{
		{Kind: table.KindIndex, Label: "#", Width: "48px"},
		{Kind: table.KindField, Key: "name", Label: "Name"},
		{Kind: table.KindField, Key: "gender", Label: "Gender", Align: "center"},
		{Kind: table.KindField, Key: "bloodType", Label: "Blood Type", Align: "center"},
		{Kind: table.KindField, Key: "phone", Label: "Phone"},
		{Kind: table.KindField, Key: "birthDate", Label: "Birth Date"},
	}
}

func Renderer() *table.Renderer[Row] {
	return table.NewRenderer[Row](Columns()).Actions(
		table.Action[Row]{Name: "edit", Label: "Edit", Icon: "pencil"},
		table.Action[Row]{Name: "delete", Label: "Delete", Icon: "trash", Style: "danger"},
	)
}

// NewForm builds the patient dialog. The phone field holds local digits
// only; the stored prefix is stripped for editing and restored on submit.
func NewForm() *forms.Form {
	f := forms.New(map[string]string{"gender": "unspecified"})
	f.Rules("name", forms.Required("Name"), forms.MaxLen("Name", 80))
	f.Rules("gender", forms.OneOf("Gender", "male", "female", "unspecified"))
	f.Rules("bloodType", forms.OneOf("Blood Type", "A+", "A-", "B+", "B-", "AB+", "AB-", "0+", "0-"))
	f.Rules("phone", forms.Required("Phone"), forms.Digits("Phone"), forms.MinLen("Phone", 10))
	return f
}

// EditValues maps a row into form values, splitting the phone prefix off.
func EditValues(r Row) map[string]string {
	return map[string]string{
		"name":      r.Name,
		"gender":    r.Gender,
		"bloodType": r.BloodType,
		"phone":     forms.SplitPhone(r.Phone, PhonePrefix),
		"birthDate": r.BirthDate,
	}
}

// SubmitPayload re-prefixes the phone number before the upstream call.
func SubmitPayload(values map[string]string) map[string]string {
	payload := make(map[string]string, len(values))
	for k, v := range values {
		payload[k] = v
	}
	payload["phone"] = forms.JoinPhone(values["phone"], PhonePrefix)
	return payload
}

// gateway wraps the plain REST gateway to apply the phone prefixing on
// writes.
type gateway struct {
	*resource.APIGateway
}

func (g gateway) Create(ctx context.Context, payload map[string]string) error {
	return g.APIGateway.Create(ctx, SubmitPayload(payload))
}

func (g gateway) Update(ctx context.Context, id string, payload map[string]string) error {
	return g.APIGateway.Update(ctx, id, SubmitPayload(payload))
}

// NewHandler wires the patients view.
func NewHandler(client *api.Client, cache *query.Cache, publisher websocket.EventPublisher, logger zerolog.Logger) (*resource.Handler[Row], error) {
	gw := gateway{resource.NewAPIGateway(client, "/patients")}
	svc := resource.NewService[Row](Name, gw, cache, publisher, logger)
	return resource.NewHandler(svc, Renderer(), FilterKeys, NewForm)
}
