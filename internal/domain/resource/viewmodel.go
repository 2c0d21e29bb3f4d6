package resource

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medidesk/medidesk/internal/platform/api"
	"github.com/medidesk/medidesk/internal/platform/forms"
	"github.com/medidesk/medidesk/internal/platform/table"
	"github.com/medidesk/medidesk/pkg/pagination"
)

// Model is the rendered list view sent to the browser: the table, the
// pagination strip and an echo of the effective filter state.
type Model struct {
	Table      table.Table        `json:"table"`
	Pagination pagination.Control `json:"pagination"`
	Filters    map[string]string  `json:"filters"`
}

// ErrorPayload resolves an error into the toast payload and HTTP status
// shown to the user. Validation failures carry their per-field messages;
// upstream failures carry the resolved fallback-chain message; anything
// else gets the generic message.
func ErrorPayload(err error) (int, map[string]interface{}) {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "validation failed",
			"fields":  verr.Fields,
		}
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, map[string]interface{}{"message": apiErr.Message}
	}
	return http.StatusInternalServerError, map[string]interface{}{"message": api.GenericErrorMessage}
}

// RespondError writes the toast payload for err.
func RespondError(c echo.Context, err error) error {
	status, payload := ErrorPayload(err)
	return c.JSON(status, payload)
}
