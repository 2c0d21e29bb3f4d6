package api

import (
	"encoding/json"
	"fmt"
)

// GenericErrorMessage is the last resort of the message fallback chain.
const GenericErrorMessage = "An unexpected error occurred"

// Error is a failed upstream request. Message is already resolved through
// the fallback chain and safe to show to the user.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.Status, e.Message)
}

// ErrorFromResponse builds an Error for a non-2xx upstream response.
func ErrorFromResponse(status int, body []byte) *Error {
	return &Error{Status: status, Message: MessageFromBody(body)}
}

// MessageFromBody resolves a user-facing message from an upstream error
// body. The backend is inconsistent about its error envelope, so the chain
// below is attempted in order until one yields a non-empty string:
//
//	error.Message -> error.error.message -> message -> GenericErrorMessage
func MessageFromBody(body []byte) string {
	var env struct {
		Error struct {
			Message string `json:"message"`
			Error   struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &env)

	if env.Error.Message != "" {
		return env.Error.Message
	}
	if env.Error.Error.Message != "" {
		return env.Error.Error.Message
	}
	if env.Message != "" {
		return env.Message
	}
	return GenericErrorMessage
}
