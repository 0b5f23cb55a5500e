package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/servicedesk/session-gateway/internal/core/domain"
)

// APIError is a non-2xx answer from the upstream API, decoded from its error
// envelope: {"message": "...", "error": {"field": "msg" | ["msg", ...]}}.
// Field errors are kept per-field so the UI can bind them onto form inputs;
// Message is the top-level fallback when no field mapping applies.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream: %d: %s", e.Status, http.StatusText(e.Status))
}

// Unwrap maps session-level statuses onto domain sentinels so callers can use
// errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrSessionExpired
	case http.StatusForbidden:
		return domain.ErrForbiddenRole
	}
	return nil
}

// errorEnvelope mirrors the upstream wire shape. The error field values may
// be a single string or an array of strings, so they decode lazily.
type errorEnvelope struct {
	Message string                     `json:"message"`
	Error   map[string]json.RawMessage `json:"error"`
}

// decodeError builds an *APIError from a response body. A body that is not
// the expected envelope still yields a usable error carrying the status.
func decodeError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apiErr
	}
	apiErr.Message = env.Message

	if len(env.Error) > 0 {
		apiErr.Fields = make(map[string][]string, len(env.Error))
		for field, raw := range env.Error {
			var one string
			if err := json.Unmarshal(raw, &one); err == nil {
				apiErr.Fields[field] = []string{one}
				continue
			}
			var many []string
			if err := json.Unmarshal(raw, &many); err == nil {
				apiErr.Fields[field] = many
			}
		}
	}
	return apiErr
}
