package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyID is returned before any request when a report id is blank.
var ErrEmptyID = errors.New("report id is required")

// Error is a non-success HTTP response. Detail is the text shown to the user.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// errorFromBody builds the user-facing error for a failed response. A body that
// is not JSON yields "Unknown error"; JSON without a usable detail yields "HTTP <status>".
func errorFromBody(status int, body []byte) *Error {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &Error{Status: status, Detail: "Unknown error"}
	}
	if detail := detailText(payload.Detail); detail != "" {
		return &Error{Status: status, Detail: detail}
	}
	return &Error{Status: status, Detail: fmt.Sprintf("HTTP %d", status)}
}

// detailText handles both plain string details and validation error lists.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
