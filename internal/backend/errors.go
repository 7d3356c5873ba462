package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized       = errors.New("backend rejected credentials")
	ErrNotFound           = errors.New("backend resource not found")
	ErrConflict           = errors.New("backend resource conflict")
	ErrBadRequest         = errors.New("backend rejected request")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Error is a non-2xx backend response.
type Error struct {
	Method  string
	Route   string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Route, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Route, e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	case ErrBackendUnavailable:
		return e.Status >= 500
	}
	return false
}

// Message returns the backend's user-facing message when err carries one.
func Message(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}

// errorMessage pulls "message" or "error" out of a JSON body, falling back to
// the first line of plain text.
func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
		return ""
	}
	s := strings.TrimSpace(string(body))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
