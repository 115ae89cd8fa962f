package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnavailable means no response reached the client (network failure).
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized is a 401 that survived the retry budget.
	ErrUnauthorized = errors.New("unauthorized")
)

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 answers.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

func newHTTPError(status int, body []byte) *HTTPError {
	return &HTTPError{StatusCode: status, Message: errorMessage(status, body), Body: body}
}

// errorMessage picks the most specific text out of an error body:
// {"error": ...}, then {"detail": ...}, then serializer field errors
// ({"username": ["..."]}), then the status text.
func errorMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "detail", "message"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
		if msg := fieldErrors(payload); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected response"
}

func fieldErrors(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		switch v := payload[k].(type) {
		case []any:
			msgs := make([]string, 0, len(v))
			for _, m := range v {
				if s, ok := m.(string); ok {
					msgs = append(msgs, s)
				}
			}
			if len(msgs) > 0 {
				parts = append(parts, k+": "+strings.Join(msgs, " "))
			}
		case string:
			parts = append(parts, k+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}
