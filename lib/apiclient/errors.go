// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RequestError is a non-2xx server response mapped to a human-readable
// message. The Message field is what the error banner shows.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// errorFromResponse maps a failed response to a RequestError. If the
// body is JSON with a "message" field, that text is used verbatim (the
// server writes user-facing messages there). Otherwise the message is
// derived from the status code: 403 usually means the user lost
// permissions mid-session (kicked), 404 that the target disappeared
// (room deleted).
func errorFromResponse(statusCode int, body []byte) error {
	if message := jsonMessage(body); message != "" {
		return &RequestError{StatusCode: statusCode, Message: message}
	}
	switch statusCode {
	case http.StatusForbidden:
		return &RequestError{
			StatusCode: statusCode,
			Message:    "missing permissions, you may have been kicked from the room",
		}
	case http.StatusNotFound:
		return &RequestError{
			StatusCode: statusCode,
			Message:    "not found, it may have been deleted",
		}
	default:
		message := fmt.Sprintf("HTTP %d", statusCode)
		if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
			message += ": " + trimmed
		}
		return &RequestError{StatusCode: statusCode, Message: message}
	}
}

// jsonMessage extracts the "message" field from a JSON error body, or
// returns "" if the body is not JSON or has no such field.
func jsonMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Message
}
