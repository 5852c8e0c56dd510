package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies an upstream failure for retry decisions.
type ErrorKind int

const (
	// KindUnknown covers failures that fit no other classification. Terminal.
	KindUnknown ErrorKind = iota
	// KindAuth is HTTP 401/403. Terminal, surfaced immediately.
	KindAuth
	// KindInvalidRequest is any other HTTP 4xx. Terminal.
	KindInvalidRequest
	// KindRateLimited is HTTP 429. Retryable.
	KindRateLimited
	// KindServer is HTTP 5xx. Retryable.
	KindServer
	// KindNetwork means no HTTP response was received. Retryable.
	KindNetwork
)

// String returns the classification name used in logs and tool error text.
func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth_error"
	case KindInvalidRequest:
		return "invalid_request"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server_error"
	case KindNetwork:
		return "network_error"
	default:
		return "unknown"
	}
}

// Retryable reports whether the retry loop may attempt the request again.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

// APIError is a classified failure from the upstream gateway.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	switch {
	case msg != "" && e.Status > 0:
		return fmt.Sprintf("openrouter: %s (http %d): %s", e.Kind, e.Status, msg)
	case e.Status > 0:
		return fmt.Sprintf("openrouter: %s (http %d)", e.Kind, e.Status)
	case msg != "":
		return fmt.Sprintf("openrouter: %s: %s", e.Kind, msg)
	case e.Err != nil:
		return fmt.Sprintf("openrouter: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("openrouter: %s", e.Kind)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a retryable classification.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind.Retryable()
	}
	return false
}

// classifyStatus maps a non-2xx HTTP response to an APIError. The upstream
// error message is extracted from the body when the payload carries one.
func classifyStatus(status int, body []byte) *APIError {
	message := extractErrorMessage(body)
	switch {
	case status == http.StatusTooManyRequests:
		return &APIError{Kind: KindRateLimited, Status: status, Message: message}
	case status >= http.StatusInternalServerError:
		return &APIError{Kind: KindServer, Status: status, Message: message}
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return &APIError{Kind: KindAuth, Status: status, Message: message}
	case status >= http.StatusBadRequest:
		return &APIError{Kind: KindInvalidRequest, Status: status, Message: message}
	default:
		return &APIError{Kind: KindUnknown, Status: status, Message: message}
	}
}

// classifyTransport maps a failure with no HTTP response to an APIError.
// Terminal only when the caller's own context is done: an http.Client
// timeout also reports context.DeadlineExceeded, and a hung upstream bounded
// by the request timeout is a network failure the retry loop must handle.
func classifyTransport(ctx context.Context, err error) *APIError {
	if ctx.Err() != nil {
		return &APIError{Kind: KindUnknown, Err: err}
	}
	return &APIError{Kind: KindNetwork, Err: err}
}

// extractErrorMessage pulls a human-readable message out of an upstream error
// body. OpenRouter nests it under "error", some providers return it flat.
func extractErrorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(trimmed), &nested); err == nil {
		if msg := strings.TrimSpace(nested.Error.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(nested.Message); msg != "" {
			return msg
		}
	}
	const limit = 200
	if len(trimmed) > limit {
		return trimmed[:limit] + "..."
	}
	return trimmed
}
