package openrouter

import (
	"context"
	"errors"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status    int
		want      ErrorKind
		retryable bool
	}{
		{429, KindRateLimited, true},
		{500, KindServer, true},
		{503, KindServer, true},
		{401, KindAuth, false},
		{403, KindAuth, false},
		{400, KindInvalidRequest, false},
		{404, KindInvalidRequest, false},
	}
	for _, tt := range tests {
		apiErr := classifyStatus(tt.status, nil)
		if apiErr.Kind != tt.want {
			t.Errorf("status %d: got %s, want %s", tt.status, apiErr.Kind, tt.want)
		}
		if apiErr.Kind.Retryable() != tt.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, apiErr.Kind.Retryable(), tt.retryable)
		}
	}
}

func TestClassifyTransportContextCancelIsTerminal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	apiErr := classifyTransport(ctx, context.Canceled)
	if apiErr.Kind != KindUnknown {
		t.Fatalf("expected unknown classification for canceled context, got %s", apiErr.Kind)
	}
	if apiErr.Kind.Retryable() {
		t.Fatal("canceled context must not be retryable")
	}
	if !errors.Is(apiErr, context.Canceled) {
		t.Fatal("expected wrapped context error")
	}
}

func TestClassifyTransportClientTimeoutIsNetwork(t *testing.T) {
	// An http.Client timeout reports context.DeadlineExceeded even when the
	// caller's context is still live; that is a retryable network failure.
	timeoutErr := errors.Join(context.DeadlineExceeded, errors.New("Client.Timeout exceeded while awaiting headers"))

	apiErr := classifyTransport(context.Background(), timeoutErr)
	if apiErr.Kind != KindNetwork {
		t.Fatalf("expected network classification for client timeout, got %s", apiErr.Kind)
	}
	if !apiErr.Kind.Retryable() {
		t.Fatal("client timeout must be retryable")
	}
}

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested", `{"error":{"message":"rate limit exceeded"}}`, "rate limit exceeded"},
		{"flat", `{"message":"bad input"}`, "bad input"},
		{"plain text", "upstream exploded", "upstream exploded"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractErrorMessage([]byte(tt.body)); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
