package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"glimpse/internal/logging"
	"glimpse/internal/tools"
)

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry()
	err := registry.Register(tools.Tool{
		Name:        "echo",
		Description: "Echoes the text argument back.",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(_ context.Context, args json.RawMessage) tools.Result {
			var params struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return tools.Errorf("invalid parameters: %v", err)
			}
			return tools.Text(params.Text)
		},
	})
	if err != nil {
		t.Fatalf("register echo: %v", err)
	}
	return registry
}

// run feeds newline-delimited requests through a server and returns the
// decoded responses in order.
func run(t *testing.T, lines ...string) []response {
	t.Helper()
	var out bytes.Buffer
	server := NewServer("glimpse", "test", testRegistry(t), &out, logging.NewNop())
	input := strings.Join(lines, "\n") + "\n"
	if err := server.Serve(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var responses []response
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestInitialize(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	resp := responses[0]
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	payload, _ := json.Marshal(resp.Result)
	var result initializeResult
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.ServerInfo.Name != "glimpse" {
		t.Errorf("server name = %q", result.ServerInfo.Name)
	}
	if result.ProtocolVersion != protocolVersion {
		t.Errorf("protocol version = %q", result.ProtocolVersion)
	}
}

func TestPing(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","id":"p1","method":"ping"}`)
	if len(responses) != 1 || responses[0].Error != nil {
		t.Fatalf("responses = %+v", responses)
	}
	if string(responses[0].ID) != `"p1"` {
		t.Errorf("id = %s", responses[0].ID)
	}
}

func TestToolsListAndCall(t *testing.T) {
	responses := run(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`,
	)
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}

	payload, _ := json.Marshal(responses[0].Result)
	var list toolsListResult
	if err := json.Unmarshal(payload, &list); err != nil {
		t.Fatalf("decode tools/list result: %v", err)
	}
	if len(list.Tools) != 1 || list.Tools[0].Name != "echo" {
		t.Errorf("tools = %+v", list.Tools)
	}

	payload, _ = json.Marshal(responses[1].Result)
	var result tools.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("decode tools/call result: %v", err)
	}
	if result.IsError || result.Content[0].Text != "hi" {
		t.Errorf("call result = %+v", result)
	}
}

func TestUnknownMethod(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
	if len(responses) != 1 || responses[0].Error == nil {
		t.Fatalf("responses = %+v", responses)
	}
	if responses[0].Error.Code != codeMethodNotFound {
		t.Errorf("code = %d", responses[0].Error.Code)
	}
}

func TestUnknownToolIsInvalidParams(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"missing"}}`)
	if len(responses) != 1 || responses[0].Error == nil {
		t.Fatalf("responses = %+v", responses)
	}
	if responses[0].Error.Code != codeInvalidParams {
		t.Errorf("code = %d", responses[0].Error.Code)
	}
}

func TestParseErrorAndRecovery(t *testing.T) {
	responses := run(t,
		`{this is not json`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != codeParseError {
		t.Errorf("first response = %+v", responses[0])
	}
	if responses[1].Error != nil {
		t.Errorf("second response = %+v", responses[1])
	}
}

func TestNotificationsProduceNoResponse(t *testing.T) {
	responses := run(t,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
	)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
}

func TestServeStopsOnCancelWhileBlocked(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	var out bytes.Buffer
	server := NewServer("glimpse", "test", testRegistry(t), &out, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, reader) }()

	// No input is ever written; the serve loop is blocked on the pipe.
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve after cancel: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}

func TestBlankLinesIgnored(t *testing.T) {
	responses := run(t,
		``,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
	)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
}
