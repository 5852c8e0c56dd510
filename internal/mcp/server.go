package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"glimpse/internal/logging"
	"glimpse/internal/tools"
)

// maxLineBytes bounds a single request line. Image arguments arrive as
// base64 data URIs, so lines can run to tens of megabytes.
const maxLineBytes = 64 * 1024 * 1024

// Server speaks line-delimited JSON-RPC 2.0 over a reader/writer pair,
// normally stdin/stdout. Requests are dispatched sequentially in arrival
// order; everything diagnostic goes to the logger, never to the protocol
// stream.
type Server struct {
	name     string
	version  string
	registry *tools.Registry
	logger   *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

// NewServer configures an MCP server over the given streams.
func NewServer(name, version string, registry *tools.Registry, out io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		name:     name,
		version:  version,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "mcp"),
		out:      out,
	}
}

// Serve reads requests until EOF or context cancellation. EOF is a clean
// shutdown, not an error. Reading happens on its own goroutine so a cancel
// takes effect immediately even while blocked waiting for the next line.
func (s *Server) Serve(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("request stream shutting down")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil && !errors.Is(err, io.ErrClosedPipe) {
						return fmt.Errorf("read request stream: %w", err)
					}
				default:
				}
				s.logger.Info("client closed the request stream")
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			s.handleLine(ctx, []byte(line))
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("unparseable request line", logging.Error(err))
		s.writeError(nil, codeParseError, "parse error")
		return
	}
	if req.Method == "" {
		if !req.notification() {
			s.writeError(req.ID, codeInvalidRequest, "method is required")
		}
		return
	}

	s.logger.Debug("request received", logging.String("method", req.Method))

	// Notifications get no reply, whatever the method.
	if req.notification() {
		return
	}

	switch req.Method {
	case "initialize":
		s.writeResult(req.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    capabilities{Tools: toolsCapability{}},
			ServerInfo:      serverInfo{Name: s.name, Version: s.version},
		})
	case "ping":
		s.writeResult(req.ID, struct{}{})
	case "tools/list":
		s.writeResult(req.ID, s.listTools())
	case "tools/call":
		s.handleToolCall(ctx, req)
	default:
		s.writeError(req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func (s *Server) listTools() toolsListResult {
	registered := s.registry.List()
	descriptors := make([]toolDescriptor, 0, len(registered))
	for _, tool := range registered {
		descriptors = append(descriptors, toolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return toolsListResult{Tools: descriptors}
}

func (s *Server) handleToolCall(ctx context.Context, req request) {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, codeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err))
		return
	}
	if params.Name == "" {
		s.writeError(req.ID, codeInvalidParams, "tool name is required")
		return
	}
	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	result, ok := s.registry.Call(ctx, params.Name, args)
	if !ok {
		s.writeError(req.ID, codeInvalidParams, fmt.Sprintf("unknown tool %q", params.Name))
		return
	}
	s.writeResult(req.ID, result)
}

func (s *Server) writeResult(id json.RawMessage, result any) {
	s.write(response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	s.write(response{JSONRPC: "2.0", ID: id, Error: &responseError{Code: code, Message: message}})
}

func (s *Server) write(resp response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("response marshal failed", logging.Error(err))
		payload, _ = json.Marshal(response{
			JSONRPC: "2.0",
			ID:      resp.ID,
			Error:   &responseError{Code: codeInternalError, Message: "internal error"},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(append(payload, '\n')); err != nil {
		s.logger.Error("response write failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "client will not receive this response"))
	}
}
