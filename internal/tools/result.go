package tools

import "fmt"

// ContentItem is one element of a tool result body. Only text content is
// produced by this server.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the outcome of one tool call. Hard failures are communicated via
// IsError with a human-readable message; the transport never sees a raw
// error from a handler.
type Result struct {
	Content  []ContentItem  `json:"content"`
	IsError  bool           `json:"isError,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Text builds a successful single-text result.
func Text(text string) Result {
	return Result{Content: []ContentItem{{Type: "text", Text: text}}}
}

// Errorf builds an error result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{
		Content: []ContentItem{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// withMeta attaches metadata, allocating the map on first use.
func (r Result) withMeta(key string, value any) Result {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any, 4)
	}
	r.Metadata[key] = value
	return r
}
