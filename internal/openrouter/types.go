package openrouter

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Model describes one upstream model as advertised by the gateway catalog.
// Instances are created only by decoding a listing response and are treated
// as immutable afterwards.
type Model struct {
	ID            string        `json:"id"`
	Name          string        `json:"name,omitempty"`
	Description   string        `json:"description,omitempty"`
	ContextLength ContextLength `json:"context_length,omitempty"`
	Pricing       *Pricing      `json:"pricing,omitempty"`
	Architecture  *Architecture `json:"architecture,omitempty"`
	// SupportedParameters drives the derived capability flags.
	SupportedParameters []string `json:"supported_parameters,omitempty"`
}

// Provider derives the provider slug from the id prefix ("vendor/name:variant").
func (m Model) Provider() string {
	if idx := strings.Index(m.ID, "/"); idx > 0 {
		return m.ID[:idx]
	}
	return ""
}

// Capabilities derives the capability flags from catalog metadata. Missing
// metadata yields all-false flags, meaning "unknown".
func (m Model) Capabilities() Capabilities {
	var caps Capabilities
	if m.Architecture != nil {
		modality := strings.ToLower(m.Architecture.Modality)
		caps.Vision = strings.Contains(modality, "image")
	}
	for _, param := range m.SupportedParameters {
		switch strings.ToLower(strings.TrimSpace(param)) {
		case "tools":
			caps.Tools = true
		case "tool_choice", "functions", "function_call":
			caps.FunctionCalling = true
		case "response_format", "structured_outputs":
			caps.JSONMode = true
		}
	}
	return caps
}

// Pricing is the per-token cost advertised for a model. The gateway encodes
// prices as numeric strings.
type Pricing struct {
	Prompt     Price `json:"prompt"`
	Completion Price `json:"completion"`
}

// Price is a numeric-string dollar amount; unparseable values decode to 0.
type Price float64

func (p *Price) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*p = 0
		return nil
	}
	value, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		*p = 0
		return nil
	}
	*p = Price(value)
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(p))
}

// ContextLength tolerates both an integer field and a numeric-string field;
// anything unparseable decodes to 0.
type ContextLength int

func (c *ContextLength) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*c = 0
		return nil
	}
	if value, err := strconv.Atoi(string(trimmed)); err == nil && value >= 0 {
		*c = ContextLength(value)
		return nil
	}
	if value, err := strconv.ParseFloat(string(trimmed), 64); err == nil && value >= 0 {
		*c = ContextLength(int(value))
		return nil
	}
	*c = 0
	return nil
}

// Architecture carries the modality metadata used to derive vision support.
type Architecture struct {
	Modality string `json:"modality,omitempty"`
}

// Capabilities is the set of derived capability flags for a model.
type Capabilities struct {
	FunctionCalling bool `json:"function_calling,omitempty"`
	Tools           bool `json:"tools,omitempty"`
	Vision          bool `json:"vision,omitempty"`
	JSONMode        bool `json:"json_mode,omitempty"`
}

// ChatRequest is the body of a chat completion call.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Message is one chat turn. Content is either a plain string or a slice of
// ContentPart for multimodal requests.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// TextMessage builds a plain text chat turn.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

// ContentPart is one element of a multimodal message body.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL wraps an image reference, typically a base64 data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image_url content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

// ChatResponse is the decoded body of a successful chat completion call.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one completion candidate.
type Choice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Content returns the assistant text of the first non-empty choice.
func (r ChatResponse) Content() string {
	for _, choice := range r.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content
		}
	}
	return ""
}

// FinishReason returns the finish reason of the first choice, if any.
func (r ChatResponse) FinishReason() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].FinishReason
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type modelListResponse struct {
	Data []Model `json:"data"`
}

type modelLookupResponse struct {
	Data *Model `json:"data"`
}
