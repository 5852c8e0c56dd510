package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"glimpse/internal/catalog"
	"glimpse/internal/logging"
	"glimpse/internal/openrouter"
)

type searchModelsArgs struct {
	Query              string            `json:"query"`
	Provider           string            `json:"provider"`
	MinContextLength   int               `json:"minContextLength"`
	MaxContextLength   int               `json:"maxContextLength"`
	MaxPromptPrice     *float64          `json:"maxPromptPrice"`
	MaxCompletionPrice *float64          `json:"maxCompletionPrice"`
	Capabilities       *capabilitiesArgs `json:"capabilities"`
	Limit              int               `json:"limit"`
}

type capabilitiesArgs struct {
	Vision          bool `json:"vision"`
	Tools           bool `json:"tools"`
	FunctionCalling bool `json:"function_calling"`
	JSONMode        bool `json:"json_mode"`
}

type modelIDArgs struct {
	Model string `json:"model"`
}

// modelSummary is the JSON shape rendered for each search hit.
type modelSummary struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name,omitempty"`
	Provider      string                  `json:"provider"`
	ContextLength int                     `json:"context_length"`
	Pricing       *openrouter.Pricing     `json:"pricing,omitempty"`
	Capabilities  openrouter.Capabilities `json:"capabilities"`
}

func summarize(m openrouter.Model) modelSummary {
	return modelSummary{
		ID:            m.ID,
		Name:          m.Name,
		Provider:      m.Provider(),
		ContextLength: int(m.ContextLength),
		Pricing:       m.Pricing,
		Capabilities:  m.Capabilities(),
	}
}

func (s *Service) searchModelsTool() Tool {
	return Tool{
		Name:        "search_models",
		Description: "Search the model catalog. All supplied filters must match; results are capped by limit (default 10).",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":              map[string]any{"type": "string", "description": "Substring matched against model id, description, and provider."},
				"provider":           map[string]any{"type": "string", "description": "Exact provider name, case-insensitive."},
				"minContextLength":   map[string]any{"type": "integer", "minimum": 0},
				"maxContextLength":   map[string]any{"type": "integer", "minimum": 0},
				"maxPromptPrice":     map[string]any{"type": "number", "description": "Maximum prompt price per token."},
				"maxCompletionPrice": map[string]any{"type": "number", "description": "Maximum completion price per token."},
				"capabilities": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"vision":           map[string]any{"type": "boolean"},
						"tools":            map[string]any{"type": "boolean"},
						"function_calling": map[string]any{"type": "boolean"},
						"json_mode":        map[string]any{"type": "boolean"},
					},
				},
				"limit": map[string]any{"type": "integer", "minimum": 1},
			},
		},
		Handler: s.handleSearchModels,
	}
}

func (s *Service) modelInfoTool() Tool {
	return Tool{
		Name:        "get_model_info",
		Description: "Return details for one model from the cached catalog.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"model": map[string]any{"type": "string", "description": "Full model id, e.g. anthropic/claude-sonnet-4."},
			},
			"required": []string{"model"},
		},
		Handler: s.handleModelInfo,
	}
}

func (s *Service) validateModelTool() Tool {
	return Tool{
		Name:        "validate_model",
		Description: "Check whether a model id exists in the cached catalog.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"model": map[string]any{"type": "string", "description": "Full model id to check."},
			},
			"required": []string{"model"},
		},
		Handler: s.handleValidateModel,
	}
}

func (s *Service) handleSearchModels(ctx context.Context, raw json.RawMessage) Result {
	requestID := s.newID()
	start := s.started("search_models", requestID)

	var args searchModelsArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return s.invalidParams("search_models", requestID, start, "%v", err)
	}
	if args.MinContextLength < 0 || args.MaxContextLength < 0 {
		return s.invalidParams("search_models", requestID, start, "context length bounds must not be negative")
	}

	refreshed := false
	if !s.directory.Valid() {
		if err := s.refreshDirectory(ctx); err != nil {
			s.finished("search_models", requestID, start, true)
			return s.apiErrorResult(requestID, "search_models", err)
		}
		refreshed = true
		s.logger.Info("model catalog refreshed",
			logging.String(logging.FieldRequestID, requestID),
			logging.Int("models", s.directory.Len()))
	}

	filter := catalog.Filter{
		Query:              args.Query,
		Provider:           args.Provider,
		MinContext:         args.MinContextLength,
		MaxContext:         args.MaxContextLength,
		MaxPromptPrice:     args.MaxPromptPrice,
		MaxCompletionPrice: args.MaxCompletionPrice,
		Limit:              args.Limit,
	}
	if args.Capabilities != nil {
		filter.Capabilities = openrouter.Capabilities{
			Vision:          args.Capabilities.Vision,
			Tools:           args.Capabilities.Tools,
			FunctionCalling: args.Capabilities.FunctionCalling,
			JSONMode:        args.Capabilities.JSONMode,
		}
	}

	hits := s.directory.Search(filter)
	summaries := make([]modelSummary, 0, len(hits))
	for _, m := range hits {
		summaries = append(summaries, summarize(m))
	}
	rendered, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		s.finished("search_models", requestID, start, true)
		return Errorf("could not render results: %v", err).withMeta("request_id", requestID)
	}

	result := Text(string(rendered)).
		withMeta("request_id", requestID).
		withMeta("result_count", len(summaries)).
		withMeta("catalog_size", s.directory.Len()).
		withMeta("refreshed", refreshed)
	s.finished("search_models", requestID, start, false)
	return result
}

func (s *Service) handleModelInfo(ctx context.Context, raw json.RawMessage) Result {
	requestID := s.newID()
	start := s.started("get_model_info", requestID)

	id, errResult, ok := s.parseModelID("get_model_info", requestID, start, raw)
	if !ok {
		return errResult
	}
	if !s.directory.Valid() {
		s.finished("get_model_info", requestID, start, true)
		return staleCatalogResult(requestID)
	}

	model, found := s.directory.Get(id)
	if !found {
		s.finished("get_model_info", requestID, start, true)
		return Errorf("model %q not found in catalog of %d models", id, s.directory.Len()).
			withMeta("request_id", requestID)
	}

	rendered, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		s.finished("get_model_info", requestID, start, true)
		return Errorf("could not render model: %v", err).withMeta("request_id", requestID)
	}
	s.finished("get_model_info", requestID, start, false)
	return Text(string(rendered)).
		withMeta("request_id", requestID).
		withMeta("model", model.ID)
}

func (s *Service) handleValidateModel(ctx context.Context, raw json.RawMessage) Result {
	requestID := s.newID()
	start := s.started("validate_model", requestID)

	id, errResult, ok := s.parseModelID("validate_model", requestID, start, raw)
	if !ok {
		return errResult
	}
	if !s.directory.Valid() {
		s.finished("validate_model", requestID, start, true)
		return staleCatalogResult(requestID)
	}

	valid := s.directory.Has(id)
	text := fmt.Sprintf("Model %q is not available.", id)
	if valid {
		text = fmt.Sprintf("Model %q is available.", id)
	}
	s.finished("validate_model", requestID, start, false)
	return Text(text).
		withMeta("request_id", requestID).
		withMeta("model", id).
		withMeta("valid", valid)
}

func (s *Service) parseModelID(tool, requestID string, start time.Time, raw json.RawMessage) (string, Result, bool) {
	var args modelIDArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", s.invalidParams(tool, requestID, start, "%v", err), false
	}
	id := strings.TrimSpace(args.Model)
	if id == "" {
		return "", s.invalidParams(tool, requestID, start, "model is required"), false
	}
	return id, Result{}, true
}

func staleCatalogResult(requestID string) Result {
	return Errorf("model catalog is empty or expired; run search_models to refresh it").
		withMeta("request_id", requestID)
}
