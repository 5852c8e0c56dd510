package tools

import (
	"context"
	"encoding/json"
	"strings"

	"glimpse/internal/openrouter"
)

type chatMessageArg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionArgs struct {
	Model       string           `json:"model"`
	Messages    []chatMessageArg `json:"messages"`
	Temperature *float64         `json:"temperature"`
}

func (s *Service) chatCompletionTool() Tool {
	return Tool{
		Name:        "chat_completion",
		Description: "Send a chat completion request to an OpenRouter model and return the assistant text.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"model": map[string]any{
					"type":        "string",
					"description": "Model id (e.g. \"anthropic/claude-sonnet-4\"). Optional; the configured default or an auto-selected free model is used when omitted or invalid.",
				},
				"messages": map[string]any{
					"type":        "array",
					"description": "Conversation turns in order.",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"role":    map[string]any{"type": "string", "enum": []string{"system", "user", "assistant"}},
							"content": map[string]any{"type": "string"},
						},
						"required": []string{"role", "content"},
					},
					"minItems": 1,
				},
				"temperature": map[string]any{
					"type":        "number",
					"description": "Sampling temperature between 0 and 2.",
					"minimum":     0,
					"maximum":     2,
				},
			},
			"required": []string{"messages"},
		},
		Handler: s.handleChatCompletion,
	}
}

func (s *Service) handleChatCompletion(ctx context.Context, raw json.RawMessage) Result {
	requestID := s.newID()
	start := s.started("chat_completion", requestID)

	var args chatCompletionArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return s.invalidParams("chat_completion", requestID, start, "%v", err)
	}
	if len(args.Messages) == 0 {
		return s.invalidParams("chat_completion", requestID, start, "messages must contain at least one entry")
	}

	messages := make([]openrouter.Message, 0, len(args.Messages))
	for i, msg := range args.Messages {
		role := strings.TrimSpace(msg.Role)
		if role == "" {
			return s.invalidParams("chat_completion", requestID, start, "message %d is missing a role", i)
		}
		messages = append(messages, openrouter.TextMessage(role, msg.Content))
	}
	if args.Temperature != nil && (*args.Temperature < 0 || *args.Temperature > 2) {
		return s.invalidParams("chat_completion", requestID, start, "temperature must be between 0 and 2")
	}

	model := s.resolver.Resolve(ctx, args.Model, s.defaultModel)
	resp, err := s.gateway.ChatCompletion(ctx, openrouter.ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: args.Temperature,
	})
	if err != nil {
		result := s.apiErrorResult(requestID, "chat_completion", err)
		s.finished("chat_completion", requestID, start, true)
		return result
	}

	content := resp.Content()
	if content == "" {
		s.finished("chat_completion", requestID, start, true)
		return Errorf("upstream returned an empty completion (finish_reason=%q)", resp.FinishReason()).
			withMeta("request_id", requestID).
			withMeta("model", resp.Model)
	}

	result := Text(content).
		withMeta("request_id", requestID).
		withMeta("model", resp.Model).
		withMeta("finish_reason", resp.FinishReason())
	if resp.Usage != nil {
		result = result.withMeta("usage", map[string]int{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		})
	}
	s.finished("chat_completion", requestID, start, false)
	return result
}
