package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"glimpse/internal/imagesource"
	"glimpse/internal/openrouter"
)

const defaultImagePrompt = "What's in this image?"

// imageRef is one image argument. MCP clients send either a bare URL string
// or an object with url/alt, so both decode.
type imageRef struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

func (r *imageRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		r.URL = url
		return nil
	}
	type plain imageRef
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = imageRef(decoded)
	return nil
}

type analyzeImageArgs struct {
	Image            imageRef `json:"image"`
	Prompt           string   `json:"prompt"`
	Model            string   `json:"model"`
	MarkdownResponse *bool    `json:"markdown_response"`
}

type multiImageArgs struct {
	Images           []imageRef `json:"images"`
	Prompt           string     `json:"prompt"`
	Model            string     `json:"model"`
	MarkdownResponse *bool      `json:"markdown_response"`
}

var imageRefSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"url": map[string]any{
			"type":        "string",
			"description": "Data URI, file:// URL, absolute filesystem path, or http(s) URL.",
		},
		"alt": map[string]any{
			"type":        "string",
			"description": "Optional label included alongside the image.",
		},
	},
	"required": []string{"url"},
}

func (s *Service) analyzeImageTool() Tool {
	return Tool{
		Name:        "analyze_image",
		Description: "Analyze a single image with a vision-capable model.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"image":             imageRefSchema,
				"prompt":            map[string]any{"type": "string", "description": "Question to ask about the image."},
				"model":             map[string]any{"type": "string", "description": "Vision model id. Optional."},
				"markdown_response": map[string]any{"type": "boolean", "description": "Format the answer as Markdown (default true)."},
			},
			"required": []string{"image"},
		},
		Handler: s.handleAnalyzeImage,
	}
}

func (s *Service) multiImageAnalysisTool() Tool {
	return Tool{
		Name:        "multi_image_analysis",
		Description: "Analyze several images together with one prompt. Images that cannot be processed are skipped and reported.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"images": map[string]any{
					"type":        "array",
					"description": "Images to analyze together.",
					"items":       imageRefSchema,
					"minItems":    1,
				},
				"prompt":            map[string]any{"type": "string", "description": "Question to ask about the images."},
				"model":             map[string]any{"type": "string", "description": "Vision model id. Optional."},
				"markdown_response": map[string]any{"type": "boolean", "description": "Format the answer as Markdown (default true)."},
			},
			"required": []string{"images", "prompt"},
		},
		Handler: s.handleMultiImageAnalysis,
	}
}

func (s *Service) handleAnalyzeImage(ctx context.Context, raw json.RawMessage) Result {
	requestID := s.newID()
	start := s.started("analyze_image", requestID)

	var args analyzeImageArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return s.invalidParams("analyze_image", requestID, start, "%v", err)
	}
	if strings.TrimSpace(args.Image.URL) == "" {
		return s.invalidParams("analyze_image", requestID, start, "image source is required")
	}

	img, err := s.loader.Load(ctx, args.Image.URL)
	if err != nil {
		s.finished("analyze_image", requestID, start, true)
		return imageLoadResult(requestID, args.Image.URL, err)
	}

	parts := []openrouter.ContentPart{
		openrouter.TextPart(buildPrompt(args.Prompt, args.MarkdownResponse)),
	}
	if alt := strings.TrimSpace(args.Image.Alt); alt != "" {
		parts = append(parts, openrouter.TextPart("Image: "+alt))
	}
	parts = append(parts, openrouter.ImagePart(imagesource.DataURI(img)))

	result := s.completeVision(ctx, requestID, "analyze_image", args.Model, parts)
	s.finished("analyze_image", requestID, start, result.IsError)
	return result
}

func (s *Service) handleMultiImageAnalysis(ctx context.Context, raw json.RawMessage) Result {
	requestID := s.newID()
	start := s.started("multi_image_analysis", requestID)

	var args multiImageArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return s.invalidParams("multi_image_analysis", requestID, start, "%v", err)
	}
	if len(args.Images) == 0 {
		return s.invalidParams("multi_image_analysis", requestID, start, "images must contain at least one entry")
	}
	if strings.TrimSpace(args.Prompt) == "" {
		return s.invalidParams("multi_image_analysis", requestID, start, "prompt is required")
	}

	parts := []openrouter.ContentPart{
		openrouter.TextPart(buildPrompt(args.Prompt, args.MarkdownResponse)),
	}
	var failures []string
	successful := 0
	for i, ref := range args.Images {
		if strings.TrimSpace(ref.URL) == "" {
			failures = append(failures, fmt.Sprintf("image %d: source is empty", i+1))
			continue
		}
		img, err := s.loader.Load(ctx, ref.URL)
		if err != nil {
			failures = append(failures, fmt.Sprintf("image %d (%s): %v", i+1, ref.URL, err))
			continue
		}
		if alt := strings.TrimSpace(ref.Alt); alt != "" {
			parts = append(parts, openrouter.TextPart(fmt.Sprintf("Image %d: %s", i+1, alt)))
		}
		parts = append(parts, openrouter.ImagePart(imagesource.DataURI(img)))
		successful++
	}

	if successful == 0 {
		s.finished("multi_image_analysis", requestID, start, true)
		return Errorf("no images could be processed:\n- %s", strings.Join(failures, "\n- ")).
			withMeta("request_id", requestID).
			withMeta("successful_images", 0).
			withMeta("failed_images", len(failures))
	}

	result := s.completeVision(ctx, requestID, "multi_image_analysis", args.Model, parts)
	if !result.IsError && len(failures) > 0 && len(result.Content) > 0 {
		result.Content[0].Text += "\n\nNote: some images could not be processed:\n- " +
			strings.Join(failures, "\n- ")
	}
	result = result.
		withMeta("successful_images", successful).
		withMeta("failed_images", len(failures))
	s.finished("multi_image_analysis", requestID, start, result.IsError)
	return result
}

// completeVision resolves a vision model and issues the multimodal request.
func (s *Service) completeVision(ctx context.Context, requestID, tool, requestedModel string, parts []openrouter.ContentPart) Result {
	model := s.resolver.Resolve(ctx, requestedModel, s.defaultModel)
	resp, err := s.gateway.ChatCompletion(ctx, openrouter.ChatRequest{
		Model:    model,
		Messages: []openrouter.Message{{Role: "user", Content: parts}},
	})
	if err != nil {
		return s.apiErrorResult(requestID, tool, err)
	}
	content := resp.Content()
	if content == "" {
		return Errorf("upstream returned an empty analysis (finish_reason=%q)", resp.FinishReason()).
			withMeta("request_id", requestID).
			withMeta("model", resp.Model)
	}
	return Text(content).
		withMeta("request_id", requestID).
		withMeta("model", resp.Model)
}

func imageLoadResult(requestID, ref string, err error) Result {
	if errors.Is(err, imagesource.ErrNotAbsolute) || errors.Is(err, imagesource.ErrUnsupportedScheme) {
		return Errorf("invalid parameters: %v", err).withMeta("request_id", requestID)
	}
	return Errorf("could not process image %s: %v", ref, err).withMeta("request_id", requestID)
}

func buildPrompt(prompt string, markdown *bool) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = defaultImagePrompt
	}
	if markdown == nil || *markdown {
		return prompt + "\n\nFormat your response using Markdown."
	}
	return prompt + "\n\nRespond in plain text without Markdown formatting."
}
