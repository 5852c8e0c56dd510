package resolver

import (
	"context"
	"log/slog"
	"strings"

	"glimpse/internal/logging"
	"glimpse/internal/openrouter"
)

// FallbackModel is the hard-coded default free vision-capable model used
// when no other selection succeeds. It is assumed always available and is
// accepted without verification.
const FallbackModel = "qwen/qwen2.5-vl-72b-instruct:free"

// visionMarkers are the id substrings auto-selection treats as a sign of
// vision support. Capability metadata is unreliable across providers, so
// this stays a substring heuristic on purpose.
var visionMarkers = []string{"vl", "vision", "claude", "gemini", "gpt-4", "qwen"}

const freeMarker = "free"

// Gateway is the subset of the API client the resolver needs.
type Gateway interface {
	GetModel(ctx context.Context, id string) (openrouter.Model, error)
	ListModels(ctx context.Context) ([]openrouter.Model, error)
}

// Resolver decides the actual model id to send upstream for one request.
type Resolver struct {
	gateway Gateway
	logger  *slog.Logger
}

// New constructs a resolver over the supplied gateway client.
func New(gateway Gateway, logger *slog.Logger) *Resolver {
	return &Resolver{
		gateway: gateway,
		logger:  logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve picks the model id to use for a request. It never fails: every
// path terminates with some usable id.
//
// The tentative selection is the caller's requested model, then the
// configured default, then the fallback. The fallback is accepted without
// verification; anything else is verified with a cheap single-model lookup,
// and a failed verification hands off to auto-selection. This keeps
// full-catalog fetches off the common path where the caller already knows a
// valid model.
func (r *Resolver) Resolve(ctx context.Context, requested, configuredDefault string) string {
	tentative := strings.TrimSpace(requested)
	if tentative == "" {
		tentative = strings.TrimSpace(configuredDefault)
	}
	if tentative == "" {
		tentative = FallbackModel
	}
	if tentative == FallbackModel {
		return FallbackModel
	}

	_, err := r.gateway.GetModel(ctx, tentative)
	if err == nil {
		return tentative
	}
	r.logger.Warn("model verification failed, auto-selecting",
		logging.String(logging.FieldModel, tentative),
		logging.Error(err))
	return r.FindFreeVisionModel(ctx)
}

// FindFreeVisionModel picks a free vision-capable model from the catalog.
//
// It first verifies the fallback directly and returns it when confirmed.
// Otherwise it fetches the full listing, keeps ids carrying a "free" marker
// plus at least one vision marker, and returns the candidate with the
// largest context length (first occurrence wins ties). An empty candidate
// set or a failed listing yields the fallback id unconditionally.
func (r *Resolver) FindFreeVisionModel(ctx context.Context) string {
	if _, err := r.gateway.GetModel(ctx, FallbackModel); err == nil {
		return FallbackModel
	}

	models, err := r.gateway.ListModels(ctx)
	if err != nil {
		r.logger.Warn("model listing failed, using fallback",
			logging.String(logging.FieldModel, FallbackModel),
			logging.Error(err))
		return FallbackModel
	}

	best := ""
	bestContext := -1
	for _, model := range models {
		if !isFreeVisionCandidate(model.ID) {
			continue
		}
		contextLength := int(model.ContextLength)
		if contextLength > bestContext {
			best = model.ID
			bestContext = contextLength
		}
	}
	if best == "" {
		return FallbackModel
	}
	r.logger.Info("auto-selected model",
		logging.String(logging.FieldModel, best),
		logging.Int("context_length", bestContext))
	return best
}

func isFreeVisionCandidate(id string) bool {
	lower := strings.ToLower(id)
	if !strings.Contains(lower, freeMarker) {
		return false
	}
	for _, marker := range visionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
