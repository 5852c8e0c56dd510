package catalog

import (
	"strings"

	"glimpse/internal/openrouter"
)

const defaultSearchLimit = 10

// Filter describes a catalog search. All fields are optional and compose as
// a logical AND, applied in declaration order.
type Filter struct {
	// Query matches case-insensitively as a substring over id, description,
	// and provider.
	Query string
	// Provider matches the provider slug exactly, case-insensitively.
	Provider string
	// MinContext and MaxContext bound the context length inclusively.
	// Zero means unbounded.
	MinContext int
	MaxContext int
	// MaxPromptPrice and MaxCompletionPrice bound pricing inclusively.
	// A model with absent pricing passes any price filter.
	MaxPromptPrice     *float64
	MaxCompletionPrice *float64
	// Capabilities lists flags the model must all carry; a model missing a
	// requested flag fails the filter.
	Capabilities openrouter.Capabilities
	// Limit truncates the result. Non-positive values are ignored silently
	// and the default of 10 applies.
	Limit int
}

// Search applies the filter over the cached listing and returns matches in
// fetch order, truncated to the limit.
func (d *Directory) Search(f Filter) []openrouter.Model {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	matches := make([]openrouter.Model, 0, limit)
	for _, model := range d.All() {
		if !f.matches(model) {
			continue
		}
		matches = append(matches, model)
		if len(matches) >= limit {
			break
		}
	}
	return matches
}

func (f Filter) matches(model openrouter.Model) bool {
	if query := strings.ToLower(strings.TrimSpace(f.Query)); query != "" {
		haystack := strings.ToLower(model.ID + " " + model.Description + " " + model.Provider())
		if !strings.Contains(haystack, query) {
			return false
		}
	}
	if provider := strings.TrimSpace(f.Provider); provider != "" {
		if !strings.EqualFold(provider, model.Provider()) {
			return false
		}
	}
	if f.MinContext > 0 && int(model.ContextLength) < f.MinContext {
		return false
	}
	if f.MaxContext > 0 && int(model.ContextLength) > f.MaxContext {
		return false
	}
	if model.Pricing != nil {
		if f.MaxPromptPrice != nil && float64(model.Pricing.Prompt) > *f.MaxPromptPrice {
			return false
		}
		if f.MaxCompletionPrice != nil && float64(model.Pricing.Completion) > *f.MaxCompletionPrice {
			return false
		}
	}
	return hasCapabilities(model.Capabilities(), f.Capabilities)
}

func hasCapabilities(have, want openrouter.Capabilities) bool {
	if want.FunctionCalling && !have.FunctionCalling {
		return false
	}
	if want.Tools && !have.Tools {
		return false
	}
	if want.Vision && !have.Vision {
		return false
	}
	if want.JSONMode && !have.JSONMode {
		return false
	}
	return true
}
