package catalog

import (
	"testing"

	"glimpse/internal/logging"
	"glimpse/internal/openrouter"
)

func floatPtr(v float64) *float64 { return &v }

func searchFixture() *Directory {
	dir := NewDirectory(logging.NewNop())
	dir.SetAll([]openrouter.Model{
		{
			ID:            "a/m1",
			ContextLength: 1000,
			Pricing:       &openrouter.Pricing{Prompt: 0},
		},
		{
			ID:            "b/m2",
			ContextLength: 50000,
			Pricing:       &openrouter.Pricing{Prompt: 5},
		},
	})
	return dir
}

func TestSearchFiltersComposeAsAND(t *testing.T) {
	dir := searchFixture()

	results := dir.Search(Filter{MinContext: 2000})
	if len(results) != 1 || results[0].ID != "b/m2" {
		t.Fatalf("expected only b/m2, got %v", ids(results))
	}

	results = dir.Search(Filter{MinContext: 2000, MaxPromptPrice: floatPtr(1)})
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %v", ids(results))
	}
}

func TestSearchQuerySubstringCaseInsensitive(t *testing.T) {
	dir := NewDirectory(logging.NewNop())
	dir.SetAll([]openrouter.Model{
		{ID: "anthropic/claude-sonnet", Description: "Strong vision model"},
		{ID: "mistralai/mistral-small"},
	})

	results := dir.Search(Filter{Query: "CLAUDE"})
	if len(results) != 1 || results[0].ID != "anthropic/claude-sonnet" {
		t.Fatalf("expected claude match, got %v", ids(results))
	}

	results = dir.Search(Filter{Query: "vision"})
	if len(results) != 1 || results[0].ID != "anthropic/claude-sonnet" {
		t.Fatalf("expected description match, got %v", ids(results))
	}

	results = dir.Search(Filter{Query: "mistralai"})
	if len(results) != 1 || results[0].ID != "mistralai/mistral-small" {
		t.Fatalf("expected provider match, got %v", ids(results))
	}
}

func TestSearchProviderExactMatch(t *testing.T) {
	dir := NewDirectory(logging.NewNop())
	dir.SetAll([]openrouter.Model{
		{ID: "openai/gpt-4o"},
		{ID: "openai-community/gpt2"},
	})

	results := dir.Search(Filter{Provider: "OpenAI"})
	if len(results) != 1 || results[0].ID != "openai/gpt-4o" {
		t.Fatalf("provider filter must match exactly, got %v", ids(results))
	}
}

func TestSearchAbsentPricingPassesPriceFilter(t *testing.T) {
	dir := NewDirectory(logging.NewNop())
	dir.SetAll([]openrouter.Model{
		{ID: "x/unpriced"},
		{ID: "y/pricey", Pricing: &openrouter.Pricing{Prompt: 10, Completion: 20}},
	})

	results := dir.Search(Filter{MaxPromptPrice: floatPtr(1), MaxCompletionPrice: floatPtr(1)})
	if len(results) != 1 || results[0].ID != "x/unpriced" {
		t.Fatalf("absent pricing must pass price filters, got %v", ids(results))
	}
}

func TestSearchCapabilityConjunction(t *testing.T) {
	dir := NewDirectory(logging.NewNop())
	dir.SetAll([]openrouter.Model{
		{
			ID:                  "v/vision-tools",
			Architecture:        &openrouter.Architecture{Modality: "text+image->text"},
			SupportedParameters: []string{"tools"},
		},
		{
			ID:           "v/vision-only",
			Architecture: &openrouter.Architecture{Modality: "text+image->text"},
		},
		{ID: "t/text-only"},
	})

	results := dir.Search(Filter{Capabilities: openrouter.Capabilities{Vision: true, Tools: true}})
	if len(results) != 1 || results[0].ID != "v/vision-tools" {
		t.Fatalf("expected conjunction match, got %v", ids(results))
	}
}

func TestSearchLimit(t *testing.T) {
	dir := NewDirectory(logging.NewNop())
	models := make([]openrouter.Model, 0, 15)
	for i := 0; i < 15; i++ {
		models = append(models, openrouter.Model{ID: "p/m" + string(rune('a'+i))})
	}
	dir.SetAll(models)

	if got := len(dir.Search(Filter{})); got != 10 {
		t.Fatalf("default limit must be 10, got %d", got)
	}
	if got := len(dir.Search(Filter{Limit: 3})); got != 3 {
		t.Fatalf("explicit limit must apply, got %d", got)
	}
	if got := len(dir.Search(Filter{Limit: -5})); got != 10 {
		t.Fatalf("non-positive limit must be ignored silently, got %d", got)
	}
}

func ids(models []openrouter.Model) []string {
	out := make([]string, 0, len(models))
	for _, m := range models {
		out = append(out, m.ID)
	}
	return out
}
