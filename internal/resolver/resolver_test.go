package resolver

import (
	"context"
	"errors"
	"testing"

	"glimpse/internal/logging"
	"glimpse/internal/openrouter"
)

type fakeGateway struct {
	known        map[string]bool
	listing      []openrouter.Model
	listErr      error
	lookupCalls  int
	listingCalls int
}

func (f *fakeGateway) GetModel(_ context.Context, id string) (openrouter.Model, error) {
	f.lookupCalls++
	if f.known[id] {
		return openrouter.Model{ID: id}, nil
	}
	return openrouter.Model{}, &openrouter.APIError{Kind: openrouter.KindInvalidRequest, Status: 404}
}

func (f *fakeGateway) ListModels(_ context.Context) ([]openrouter.Model, error) {
	f.listingCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listing, nil
}

func TestResolveFallbackRequestedSkipsVerification(t *testing.T) {
	gateway := &fakeGateway{}
	r := New(gateway, logging.NewNop())

	got := r.Resolve(context.Background(), FallbackModel, "some/default")
	if got != FallbackModel {
		t.Fatalf("expected fallback, got %q", got)
	}
	if gateway.lookupCalls != 0 || gateway.listingCalls != 0 {
		t.Fatalf("expected zero network calls, got %d lookups and %d listings",
			gateway.lookupCalls, gateway.listingCalls)
	}
}

func TestResolveRequestedWinsOverDefault(t *testing.T) {
	gateway := &fakeGateway{known: map[string]bool{"vendor/wanted": true}}
	r := New(gateway, logging.NewNop())

	got := r.Resolve(context.Background(), "vendor/wanted", "vendor/default")
	if got != "vendor/wanted" {
		t.Fatalf("expected requested model, got %q", got)
	}
	if gateway.lookupCalls != 1 {
		t.Fatalf("expected exactly one verification lookup, got %d", gateway.lookupCalls)
	}
	if gateway.listingCalls != 0 {
		t.Fatal("verified model must not trigger a listing fetch")
	}
}

func TestResolveDefaultUsedWhenRequestedAbsent(t *testing.T) {
	gateway := &fakeGateway{known: map[string]bool{"vendor/default": true}}
	r := New(gateway, logging.NewNop())

	got := r.Resolve(context.Background(), "", "vendor/default")
	if got != "vendor/default" {
		t.Fatalf("expected configured default, got %q", got)
	}
}

func TestResolveNothingSpecifiedFallsToFallback(t *testing.T) {
	gateway := &fakeGateway{}
	r := New(gateway, logging.NewNop())

	got := r.Resolve(context.Background(), "", "")
	if got != FallbackModel {
		t.Fatalf("expected fallback, got %q", got)
	}
	if gateway.lookupCalls != 0 {
		t.Fatal("fallback selection must skip verification")
	}
}

func TestResolveInvalidModelTriggersAutoSelection(t *testing.T) {
	gateway := &fakeGateway{
		listing: []openrouter.Model{
			{ID: "x/free-vl", ContextLength: 8000},
			{ID: "y/free-vision", ContextLength: 32000},
		},
	}
	r := New(gateway, logging.NewNop())

	got := r.Resolve(context.Background(), "vendor/bogus", "")
	if got != "y/free-vision" {
		t.Fatalf("expected auto-selected y/free-vision, got %q", got)
	}
}

func TestFindFreeVisionModelPrefersVerifiedFallback(t *testing.T) {
	gateway := &fakeGateway{known: map[string]bool{FallbackModel: true}}
	r := New(gateway, logging.NewNop())

	got := r.FindFreeVisionModel(context.Background())
	if got != FallbackModel {
		t.Fatalf("expected fallback, got %q", got)
	}
	if gateway.listingCalls != 0 {
		t.Fatal("confirmed fallback must not fetch the listing")
	}
}

func TestFindFreeVisionModelPicksLargestContext(t *testing.T) {
	gateway := &fakeGateway{
		listing: []openrouter.Model{
			{ID: "x/free-vl", ContextLength: 8000},
			{ID: "y/free-vision", ContextLength: 32000},
			{ID: "z/free-chat", ContextLength: 128000}, // no vision marker
			{ID: "w/vision-paid", ContextLength: 200000},
		},
	}
	r := New(gateway, logging.NewNop())

	got := r.FindFreeVisionModel(context.Background())
	if got != "y/free-vision" {
		t.Fatalf("expected y/free-vision, got %q", got)
	}
}

func TestFindFreeVisionModelFirstOccurrenceWinsTies(t *testing.T) {
	gateway := &fakeGateway{
		listing: []openrouter.Model{
			{ID: "first/free-vl", ContextLength: 16000},
			{ID: "second/free-vl", ContextLength: 16000},
		},
	}
	r := New(gateway, logging.NewNop())

	if got := r.FindFreeVisionModel(context.Background()); got != "first/free-vl" {
		t.Fatalf("expected first occurrence to win ties, got %q", got)
	}
}

func TestFindFreeVisionModelListingFailureUsesFallback(t *testing.T) {
	gateway := &fakeGateway{listErr: errors.New("upstream down")}
	r := New(gateway, logging.NewNop())

	if got := r.FindFreeVisionModel(context.Background()); got != FallbackModel {
		t.Fatalf("expected fallback on listing failure, got %q", got)
	}
}

func TestFindFreeVisionModelNoCandidatesUsesFallback(t *testing.T) {
	gateway := &fakeGateway{
		listing: []openrouter.Model{
			{ID: "a/chat-large", ContextLength: 100000},
		},
	}
	r := New(gateway, logging.NewNop())

	if got := r.FindFreeVisionModel(context.Background()); got != FallbackModel {
		t.Fatalf("expected fallback when nothing matches, got %q", got)
	}
}

func TestIsFreeVisionCandidate(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"qwen/qwen2.5-vl-72b-instruct:free", true},
		{"google/gemini-flash-1.5:free", true},
		{"meta-llama/llama-3-8b-instruct:free", false},
		{"anthropic/claude-3-haiku", false}, // vision marker but not free
		{"x/FREE-VISION", true},
	}
	for _, tt := range tests {
		if got := isFreeVisionCandidate(tt.id); got != tt.want {
			t.Errorf("isFreeVisionCandidate(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
