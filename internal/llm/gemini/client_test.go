package gemini

import (
	"context"
	"testing"

	genai "github.com/google/generative-ai-go/genai"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Options{APIKey: "  "}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			nil,
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("  The answer "), genai.Text("is 42. ")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	if got := responseText(resp); got != "The answer is 42." {
		t.Fatalf("responseText = %q", got)
	}
	if got := responseText(nil); got != "" {
		t.Fatalf("expected empty text for nil response, got %q", got)
	}
}
