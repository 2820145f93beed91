package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/domain"
	"github.com/policyradar/policyradar/internal/domain/document"
)

func testDocs() []document.Document {
	return []document.Document{
		{
			ID: "d1", Title: "Carbon levy review", Summary: "Phase two begins",
			Source: "EURACTIV", DocType: "news",
			Published: time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC),
		},
	}
}

func newTestCompleter(baseURL string) *Completer {
	return NewCompleter(&Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-4o-mini",
		Logger:  zap.NewNop(),
	})
}

func TestCompleteSendsDocumentsInPrompt(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "The levy enters phase two."}}],
			"usage": {"total_tokens": 42}
		}`))
	}))
	defer srv.Close()

	c := newTestCompleter(srv.URL + "/v1")
	answer, err := c.Complete(context.Background(), "what about the carbon levy?", testDocs())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if answer != "The levy enters phase two." {
		t.Errorf("answer = %q", answer)
	}

	messages := gotBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("request has %d messages, want system + user", len(messages))
	}
	user := messages[1].(map[string]any)["content"].(string)
	if !strings.Contains(user, "Carbon levy review") {
		t.Errorf("prompt does not contain the document title: %q", user)
	}
	if !strings.Contains(user, "what about the carbon levy?") {
		t.Errorf("prompt does not contain the question: %q", user)
	}
}

func TestCompleteAPIErrorMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	}))
	defer srv.Close()

	c := newTestCompleter(srv.URL + "/v1")
	_, err := c.Complete(context.Background(), "anything", nil)
	if !errors.Is(err, domain.ErrRAGProviderError) {
		t.Fatalf("Complete() error = %v, want ErrRAGProviderError", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := newTestCompleter(srv.URL + "/v1")
	_, err := c.Complete(context.Background(), "anything", nil)
	if !errors.Is(err, domain.ErrRAGProviderError) {
		t.Fatalf("Complete() error = %v, want ErrRAGProviderError", err)
	}
}

func TestBuildPromptWithoutDocuments(t *testing.T) {
	prompt := buildPrompt("is there anything?", nil)
	if !strings.Contains(prompt, "(none matched the question)") {
		t.Errorf("prompt = %q, want explicit empty marker", prompt)
	}
}
