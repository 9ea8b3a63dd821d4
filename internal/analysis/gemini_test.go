package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiReply(t *testing.T, text string) []byte {
	t.Helper()
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
	return raw
}

func TestAnalyzeParsesProviderJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write(geminiReply(t, `{"summary":["Short term"],"flags":["Unlimited liability"],"suggested_clause":"Liability is capped at fees paid."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gemini-2.5-flash")
	result := client.Analyze(context.Background(), "some contract text")

	if !result.Succeeded {
		t.Fatalf("expected succeeded result, got %+v", result)
	}
	if len(result.Summary) != 1 || result.Summary[0] != "Short term" {
		t.Fatalf("unexpected summary: %v", result.Summary)
	}
	if len(result.Flags) != 1 || result.Flags[0] != "Unlimited liability" {
		t.Fatalf("unexpected flags: %v", result.Flags)
	}
	if result.SuggestedClause != "Liability is capped at fees paid." {
		t.Fatalf("unexpected clause: %q", result.SuggestedClause)
	}
}

func TestAnalyzeStripsMarkdownFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(geminiReply(t, "```json\n{\"summary\":[\"A\"],\"flags\":[],\"suggested_clause\":\"B\"}\n```"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gemini-2.5-flash")
	result := client.Analyze(context.Background(), "text")

	if !result.Succeeded {
		t.Fatalf("expected succeeded result, got %+v", result)
	}
	if result.SuggestedClause != "B" {
		t.Fatalf("unexpected clause: %q", result.SuggestedClause)
	}
	if result.Flags == nil || len(result.Flags) != 0 {
		t.Fatalf("expected empty non-nil flags, got %v", result.Flags)
	}
}

func TestAnalyzeRateLimitFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gemini-2.5-flash")
	result := client.Analyze(context.Background(), "text")

	if result.Succeeded {
		t.Fatal("expected degraded result")
	}
	if result.SuggestedClause != "N/A" {
		t.Fatalf("expected N/A sentinel, got %q", result.SuggestedClause)
	}
	if len(result.Flags) == 0 || !strings.Contains(result.Flags[0], "wait") {
		t.Fatalf("expected rate-limit flag text, got %v", result.Flags)
	}
}

func TestAnalyzeTransportErrorFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "test-key", "gemini-2.5-flash")
	result := client.Analyze(context.Background(), "text")

	if result.Succeeded {
		t.Fatal("expected degraded result")
	}
	if result.SuggestedClause != "N/A" {
		t.Fatalf("expected N/A sentinel, got %q", result.SuggestedClause)
	}
	if len(result.Flags) == 0 || !strings.HasPrefix(result.Flags[0], "Error: ") {
		t.Fatalf("expected error flag, got %v", result.Flags)
	}
	if len(result.Summary) == 0 {
		t.Fatal("fallback must still populate summary")
	}
}

func TestAnalyzeGarbagePayloadFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(geminiReply(t, "Sure! Here is my analysis: it looks fine."))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gemini-2.5-flash")
	result := client.Analyze(context.Background(), "text")

	if result.Succeeded {
		t.Fatal("expected degraded result for unparseable payload")
	}
	if result.SuggestedClause != "N/A" {
		t.Fatalf("expected N/A sentinel, got %q", result.SuggestedClause)
	}
}

func TestAnalyzeWithoutAPIKeyFallsBack(t *testing.T) {
	client := NewClient("http://localhost:0", "", "gemini-2.5-flash")
	result := client.Analyze(context.Background(), "text")
	if result.Succeeded {
		t.Fatal("expected degraded result without api key")
	}
}
