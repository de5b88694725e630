package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lisearch/backend/internal/catalog"
	"lisearch/backend/internal/domain"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) (*GeminiResolver, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	resolver := NewGemini("test-key", "test-model", 5*time.Second, zerolog.Nop(), WithBaseURL(server.URL))
	return resolver, server
}

func TestGeminiResolveFunctionCall(t *testing.T) {
	resolver, _ := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(req.Tools) != 1 || len(req.Tools[0].FunctionDeclarations) != 7 {
			t.Fatalf("expected 7 function declarations, got %+v", req.Tools)
		}
		resp := geminiResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content geminiContent `json:"content"`
		}{Content: geminiContent{
			Role: "model",
			Parts: []geminiPart{{FunctionCall: &geminiFunctionCall{
				Name: catalog.OpTopSelling,
				Args: map[string]any{"category": "Beer", "limit": float64(3)},
			}}},
		}})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	res, err := resolver.Resolve(context.Background(), "top 3 beers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Operation != catalog.OpTopSelling {
		t.Fatalf("expected %s, got %s", catalog.OpTopSelling, res.Operation)
	}
	if res.Args["category"] != "Beer" {
		t.Fatalf("expected category Beer, got %v", res.Args["category"])
	}
}

func TestGeminiTextOnlyIsNoMatch(t *testing.T) {
	resolver, _ := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"I can only answer questions about the store."}]}}]}`))
	})

	_, err := resolver.Resolve(context.Background(), "what's the weather?")
	if !errors.Is(err, domain.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestGeminiServerErrorIsUnavailable(t *testing.T) {
	resolver, _ := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend overloaded", http.StatusServiceUnavailable)
	})

	_, err := resolver.Resolve(context.Background(), "top sellers")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGeminiRateLimitIsUnavailable(t *testing.T) {
	resolver, _ := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := resolver.Resolve(context.Background(), "top sellers")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGeminiClientErrorIsNotRetryable(t *testing.T) {
	resolver, _ := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusBadRequest)
	})

	_, err := resolver.Resolve(context.Background(), "top sellers")
	if err == nil || errors.Is(err, domain.ErrUnavailable) || errors.Is(err, domain.ErrNoMatch) {
		t.Fatalf("expected a plain error, got %v", err)
	}
}

func TestGeminiUnreachableIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()
	resolver := NewGemini("test-key", "test-model", time.Second, zerolog.Nop(), WithBaseURL(server.URL))

	_, err := resolver.Resolve(context.Background(), "top sellers")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
