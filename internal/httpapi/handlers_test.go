package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lisearch/backend/internal/cache"
	"lisearch/backend/internal/catalog"
	"lisearch/backend/internal/dispatcher"
	"lisearch/backend/internal/domain"
	"lisearch/backend/internal/llm"
	"lisearch/backend/internal/service"
	"lisearch/backend/internal/store/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAPI(t *testing.T) (*API, *httptest.Server) {
	t.Helper()
	repo := memory.NewSeeded()
	svc := service.New(repo, cache.NewNoop(), 0, zerolog.Nop())
	disp := dispatcher.New(llm.NewRules(), svc, zerolog.Nop())
	auth, err := NewAuthManager(testSecret, time.Hour, "admin", "store-admin-pass")
	if err != nil {
		t.Fatalf("building auth manager: %v", err)
	}
	api := New(svc, disp, auth, "*", zerolog.Nop())
	server := httptest.NewServer(api.Router())
	t.Cleanup(server.Close)
	return api, server
}

func login(t *testing.T, server *httptest.Server) string {
	t.Helper()
	body, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "store-admin-pass"})
	resp, err := http.Post(server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
	var loginResp domain.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if loginResp.AccessToken == "" {
		t.Fatal("empty access token")
	}
	return loginResp.AccessToken
}

func authedGet(t *testing.T, server *httptest.Server, token, path string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, server.URL+path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	_, server := newTestAPI(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReportsRequireAuth(t *testing.T) {
	_, server := newTestAPI(t)
	resp, err := http.Get(server.URL + "/api/v1/reports/low-stock")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, server := newTestAPI(t)
	body, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "wrong"})
	resp, err := http.Post(server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLowStockReport(t *testing.T) {
	_, server := newTestAPI(t)
	token := login(t, server)

	resp := authedGet(t, server, token, "/api/v1/reports/low-stock")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// The seeded dataset has exactly one product below its reorder level.
	if payload.RowCount != 1 {
		t.Fatalf("expected 1 low stock row, got %d", payload.RowCount)
	}
}

func TestInvalidQueryParamIs400(t *testing.T) {
	_, server := newTestAPI(t)
	token := login(t, server)

	for _, path := range []string{
		"/api/v1/reports/top-selling?limit=abc",
		"/api/v1/reports/top-selling?limit=-5",
		"/api/v1/reports/trending?days=0",
	} {
		resp := authedGet(t, server, token, path)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestProductNotFoundIs404(t *testing.T) {
	_, server := newTestAPI(t)
	token := login(t, server)

	resp := authedGet(t, server, token, "/api/v1/reports/product?name=nonexistent")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestProductMissingIdentifierIs400(t *testing.T) {
	_, server := newTestAPI(t)
	token := login(t, server)

	resp := authedGet(t, server, token, "/api/v1/reports/product")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	_, server := newTestAPI(t)
	token := login(t, server)

	resp := authedGet(t, server, token, "/api/v1/catalog")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload struct {
		Operations []catalog.Operation `json:"operations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Operations) != 7 {
		t.Fatalf("expected 7 operations, got %d", len(payload.Operations))
	}
}

func TestChatEndpoint(t *testing.T) {
	_, server := newTestAPI(t)
	token := login(t, server)

	body, _ := json.Marshal(domain.ChatRequest{Message: "which products are running low?"})
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("chat request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var chatResp domain.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if chatResp.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if chatResp.Answer == nil || chatResp.Answer.Operation != catalog.OpLowStock {
		t.Fatalf("unexpected answer: %+v", chatResp.Answer)
	}
}

func TestChatClarification(t *testing.T) {
	_, server := newTestAPI(t)
	token := login(t, server)

	body, _ := json.Marshal(domain.ChatRequest{Message: "what's the weather like?"})
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("chat request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var chatResp domain.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if chatResp.Clarification == "" || chatResp.Answer != nil {
		t.Fatalf("expected clarification, got %+v", chatResp)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	_, server := newTestAPI(t)
	token := login(t, server)

	resp := authedGet(t, server, token, "/api/v1/categories")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload struct {
		Categories []string `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Categories) != 5 {
		t.Fatalf("expected 5 categories, got %v", payload.Categories)
	}
}
