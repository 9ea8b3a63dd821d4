package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, _ := newTestService(t, &fakeAnalyzer{})
	server := httptest.NewServer(NewHTTPServer(svc, "*").Handler())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func registerViaHTTP(t *testing.T, server *httptest.Server, name, email, role string) string {
	t.Helper()
	resp, body := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "hunter22",
		"role":     role,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register %s: status %d body %v", email, resp.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("register %s: no token in %v", email, body)
	}
	return token
}

func assertErrorCode(t *testing.T, resp *http.Response, body map[string]any, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d (body %v)", resp.StatusCode, status, body)
	}
	if body["code"] != code {
		t.Fatalf("code = %v, want %s", body["code"], code)
	}
}

func TestHealthAndReady(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, server, http.MethodGet, "/api/health", "", nil)
	if resp.StatusCode != http.StatusOK || body["ok"] != true {
		t.Fatalf("health: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, server, http.MethodGet, "/api/ready", "", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("ready: %d %v", resp.StatusCode, body)
	}
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Dana",
	})
	assertErrorCode(t, resp, body, http.StatusBadRequest, "VALIDATION_ERROR")

	registerViaHTTP(t, server, "Dana", "dana@example.com", "user")

	resp, body = doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Dana Again",
		"email":    "dana@example.com",
		"password": "hunter22",
	})
	assertErrorCode(t, resp, body, http.StatusBadRequest, "VALIDATION_ERROR")
	if body["error"] != "User already exists" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	server := newTestServer(t)
	registerViaHTTP(t, server, "Dana", "dana@example.com", "user")

	resp, body := doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "dana@example.com",
		"password": "wrong",
	})
	assertErrorCode(t, resp, body, http.StatusUnauthorized, "UNAUTHORIZED")
	if body["error"] != "Invalid credentials" {
		t.Fatalf("error = %v", body["error"])
	}

	resp, body = doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "dana@example.com",
		"password": "hunter22",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %v", resp.StatusCode, body)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "dana@example.com" || user["role"] != "user" {
		t.Fatalf("user payload = %v", user)
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/api/documents", "/api/escalations", "/api/search"} {
		resp, body := doJSON(t, server, http.MethodGet, path, "", nil)
		assertErrorCode(t, resp, body, http.StatusUnauthorized, "UNAUTHORIZED")
	}

	resp, body := doJSON(t, server, http.MethodGet, "/api/documents", "not-a-token", nil)
	assertErrorCode(t, resp, body, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestDocumentLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)
	token := registerViaHTTP(t, server, "Alice", "alice@example.com", "user")

	resp, body := doJSON(t, server, http.MethodPost, "/api/documents", token, map[string]any{
		"title": "NDA",
		"text":  "The party of the first part...",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create: %d %v", resp.StatusCode, body)
	}
	docID, _ := body["id"].(string)
	if docID == "" || body["status"] != "analyzed" {
		t.Fatalf("create payload = %v", body)
	}
	if body["category"] != "contract" {
		t.Fatalf("default category = %v", body["category"])
	}

	resp, body = doJSON(t, server, http.MethodGet, "/api/documents/"+docID, token, nil)
	if resp.StatusCode != http.StatusOK || body["title"] != "NDA" {
		t.Fatalf("get by id: %d %v", resp.StatusCode, body)
	}

	// List responses are bare arrays.
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer listResp.Body.Close()
	var items []map[string]any
	if err := json.NewDecoder(listResp.Body).Decode(&items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 || items[0]["id"] != docID {
		t.Fatalf("list = %v", items)
	}

	resp, body = doJSON(t, server, http.MethodDelete, "/api/documents/"+docID, token, nil)
	if resp.StatusCode != http.StatusOK || body["message"] != "Document deleted successfully" {
		t.Fatalf("delete: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, server, http.MethodGet, "/api/documents/"+docID, token, nil)
	assertErrorCode(t, resp, body, http.StatusNotFound, "NOT_FOUND")
}

func TestEscalationRoleGates(t *testing.T) {
	server := newTestServer(t)
	userToken := registerViaHTTP(t, server, "Alice", "alice@example.com", "user")
	lawyerToken := registerViaHTTP(t, server, "Lex", "lex@example.com", "lawyer")

	resp, body := doJSON(t, server, http.MethodGet, "/api/escalations", userToken, nil)
	assertErrorCode(t, resp, body, http.StatusForbidden, "FORBIDDEN")
	if body["error"] != "Lawyers only" {
		t.Fatalf("error = %v", body["error"])
	}

	resp, body = doJSON(t, server, http.MethodPost, "/api/escalations", lawyerToken, map[string]any{
		"documentId": "doc_x",
	})
	assertErrorCode(t, resp, body, http.StatusForbidden, "FORBIDDEN")
	if body["error"] != "Only users can escalate" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestEscalationFlowOverHTTP(t *testing.T) {
	server := newTestServer(t)
	userToken := registerViaHTTP(t, server, "Alice", "alice@example.com", "user")
	lawyerToken := registerViaHTTP(t, server, "Lex", "lex@example.com", "lawyer")

	_, created := doJSON(t, server, http.MethodPost, "/api/documents", userToken, map[string]any{
		"title": "NDA",
		"text":  "The party of the first part...",
	})
	docID := created["id"].(string)

	resp, body := doJSON(t, server, http.MethodPost, "/api/escalations", userToken, map[string]any{
		"documentId": docID,
	})
	if resp.StatusCode != http.StatusOK || body["message"] != "Escalated to all lawyers" {
		t.Fatalf("escalate: %d %v", resp.StatusCode, body)
	}
	escID := body["escalationId"].(string)

	// The owner can no longer delete the escalated document.
	resp, body = doJSON(t, server, http.MethodDelete, "/api/documents/"+docID, userToken, nil)
	assertErrorCode(t, resp, body, http.StatusForbidden, "FORBIDDEN")

	resp, body = doJSON(t, server, http.MethodPost, "/api/escalations/"+escID+"/accept", lawyerToken, nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "review_in_progress" {
		t.Fatalf("accept: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, server, http.MethodPost, "/api/escalations/"+escID+"/submit-review", lawyerToken, map[string]any{
		"edited_clause": "Revised indemnity clause.",
		"comments":      "Balanced both ways.",
	})
	if resp.StatusCode != http.StatusOK || body["message"] != "Case resolved successfully" {
		t.Fatalf("submit-review: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, server, http.MethodGet, "/api/documents/"+docID, userToken, nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "resolved" {
		t.Fatalf("post-review document: %d %v", resp.StatusCode, body)
	}
	revisions, _ := body["revisions"].([]any)
	if len(revisions) != 1 {
		t.Fatalf("revisions = %v", body["revisions"])
	}
}

func TestSearchValidatesPagination(t *testing.T) {
	server := newTestServer(t)
	token := registerViaHTTP(t, server, "Alice", "alice@example.com", "user")

	resp, body := doJSON(t, server, http.MethodGet, "/api/search?q=nda&limit=abc", token, nil)
	assertErrorCode(t, resp, body, http.StatusBadRequest, "VALIDATION_ERROR")

	// Without a search backend the endpoint degrades to an empty result set.
	resp, body = doJSON(t, server, http.MethodGet, "/api/search?q=nda", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: %d %v", resp.StatusCode, body)
	}
	if total, _ := body["total"].(float64); total != 0 {
		t.Fatalf("total = %v", body["total"])
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	server := newTestServer(t)
	token := registerViaHTTP(t, server, "Alice", "alice@example.com", "user")

	resp, body := doJSON(t, server, http.MethodGet, "/api/nope", token, nil)
	assertErrorCode(t, resp, body, http.StatusNotFound, "NOT_FOUND")
}

func TestCORSAndRequestIDHeaders(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, server, http.MethodGet, "/api/health", "", nil)
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}
