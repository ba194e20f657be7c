package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ochronus/gofileup/internal/services/gofile"
)

func basicAuthHeader(username, password string) string {
	auth := username + ":" + password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(auth))
}

func setupTestRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.POST("/upload", handler.Upload)
	return router
}

func uploadRequest(t *testing.T, path, auth string) *http.Request {
	t.Helper()
	body, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func TestNewHandler(t *testing.T) {
	container := setupTestContainer(t, setupTestConfig(), okClient())
	handler := NewHandler(container)

	if handler.config == nil {
		t.Error("expected non-nil config")
	}
	if handler.uploader == nil {
		t.Error("expected non-nil uploader")
	}
	if handler.logger == nil {
		t.Error("expected non-nil logger")
	}
}

func TestValidateUser(t *testing.T) {
	handler := NewHandler(setupTestContainer(t, setupTestConfig(), okClient()))

	tests := []struct {
		name     string
		auth     string
		expected bool
	}{
		{name: "valid credentials", auth: basicAuthHeader("testuser", "testpass"), expected: true},
		{name: "invalid username", auth: basicAuthHeader("wronguser", "testpass"), expected: false},
		{name: "invalid password", auth: basicAuthHeader("testuser", "wrongpass"), expected: false},
		{name: "password prefix", auth: basicAuthHeader("testuser", "testpas"), expected: false},
		{name: "empty credentials", auth: basicAuthHeader("", ""), expected: false},
		{name: "no auth header", auth: "", expected: false},
		{name: "bearer token", auth: "Bearer token", expected: false},
		{name: "invalid base64", auth: "Basic !!!", expected: false},
		{name: "missing colon", auth: "Basic " + base64.StdEncoding.EncodeToString([]byte("testuser")), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/upload", nil)
			if tt.auth != "" {
				c.Request.Header.Set("Authorization", tt.auth)
			}

			if got := handler.validateUser(c); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestUploadSuccess(t *testing.T) {
	client := okClient()
	router := setupTestRouter(NewHandler(setupTestContainer(t, setupTestConfig(), client)))
	path := writeTempFile(t, "some file.txt")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, path, basicAuthHeader("testuser", "testpass")))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.DownloadPage != "https://gofile.io/d/ok" {
		t.Errorf("unexpected download page: %s", resp.DownloadPage)
	}
	if resp.Path != filepath.Join(filepath.Dir(path), "some.file.txt") {
		t.Errorf("unexpected path: %s", resp.Path)
	}
	if client.uploadCalls != 1 {
		t.Errorf("expected 1 upload, got %d", client.uploadCalls)
	}
}

func TestUploadWithoutAuthConfigured(t *testing.T) {
	cfg := setupTestConfig()
	cfg.Username = ""
	cfg.Password = ""
	router := setupTestRouter(NewHandler(setupTestContainer(t, cfg, okClient())))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, writeTempFile(t, "a.txt"), ""))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 without auth, got %d", w.Code)
	}
}

func TestUploadUnauthorized(t *testing.T) {
	client := okClient()
	router := setupTestRouter(NewHandler(setupTestContainer(t, setupTestConfig(), client)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, writeTempFile(t, "a.txt"), basicAuthHeader("testuser", "nope")))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header")
	}
	if client.uploadCalls != 0 {
		t.Error("expected no upload for unauthorized request")
	}
}

func TestUploadBadRequest(t *testing.T) {
	router := setupTestRouter(NewHandler(setupTestContainer(t, setupTestConfig(), okClient())))

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{"},
		{name: "missing path", body: `{}`},
		{name: "empty path", body: `{"path":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", basicAuthHeader("testuser", "testpass"))
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestUploadErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		client   *mockGofileClient
		path     func(t *testing.T) string
		expected int
	}{
		{
			name: "remote error",
			client: &mockGofileClient{
				servers: []gofile.Server{{Name: "store2", Zone: "eu"}},
				env:     &gofile.Envelope{Status: "error-notFound"},
			},
			path:     func(t *testing.T) string { return writeTempFile(t, "a.txt") },
			expected: http.StatusBadGateway,
		},
		{
			name:     "no server available",
			client:   &mockGofileClient{servers: []gofile.Server{{Name: "store1", Zone: "na"}}},
			path:     func(t *testing.T) string { return writeTempFile(t, "a.txt") },
			expected: http.StatusServiceUnavailable,
		},
		{
			name: "missing download page",
			client: &mockGofileClient{
				servers: []gofile.Server{{Name: "store2", Zone: "eu"}},
				env:     &gofile.Envelope{Status: "ok", Data: json.RawMessage(`{}`)},
			},
			path:     func(t *testing.T) string { return writeTempFile(t, "a.txt") },
			expected: http.StatusInternalServerError,
		},
		{
			name:     "missing path",
			client:   okClient(),
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing") },
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(NewHandler(setupTestContainer(t, setupTestConfig(), tt.client)))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, uploadRequest(t, tt.path(t), basicAuthHeader("testuser", "testpass")))

			if w.Code != tt.expected {
				t.Errorf("expected status %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
		})
	}
}

func TestUploadCancelledByClient(t *testing.T) {
	client := okClient()
	router := setupTestRouter(NewHandler(setupTestContainer(t, setupTestConfig(), client)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := uploadRequest(t, writeTempFile(t, "a.txt"), basicAuthHeader("testuser", "testpass")).WithContext(ctx)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	if client.uploadCalls != 0 {
		t.Error("expected no transfer once the request context is done")
	}
}
