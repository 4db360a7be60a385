package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-ehms-backend/internal/api"
	"github.com/sirosfoundation/go-ehms-backend/internal/app"
	"github.com/sirosfoundation/go-ehms-backend/internal/auth"
	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
)

// TestHarness boots the complete application on an ephemeral port and
// provides helper methods for making API requests against it.
type TestHarness struct {
	T      *testing.T
	App    *app.App
	Config *config.Config
	Logger *zap.Logger

	// Client is a pre-configured HTTP client for making requests
	Client *http.Client

	// BaseURL is the URL of the test server
	BaseURL string

	groups []api.RouteGroup
}

// TestHarnessOption configures the test harness
type TestHarnessOption func(*TestHarness)

// WithConfig sets a custom config for the test harness
func WithConfig(cfg *config.Config) TestHarnessOption {
	return func(h *TestHarness) {
		h.Config = cfg
	}
}

// WithGroups links business route groups into the application
func WithGroups(groups ...api.RouteGroup) TestHarnessOption {
	return func(h *TestHarness) {
		h.groups = append(h.groups, groups...)
	}
}

// DefaultTestConfig returns a config listening on an ephemeral local port
// with in-memory storage.
func DefaultTestConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.TempDir = filepath.Join(t.TempDir(), "temp")
	cfg.Storage.ProbeTimeout = 2
	cfg.JWT.Secret = "test-secret-key-for-integration-tests"
	cfg.JWT.Issuer = "test-ehms-backend"
	return cfg
}

// NewTestHarness creates a new test harness with a running server
func NewTestHarness(t *testing.T, opts ...TestHarnessOption) *TestHarness {
	t.Helper()

	gin.SetMode(gin.TestMode)

	h := &TestHarness{
		T:      t,
		Logger: zap.NewNop(),
		Client: &http.Client{Timeout: 10 * time.Second},
	}

	// Apply options
	for _, opt := range opts {
		opt(h)
	}

	// Default config if not provided
	if h.Config == nil {
		h.Config = DefaultTestConfig(t)
	}

	a, err := app.New(context.Background(), h.Config, h.Logger, h.groups...)
	if err != nil {
		t.Fatalf("Failed to build application: %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start application: %v", err)
	}
	h.App = a
	h.BaseURL = "http://" + a.Addr().String()

	// Register cleanup
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})

	return h
}

// Token issues a bearer token the running server accepts
func (h *TestHarness) Token(subject string, role domain.Role) string {
	h.T.Helper()
	issuer := auth.NewIssuer(h.Config.JWT.Secret, h.Config.JWT.Issuer, time.Hour)
	token, _, err := issuer.Issue(subject, role)
	if err != nil {
		h.T.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// ForgedRoleToken signs a token with an arbitrary role string, bypassing
// the issuer's role check.
func (h *TestHarness) ForgedRoleToken(subject, role string) string {
	h.T.Helper()
	now := time.Now()
	claims := auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    h.Config.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.Config.JWT.Secret))
	if err != nil {
		h.T.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

// API prefixes path with the configured base path
func (h *TestHarness) API(path string) string {
	return h.Config.Server.BasePath + path
}

// Request makes an HTTP request to the test server
func (h *TestHarness) Request(method, path string, body interface{}) *Response {
	h.T.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			h.T.Fatalf("Failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, h.BaseURL+path, bodyReader)
	if err != nil {
		h.T.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return h.Do(req)
}

// Do executes an HTTP request and returns a Response wrapper
func (h *TestHarness) Do(req *http.Request) *Response {
	h.T.Helper()

	resp, err := h.Client.Do(req)
	if err != nil {
		h.T.Fatalf("Request failed: %v", err)
	}

	return &Response{
		T:        h.T,
		Response: resp,
	}
}

// GET makes a GET request
func (h *TestHarness) GET(path string) *Response {
	return h.Request(http.MethodGet, path, nil)
}

// POST makes a POST request with a JSON body
func (h *TestHarness) POST(path string, body interface{}) *Response {
	return h.Request(http.MethodPost, path, body)
}

// DELETE makes a DELETE request
func (h *TestHarness) DELETE(path string) *Response {
	return h.Request(http.MethodDelete, path, nil)
}

// WithAuth returns a new request builder with authentication
func (h *TestHarness) WithAuth(token string) *AuthenticatedClient {
	return &AuthenticatedClient{
		harness: h,
		token:   token,
	}
}

// AuthenticatedClient wraps the harness with auth headers
type AuthenticatedClient struct {
	harness *TestHarness
	token   string
}

// GET makes an authenticated GET request
func (c *AuthenticatedClient) GET(path string) *Response {
	c.harness.T.Helper()
	req, _ := http.NewRequest(http.MethodGet, c.harness.BaseURL+path, nil)
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.harness.Do(req)
}

// POST makes an authenticated POST request
func (c *AuthenticatedClient) POST(path string, body interface{}) *Response {
	c.harness.T.Helper()
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}
	req, _ := http.NewRequest(http.MethodPost, c.harness.BaseURL+path, bodyReader)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.harness.Do(req)
}

// DELETE makes an authenticated DELETE request
func (c *AuthenticatedClient) DELETE(path string) *Response {
	c.harness.T.Helper()
	req, _ := http.NewRequest(http.MethodDelete, c.harness.BaseURL+path, nil)
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.harness.Do(req)
}

// Response wraps an HTTP response with assertion helpers
type Response struct {
	T        *testing.T
	Response *http.Response
	body     []byte
	bodyRead bool
}

// Body returns the response body as bytes
func (r *Response) Body() []byte {
	r.T.Helper()
	if !r.bodyRead {
		var err error
		r.body, err = io.ReadAll(r.Response.Body)
		if err != nil {
			r.T.Fatalf("Failed to read response body: %v", err)
		}
		r.Response.Body.Close()
		r.bodyRead = true
	}
	return r.body
}

// JSON unmarshals the response body into the given target
func (r *Response) JSON(target interface{}) *Response {
	r.T.Helper()
	if err := json.Unmarshal(r.Body(), target); err != nil {
		r.T.Fatalf("Failed to unmarshal response: %v\nBody: %s", err, string(r.Body()))
	}
	return r
}

// Status asserts the response status code
func (r *Response) Status(expected int) *Response {
	r.T.Helper()
	if r.Response.StatusCode != expected {
		r.T.Errorf("Expected status %d, got %d\nBody: %s", expected, r.Response.StatusCode, string(r.Body()))
	}
	return r
}

// Header returns the value of a response header
func (r *Response) Header(name string) string {
	return r.Response.Header.Get(name)
}

// HasHeader asserts that a header exists
func (r *Response) HasHeader(name string) *Response {
	r.T.Helper()
	if r.Header(name) == "" {
		r.T.Errorf("Expected header %q to be present", name)
	}
	return r
}

// BodyContains asserts the response body contains a substring
func (r *Response) BodyContains(substr string) *Response {
	r.T.Helper()
	if !bytes.Contains(r.Body(), []byte(substr)) {
		r.T.Errorf("Expected body to contain %q\nBody: %s", substr, string(r.Body()))
	}
	return r
}

// BodyEquals asserts the response body equals exactly
func (r *Response) BodyEquals(expected string) *Response {
	r.T.Helper()
	if string(r.Body()) != expected {
		r.T.Errorf("Expected body:\n%s\nGot:\n%s", expected, string(r.Body()))
	}
	return r
}

// Pretty returns pretty-printed JSON for debugging
func (r *Response) Pretty() string {
	var v interface{}
	if err := json.Unmarshal(r.Body(), &v); err != nil {
		return string(r.Body())
	}
	pretty, _ := json.MarshalIndent(v, "", "  ")
	return string(pretty)
}
