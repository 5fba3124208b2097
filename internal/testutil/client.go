// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"
)

// Client is an HTTP client for testing API endpoints. Session cookies are
// tracked automatically through the cookie jar.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Validator   *OpenAPIValidator
	ValidateAPI bool
	t           *testing.T
}

// NewClient creates a new test client without validation.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Jar: jar},
	}
}

// NewClientWithValidator creates a new test client with a pre-loaded OpenAPI
// validator. Use this in TestMain where *testing.T is not available during
// initialization.
func NewClientWithValidator(baseURL string, validator *OpenAPIValidator) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{Jar: jar},
		Validator:   validator,
		ValidateAPI: true,
	}
}

// SetT sets the testing.T for validation error reporting. Call at the
// beginning of each test when using a shared client.
func (c *Client) SetT(t *testing.T) {
	c.t = t
}

// WithoutValidation returns a copy of the client with validation disabled.
// Use this for negative tests where you expect invalid responses.
func (c *Client) WithoutValidation() *Client {
	clone := *c
	clone.ValidateAPI = false
	return &clone
}

// LoginAs authenticates with identifier/password. The session cookie is
// stored in the cookie jar.
func (c *Client) LoginAs(t *testing.T, identifier, password string) {
	t.Helper()
	c.t = t

	resp, err := c.POST("/api/v1/auth/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("login failed: status=%d body=%s", resp.StatusCode, body)
	}
}

// LoginAsAdmin logs in with the seeded admin account.
func (c *Client) LoginAsAdmin(t *testing.T) {
	t.Helper()
	c.LoginAs(t, "admin", "admin123")
}

// LoginAsReceptionist logs in with the seeded receptionist account.
func (c *Client) LoginAsReceptionist(t *testing.T) {
	t.Helper()
	c.LoginAs(t, "frontdesk", "frontdesk123")
}

// LoginAsNurse logs in with the seeded nurse account.
func (c *Client) LoginAsNurse(t *testing.T) {
	t.Helper()
	c.LoginAs(t, "nurse1", "nurse123")
}

// Logout destroys the current session and resets the cookie jar.
func (c *Client) Logout(t *testing.T) {
	t.Helper()

	resp, err := c.POST("/api/v1/auth/logout", nil)
	if err != nil {
		t.Fatalf("logout request failed: %v", err)
	}
	_ = resp.Body.Close()

	c.ClearSession()
}

// ClearSession drops the bearer token and resets the cookie jar.
func (c *Client) ClearSession() {
	c.BearerToken = ""
	jar, _ := cookiejar.New(nil)
	c.HTTPClient.Jar = jar
}

// GET performs a GET request.
func (c *Client) GET(path string) (*http.Response, error) {
	return c.do(http.MethodGet, path, nil)
}

// POST performs a POST request with JSON body.
func (c *Client) POST(path string, body interface{}) (*http.Response, error) {
	return c.do(http.MethodPost, path, body)
}

// POSTForm performs a POST request with form-encoded body.
func (c *Client) POSTForm(path string, values url.Values) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req)
}

// PATCH performs a PATCH request with JSON body.
func (c *Client) PATCH(path string, body interface{}) (*http.Response, error) {
	return c.do(http.MethodPatch, path, body)
}

func (c *Client) do(method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}

	if c.ValidateAPI && c.Validator != nil && c.t != nil {
		c.Validator.ValidateRequest(c.t, req)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	if c.ValidateAPI && c.Validator != nil && c.t != nil {
		c.Validator.ValidateResponse(c.t, req, resp)
	}

	return resp, nil
}

// DecodeJSON decodes a response body into v and closes the body.
func DecodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
