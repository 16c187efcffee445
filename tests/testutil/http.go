package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

// APIResponse is the response envelope with the payload left raw
type APIResponse struct {
	Status  int             `json:"-"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
	Header  http.Header     `json:"-"`
}

// ErrorCode returns the error code or "" for a successful response
func (r *APIResponse) ErrorCode() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// Decode unmarshals the payload into v
func (r *APIResponse) Decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v), "decode data: %s", r.Data)
}

// APIClient sends JSON requests to a handler in process
type APIClient struct {
	handler http.Handler
	token   string
}

// NewAPIClient returns a client for handler
func NewAPIClient(handler http.Handler) *APIClient {
	return &APIClient{handler: handler}
}

// WithToken returns a copy of the client that sends a bearer token
func (c *APIClient) WithToken(token string) *APIClient {
	return &APIClient{handler: c.handler, token: token}
}

// Do sends method path with body marshalled as JSON when non-nil
func (c *APIClient) Do(t *testing.T, method, path string, body any) *APIResponse {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err, "marshal request body")
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	res := &APIResponse{Status: w.Code, Header: w.Header()}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), res), "decode envelope: %s", w.Body.String())
	}
	return res
}

func (c *APIClient) Get(t *testing.T, path string) *APIResponse {
	t.Helper()
	return c.Do(t, http.MethodGet, path, nil)
}

func (c *APIClient) Post(t *testing.T, path string, body any) *APIResponse {
	t.Helper()
	return c.Do(t, http.MethodPost, path, body)
}

func (c *APIClient) Put(t *testing.T, path string, body any) *APIResponse {
	t.Helper()
	return c.Do(t, http.MethodPut, path, body)
}
