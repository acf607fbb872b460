package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *APIClient {
	return &APIClient{
		baseURL:    serverURL,
		httpClient: &http.Client{},
	}
}

func TestAPIClient_Post_SendsJSONBody(t *testing.T) {
	var gotBody AskRequest
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"answer":"ok"}}`))
	}))
	defer server.Close()

	api := newTestClient(server.URL)
	resp, err := api.Post("/v1/ask", AskRequest{Question: "when are you open?", Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "when are you open?", gotBody.Question)
	assert.Equal(t, "en", gotBody.Language)
	assert.JSONEq(t, `{"answer":"ok"}`, string(resp.Data))
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unsupported language"}`))
	}))
	defer server.Close()

	api := newTestClient(server.URL)
	_, err := api.Post("/v1/ask", AskRequest{Question: "hi", Language: "xx"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "unsupported language", apiErr.Message)
}

func TestAPIClient_ErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	api := newTestClient(server.URL)
	_, err := api.Get("/v1/languages")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "Service Unavailable", apiErr.Message)
}

func TestAPIClient_SessionHeader(t *testing.T) {
	var gotSession string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get("X-Session-ID")
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	api := newTestClient(server.URL)
	api.SetSessionID("abc-123")
	_, err := api.Get("/v1/languages")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", gotSession)
}

func TestAPIClient_AdminTokenHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{"status":"rebuilt"}}`))
	}))
	defer server.Close()

	api := newTestClient(server.URL)
	api.adminToken = "s3cret"
	_, err := api.Post("/v1/admin/rebuild", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", gotAuth)
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "session not found"}
	assert.Equal(t, "API error (404): session not found", err.Error())
}
