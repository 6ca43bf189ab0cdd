package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todoTracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Repository.Type = "inmemory"
	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	cfg.Kafka.Brokers = nil

	a, err := New(&cfg).Init(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(a.server.Handler)
	t.Cleanup(func() {
		srv.Close()
		a.shutdown()
	})
	return srv
}

func call(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func register(t *testing.T, base, email string) string {
	t.Helper()
	resp := call(t, http.MethodPost, base+"/api/auth/register", "",
		`{"email":"`+email+`","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestApp_EndToEnd(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = call(t, http.MethodGet, srv.URL+"/api/todos", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, http.MethodGet, srv.URL+"/api/todos", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	alice := register(t, srv.URL, "alice@example.com")
	bob := register(t, srv.URL, "bob@example.com")

	resp = call(t, http.MethodPost, srv.URL+"/api/auth/register", "",
		`{"email":"alice@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = call(t, http.MethodPost, srv.URL+"/api/auth/login", "",
		`{"email":"alice@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, http.MethodPost, srv.URL+"/api/todos", alice,
		`{"title":"Купить молоко","priority":"MEDIUM","tags":["home"]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID         int64  `json:"id"`
		OwnerEmail string `json:"ownerEmail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "alice@example.com", created.OwnerEmail)

	resp = call(t, http.MethodGet, srv.URL+"/api/todos/1", bob, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, http.MethodPatch, srv.URL+"/api/todos/1/completion?isCompleted=true", alice, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, http.MethodGet, srv.URL+"/api/todos?completed=true&tag=home", alice, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Content []struct {
			ID        int64 `json:"id"`
			Completed bool  `json:"completed"`
		} `json:"content"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Content, 1)
	assert.True(t, page.Content[0].Completed)

	resp = call(t, http.MethodGet, srv.URL+"/api/todos", bob, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Zero(t, page.Total)

	resp = call(t, http.MethodDelete, srv.URL+"/api/todos/1", alice, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
