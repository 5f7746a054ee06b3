package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestRetryable(t *testing.T) {
	require.True(t, retryable(http.StatusTooManyRequests))
	require.True(t, retryable(http.StatusBadGateway))
	require.True(t, retryable(http.StatusServiceUnavailable))
	require.True(t, retryable(http.StatusGatewayTimeout))

	require.False(t, retryable(http.StatusOK))
	require.False(t, retryable(http.StatusNotFound))
	require.False(t, retryable(http.StatusUnauthorized))
	require.False(t, retryable(http.StatusInternalServerError))
}

func TestFetchWithRetryNonRetryableFailsFast(t *testing.T) {
	calls := 0
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusNotFound)
	})

	client := &http.Client{Timeout: time.Second}
	_, err := fetchWithRetry(context.Background(), client, server.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
	require.Equal(t, 1, calls)
}

func TestFetchOnce(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})

	client := &http.Client{Timeout: time.Second}
	body, err := fetchOnce(context.Background(), client, server.URL)
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
}

func TestFetchOnceNon200(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := &http.Client{Timeout: time.Second}
	_, err := fetchOnce(context.Background(), client, server.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}
