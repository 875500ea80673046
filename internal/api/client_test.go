package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorales/projectboard/internal/api"
	"github.com/dmorales/projectboard/tests/testutil"
)

// authServer simulates the API's token lifecycle: requests carrying
// goodAccess succeed, anything else is rejected, and the refresh
// endpoint exchanges goodRefresh for goodAccess.
type authServer struct {
	goodAccess  string
	goodRefresh string

	refreshCalls  atomic.Int64
	refreshDelay  time.Duration
	refreshBroken bool

	mux *http.ServeMux
}

func newAuthServer() *authServer {
	s := &authServer{
		goodAccess:  "fresh-access",
		goodRefresh: "valid-refresh",
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		if s.refreshDelay > 0 {
			time.Sleep(s.refreshDelay)
		}

		var payload struct {
			Refresh string `json:"refresh"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil ||
			payload.Refresh != s.goodRefresh || s.refreshBroken {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Token is invalid or expired"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access": s.goodAccess})
	})
	s.mux.HandleFunc("/api/things/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.goodAccess {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Given token not valid"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	return s
}

func newTestClient(t *testing.T, handler http.Handler) (*api.Client, *testutil.MemoryTokenStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := testutil.NewMemoryTokenStore()
	client := api.NewClient(srv.URL, tokens, nil)
	return client, tokens, srv
}

func TestClientRefreshesAndRetriesOn401(t *testing.T) {
	backend := newAuthServer()
	client, tokens, _ := newTestClient(t, backend.mux)
	tokens.Seed("stale-access", backend.goodRefresh)

	var result map[string]string
	err := client.Get(context.Background(), "/api/things/", &result)

	require.NoError(t, err, "the expired token must be recovered transparently")
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, int64(1), backend.refreshCalls.Load())

	access, refresh, err := tokens.Read()
	require.NoError(t, err)
	assert.Equal(t, backend.goodAccess, access, "refreshed access token must be persisted")
	assert.Equal(t, backend.goodRefresh, refresh, "refresh token must survive the exchange")
}

func TestClientConcurrent401sShareOneRefresh(t *testing.T) {
	backend := newAuthServer()
	backend.refreshDelay = 150 * time.Millisecond
	client, tokens, _ := newTestClient(t, backend.mux)
	tokens.Seed("stale-access", backend.goodRefresh)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var result map[string]string
			errs[i] = client.Get(context.Background(), "/api/things/", &result)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int64(1), backend.refreshCalls.Load(),
		"concurrent 401s must share a single refresh exchange")
}

func TestClientSessionExpiryWhenRefreshRejected(t *testing.T) {
	backend := newAuthServer()
	backend.refreshBroken = true
	client, tokens, _ := newTestClient(t, backend.mux)
	tokens.Seed("stale-access", backend.goodRefresh)

	var expired atomic.Bool
	client.OnSessionExpired(func() { expired.Store(true) })

	err := client.Get(context.Background(), "/api/things/", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.True(t, expired.Load(), "session-expired callback must fire")

	access, refresh, readErr := tokens.Read()
	require.NoError(t, readErr)
	assert.Empty(t, access, "credentials must be cleared")
	assert.Empty(t, refresh)
}

func TestClientSecond401IsSurfaced(t *testing.T) {
	// The backend accepts the refresh but keeps rejecting the API
	// call, e.g. the account was deactivated between the two.
	refreshCalls := atomic.Int64{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"access": "fresh-access"})
	})
	mux.HandleFunc("/api/things/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "account disabled"})
	})

	client, tokens, _ := newTestClient(t, mux)
	tokens.Seed("stale-access", "valid-refresh")

	err := client.Get(context.Background(), "/api/things/", nil)

	require.Error(t, err)
	assert.True(t, api.IsAuthError(err), "a 401 after a successful refresh is not retried again")
	assert.Equal(t, int64(1), refreshCalls.Load())
}

func TestClientErrorParsing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/validation/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"username": []string{"A user with that username already exists."},
			"password": []string{"This password is too short."},
		})
	})
	mux.HandleFunc("/api/detail/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Not found."})
	})
	mux.HandleFunc("/api/broken/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>gateway error</html>"))
	})

	client, tokens, _ := newTestClient(t, mux)
	tokens.Seed("any-access", "any-refresh")

	t.Run("field validation errors", func(t *testing.T) {
		err := client.Post(context.Background(), "/api/validation/", map[string]string{}, nil)
		require.Error(t, err)
		assert.True(t, api.IsValidationError(err))

		var apiErr *api.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Contains(t, apiErr.Fields["username"], "A user with that username already exists.")
		assert.Contains(t, apiErr.Fields["password"], "This password is too short.")
	})

	t.Run("detail message", func(t *testing.T) {
		err := client.Get(context.Background(), "/api/detail/", nil)
		var apiErr *api.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Not found.", apiErr.Detail)
	})

	t.Run("non-JSON body", func(t *testing.T) {
		err := client.Get(context.Background(), "/api/broken/", nil)
		require.Error(t, err)
		assert.True(t, api.IsServerError(err))

		var apiErr *api.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Empty(t, apiErr.Detail)
	})
}

func TestClientRequestHeaders(t *testing.T) {
	var got http.Header
	mux := http.NewServeMux()
	mux.HandleFunc("/api/echo/", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		json.NewEncoder(w).Encode(map[string]string{})
	})

	client, tokens, _ := newTestClient(t, mux)
	tokens.Seed("the-access-token", "")

	err := client.Post(context.Background(), "/api/echo/", map[string]string{"a": "b"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "Bearer the-access-token", got.Get("Authorization"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}
