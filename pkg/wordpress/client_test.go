package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpbackup/pkg/config"
	errs "wpbackup/pkg/errors"
	"wpbackup/pkg/logger"
)

// newTestConfig returns a config pointed at a test server with retry delays
// short enough for tests.
func newTestConfig(siteURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Site.URL = siteURL
	cfg.Site.PageSize = 2
	cfg.Auth.Username = "admin"
	cfg.Auth.AppPassword = "secret"
	cfg.RateLimit.RequestDelay = 0
	cfg.RateLimit.MaxRetries = 3
	cfg.RateLimit.RetryDelay = time.Millisecond
	cfg.RateLimit.MaxRetryDelay = 5 * time.Millisecond
	return cfg
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(newTestConfig(server.URL), logger.NewTestLogger())
	return client, server
}

func TestNewClient(t *testing.T) {
	cfg := newTestConfig("myblog")
	client := NewClient(cfg, logger.NewTestLogger())

	require.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.mediaClient)
	assert.NotNil(t, client.limiter)
	assert.NotNil(t, client.retryCfg)
	assert.Equal(t, "https://myblog.wordpress.com", client.SiteURL())
	assert.Equal(t, 2, client.pageSize)
}

func TestGet(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", username)
		assert.Equal(t, "secret", password)
		assert.Equal(t, "wpbackup/2.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("X-WP-Total", "7")
		w.Write([]byte(`{"ok":true}`))
	}))

	body, header, err := client.Get(context.Background(), server.URL+"/wp-json/wp/v2/posts")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
	assert.Equal(t, "7", header.Get("X-WP-Total"))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))

	body, _, err := client.Get(context.Background(), server.URL+"/wp-json/wp/v2/posts")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetAuthErrorNotRetried(t *testing.T) {
	var calls int32
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, _, err := client.Get(context.Background(), server.URL+"/wp-json/wp/v2/users")
	require.Error(t, err)
	assert.True(t, errs.IsAuthError(err))
	assert.False(t, errs.IsExhausted(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetExhaustsRetryBudget(t *testing.T) {
	var calls int32
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, _, err := client.Get(context.Background(), server.URL+"/wp-json/wp/v2/posts")
	require.Error(t, err)

	var exhausted *errs.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var apiErr *errs.Error
	require.ErrorAs(t, exhausted.Err, &apiErr)
	assert.Equal(t, errs.ErrorTypeServerError, apiErr.Type)
}

func TestGetCancelledContext(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := client.Get(ctx, server.URL+"/wp-json/wp/v2/posts")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitAppliesToRetries(t *testing.T) {
	var calls int32
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))
	client.limiter = newCountingLimiter()

	_, _, err := client.Get(context.Background(), server.URL+"/wp-json/wp/v2/posts")
	require.NoError(t, err)

	// Every attempt, retries included, claims a rate limit slot first
	assert.Equal(t, 3, client.limiter.(*countingLimiter).waits)
}

type countingLimiter struct {
	waits int
}

func newCountingLimiter() *countingLimiter {
	return &countingLimiter{}
}

func (l *countingLimiter) Allow() bool { return true }
func (l *countingLimiter) Wait()       { l.waits++ }
func (l *countingLimiter) Reset()      {}

func TestGetJSON(t *testing.T) {
	t.Run("decodes response", func(t *testing.T) {
		client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(RawUser{ID: 4, Name: "Pat", Slug: "pat"})
		}))

		var user RawUser
		err := client.GetJSON(context.Background(), server.URL+"/wp-json/wp/v2/users/4", &user)
		require.NoError(t, err)
		assert.Equal(t, 4, user.ID)
		assert.Equal(t, "Pat", user.Name)
	})

	t.Run("malformed body classified as parsing error", func(t *testing.T) {
		client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>not json</html>`))
		}))

		var user RawUser
		err := client.GetJSON(context.Background(), server.URL+"/wp-json/wp/v2/users/4", &user)
		require.Error(t, err)

		var apiErr *errs.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
	})
}

func TestCollectionTotal(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		assert.Equal(t, "publish", r.URL.Query().Get("status"))

		w.Header().Set("X-WP-Total", "57")
		w.Header().Set("X-WP-TotalPages", "57")
		w.Write([]byte(`[{"id":1}]`))
	}))

	total, err := client.CollectionTotal(context.Background(), PostsEndpoint, map[string][]string{
		"status": {"publish"},
	})
	require.NoError(t, err)
	assert.Equal(t, 57, total)
}

func TestCollectionTotalMissingHeader(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	total, err := client.CollectionTotal(context.Background(), PostsEndpoint, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestDownloadMedia(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.True(t, ok)
		w.Write(payload)
	}))

	data, err := client.DownloadMedia(context.Background(), server.URL+"/wp-content/uploads/2024/01/photo.png")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloadMediaNotFound(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.DownloadMedia(context.Background(), server.URL+"/wp-content/uploads/missing.png")
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)
}
