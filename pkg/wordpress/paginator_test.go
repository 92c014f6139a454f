package wordpress

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "wpbackup/pkg/errors"
)

// pageHandler serves canned bodies keyed by page number. Pages without an
// entry get the WordPress past-the-end 400 response.
func pageHandler(pages map[string]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Query().Get("page")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":"rest_post_invalid_page_number"}`))
			return
		}
		w.Write([]byte(body))
	})
}

func TestPaginatorWalksPages(t *testing.T) {
	client, _ := newTestClient(t, pageHandler(map[string]string{
		"1": `[{"id":1},{"id":2}]`,
		"2": `[{"id":3},{"id":4}]`,
	}))

	pages := client.Paginate(PostsEndpoint, nil)
	ctx := context.Background()

	first, err := pages.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := pages.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)

	_, err = pages.NextPage(ctx)
	assert.ErrorIs(t, err, ErrNoMorePages)

	// Exhausted paginators stay exhausted
	_, err = pages.NextPage(ctx)
	assert.ErrorIs(t, err, ErrNoMorePages)
}

func TestPaginatorShortPageEndsCollection(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`[{"id":1},{"id":2}]`))
		case "2":
			w.Write([]byte(`[{"id":3}]`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	pages := client.Paginate(PostsEndpoint, nil)
	ctx := context.Background()

	_, err := pages.NextPage(ctx)
	require.NoError(t, err)

	short, err := pages.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, short, 1)

	// A short page is known to be the last, no extra request is made
	_, err = pages.NextPage(ctx)
	assert.ErrorIs(t, err, ErrNoMorePages)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPaginatorStopsAtReportedTotalPages(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set(TotalPagesHeader, "2")
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`[{"id":1},{"id":2}]`))
		case "2":
			w.Write([]byte(`[{"id":3},{"id":4}]`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	pages := client.Paginate(PostsEndpoint, nil)
	ctx := context.Background()

	_, err := pages.NextPage(ctx)
	require.NoError(t, err)
	_, err = pages.NextPage(ctx)
	require.NoError(t, err)

	// The header already announced two pages, so the final full page needs
	// no extra probe request
	_, err = pages.NextPage(ctx)
	assert.ErrorIs(t, err, ErrNoMorePages)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPaginatorEmptyCollection(t *testing.T) {
	client, _ := newTestClient(t, pageHandler(map[string]string{
		"1": `[]`,
	}))

	pages := client.Paginate(TagsEndpoint, nil)

	_, err := pages.NextPage(context.Background())
	assert.ErrorIs(t, err, ErrNoMorePages)
}

func TestPaginatorSkipsFailedPage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`[{"id":1},{"id":2}]`))
		case "2":
			w.WriteHeader(http.StatusInternalServerError)
		case "3":
			w.Write([]byte(`[{"id":5}]`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	pages := client.Paginate(PostsEndpoint, nil)
	ctx := context.Background()

	first, err := pages.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	// Page 2 keeps failing until retries run out
	_, err = pages.NextPage(ctx)
	require.Error(t, err)

	var pageErr *PageError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, 2, pageErr.Page)
	assert.True(t, errs.IsExhausted(pageErr.Err))

	// The paginator has moved on to page 3
	third, err := pages.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 1)
}

func TestPaginatorMalformedPage(t *testing.T) {
	client, _ := newTestClient(t, pageHandler(map[string]string{
		"1": `{"not":"an array"}`,
		"2": `[{"id":9},{"id":10}]`,
	}))

	pages := client.Paginate(PostsEndpoint, nil)
	ctx := context.Background()

	_, err := pages.NextPage(ctx)
	require.Error(t, err)

	var pageErr *PageError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, 1, pageErr.Page)

	var apiErr *errs.Error
	require.ErrorAs(t, pageErr.Err, &apiErr)
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)

	second, err := pages.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestPaginatorAuthFailureSurfacesInPageError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	pages := client.Paginate(UsersEndpoint, nil)

	_, err := pages.NextPage(context.Background())
	require.Error(t, err)

	var pageErr *PageError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, 1, pageErr.Page)
	assert.True(t, errs.IsAuthError(pageErr.Err))
}

func TestPaginatorCancellation(t *testing.T) {
	client, _ := newTestClient(t, pageHandler(map[string]string{
		"1": `[{"id":1},{"id":2}]`,
	}))

	pages := client.Paginate(PostsEndpoint, nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := pages.NextPage(ctx)
	require.NoError(t, err)

	cancel()

	_, err = pages.NextPage(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// Cancellation passes through instead of being recorded as a failed page
	var pageErr *PageError
	assert.False(t, errors.As(err, &pageErr))
}
