package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"wpbackup/pkg/wordpress"
)

// MockWordPressServer simulates a WordPress REST API with realistic
// pagination behavior: collection endpoints honor page and per_page,
// advertise X-WP-Total headers, and answer requests past the last page
// with the rest_post_invalid_page_number error a real site produces.
type MockWordPressServer struct {
	server        *httptest.Server
	requestCount  int32
	rateLimitHits int32

	mu         sync.RWMutex
	users      []wordpress.RawUser
	categories []wordpress.RawTerm
	tags       []wordpress.RawTerm
	media      []wordpress.RawMedia
	posts      []wordpress.RawPost

	errorResponses map[string]int           // Map of endpoint keys to forced status codes
	failuresLeft   map[string]int           // Remaining forced failures per endpoint key
	delays         map[string]time.Duration // Simulated response delays

	authUsername   string
	authPassword   string
	rateLimitEvery int // Every Nth request gets a 429; zero disables
}

// NewMockWordPressServer creates a mock WordPress site with no content.
// Seed the collections before pointing a client at it.
func NewMockWordPressServer() *MockWordPressServer {
	m := &MockWordPressServer{
		errorResponses: make(map[string]int),
		failuresLeft:   make(map[string]int),
		delays:         make(map[string]time.Duration),
	}

	mux := http.NewServeMux()

	// REST API collection endpoints
	mux.HandleFunc(wordpress.RestBase+wordpress.UsersEndpoint, m.handleUsers)
	mux.HandleFunc(wordpress.RestBase+wordpress.CategoriesEndpoint, m.handleCategories)
	mux.HandleFunc(wordpress.RestBase+wordpress.TagsEndpoint, m.handleTags)
	mux.HandleFunc(wordpress.RestBase+wordpress.MediaEndpoint, m.handleMedia)
	mux.HandleFunc(wordpress.RestBase+wordpress.PostsEndpoint, m.handlePosts)

	// Media binary endpoint (simulated uploads directory)
	mux.HandleFunc("/media-files/", m.handleMediaFile)

	m.server = httptest.NewServer(mux)
	return m
}

// SeedUsers replaces the users collection.
func (m *MockWordPressServer) SeedUsers(users []wordpress.RawUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
}

// SeedCategories replaces the categories collection.
func (m *MockWordPressServer) SeedCategories(terms []wordpress.RawTerm) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = terms
}

// SeedTags replaces the tags collection.
func (m *MockWordPressServer) SeedTags(terms []wordpress.RawTerm) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = terms
}

// SeedMedia replaces the media collection.
func (m *MockWordPressServer) SeedMedia(media []wordpress.RawMedia) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media = media
}

// SeedPosts replaces the posts collection.
func (m *MockWordPressServer) SeedPosts(posts []wordpress.RawPost) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = posts
}

// RequireAuth makes every endpoint demand Basic auth with the given
// credentials. Spaces in the application password are ignored on both
// sides, matching how WordPress treats the display format.
func (m *MockWordPressServer) RequireAuth(username, appPassword string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authUsername = username
	m.authPassword = appPassword
}

// EnableRateLimiting makes every Nth request answer 429.
func (m *MockWordPressServer) EnableRateLimiting(every int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitEvery = every
}

// SetErrorResponse configures an endpoint to return a specific error code
// on every request. Keys are URL paths, optionally page-qualified as
// "/wp-json/wp/v2/posts?page=2" to hit a single page of a collection.
func (m *MockWordPressServer) SetErrorResponse(endpoint string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[endpoint] = code
	delete(m.failuresLeft, endpoint)
}

// SetTransientError configures an endpoint to fail a fixed number of times
// and then recover.
func (m *MockWordPressServer) SetTransientError(endpoint string, code int, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[endpoint] = code
	m.failuresLeft[endpoint] = times
}

// ClearErrorResponse removes error configuration for an endpoint.
func (m *MockWordPressServer) ClearErrorResponse(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errorResponses, endpoint)
	delete(m.failuresLeft, endpoint)
}

// SetDelay configures response delay for an endpoint path.
func (m *MockWordPressServer) SetDelay(endpoint string, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[endpoint] = delay
}

// GetURL returns the base URL of the mock server.
func (m *MockWordPressServer) GetURL() string {
	return m.server.URL
}

// GetRequestCount returns the total number of requests served.
func (m *MockWordPressServer) GetRequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// GetRateLimitHits returns the number of 429 responses sent.
func (m *MockWordPressServer) GetRateLimitHits() int {
	return int(atomic.LoadInt32(&m.rateLimitHits))
}

// ResetCounters resets all request counters.
func (m *MockWordPressServer) ResetCounters() {
	atomic.StoreInt32(&m.requestCount, 0)
	atomic.StoreInt32(&m.rateLimitHits, 0)
}

// Close shuts down the mock server.
func (m *MockWordPressServer) Close() {
	m.server.Close()
}

func (m *MockWordPressServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	if !m.preflight(w, r) {
		return
	}
	m.mu.RLock()
	records := asRecords(m.users)
	m.mu.RUnlock()
	m.servePage(w, r, records)
}

func (m *MockWordPressServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !m.preflight(w, r) {
		return
	}
	m.mu.RLock()
	records := asRecords(m.categories)
	m.mu.RUnlock()
	m.servePage(w, r, records)
}

func (m *MockWordPressServer) handleTags(w http.ResponseWriter, r *http.Request) {
	if !m.preflight(w, r) {
		return
	}
	m.mu.RLock()
	records := asRecords(m.tags)
	m.mu.RUnlock()
	m.servePage(w, r, records)
}

func (m *MockWordPressServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	if !m.preflight(w, r) {
		return
	}
	m.mu.RLock()
	records := asRecords(m.media)
	m.mu.RUnlock()
	m.servePage(w, r, records)
}

// handlePosts filters by the status query parameter the way WordPress
// does: absent means published posts only.
func (m *MockWordPressServer) handlePosts(w http.ResponseWriter, r *http.Request) {
	if !m.preflight(w, r) {
		return
	}

	wanted := map[string]bool{"publish": true}
	if statuses := r.URL.Query().Get("status"); statuses != "" {
		wanted = make(map[string]bool)
		for _, status := range strings.Split(statuses, ",") {
			wanted[strings.TrimSpace(status)] = true
		}
	}

	m.mu.RLock()
	records := make([]interface{}, 0, len(m.posts))
	for _, post := range m.posts {
		if wanted[post.Status] {
			records = append(records, post)
		}
	}
	m.mu.RUnlock()

	m.servePage(w, r, records)
}

// handleMediaFile serves a deterministic 1KB binary for any file name.
func (m *MockWordPressServer) handleMediaFile(w http.ResponseWriter, r *http.Request) {
	if !m.preflight(w, r) {
		return
	}

	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i % 256)
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// preflight applies the cross-cutting behaviors in order: request
// counting, delays, forced errors, auth, rate limiting. It reports
// whether the handler should continue.
func (m *MockWordPressServer) preflight(w http.ResponseWriter, r *http.Request) bool {
	count := atomic.AddInt32(&m.requestCount, 1)

	if delay := m.getDelay(r.URL.Path); delay > 0 {
		time.Sleep(delay)
	}

	keys := []string{r.URL.Path}
	if page := r.URL.Query().Get("page"); page != "" {
		keys = []string{r.URL.Path + "?page=" + page, r.URL.Path}
	}
	if code := m.takeForcedStatus(keys); code > 0 {
		m.sendError(w, code)
		return false
	}

	if !m.checkAuth(r) {
		m.sendError(w, http.StatusUnauthorized)
		return false
	}

	if every := m.getRateLimitEvery(); every > 0 && count%int32(every) == 0 {
		atomic.AddInt32(&m.rateLimitHits, 1)
		w.Header().Set("Retry-After", "1")
		m.sendError(w, http.StatusTooManyRequests)
		return false
	}

	return true
}

// servePage writes one page of a collection with WordPress pagination
// semantics.
func (m *MockWordPressServer) servePage(w http.ResponseWriter, r *http.Request, records []interface{}) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 10)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	total := len(records)
	totalPages := (total + perPage - 1) / perPage

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-WP-Total", strconv.Itoa(total))
	w.Header().Set("X-WP-TotalPages", strconv.Itoa(totalPages))

	if page > totalPages && page > 1 {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    "rest_post_invalid_page_number",
			"message": "The page number requested is larger than the number of pages available.",
			"data":    map[string]interface{}{"status": http.StatusBadRequest},
		})
		return
	}

	lo := (page - 1) * perPage
	hi := lo + perPage
	if lo > total {
		lo = total
	}
	if hi > total {
		hi = total
	}

	json.NewEncoder(w).Encode(records[lo:hi])
}

// sendError writes a WordPress-style error document.
func (m *MockWordPressServer) sendError(w http.ResponseWriter, code int) {
	var wpCode, message string
	switch code {
	case http.StatusUnauthorized:
		wpCode = "incorrect_password"
		message = "The provided password is an invalid application password."
	case http.StatusForbidden:
		wpCode = "rest_forbidden"
		message = "Sorry, you are not allowed to do that."
	case http.StatusNotFound:
		wpCode = "rest_no_route"
		message = "No route was found matching the URL and request method."
	case http.StatusTooManyRequests:
		wpCode = "rest_too_many_requests"
		message = "Too many requests, slow down."
	default:
		wpCode = "internal_server_error"
		message = "There has been a critical error on this website."
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    wpCode,
		"message": message,
		"data":    map[string]interface{}{"status": code},
	})
}

// takeForcedStatus consumes a forced error for the first matching key. A
// key with a transient budget counts down and recovers at zero.
func (m *MockWordPressServer) takeForcedStatus(keys []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		code, ok := m.errorResponses[key]
		if !ok {
			continue
		}
		if remaining, limited := m.failuresLeft[key]; limited {
			if remaining <= 1 {
				delete(m.errorResponses, key)
				delete(m.failuresLeft, key)
			} else {
				m.failuresLeft[key] = remaining - 1
			}
		}
		return code
	}
	return 0
}

func (m *MockWordPressServer) checkAuth(r *http.Request) bool {
	m.mu.RLock()
	username, password := m.authUsername, m.authPassword
	m.mu.RUnlock()

	if username == "" {
		return true
	}

	user, pass, ok := r.BasicAuth()
	if !ok || user != username {
		return false
	}
	return strings.ReplaceAll(pass, " ", "") == strings.ReplaceAll(password, " ", "")
}

func (m *MockWordPressServer) getDelay(endpoint string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.delays[endpoint]
}

func (m *MockWordPressServer) getRateLimitEvery() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rateLimitEvery
}

func queryInt(r *http.Request, key string, fallback int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return value
}

func asRecords[T any](items []T) []interface{} {
	records := make([]interface{}, len(items))
	for i := range items {
		records[i] = items[i]
	}
	return records
}
