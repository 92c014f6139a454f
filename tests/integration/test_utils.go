package integration

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wpbackup/pkg/config"
	"wpbackup/pkg/logger"
	"wpbackup/pkg/wordpress"
)

// Credentials the mock site accepts. The password uses the spaced display
// format WordPress shows when generating an application password.
const (
	testUsername    = "backup_user"
	testAppPassword = "abcd EFGH 1234 ijkl MNOP 5678"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t            *testing.T
	mockServer   *MockWordPressServer
	tempDir      string
	cleanupFuncs []func()
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	tempDir, err := os.MkdirTemp("", "wpbackup_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	return &TestHelper{
		t:            t,
		tempDir:      tempDir,
		cleanupFuncs: []func(){},
	}
}

// SetupMockServer starts a mock WordPress site seeded with a couple of
// authors, a few terms and media attachments, and enough posts to span
// several pages at the test page size.
func (h *TestHelper) SetupMockServer() *MockWordPressServer {
	h.mockServer = NewMockWordPressServer()
	h.mockServer.RequireAuth(testUsername, testAppPassword)
	h.mockServer.SeedUsers(GenerateUsers(2))
	h.mockServer.SeedCategories(GenerateCategories(3))
	h.mockServer.SeedTags(GenerateTags(4))
	h.mockServer.SeedMedia(GenerateMediaRecords(3, h.mockServer.GetURL()))
	h.mockServer.SeedPosts(GeneratePosts(25))
	h.AddCleanup(h.mockServer.Close)
	return h.mockServer
}

// GetTempDir returns the temporary directory for test files
func (h *TestHelper) GetTempDir() string {
	return h.tempDir
}

// CreateTempSubDir creates a subdirectory in the temp directory
func (h *TestHelper) CreateTempSubDir(name string) string {
	dir := filepath.Join(h.tempDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		h.t.Fatalf("Failed to create temp subdir: %v", err)
	}
	return dir
}

// AddCleanup adds a cleanup function to be called when test ends
func (h *TestHelper) AddCleanup(fn func()) {
	h.cleanupFuncs = append(h.cleanupFuncs, fn)
}

// Cleanup runs all cleanup functions
func (h *TestHelper) Cleanup() {
	for i := len(h.cleanupFuncs) - 1; i >= 0; i-- {
		h.cleanupFuncs[i]()
	}
	os.RemoveAll(h.tempDir)
}

// CreateTestLogger creates a test logger
func (h *TestHelper) CreateTestLogger() logger.Logger {
	return logger.NewTestLogger()
}

// CreateTestConfig creates a configuration pointed at the mock server,
// with delays short enough to keep retry tests fast. SetupMockServer must
// run first.
func (h *TestHelper) CreateTestConfig() *config.Config {
	if h.mockServer == nil {
		h.t.Fatal("SetupMockServer must be called before CreateTestConfig")
	}

	cfg := config.DefaultConfig()

	cfg.Site.URL = h.mockServer.GetURL()
	cfg.Site.RequestTimeout = 5 * time.Second
	cfg.Site.PageSize = 10
	cfg.Site.PostStatuses = []string{"publish"}

	cfg.Auth.Username = testUsername
	cfg.Auth.AppPassword = testAppPassword

	cfg.RateLimit.RequestDelay = 0
	cfg.RateLimit.MaxRetries = 3
	cfg.RateLimit.RetryDelay = 20 * time.Millisecond
	cfg.RateLimit.MaxRetryDelay = 200 * time.Millisecond
	cfg.RateLimit.BackoffMultiplier = 2.0

	cfg.Output.Directory = h.CreateTempSubDir("archive")
	cfg.Media.DownloadFiles = false
	cfg.Media.DownloadTimeout = 5 * time.Second

	cfg.Logging.Level = "error"

	return cfg
}

// AssertFileExists checks if a file exists
func (h *TestHelper) AssertFileExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		h.t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func (h *TestHelper) AssertFileNotExists(path string) {
	if _, err := os.Stat(path); err == nil {
		h.t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContains checks if a file contains the expected substring
func (h *TestHelper) AssertFileContains(path string, expected string) {
	content, err := os.ReadFile(path)
	if err != nil {
		h.t.Errorf("Failed to read file %s: %v", path, err)
		return
	}

	if !strings.Contains(string(content), expected) {
		h.t.Errorf("File %s does not contain %q", path, expected)
	}
}

// AssertDirContainsFiles checks if directory contains expected number of files
func (h *TestHelper) AssertDirContainsFiles(dir string, expectedCount int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		h.t.Errorf("Failed to read directory %s: %v", dir, err)
		return
	}

	actualCount := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			actualCount++
		}
	}

	if actualCount != expectedCount {
		h.t.Errorf("Directory %s contains %d files, expected %d", dir, actualCount, expectedCount)
	}
}

// CountArchivedPosts counts the Markdown files below an archive root.
func (h *TestHelper) CountArchivedPosts(dir string) int {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			count++
		}
		return nil
	})
	if err != nil {
		h.t.Errorf("Failed to walk archive %s: %v", dir, err)
	}
	return count
}

// AssertNoError fails the test if err is not nil
func (h *TestHelper) AssertNoError(err error) {
	if err != nil {
		h.t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func (h *TestHelper) AssertError(err error) {
	if err == nil {
		h.t.Fatal("Expected error but got nil")
	}
}

// AssertErrorContains checks if error contains expected substring
func (h *TestHelper) AssertErrorContains(err error, substr string) {
	if err == nil {
		h.t.Fatal("Expected error but got nil")
	}
	if !strings.Contains(err.Error(), substr) {
		h.t.Errorf("Error message '%s' does not contain '%s'", err.Error(), substr)
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(expected, actual interface{}) {
	if expected != actual {
		h.t.Errorf("Expected %v, got %v", expected, actual)
	}
}

// GenerateUsers builds sequential author records with ids starting at 1.
func GenerateUsers(count int) []wordpress.RawUser {
	users := make([]wordpress.RawUser, count)
	for i := 0; i < count; i++ {
		id := i + 1
		users[i] = wordpress.RawUser{
			ID:   id,
			Name: fmt.Sprintf("Author %d", id),
			Slug: fmt.Sprintf("author-%d", id),
			URL:  fmt.Sprintf("https://example.com/author-%d", id),
			AvatarURLs: map[string]string{
				"96": fmt.Sprintf("https://example.com/avatars/%d-96.png", id),
			},
		}
	}
	return users
}

// GenerateCategories builds category records with ids starting at 10.
func GenerateCategories(count int) []wordpress.RawTerm {
	terms := make([]wordpress.RawTerm, count)
	for i := 0; i < count; i++ {
		id := 10 + i
		terms[i] = wordpress.RawTerm{
			ID:       id,
			Count:    5,
			Name:     fmt.Sprintf("Category %d", id),
			Slug:     fmt.Sprintf("category-%d", id),
			Taxonomy: "category",
		}
	}
	return terms
}

// GenerateTags builds tag records with ids starting at 100.
func GenerateTags(count int) []wordpress.RawTerm {
	terms := make([]wordpress.RawTerm, count)
	for i := 0; i < count; i++ {
		id := 100 + i
		terms[i] = wordpress.RawTerm{
			ID:       id,
			Count:    3,
			Name:     fmt.Sprintf("Tag %d", id),
			Slug:     fmt.Sprintf("tag-%d", id),
			Taxonomy: "post_tag",
		}
	}
	return terms
}

// GenerateMediaRecords builds media records with ids starting at 200 whose
// source URLs point back at the given base URL, so downloads hit the mock
// server's binary endpoint.
func GenerateMediaRecords(count int, baseURL string) []wordpress.RawMedia {
	media := make([]wordpress.RawMedia, count)
	for i := 0; i < count; i++ {
		id := 200 + i
		media[i] = wordpress.RawMedia{
			ID:        id,
			Date:      fmt.Sprintf("2024-%02d-10T12:00:00", 1+i%12),
			DateGMT:   fmt.Sprintf("2024-%02d-10T12:00:00", 1+i%12),
			Title:     wordpress.Rendered{Rendered: fmt.Sprintf("Photo %d", id)},
			AltText:   fmt.Sprintf("Alt text %d", id),
			MimeType:  "image/jpeg",
			SourceURL: fmt.Sprintf("%s/media-files/photo-%d.jpg", baseURL, id),
		}
	}
	return media
}

// GeneratePosts builds published posts with ids starting at 1000. The
// records rotate through two authors, three categories, four tags and
// three media attachments, matching the defaults SetupMockServer seeds.
func GeneratePosts(count int) []wordpress.RawPost {
	posts := make([]wordpress.RawPost, count)
	for i := 0; i < count; i++ {
		id := 1000 + i
		date := fmt.Sprintf("2024-%02d-15T08:30:00", 1+i%12)

		featuredMedia := 0
		if i%2 == 0 {
			featuredMedia = 200 + i%3
		}

		commentStatus := "open"
		if i%3 == 0 {
			commentStatus = "closed"
		}

		posts[i] = wordpress.RawPost{
			ID:            id,
			Date:          date,
			DateGMT:       date,
			Modified:      date,
			ModifiedGMT:   date,
			Slug:          fmt.Sprintf("post-%d", id),
			Status:        "publish",
			Link:          fmt.Sprintf("https://example.com/2024/post-%d/", id),
			Title:         wordpress.Rendered{Rendered: fmt.Sprintf("Post %d", id)},
			Content:       wordpress.Rendered{Rendered: fmt.Sprintf("<p>Body of post %d.</p>", id)},
			Excerpt:       wordpress.Rendered{Rendered: fmt.Sprintf("<p>Excerpt %d.</p>", id)},
			Author:        1 + i%2,
			FeaturedMedia: featuredMedia,
			CommentStatus: commentStatus,
			Categories:    []int{10 + i%3},
			Tags:          []int{100 + i%4},
			Meta:          json.RawMessage(fmt.Sprintf(`{"word_count": %d}`, 120+i)),
		}
	}
	return posts
}
