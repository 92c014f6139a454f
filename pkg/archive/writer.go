package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"wpbackup/pkg/logger"
	"wpbackup/pkg/models"
)

// SummaryVersion identifies the archive layout written by this tool.
const SummaryVersion = "2.0"

// File names at the archive root.
const (
	MetadataFile   = "metadata.json"
	AuthorsFile    = "authors.json"
	TaxonomiesFile = "taxonomies.json"
	MediaIndexFile = "media.json"
	MediaDir       = "media"
)

// Stats counts what a writer has put on disk.
type Stats struct {
	Posts   int
	Indexes int
	Media   int
}

// Writer lays out a backup archive on disk. Posts land under year/month
// directories named by slug, indexes and the run summary live at the root,
// and media binaries go under media/. The constructor does not touch the
// filesystem; directories appear when the first record is written.
type Writer struct {
	outputDir string
	claimed   map[string]int // post file path -> owning post ID
	mediaSeen map[string]int // media file name -> owning media ID
	stats     Stats
	logger    logger.Logger
}

// NewWriter creates a writer rooted at outputDir.
func NewWriter(outputDir string, log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Writer{
		outputDir: outputDir,
		claimed:   make(map[string]int),
		mediaSeen: make(map[string]int),
		logger:    log,
	}
}

// OutputDir returns the archive root path.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// Stats returns counts of what has been written so far.
func (w *Writer) Stats() Stats {
	return w.stats
}

// PostPath returns the archive-relative path a post is stored at. Posts are
// keyed by slug inside their creation year and month; when another post
// already holds the slug the path gets an ID suffix.
func (w *Writer) PostPath(post *models.Post) string {
	created := post.CreatedAt.UTC()
	dir := fmt.Sprintf("%04d/%02d", created.Year(), int(created.Month()))
	slug := safeSlug(post)

	rel := path.Join(dir, slug+".md")
	if owner, taken := w.claimed[rel]; taken && owner != post.ID {
		rel = path.Join(dir, fmt.Sprintf("%s-%d.md", slug, post.ID))
	}

	return rel
}

// WritePost renders a post with its header and writes it into the archive.
// Writing the same post again produces the same path and content, so a
// rerun converges instead of duplicating files.
func (w *Writer) WritePost(post *models.Post, fm *Frontmatter) (string, error) {
	rel := w.PostPath(post)

	content, err := Marshal(fm, post.Content)
	if err != nil {
		return "", fmt.Errorf("failed to render post %d: %w", post.ID, err)
	}

	if err := writeFileAtomic(filepath.Join(w.outputDir, filepath.FromSlash(rel)), content); err != nil {
		return "", err
	}

	w.claimed[rel] = post.ID
	w.stats.Posts++

	w.logger.DebugWithFields("post written", map[string]interface{}{
		"post_id": post.ID,
		"path":    rel,
	})

	return rel, nil
}

// WriteIndex writes a JSON index document at the archive root and returns
// its archive-relative path.
func (w *Writer) WriteIndex(name string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(filepath.Join(w.outputDir, name), data); err != nil {
		return "", err
	}

	w.stats.Indexes++
	return name, nil
}

// Summary is the shape of the metadata.json document.
type Summary struct {
	BackupVersion string    `json:"backup_version"`
	BackupDate    time.Time `json:"backup_date"`
	models.BackupRun
}

// WriteSummary writes the run summary as metadata.json.
func (w *Writer) WriteSummary(run *models.BackupRun) (string, error) {
	return w.WriteIndex(MetadataFile, Summary{
		BackupVersion: SummaryVersion,
		BackupDate:    run.FinishedAt,
		BackupRun:     *run,
	})
}

// WriteMediaFile stores a downloaded media binary under media/, named by
// the source URL basename. A name already held by a different attachment
// gets an ID prefix.
func (w *Writer) WriteMediaFile(mediaID int, name string, data []byte) (string, error) {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("media-%d", mediaID)
	}
	if owner, taken := w.mediaSeen[name]; taken && owner != mediaID {
		name = fmt.Sprintf("%d-%s", mediaID, name)
	}

	if err := writeFileAtomic(filepath.Join(w.outputDir, MediaDir, name), data); err != nil {
		return "", err
	}

	w.mediaSeen[name] = mediaID
	w.stats.Media++

	return path.Join(MediaDir, name), nil
}

// safeSlug keeps slugs usable as file names
func safeSlug(post *models.Post) string {
	slug := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '-'
		}
		return r
	}, post.Slug)

	if slug == "" || slug == "." || slug == ".." {
		slug = fmt.Sprintf("post-%d", post.ID)
	}

	return slug
}

// writeFileAtomic writes data through a temporary file and renames it into
// place, creating parent directories on demand.
func writeFileAtomic(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := target + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write file data: %w", err)
	}

	// Ensure data is on disk before the rename makes it visible
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	return nil
}
