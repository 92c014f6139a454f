package archive

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FrontmatterAuthor is the author block of a post header. Name is a pointer
// so that a placeholder author renders as an explicit null name rather than
// disappearing from the header.
type FrontmatterAuthor struct {
	ID   int     `yaml:"id"`
	Name *string `yaml:"name"`
}

// FrontmatterTerm is a category or tag reference in a post header.
type FrontmatterTerm struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	Slug string `yaml:"slug,omitempty"`
}

// FrontmatterMedia is the featured media block of a post header. LocalPath
// points at the downloaded binary relative to the archive root, when one
// exists.
type FrontmatterMedia struct {
	ID        int    `yaml:"id"`
	URL       string `yaml:"url,omitempty"`
	MimeType  string `yaml:"mime_type,omitempty"`
	LocalPath string `yaml:"local_path,omitempty"`
}

// Frontmatter is the YAML header written at the top of every archived post.
// Marshal and Parse are strict inverses, so an archived post can be read
// back without losing metadata.
type Frontmatter struct {
	ID            int                `yaml:"id"`
	Title         string             `yaml:"title"`
	Date          time.Time          `yaml:"date"`
	Modified      time.Time          `yaml:"modified"`
	Slug          string             `yaml:"slug"`
	Status        string             `yaml:"status"`
	Link          string             `yaml:"link,omitempty"`
	Author        *FrontmatterAuthor     `yaml:"author,omitempty"`
	Categories    []FrontmatterTerm      `yaml:"categories,omitempty"`
	Tags          []FrontmatterTerm      `yaml:"tags,omitempty"`
	FeaturedMedia *FrontmatterMedia      `yaml:"featured_media,omitempty"`
	CommentsOpen  bool                   `yaml:"comments_open"`
	CustomFields  map[string]interface{} `yaml:"custom_fields,omitempty"`
	Excerpt       string                 `yaml:"excerpt,omitempty"`
}

// Marshal renders a post document: the YAML header between --- markers
// followed by the post body.
func Marshal(fm *Frontmatter, body string) ([]byte, error) {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	return []byte(fmt.Sprintf("---\n%s---\n\n%s", data, body)), nil
}

// Parse splits an archived post document back into its header and body. It
// is the inverse of Marshal.
func Parse(content []byte) (*Frontmatter, string, error) {
	text := string(content)

	if !strings.HasPrefix(text, "---\n") {
		return nil, "", fmt.Errorf("missing frontmatter header")
	}

	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return nil, "", fmt.Errorf("unterminated frontmatter header")
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return nil, "", fmt.Errorf("invalid frontmatter: %w", err)
	}

	body := strings.TrimPrefix(rest[end+len("\n---\n"):], "\n")
	return &fm, body, nil
}
