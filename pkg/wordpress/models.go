package wordpress

import "encoding/json"

// Rendered wraps text fields the REST API returns as {"rendered": "..."}.
type Rendered struct {
	Rendered string `json:"rendered"`
}

type RawPost struct {
	ID            int      `json:"id"`
	Date          string   `json:"date"`
	DateGMT       string   `json:"date_gmt"`
	Modified      string   `json:"modified"`
	ModifiedGMT   string   `json:"modified_gmt"`
	Slug          string   `json:"slug"`
	Status        string   `json:"status"`
	Link          string   `json:"link"`
	Title         Rendered `json:"title"`
	Content       Rendered `json:"content"`
	Excerpt       Rendered `json:"excerpt"`
	Author        int      `json:"author"`
	FeaturedMedia int      `json:"featured_media"`
	CommentStatus string   `json:"comment_status"`
	Categories    []int    `json:"categories"`
	Tags          []int    `json:"tags"`
	// Meta is an object of registered custom fields, but the API sends an
	// empty array when a site has none, so it decodes downstream.
	Meta json.RawMessage `json:"meta,omitempty"`
}

type RawUser struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Slug       string            `json:"slug"`
	URL        string            `json:"url"`
	AvatarURLs map[string]string `json:"avatar_urls"`
}

type RawTerm struct {
	ID       int    `json:"id"`
	Count    int    `json:"count"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
	Parent   int    `json:"parent"`
}

type RawMedia struct {
	ID        int      `json:"id"`
	Date      string   `json:"date"`
	DateGMT   string   `json:"date_gmt"`
	Title     Rendered `json:"title"`
	AltText   string   `json:"alt_text"`
	MimeType  string   `json:"mime_type"`
	SourceURL string   `json:"source_url"`
}
