package models

import "time"

type Kind string

const (
	KindAuthor   Kind = "author"
	KindCategory Kind = "category"
	KindTag      Kind = "tag"
	KindMedia    Kind = "media"
	KindPost     Kind = "post"
)

type Author struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	Slug      string `json:"slug,omitempty"`
	URL       string `json:"url,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Term struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
	Parent   int    `json:"parent,omitempty"`
	Count    int    `json:"count,omitempty"`
}

type Media struct {
	ID        int       `json:"id"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type,omitempty"`
	Title     string    `json:"title,omitempty"`
	AltText   string    `json:"alt_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	FileSize  int64     `json:"file_size,omitempty"`
	LocalPath string    `json:"local_path,omitempty"`
}

type Post struct {
	ID              int                    `json:"id"`
	Slug            string                 `json:"slug"`
	Title           string                 `json:"title"`
	Content         string                 `json:"content"`
	Excerpt         string                 `json:"excerpt,omitempty"`
	Link            string                 `json:"link,omitempty"`
	Status          string                 `json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
	ModifiedAt      time.Time              `json:"modified_at"`
	AuthorID        int                    `json:"author_id"`
	CategoryIDs     []int                  `json:"category_ids,omitempty"`
	TagIDs          []int                  `json:"tag_ids,omitempty"`
	FeaturedMediaID int                    `json:"featured_media_id,omitempty"`
	CommentsOpen    bool                   `json:"comments_open"`
	CustomFields    map[string]interface{} `json:"custom_fields,omitempty"`
}
