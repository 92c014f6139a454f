package backup

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"wpbackup/pkg/logger"
	"wpbackup/pkg/models"
	"wpbackup/pkg/wordpress"
)

// timeLayouts covers the timestamp shapes the REST API produces.
// wordpress.com sends RFC 3339; self-hosted sites usually omit the zone
// suffix, in which case the _gmt variants are already UTC.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

// Normalizer maps raw REST API records onto typed entities. A missing or
// odd field degrades to a documented default; only a record that cannot be
// decoded at all, or that carries no id, is rejected.
type Normalizer struct {
	logger logger.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(log logger.Logger) *Normalizer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Normalizer{logger: log}
}

// Author normalizes a user record.
func (n *Normalizer) Author(raw json.RawMessage) (*models.Author, error) {
	var u wordpress.RawUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("malformed user record: %w", err)
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("user record has no id")
	}

	return &models.Author{
		ID:        u.ID,
		Name:      u.Name,
		Slug:      u.Slug,
		URL:       u.URL,
		AvatarURL: pickAvatar(u.AvatarURLs),
	}, nil
}

// pickAvatar prefers the largest avatar size the API advertises.
func pickAvatar(urls map[string]string) string {
	for _, size := range []string{"96", "48", "24"} {
		if u := urls[size]; u != "" {
			return u
		}
	}
	return ""
}

// Term normalizes a category or tag record. Records without a taxonomy
// field get the taxonomy of the endpoint they came from.
func (n *Normalizer) Term(raw json.RawMessage, taxonomy string) (*models.Term, error) {
	var t wordpress.RawTerm
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("malformed term record: %w", err)
	}
	if t.ID == 0 {
		return nil, fmt.Errorf("term record has no id")
	}

	tax := t.Taxonomy
	if tax == "" {
		tax = taxonomy
	}

	return &models.Term{
		ID:       t.ID,
		Name:     html.UnescapeString(t.Name),
		Slug:     t.Slug,
		Taxonomy: tax,
		Parent:   t.Parent,
		Count:    t.Count,
	}, nil
}

// Media normalizes a media attachment record.
func (n *Normalizer) Media(raw json.RawMessage) (*models.Media, error) {
	var m wordpress.RawMedia
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("malformed media record: %w", err)
	}
	if m.ID == 0 {
		return nil, fmt.Errorf("media record has no id")
	}

	return &models.Media{
		ID:        m.ID,
		URL:       m.SourceURL,
		MimeType:  m.MimeType,
		Title:     html.UnescapeString(m.Title.Rendered),
		AltText:   m.AltText,
		CreatedAt: n.parseTime(m.DateGMT, m.Date, m.ID),
	}, nil
}

// Post normalizes a post record. Title and excerpt are HTML-unescaped, the
// content body is kept as rendered, and a modification time earlier than
// the creation time is clamped to it.
func (n *Normalizer) Post(raw json.RawMessage) (*models.Post, error) {
	var p wordpress.RawPost
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("malformed post record: %w", err)
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("post record has no id")
	}

	created := n.parseTime(p.DateGMT, p.Date, p.ID)
	modified := n.parseTime(p.ModifiedGMT, p.Modified, p.ID)
	if modified.Before(created) {
		modified = created
	}

	status := p.Status
	if status == "" {
		status = "publish"
	}

	return &models.Post{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           html.UnescapeString(p.Title.Rendered),
		Content:         p.Content.Rendered,
		Excerpt:         strings.TrimSpace(html.UnescapeString(p.Excerpt.Rendered)),
		Link:            p.Link,
		Status:          status,
		CreatedAt:       created,
		ModifiedAt:      modified,
		AuthorID:        p.Author,
		CategoryIDs:     p.Categories,
		TagIDs:          p.Tags,
		FeaturedMediaID: p.FeaturedMedia,
		CommentsOpen:    p.CommentStatus == "open",
		CustomFields:    decodeCustomFields(p.Meta),
	}, nil
}

// decodeCustomFields reads the post meta object. Sites without registered
// custom fields send an empty array in its place; that and anything else
// that is not an object degrade to no fields.
func decodeCustomFields(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// parseTime tries the GMT timestamp first and falls back to the site-local
// one. Unparseable values degrade to the zero time.
func (n *Normalizer) parseTime(gmt, local string, id int) time.Time {
	for _, value := range []string{gmt, local} {
		if value == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, value); err == nil {
				return ts.UTC()
			}
		}
	}

	if gmt != "" || local != "" {
		n.logger.WarnWithFields("unparseable timestamp, using zero time", map[string]interface{}{
			"id":    id,
			"value": gmt + " / " + local,
		})
	}
	return time.Time{}
}
