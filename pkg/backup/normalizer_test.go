package backup

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAuthor(t *testing.T) {
	n := NewNormalizer(nil)

	raw := json.RawMessage(`{
		"id": 1,
		"name": "Alice Author",
		"slug": "alice",
		"url": "https://alice.example.com",
		"avatar_urls": {"24": "https://gravatar/24", "48": "https://gravatar/48", "96": "https://gravatar/96"}
	}`)

	author, err := n.Author(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, author.ID)
	assert.Equal(t, "Alice Author", author.Name)
	assert.Equal(t, "alice", author.Slug)
	assert.Equal(t, "https://gravatar/96", author.AvatarURL, "largest avatar wins")
}

func TestNormalizeAuthorAvatarFallback(t *testing.T) {
	n := NewNormalizer(nil)

	author, err := n.Author(json.RawMessage(`{"id": 2, "avatar_urls": {"48": "https://gravatar/48"}}`))
	require.NoError(t, err)
	assert.Equal(t, "https://gravatar/48", author.AvatarURL)

	author, err = n.Author(json.RawMessage(`{"id": 3}`))
	require.NoError(t, err)
	assert.Empty(t, author.AvatarURL)
}

func TestNormalizeAuthorRejectsBadRecords(t *testing.T) {
	n := NewNormalizer(nil)

	_, err := n.Author(json.RawMessage(`{"name": "No ID"}`))
	assert.Error(t, err)

	_, err = n.Author(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestNormalizeTerm(t *testing.T) {
	n := NewNormalizer(nil)

	term, err := n.Term(json.RawMessage(`{
		"id": 10,
		"count": 5,
		"name": "Tips &amp; Tricks",
		"slug": "tips-tricks",
		"taxonomy": "category",
		"parent": 3
	}`), "category")
	require.NoError(t, err)
	assert.Equal(t, 10, term.ID)
	assert.Equal(t, "Tips & Tricks", term.Name, "HTML entities are decoded")
	assert.Equal(t, "category", term.Taxonomy)
	assert.Equal(t, 3, term.Parent)
	assert.Equal(t, 5, term.Count)
}

func TestNormalizeTermDefaultsTaxonomy(t *testing.T) {
	n := NewNormalizer(nil)

	term, err := n.Term(json.RawMessage(`{"id": 20, "name": "golang", "slug": "golang"}`), "post_tag")
	require.NoError(t, err)
	assert.Equal(t, "post_tag", term.Taxonomy)
}

func TestNormalizeMedia(t *testing.T) {
	n := NewNormalizer(nil)

	media, err := n.Media(json.RawMessage(`{
		"id": 77,
		"date": "2024-03-14T10:30:00",
		"date_gmt": "2024-03-14T09:30:00",
		"title": {"rendered": "Cover &quot;photo&quot;"},
		"alt_text": "A cover",
		"mime_type": "image/png",
		"source_url": "https://example.com/uploads/cover.png"
	}`))
	require.NoError(t, err)
	assert.Equal(t, 77, media.ID)
	assert.Equal(t, "https://example.com/uploads/cover.png", media.URL)
	assert.Equal(t, "image/png", media.MimeType)
	assert.Equal(t, `Cover "photo"`, media.Title)
	assert.Equal(t, "A cover", media.AltText)
	assert.Equal(t, time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC), media.CreatedAt, "GMT timestamp preferred")
}

func TestNormalizePost(t *testing.T) {
	n := NewNormalizer(nil)

	post, err := n.Post(json.RawMessage(`{
		"id": 201,
		"date": "2024-03-14T11:00:00",
		"date_gmt": "2024-03-14T10:00:00",
		"modified": "2024-03-15T11:00:00",
		"modified_gmt": "2024-03-15T10:00:00",
		"slug": "hello-world",
		"status": "publish",
		"link": "https://example.com/2024/03/hello-world",
		"title": {"rendered": "Hello &amp; Welcome"},
		"content": {"rendered": "<p>Body</p>"},
		"excerpt": {"rendered": "<p>Summary</p>\n"},
		"author": 1,
		"featured_media": 77,
		"comment_status": "open",
		"categories": [10],
		"tags": [20, 21]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 201, post.ID)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, "Hello & Welcome", post.Title)
	assert.Equal(t, "<p>Body</p>", post.Content, "content body stays as rendered")
	assert.Equal(t, "<p>Summary</p>", post.Excerpt)
	assert.Equal(t, "publish", post.Status)
	assert.Equal(t, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), post.CreatedAt)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), post.ModifiedAt)
	assert.Equal(t, 1, post.AuthorID)
	assert.Equal(t, []int{10}, post.CategoryIDs)
	assert.Equal(t, []int{20, 21}, post.TagIDs)
	assert.Equal(t, 77, post.FeaturedMediaID)
	assert.True(t, post.CommentsOpen)
}

func TestNormalizePostDefaults(t *testing.T) {
	n := NewNormalizer(nil)

	post, err := n.Post(json.RawMessage(`{"id": 202, "slug": "bare", "comment_status": "closed"}`))
	require.NoError(t, err)

	assert.Equal(t, "publish", post.Status, "missing status defaults to publish")
	assert.False(t, post.CommentsOpen)
	assert.True(t, post.CreatedAt.IsZero())
	assert.Empty(t, post.CategoryIDs)
}

func TestNormalizePostCustomFields(t *testing.T) {
	n := NewNormalizer(nil)

	post, err := n.Post(json.RawMessage(`{"id": 1, "meta": {"series": "welcome", "reading_time": 3}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"series": "welcome", "reading_time": float64(3)}, post.CustomFields)

	// Sites without registered fields send an empty array for meta
	post, err = n.Post(json.RawMessage(`{"id": 2, "meta": []}`))
	require.NoError(t, err)
	assert.Nil(t, post.CustomFields)

	post, err = n.Post(json.RawMessage(`{"id": 3, "meta": {}}`))
	require.NoError(t, err)
	assert.Nil(t, post.CustomFields)

	post, err = n.Post(json.RawMessage(`{"id": 4}`))
	require.NoError(t, err)
	assert.Nil(t, post.CustomFields)
}

func TestNormalizePostTimestampFallbacks(t *testing.T) {
	n := NewNormalizer(nil)

	// RFC 3339 with a zone offset
	post, err := n.Post(json.RawMessage(`{"id": 1, "date_gmt": "2024-03-14T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), post.CreatedAt)

	// No GMT variant, zone-less local time
	post, err = n.Post(json.RawMessage(`{"id": 2, "date": "2024-03-14T10:00:00"}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), post.CreatedAt)

	// Garbage degrades to the zero time
	post, err = n.Post(json.RawMessage(`{"id": 3, "date_gmt": "yesterday"}`))
	require.NoError(t, err)
	assert.True(t, post.CreatedAt.IsZero())
}

func TestNormalizePostModifiedClamped(t *testing.T) {
	n := NewNormalizer(nil)

	post, err := n.Post(json.RawMessage(`{
		"id": 203,
		"date_gmt": "2024-03-14T10:00:00",
		"modified_gmt": "2020-01-01T00:00:00"
	}`))
	require.NoError(t, err)
	assert.Equal(t, post.CreatedAt, post.ModifiedAt, "modification time never precedes creation")
}
