package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrontmatter() *Frontmatter {
	name := "Pat Doe"
	return &Frontmatter{
		ID:       101,
		Title:    "Hello, World",
		Date:     time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC),
		Modified: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Slug:     "hello-world",
		Status:   "publish",
		Link:     "https://myblog.wordpress.com/2024/03/14/hello-world/",
		Author:   &FrontmatterAuthor{ID: 4, Name: &name},
		Categories: []FrontmatterTerm{
			{ID: 2, Name: "Engineering", Slug: "engineering"},
		},
		Tags: []FrontmatterTerm{
			{ID: 9, Name: "go", Slug: "go"},
			{ID: 11, Name: "backups", Slug: "backups"},
		},
		FeaturedMedia: &FrontmatterMedia{
			ID:        55,
			URL:       "https://myblog.files.wordpress.com/2024/03/cover.png",
			MimeType:  "image/png",
			LocalPath: "media/cover.png",
		},
		CommentsOpen: true,
		CustomFields: map[string]interface{}{
			"reading_time": 3,
			"series":       "introductions",
		},
		Excerpt: "A post about greetings.",
	}
}

func TestFrontmatterRoundTrip(t *testing.T) {
	fm := sampleFrontmatter()
	body := "<p>Hello world!</p>\n\n<p>Second paragraph.</p>"

	data, err := Marshal(fm, body)
	require.NoError(t, err)

	parsed, parsedBody, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, body, parsedBody)
	assert.Equal(t, fm.ID, parsed.ID)
	assert.Equal(t, fm.Title, parsed.Title)
	assert.True(t, parsed.Date.Equal(fm.Date))
	assert.True(t, parsed.Modified.Equal(fm.Modified))
	assert.Equal(t, fm.Slug, parsed.Slug)
	assert.Equal(t, fm.Status, parsed.Status)
	assert.Equal(t, fm.Link, parsed.Link)
	require.NotNil(t, parsed.Author)
	assert.Equal(t, 4, parsed.Author.ID)
	require.NotNil(t, parsed.Author.Name)
	assert.Equal(t, "Pat Doe", *parsed.Author.Name)
	assert.Equal(t, fm.Categories, parsed.Categories)
	assert.Equal(t, fm.Tags, parsed.Tags)
	assert.Equal(t, fm.FeaturedMedia, parsed.FeaturedMedia)
	assert.True(t, parsed.CommentsOpen)
	assert.Equal(t, fm.CustomFields, parsed.CustomFields)
	assert.Equal(t, fm.Excerpt, parsed.Excerpt)
}

func TestMarshalLayout(t *testing.T) {
	data, err := Marshal(sampleFrontmatter(), "body text")
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "---\n"))
	assert.Contains(t, text, "\n---\n\n")
	assert.True(t, strings.HasSuffix(text, "body text"))
}

func TestPlaceholderAuthorRendersNullName(t *testing.T) {
	fm := &Frontmatter{
		ID:     7,
		Title:  "Orphaned",
		Date:   time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Slug:   "orphaned",
		Status: "publish",
		Author: &FrontmatterAuthor{ID: 42, Name: nil},
	}

	data, err := Marshal(fm, "body")
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: 42")
	assert.Contains(t, string(data), "name: null")

	parsed, _, err := Parse(data)
	require.NoError(t, err)
	require.NotNil(t, parsed.Author)
	assert.Equal(t, 42, parsed.Author.ID)
	assert.Nil(t, parsed.Author.Name)
}

func TestClosedCommentsSurviveRoundTrip(t *testing.T) {
	fm := sampleFrontmatter()
	fm.CommentsOpen = false

	data, err := Marshal(fm, "body")
	require.NoError(t, err)
	assert.Contains(t, string(data), "comments_open: false")
}

func TestBodyWithHorizontalRule(t *testing.T) {
	body := "before\n\n---\n\nafter"

	data, err := Marshal(sampleFrontmatter(), body)
	require.NoError(t, err)

	_, parsedBody, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, body, parsedBody)
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no header", "just a body"},
		{"unterminated header", "---\nid: 1\ntitle: x\n"},
		{"invalid yaml", "---\nid: [unclosed\n---\n\nbody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}
