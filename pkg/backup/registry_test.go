package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpbackup/pkg/models"
)

func TestRegistryDedup(t *testing.T) {
	r := NewRegistry(nil)

	assert.True(t, r.AddAuthor(&models.Author{ID: 1, Name: "Alice"}))
	assert.False(t, r.AddAuthor(&models.Author{ID: 1, Name: "Imposter"}))

	authors := r.Authors()
	require.Len(t, authors, 1)
	assert.Equal(t, "Alice", authors[0].Name, "first record wins on duplicate id")

	assert.True(t, r.AddCategory(&models.Term{ID: 10, Name: "Go"}))
	assert.False(t, r.AddCategory(&models.Term{ID: 10, Name: "Go again"}))
	assert.True(t, r.AddTag(&models.Term{ID: 10, Name: "go"}), "tags and categories have separate id spaces")
	assert.True(t, r.AddMedia(&models.Media{ID: 7}))
	assert.False(t, r.AddMedia(&models.Media{ID: 7}))
}

func TestRegistryInsertionOrder(t *testing.T) {
	r := NewRegistry(nil)

	r.AddAuthor(&models.Author{ID: 5, Name: "Eve"})
	r.AddAuthor(&models.Author{ID: 2, Name: "Bob"})
	r.AddAuthor(&models.Author{ID: 9, Name: "Zoe"})

	authors := r.Authors()
	require.Len(t, authors, 3)
	assert.Equal(t, []int{5, 2, 9}, []int{authors[0].ID, authors[1].ID, authors[2].ID})
}

func TestRegistryResolveAuthor(t *testing.T) {
	r := NewRegistry(nil)
	r.AddAuthor(&models.Author{ID: 1, Name: "Alice"})

	resolved := r.ResolveAuthor(1)
	require.NotNil(t, resolved)
	assert.Equal(t, "Alice", resolved.Name)
	assert.Empty(t, r.MissingRefs())

	assert.Nil(t, r.ResolveAuthor(0), "zero id means no author")
	assert.Empty(t, r.MissingRefs())
}

func TestRegistryResolveAuthorPlaceholder(t *testing.T) {
	r := NewRegistry(nil)

	placeholder := r.ResolveAuthor(42)
	require.NotNil(t, placeholder)
	assert.Equal(t, 42, placeholder.ID)
	assert.Empty(t, placeholder.Name)

	// Resolving the same missing id again records only one reference
	r.ResolveAuthor(42)
	refs := r.MissingRefs()
	require.Len(t, refs, 1)
	assert.Equal(t, models.Reference{Kind: models.KindAuthor, ID: 42}, refs[0])

	// Placeholders never leak into the index listing
	assert.Empty(t, r.Authors())
}

func TestRegistryResolveTerms(t *testing.T) {
	r := NewRegistry(nil)
	r.AddCategory(&models.Term{ID: 10, Name: "Go", Slug: "go", Taxonomy: "category"})

	terms := r.ResolveCategories([]int{10, 11})
	require.Len(t, terms, 2)
	assert.Equal(t, "Go", terms[0].Name)
	assert.Equal(t, 11, terms[1].ID)
	assert.Empty(t, terms[1].Name)
	assert.Equal(t, "category", terms[1].Taxonomy)

	tags := r.ResolveTags([]int{20})
	require.Len(t, tags, 1)
	assert.Equal(t, "post_tag", tags[0].Taxonomy)

	refs := r.MissingRefs()
	require.Len(t, refs, 2)
	assert.Equal(t, models.KindCategory, refs[0].Kind)
	assert.Equal(t, models.KindTag, refs[1].Kind)

	assert.Nil(t, r.ResolveCategories(nil))
}

func TestRegistryResolveMedia(t *testing.T) {
	r := NewRegistry(nil)
	r.AddMedia(&models.Media{ID: 7, URL: "https://example.com/a.png"})

	resolved := r.ResolveMedia(7)
	require.NotNil(t, resolved)
	assert.Equal(t, "https://example.com/a.png", resolved.URL)

	assert.Nil(t, r.ResolveMedia(0), "zero id means no featured media")

	placeholder := r.ResolveMedia(8)
	require.NotNil(t, placeholder)
	assert.Equal(t, 8, placeholder.ID)
	assert.Empty(t, placeholder.URL)
}

func TestRegistryMissingRefsSorted(t *testing.T) {
	r := NewRegistry(nil)

	r.ResolveMedia(3)
	r.ResolveAuthor(9)
	r.ResolveAuthor(2)
	r.ResolveTags([]int{5})

	refs := r.MissingRefs()
	require.Len(t, refs, 4)
	assert.Equal(t, []models.Reference{
		{Kind: models.KindAuthor, ID: 2},
		{Kind: models.KindAuthor, ID: 9},
		{Kind: models.KindMedia, ID: 3},
		{Kind: models.KindTag, ID: 5},
	}, refs)
}
