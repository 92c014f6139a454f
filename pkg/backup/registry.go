package backup

import (
	"sort"

	"wpbackup/pkg/logger"
	"wpbackup/pkg/models"
)

// Registry is the in-memory entity store for a single backup run. Index
// phases fill it, the posts phase resolves id references through it, and a
// reference that nothing ever supplied degrades to a placeholder entity so
// the post can still be archived. A registry is built fresh for every run
// and never shared between runs.
type Registry struct {
	authors    map[int]*models.Author
	categories map[int]*models.Term
	tags       map[int]*models.Term
	media      map[int]*models.Media

	// Insertion order of fetched entities, placeholders excluded, so index
	// files come out in API order.
	authorOrder   []int
	categoryOrder []int
	tagOrder      []int
	mediaOrder    []int

	missing map[models.Reference]bool
	logger  logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Registry{
		authors:    make(map[int]*models.Author),
		categories: make(map[int]*models.Term),
		tags:       make(map[int]*models.Term),
		media:      make(map[int]*models.Media),
		missing:    make(map[models.Reference]bool),
		logger:     log,
	}
}

// AddAuthor records an author fetched from the API and reports whether the
// id was new. A duplicate id keeps the first record.
func (r *Registry) AddAuthor(a *models.Author) bool {
	if _, ok := r.authors[a.ID]; ok {
		return false
	}
	r.authors[a.ID] = a
	r.authorOrder = append(r.authorOrder, a.ID)
	return true
}

// AddCategory records a category term and reports whether the id was new.
func (r *Registry) AddCategory(t *models.Term) bool {
	if _, ok := r.categories[t.ID]; ok {
		return false
	}
	r.categories[t.ID] = t
	r.categoryOrder = append(r.categoryOrder, t.ID)
	return true
}

// AddTag records a tag term and reports whether the id was new.
func (r *Registry) AddTag(t *models.Term) bool {
	if _, ok := r.tags[t.ID]; ok {
		return false
	}
	r.tags[t.ID] = t
	r.tagOrder = append(r.tagOrder, t.ID)
	return true
}

// AddMedia records a media attachment and reports whether the id was new.
func (r *Registry) AddMedia(m *models.Media) bool {
	if _, ok := r.media[m.ID]; ok {
		return false
	}
	r.media[m.ID] = m
	r.mediaOrder = append(r.mediaOrder, m.ID)
	return true
}

// Authors returns the fetched authors in insertion order.
func (r *Registry) Authors() []*models.Author {
	out := make([]*models.Author, 0, len(r.authorOrder))
	for _, id := range r.authorOrder {
		out = append(out, r.authors[id])
	}
	return out
}

// Categories returns the fetched categories in insertion order.
func (r *Registry) Categories() []*models.Term {
	return termsInOrder(r.categories, r.categoryOrder)
}

// Tags returns the fetched tags in insertion order.
func (r *Registry) Tags() []*models.Term {
	return termsInOrder(r.tags, r.tagOrder)
}

// Media returns the fetched media attachments in insertion order.
func (r *Registry) Media() []*models.Media {
	out := make([]*models.Media, 0, len(r.mediaOrder))
	for _, id := range r.mediaOrder {
		out = append(out, r.media[id])
	}
	return out
}

func termsInOrder(terms map[int]*models.Term, order []int) []*models.Term {
	out := make([]*models.Term, 0, len(order))
	for _, id := range order {
		out = append(out, terms[id])
	}
	return out
}

// ResolveAuthor returns the author with the given id. An id the authors
// feed never produced yields a placeholder carrying only the id; the miss
// is logged and recorded once. A zero id means the post has no author and
// resolves to nil.
func (r *Registry) ResolveAuthor(id int) *models.Author {
	if id == 0 {
		return nil
	}
	if a, ok := r.authors[id]; ok {
		return a
	}

	r.recordMissing(models.KindAuthor, id)
	a := &models.Author{ID: id}
	r.authors[id] = a
	return a
}

// ResolveCategories resolves category ids in order, substituting
// placeholders for ids the taxonomy feed never produced.
func (r *Registry) ResolveCategories(ids []int) []models.Term {
	return r.resolveTerms(r.categories, models.KindCategory, "category", ids)
}

// ResolveTags resolves tag ids in order, substituting placeholders for ids
// the taxonomy feed never produced.
func (r *Registry) ResolveTags(ids []int) []models.Term {
	return r.resolveTerms(r.tags, models.KindTag, "post_tag", ids)
}

func (r *Registry) resolveTerms(terms map[int]*models.Term, kind models.Kind, taxonomy string, ids []int) []models.Term {
	if len(ids) == 0 {
		return nil
	}

	out := make([]models.Term, 0, len(ids))
	for _, id := range ids {
		if t, ok := terms[id]; ok {
			out = append(out, *t)
			continue
		}

		r.recordMissing(kind, id)
		placeholder := &models.Term{ID: id, Taxonomy: taxonomy}
		terms[id] = placeholder
		out = append(out, *placeholder)
	}
	return out
}

// ResolveMedia returns the media attachment with the given id, or a
// placeholder when the media feed never produced it. A zero id means the
// post has no featured media and resolves to nil.
func (r *Registry) ResolveMedia(id int) *models.Media {
	if id == 0 {
		return nil
	}
	if m, ok := r.media[id]; ok {
		return m
	}

	r.recordMissing(models.KindMedia, id)
	m := &models.Media{ID: id}
	r.media[id] = m
	return m
}

func (r *Registry) recordMissing(kind models.Kind, id int) {
	ref := models.Reference{Kind: kind, ID: id}
	if r.missing[ref] {
		return
	}
	r.missing[ref] = true

	r.logger.WarnWithFields("unresolved reference, using placeholder", map[string]interface{}{
		"kind": string(kind),
		"id":   id,
	})
}

// MissingRefs returns every reference that had to be resolved to a
// placeholder, sorted by kind then id.
func (r *Registry) MissingRefs() []models.Reference {
	if len(r.missing) == 0 {
		return nil
	}

	refs := make([]models.Reference, 0, len(r.missing))
	for ref := range r.missing {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return refs[i].Kind < refs[j].Kind
		}
		return refs[i].ID < refs[j].ID
	})
	return refs
}
