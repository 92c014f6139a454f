package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"wpbackup/pkg/archive"
	"wpbackup/pkg/config"
	errs "wpbackup/pkg/errors"
	"wpbackup/pkg/logger"
	"wpbackup/pkg/models"
	"wpbackup/pkg/wordpress"
)

// postFields trims post payloads down to the fields the archive stores.
const postFields = "id,date,date_gmt,modified,modified_gmt,slug,status,link,title,content,excerpt,author,featured_media,comment_status,categories,tags,meta"

// Progress receives phase progress events during a run. StartPhase reports
// the expected record total when the API advertises one, zero otherwise.
type Progress interface {
	StartPhase(phase models.Phase, total int)
	Record(phase models.Phase)
	EndPhase(phase models.Phase)
}

type nopProgress struct{}

func (nopProgress) StartPhase(models.Phase, int) {}
func (nopProgress) Record(models.Phase)          {}
func (nopProgress) EndPhase(models.Phase)        {}

// Orchestrator drives a complete backup run: four sequential phases, one
// per content kind, each paginating its collection, normalizing records and
// writing archive files as it goes. Posts run last so every id reference
// can be resolved against the indexes fetched before them.
type Orchestrator struct {
	client   *wordpress.Client
	writer   *archive.Writer
	registry *Registry
	norm     *Normalizer
	cfg      *config.Config
	logger   logger.Logger
	progress Progress
}

// New creates an orchestrator for a single run.
func New(cfg *config.Config, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Orchestrator{
		client:   wordpress.NewClient(cfg, log),
		writer:   archive.NewWriter(cfg.Output.Directory, log),
		registry: NewRegistry(log),
		norm:     NewNormalizer(log),
		cfg:      cfg,
		logger:   log,
		progress: nopProgress{},
	}
}

// SetProgress attaches a progress reporter.
func (o *Orchestrator) SetProgress(p Progress) {
	if p != nil {
		o.progress = p
	}
}

// Writer returns the archive writer, mainly for inspecting output
// statistics after a run.
func (o *Orchestrator) Writer() *archive.Writer {
	return o.writer
}

// Run executes a full backup. The returned run record always describes
// what happened; the error is non-nil exactly when the run ended in the
// Failed state, in which case no summary file is written.
func (o *Orchestrator) Run(ctx context.Context) (*models.BackupRun, error) {
	run := &models.BackupRun{
		SiteURL:   o.client.SiteURL(),
		StartedAt: time.Now().UTC(),
		State:     models.RunStateRunning,
	}

	o.logger.InfoWithFields("starting backup run", map[string]interface{}{
		"site":   run.SiteURL,
		"output": o.writer.OutputDir(),
	})

	phases := []struct {
		phase models.Phase
		fn    func(context.Context, *models.BackupRun) error
	}{
		{models.PhaseAuthors, o.fetchAuthors},
		{models.PhaseTaxonomies, o.fetchTaxonomies},
		{models.PhaseMedia, o.fetchMedia},
		{models.PhasePosts, o.fetchPosts},
	}

	for _, ph := range phases {
		if err := ctx.Err(); err != nil {
			return o.fail(run, ph.phase, err)
		}
		if err := ph.fn(ctx, run); err != nil {
			return o.fail(run, ph.phase, err)
		}
	}

	stats := o.writer.Stats()
	run.Counts = models.Counts{
		Posts:      stats.Posts,
		Authors:    len(o.registry.Authors()),
		Categories: len(o.registry.Categories()),
		Tags:       len(o.registry.Tags()),
		Media:      len(o.registry.Media()),
	}
	run.UnresolvedRefs = o.registry.MissingRefs()
	run.FinishedAt = time.Now().UTC()
	run.State = models.RunStateCompleted

	if _, err := o.writer.WriteSummary(run); err != nil {
		return o.fail(run, "", fmt.Errorf("writing run summary: %w", err))
	}

	o.logger.InfoWithFields("backup run completed", map[string]interface{}{
		"site":       run.SiteURL,
		"posts":      run.Counts.Posts,
		"authors":    run.Counts.Authors,
		"categories": run.Counts.Categories,
		"tags":       run.Counts.Tags,
		"media":      run.Counts.Media,
		"failures":   len(run.Failures),
		"unresolved": len(run.UnresolvedRefs),
		"duration":   run.FinishedAt.Sub(run.StartedAt).String(),
	})

	return run, nil
}

// fail marks the run as failed. No summary file is written for a failed
// run, so a run aborted before its first successful write leaves the
// output directory untouched.
func (o *Orchestrator) fail(run *models.BackupRun, phase models.Phase, err error) (*models.BackupRun, error) {
	run.State = models.RunStateFailed
	run.FinishedAt = time.Now().UTC()

	fields := map[string]interface{}{
		"site":  run.SiteURL,
		"error": err.Error(),
	}
	if phase != "" {
		fields["phase"] = string(phase)
	}
	o.logger.ErrorWithFields("backup run failed", fields)

	return run, err
}

// walkPages drives a paginator to exhaustion, handing each page's records
// to handle. Authentication failures abort the run wherever they occur,
// and retry exhaustion aborts the index phases posts depend on; any other
// page failure is recorded against the run and the walk moves on to the
// next page.
func (o *Orchestrator) walkPages(ctx context.Context, run *models.BackupRun, phase models.Phase, kind models.Kind, p *wordpress.Paginator, handle func(records []json.RawMessage) error) error {
	for {
		records, err := p.NextPage(ctx)
		if errors.Is(err, wordpress.ErrNoMorePages) {
			return nil
		}
		if err != nil {
			var pageErr *wordpress.PageError
			if !errors.As(err, &pageErr) {
				// Cancellation and anything else unclassified aborts
				return err
			}
			if errs.IsAuthError(pageErr.Err) {
				return pageErr
			}
			if phase != models.PhasePosts && errs.IsExhausted(pageErr.Err) {
				// Posts cannot be resolved against a partial index
				return pageErr
			}

			run.Failures = append(run.Failures, models.Failure{
				Type:    models.FailureFetchExhausted,
				Kind:    kind,
				Page:    pageErr.Page,
				Message: pageErr.Err.Error(),
			})
			o.logger.WarnWithFields("skipping failed page", map[string]interface{}{
				"phase": string(phase),
				"kind":  string(kind),
				"page":  pageErr.Page,
				"error": pageErr.Err.Error(),
			})
			continue
		}

		if err := handle(records); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) fetchAuthors(ctx context.Context, run *models.BackupRun) error {
	total := o.collectionTotal(ctx, wordpress.UsersEndpoint, nil)
	o.progress.StartPhase(models.PhaseAuthors, total)
	defer o.progress.EndPhase(models.PhaseAuthors)

	o.logger.InfoWithFields("fetching authors", map[string]interface{}{
		"site":  o.client.SiteURL(),
		"total": total,
	})

	p := o.client.Paginate(wordpress.UsersEndpoint, nil)
	err := o.walkPages(ctx, run, models.PhaseAuthors, models.KindAuthor, p, func(records []json.RawMessage) error {
		for _, raw := range records {
			author, err := o.norm.Author(raw)
			if err != nil {
				o.logger.WarnWithFields("skipping malformed author record", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			o.registry.AddAuthor(author)
			o.progress.Record(models.PhaseAuthors)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := o.writer.WriteIndex(archive.AuthorsFile, o.registry.Authors()); err != nil {
		o.recordWriteFailure(run, models.KindAuthor, 0, archive.AuthorsFile, err)
	}

	o.logger.InfoWithFields("authors captured", map[string]interface{}{
		"count": len(o.registry.Authors()),
	})
	return nil
}

// TaxonomyIndex is the shape of the taxonomies.json index file.
type TaxonomyIndex struct {
	Categories []*models.Term `json:"categories"`
	Tags       []*models.Term `json:"tags"`
}

func (o *Orchestrator) fetchTaxonomies(ctx context.Context, run *models.BackupRun) error {
	total := o.collectionTotal(ctx, wordpress.CategoriesEndpoint, nil) +
		o.collectionTotal(ctx, wordpress.TagsEndpoint, nil)
	o.progress.StartPhase(models.PhaseTaxonomies, total)
	defer o.progress.EndPhase(models.PhaseTaxonomies)

	o.logger.InfoWithFields("fetching taxonomies", map[string]interface{}{
		"site":  o.client.SiteURL(),
		"total": total,
	})

	p := o.client.Paginate(wordpress.CategoriesEndpoint, nil)
	err := o.walkPages(ctx, run, models.PhaseTaxonomies, models.KindCategory, p, func(records []json.RawMessage) error {
		for _, raw := range records {
			term, err := o.norm.Term(raw, "category")
			if err != nil {
				o.logger.WarnWithFields("skipping malformed category record", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			o.registry.AddCategory(term)
			o.progress.Record(models.PhaseTaxonomies)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p = o.client.Paginate(wordpress.TagsEndpoint, nil)
	err = o.walkPages(ctx, run, models.PhaseTaxonomies, models.KindTag, p, func(records []json.RawMessage) error {
		for _, raw := range records {
			term, err := o.norm.Term(raw, "post_tag")
			if err != nil {
				o.logger.WarnWithFields("skipping malformed tag record", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			o.registry.AddTag(term)
			o.progress.Record(models.PhaseTaxonomies)
		}
		return nil
	})
	if err != nil {
		return err
	}

	index := TaxonomyIndex{
		Categories: o.registry.Categories(),
		Tags:       o.registry.Tags(),
	}
	if _, err := o.writer.WriteIndex(archive.TaxonomiesFile, index); err != nil {
		o.recordWriteFailure(run, models.KindCategory, 0, archive.TaxonomiesFile, err)
	}

	o.logger.InfoWithFields("taxonomies captured", map[string]interface{}{
		"categories": len(o.registry.Categories()),
		"tags":       len(o.registry.Tags()),
	})
	return nil
}

func (o *Orchestrator) fetchMedia(ctx context.Context, run *models.BackupRun) error {
	total := o.collectionTotal(ctx, wordpress.MediaEndpoint, nil)
	o.progress.StartPhase(models.PhaseMedia, total)
	defer o.progress.EndPhase(models.PhaseMedia)

	o.logger.InfoWithFields("fetching media", map[string]interface{}{
		"site":           o.client.SiteURL(),
		"total":          total,
		"download_files": o.cfg.Media.DownloadFiles,
	})

	p := o.client.Paginate(wordpress.MediaEndpoint, nil)
	err := o.walkPages(ctx, run, models.PhaseMedia, models.KindMedia, p, func(records []json.RawMessage) error {
		for _, raw := range records {
			media, err := o.norm.Media(raw)
			if err != nil {
				o.logger.WarnWithFields("skipping malformed media record", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			if !o.registry.AddMedia(media) {
				continue
			}
			if o.cfg.Media.DownloadFiles {
				if err := o.downloadMedia(ctx, run, media); err != nil {
					return err
				}
			}
			o.progress.Record(models.PhaseMedia)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := o.writer.WriteIndex(archive.MediaIndexFile, o.registry.Media()); err != nil {
		o.recordWriteFailure(run, models.KindMedia, 0, archive.MediaIndexFile, err)
	}

	o.logger.InfoWithFields("media captured", map[string]interface{}{
		"count":      len(o.registry.Media()),
		"downloaded": o.writer.Stats().Media,
	})
	return nil
}

// downloadMedia fetches one media binary and stores it under media/.
// Download and write failures are recorded against the run; only
// cancellation and credential rejection abort.
func (o *Orchestrator) downloadMedia(ctx context.Context, run *models.BackupRun, media *models.Media) error {
	if media.URL == "" {
		return nil
	}

	data, err := o.client.DownloadMedia(ctx, media.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errs.IsAuthError(err) {
			return err
		}

		run.Failures = append(run.Failures, models.Failure{
			Type:    models.FailureMediaDownload,
			Kind:    models.KindMedia,
			ID:      media.ID,
			Message: err.Error(),
		})
		o.logger.WarnWithFields("media download failed", map[string]interface{}{
			"id":    media.ID,
			"url":   media.URL,
			"error": err.Error(),
		})
		return nil
	}

	rel, err := o.writer.WriteMediaFile(media.ID, mediaFileName(media.URL), data)
	if err != nil {
		o.recordWriteFailure(run, models.KindMedia, media.ID, mediaFileName(media.URL), err)
		return nil
	}

	media.LocalPath = rel
	media.FileSize = int64(len(data))
	return nil
}

func (o *Orchestrator) fetchPosts(ctx context.Context, run *models.BackupRun) error {
	query := o.postQuery()
	total := o.collectionTotal(ctx, wordpress.PostsEndpoint, query)
	o.progress.StartPhase(models.PhasePosts, total)
	defer o.progress.EndPhase(models.PhasePosts)

	o.logger.InfoWithFields("fetching posts", map[string]interface{}{
		"site":     o.client.SiteURL(),
		"total":    total,
		"statuses": strings.Join(o.cfg.Site.PostStatuses, ","),
	})

	p := o.client.Paginate(wordpress.PostsEndpoint, query)
	err := o.walkPages(ctx, run, models.PhasePosts, models.KindPost, p, func(records []json.RawMessage) error {
		for _, raw := range records {
			post, err := o.norm.Post(raw)
			if err != nil {
				o.logger.WarnWithFields("skipping malformed post record", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			o.archivePost(run, post)
			o.progress.Record(models.PhasePosts)
		}
		return nil
	})
	if err != nil {
		return err
	}

	o.logger.InfoWithFields("posts captured", map[string]interface{}{
		"count": o.writer.Stats().Posts,
	})
	return nil
}

// archivePost resolves a post's references and writes its file. A single
// unwritable post is recorded and never aborts the run.
func (o *Orchestrator) archivePost(run *models.BackupRun, post *models.Post) {
	fm := o.frontmatter(post)
	if _, err := o.writer.WritePost(post, fm); err != nil {
		o.recordWriteFailure(run, models.KindPost, post.ID, post.Slug, err)
	}
}

// frontmatter assembles the header for a post, resolving id references
// through the registry. A placeholder author keeps a nil name so it is
// written as an explicit null.
func (o *Orchestrator) frontmatter(post *models.Post) *archive.Frontmatter {
	fm := &archive.Frontmatter{
		ID:           post.ID,
		Title:        post.Title,
		Date:         post.CreatedAt,
		Modified:     post.ModifiedAt,
		Slug:         post.Slug,
		Status:       post.Status,
		Link:         post.Link,
		CommentsOpen: post.CommentsOpen,
		CustomFields: post.CustomFields,
		Excerpt:      post.Excerpt,
	}

	if author := o.registry.ResolveAuthor(post.AuthorID); author != nil {
		fa := &archive.FrontmatterAuthor{ID: author.ID}
		if author.Name != "" {
			name := author.Name
			fa.Name = &name
		}
		fm.Author = fa
	}

	for _, term := range o.registry.ResolveCategories(post.CategoryIDs) {
		fm.Categories = append(fm.Categories, archive.FrontmatterTerm{
			ID:   term.ID,
			Name: term.Name,
			Slug: term.Slug,
		})
	}
	for _, term := range o.registry.ResolveTags(post.TagIDs) {
		fm.Tags = append(fm.Tags, archive.FrontmatterTerm{
			ID:   term.ID,
			Name: term.Name,
			Slug: term.Slug,
		})
	}

	if media := o.registry.ResolveMedia(post.FeaturedMediaID); media != nil {
		fm.FeaturedMedia = &archive.FrontmatterMedia{
			ID:        media.ID,
			URL:       media.URL,
			MimeType:  media.MimeType,
			LocalPath: media.LocalPath,
		}
	}

	return fm
}

// postQuery returns the query values applied to every posts page.
func (o *Orchestrator) postQuery() url.Values {
	q := url.Values{}
	q.Set("status", strings.Join(o.cfg.Site.PostStatuses, ","))
	q.Set("_fields", postFields)
	return q
}

// collectionTotal probes the X-WP-Total header so progress reporting can
// show a total. The probe is best effort: a failure only costs the total,
// since the first real page request will surface the same error with
// proper classification.
func (o *Orchestrator) collectionTotal(ctx context.Context, endpoint string, extra url.Values) int {
	total, err := o.client.CollectionTotal(ctx, endpoint, extra)
	if err != nil {
		o.logger.DebugWithFields("collection total unavailable", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return 0
	}
	return total
}

func (o *Orchestrator) recordWriteFailure(run *models.BackupRun, kind models.Kind, id int, name string, err error) {
	run.Failures = append(run.Failures, models.Failure{
		Type:    models.FailureWrite,
		Kind:    kind,
		ID:      id,
		Message: fmt.Sprintf("%s: %v", name, err),
	})
	o.logger.ErrorWithFields("write failed", map[string]interface{}{
		"kind":  string(kind),
		"id":    id,
		"name":  name,
		"error": err.Error(),
	})
}

// mediaFileName derives an on-disk file name from a media source URL.
func mediaFileName(mediaURL string) string {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return ""
	}
	return path.Base(parsed.Path)
}
