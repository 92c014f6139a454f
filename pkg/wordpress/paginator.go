package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	errs "wpbackup/pkg/errors"
)

// ErrNoMorePages signals that a paginator has walked past the final page of
// its collection.
var ErrNoMorePages = errors.New("no more pages")

// PageError reports a page that could not be fetched or parsed. The
// paginator has already advanced past it, so the next NextPage call tries
// the following page.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d failed: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// Paginator walks a collection endpoint one page at a time. Pages are
// fetched lazily on each NextPage call, never concurrently, and the
// paginator never revisits a page.
type Paginator struct {
	client     *Client
	endpoint   string
	query      url.Values
	perPage    int
	page       int
	totalPages int
	done       bool
}

// Paginate creates a paginator over a collection endpoint using the
// client's configured page size. The query values are applied to every page
// request.
func (c *Client) Paginate(endpoint string, query url.Values) *Paginator {
	return &Paginator{
		client:     c,
		endpoint:   endpoint,
		query:      query,
		perPage:    c.pageSize,
		page:       1,
		totalPages: -1,
	}
}

// Page returns the number of the next page to fetch, starting at 1.
func (p *Paginator) Page() int {
	return p.page
}

// NextPage returns the records of the next page. It returns ErrNoMorePages
// once the collection is exhausted and *PageError when a single page failed
// after retries; in the latter case the paginator has moved on, so callers
// can record the failure and keep going.
func (p *Paginator) NextPage(ctx context.Context) ([]json.RawMessage, error) {
	if p.done {
		return nil, ErrNoMorePages
	}

	page := p.page
	requestURL := CollectionURL(p.client.siteURL, p.endpoint, page, p.perPage, p.query)

	body, header, err := p.client.Get(ctx, requestURL)
	if err != nil {
		// Requesting past the last page yields HTTP 400
		var apiErr *errs.Error
		if errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeBadRequest {
			p.done = true
			return nil, ErrNoMorePages
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		p.page++
		return nil, &PageError{Page: page, Err: err}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		p.page++
		return nil, &PageError{Page: page, Err: &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse page: %v", err),
			Code:    0,
		}}
	}

	if len(records) == 0 {
		p.done = true
		return nil, ErrNoMorePages
	}

	if p.totalPages < 0 {
		if n, convErr := strconv.Atoi(header.Get(TotalPagesHeader)); convErr == nil {
			p.totalPages = n
		}
	}

	p.page++
	if len(records) < p.perPage {
		// A short page is the final page
		p.done = true
	}
	if p.totalPages >= 0 && p.page > p.totalPages {
		p.done = true
	}

	return records, nil
}
