// Package wordpress provides a client for the WordPress REST API v2.
//
// This package includes:
//   - A rate-limited HTTP client with basic auth, retries and error handling
//   - Wire models for the raw API record shapes
//   - Helper functions for constructing collection endpoints
//   - A lazy paginator that tolerates individual page failures
//
// Example usage:
//
//	client := wordpress.NewClient(cfg, log)
//
//	pages := client.Paginate(wordpress.PostsEndpoint, url.Values{
//	    "status": []string{"publish"},
//	})
//	for {
//	    records, err := pages.NextPage(ctx)
//	    if errors.Is(err, wordpress.ErrNoMorePages) {
//	        break
//	    }
//	    var pageErr *wordpress.PageError
//	    if errors.As(err, &pageErr) {
//	        // Record the failed page and keep going
//	        continue
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // Handle records
//	}
package wordpress
