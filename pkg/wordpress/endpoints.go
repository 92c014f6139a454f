package wordpress

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// RestBase is the path prefix of the WordPress REST API v2
	RestBase = "/wp-json/wp/v2"

	// PostsEndpoint is the collection endpoint for posts
	PostsEndpoint = "/posts"

	// UsersEndpoint is the collection endpoint for users
	UsersEndpoint = "/users"

	// CategoriesEndpoint is the collection endpoint for categories
	CategoriesEndpoint = "/categories"

	// TagsEndpoint is the collection endpoint for tags
	TagsEndpoint = "/tags"

	// MediaEndpoint is the collection endpoint for media attachments
	MediaEndpoint = "/media"

	// DefaultPageSize is the default number of records fetched per page
	DefaultPageSize = 20

	// MaxPageSize is the largest page size the REST API accepts
	MaxPageSize = 100

	// TotalHeader carries a collection's total record count
	TotalHeader = "X-WP-Total"

	// TotalPagesHeader carries a collection's total page count
	TotalPagesHeader = "X-WP-TotalPages"
)

// NormalizeSiteURL turns user input into a canonical site base URL. A bare
// name without a dot or port is treated as a wordpress.com subdomain, an
// explicit http scheme is preserved, everything else becomes https, and
// trailing slashes are dropped.
//
//	myblog                  -> https://myblog.wordpress.com
//	myblog.wordpress.com    -> https://myblog.wordpress.com
//	http://example.com/blog -> http://example.com/blog
func NormalizeSiteURL(site string) string {
	site = strings.TrimSpace(site)

	scheme := "https"
	if strings.HasPrefix(site, "http://") {
		scheme = "http"
	}
	site = strings.TrimPrefix(site, "https://")
	site = strings.TrimPrefix(site, "http://")
	site = strings.Trim(site, "/")

	if site == "" {
		return ""
	}

	if !strings.Contains(site, ".") && !strings.Contains(site, ":") {
		site = site + ".wordpress.com"
	}

	return scheme + "://" + site
}

// CollectionURL constructs a paged collection URL for a resource endpoint.
// Extra query parameters are merged in before the pagination parameters.
func CollectionURL(siteURL, endpoint string, page, perPage int, extra url.Values) string {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPageSize
	} else if perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	params := url.Values{}
	for key, values := range extra {
		for _, value := range values {
			params.Add(key, value)
		}
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	return fmt.Sprintf("%s%s%s?%s", siteURL, RestBase, endpoint, params.Encode())
}

// TotalsURL constructs a minimal probe URL for a resource. A single-record
// page is enough to read the X-WP-Total and X-WP-TotalPages headers.
func TotalsURL(siteURL, endpoint string, extra url.Values) string {
	return CollectionURL(siteURL, endpoint, 1, 1, extra)
}

// SiteHost extracts the bare host from a normalized site URL, used for
// display and for naming backup artifacts.
func SiteHost(siteURL string) string {
	trimmed := strings.TrimPrefix(siteURL, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}
