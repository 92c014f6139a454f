package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wpbackup/pkg/config"
	errs "wpbackup/pkg/errors"
	"wpbackup/pkg/logger"
	"wpbackup/pkg/ratelimit"
	"wpbackup/pkg/retry"
)

// Client talks to a WordPress site's REST API. All network traffic goes
// through it: every attempt claims a slot from the rate limiter first, and
// transient failures are retried with exponential backoff until the attempt
// budget runs out.
type Client struct {
	httpClient  *http.Client
	mediaClient *http.Client
	siteURL     string
	headers     map[string]string
	username    string
	appPassword string
	pageSize    int
	limiter     ratelimit.Limiter
	retryCfg    *retry.Config
	logger      logger.Logger
}

// NewClient creates a WordPress API client from the application config.
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	retryCfg := &retry.Config{
		MaxAttempts:  cfg.RateLimit.MaxRetries,
		InitialDelay: cfg.RateLimit.RetryDelay,
		MaxDelay:     cfg.RateLimit.MaxRetryDelay,
		Multiplier:   cfg.RateLimit.BackoffMultiplier,
		JitterFactor: 0.1,
		RetryIf:      retry.DefaultRetryIf,
		Logger:       log,
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Site.RequestTimeout},
		mediaClient: &http.Client{Timeout: cfg.Media.DownloadTimeout},
		siteURL:     NormalizeSiteURL(cfg.Site.URL),
		headers: map[string]string{
			"User-Agent": cfg.Site.UserAgent,
			"Accept":     "application/json",
		},
		username:    cfg.Auth.Username,
		appPassword: cfg.Auth.AppPassword,
		pageSize:    cfg.Site.PageSize,
		limiter:     ratelimit.NewInterval(cfg.RateLimit.RequestDelay),
		retryCfg:    retryCfg,
		logger:      log,
	}
}

// SiteURL returns the normalized base URL of the target site.
func (c *Client) SiteURL() string {
	return c.siteURL
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs a single HTTP request with the configured headers and
// credentials.
func (c *Client) doRequest(httpClient *http.Client, req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.appPassword)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		// A cancelled context is not a network failure
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// attempt performs one rate-limited request and validates the response
// status. The body is open on success and closed on error.
func (c *Client) attempt(ctx context.Context, httpClient *http.Client, requestURL string) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	resp, err := c.doRequest(httpClient, req)
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

// checkResponseStatus maps error responses onto classified errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	errType := errs.Classify(resp.StatusCode)
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}

	switch errType {
	case errs.ErrorTypeAuth:
		c.logger.WarnWithFields("authentication rejected", fields)
		return &errs.Error{Type: errType, Message: "authentication rejected", Code: resp.StatusCode}
	case errs.ErrorTypeNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return &errs.Error{Type: errType, Message: "resource not found", Code: resp.StatusCode}
	case errs.ErrorTypeRateLimit:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return &errs.Error{Type: errType, Message: "rate limit exceeded", Code: resp.StatusCode}
	case errs.ErrorTypeBadRequest:
		// Expected past the last page of a collection, so log quietly
		c.logger.DebugWithFields("bad request response", fields)
		return &errs.Error{Type: errType, Message: "bad request", Code: resp.StatusCode}
	case errs.ErrorTypeServerError:
		c.logger.ErrorWithFields("server error", fields)
		return &errs.Error{Type: errType, Message: "server error", Code: resp.StatusCode}
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return &errs.Error{
			Type:    errType,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

// Get performs a rate-limited GET with retries and returns the body bytes
// together with the response headers.
func (c *Client) Get(ctx context.Context, requestURL string) ([]byte, http.Header, error) {
	type result struct {
		body   []byte
		header http.Header
	}

	res, err := retry.DoWithResult(ctx, func() (result, error) {
		resp, err := c.attempt(ctx, c.httpClient, requestURL)
		if err != nil {
			return result{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return result{}, &errs.Error{
				Type:    errs.ErrorTypeNetwork,
				Message: fmt.Sprintf("failed to read response body: %v", err),
				Code:    resp.StatusCode,
			}
		}

		return result{body: body, header: resp.Header}, nil
	}, c.retryCfg)
	if err != nil {
		return nil, nil, err
	}

	return res.body, res.header, nil
}

// GetJSON performs a GET request and decodes the JSON response into target.
func (c *Client) GetJSON(ctx context.Context, requestURL string, target interface{}) error {
	body, _, err := c.Get(ctx, requestURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          requestURL,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    0,
		}
	}

	return nil
}

// CollectionTotal probes a collection endpoint for the total record count
// advertised in the X-WP-Total header.
func (c *Client) CollectionTotal(ctx context.Context, endpoint string, extra url.Values) (int, error) {
	_, header, err := c.Get(ctx, TotalsURL(c.siteURL, endpoint, extra))
	if err != nil {
		return 0, err
	}

	total, err := strconv.Atoi(header.Get(TotalHeader))
	if err != nil {
		return 0, nil
	}

	return total, nil
}

// DownloadMedia fetches a media binary. Downloads share the client's rate
// limiting and retry behavior but use the longer media timeout.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	c.logger.DebugWithFields("downloading media file", map[string]interface{}{
		"url": mediaURL,
	})

	data, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		resp, err := c.attempt(ctx, c.mediaClient, mediaURL)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeNetwork,
				Message: fmt.Sprintf("failed to read media data: %v", err),
				Code:    resp.StatusCode,
			}
		}

		return body, nil
	}, c.retryCfg)
	if err != nil {
		c.logger.ErrorWithFields("failed to download media file", map[string]interface{}{
			"url":   mediaURL,
			"error": err.Error(),
		})
		return nil, err
	}

	c.logger.DebugWithFields("media file downloaded", map[string]interface{}{
		"url":  mediaURL,
		"size": len(data),
	})

	return data, nil
}
