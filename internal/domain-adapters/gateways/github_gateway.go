package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces/gateways"
)

const (
	// Max retries for transient errors
	maxRetries = 3
	// Initial backoff duration
	initialBackoff = 1 * time.Second
	// Max backoff duration
	maxBackoff = 32 * time.Second

	defaultBaseURL  = "https://api.github.com"
	releasesPerPage = 100
	// The third-party repository has a few thousand releases
	maxReleasePages = 100
	// Release listings are large; cap what a single page may decode
	maxResponseBytes = 32 << 20
)

// ErrRateLimited is returned when the GitHub API quota is exhausted
var ErrRateLimited = errors.New("GitHub API rate limit exceeded")

// HTTPGitHubGateway implements ReleaseProvider using standard HTTP client
type HTTPGitHubGateway struct {
	client    *http.Client
	baseURL   string
	token     string
	userAgent string
	logger    interfaces.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// GatewayOption configures an HTTPGitHubGateway
type GatewayOption func(*HTTPGitHubGateway)

// WithBaseURL overrides the API base URL, used by tests
func WithBaseURL(base string) GatewayOption {
	return func(g *HTTPGitHubGateway) {
		g.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *HTTPGitHubGateway) {
		g.client = c
	}
}

// WithLogger sets the logger used for rate limit warnings
func WithLogger(logger interfaces.Logger) GatewayOption {
	return func(g *HTTPGitHubGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// withSleep replaces the backoff wait
func withSleep(sleep func(ctx context.Context, d time.Duration) error) GatewayOption {
	return func(g *HTTPGitHubGateway) {
		g.sleep = sleep
	}
}

// NewHTTPGitHubGateway creates a new GitHub gateway with HTTP client.
// An empty token makes anonymous requests.
func NewHTTPGitHubGateway(token string, opts ...GatewayOption) *HTTPGitHubGateway {
	g := &HTTPGitHubGateway{
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
		baseURL:   defaultBaseURL,
		token:     token,
		userAgent: "yb-thirdparty-tool/1.0",
		logger:    &interfaces.NoOpLogger{},
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// checkRateLimit checks GitHub API rate limit headers and returns error if exhausted
func (g *HTTPGitHubGateway) checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	remainingInt, err := strconv.Atoi(remaining)
	if err != nil {
		return nil
	}

	if remainingInt == 0 {
		resetTime := resp.Header.Get("X-RateLimit-Reset")
		if resetTime != "" {
			if resetUnix, err := strconv.ParseInt(resetTime, 10, 64); err == nil {
				resetAt := time.Unix(resetUnix, 0)
				return fmt.Errorf("%w (0 remaining), resets at %s", ErrRateLimited, resetAt.Format(time.RFC3339))
			}
		}
		return fmt.Errorf("%w (0 remaining)", ErrRateLimited)
	}

	if remainingInt <= 10 {
		g.logger.Warn("GitHub API rate limit low", interfaces.F("remaining", remainingInt))
	}

	return nil
}

// isRetryableError checks if an HTTP status code is retryable
func isRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusForbidden, // 403 - rate limit
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff returns the backoff duration for a retry attempt
func calculateBackoff(attempt int) time.Duration {
	backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// doWithRetry executes an HTTP request with exponential backoff retry
func (g *HTTPGitHubGateway) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if sleepErr := g.sleep(req.Context(), calculateBackoff(attempt-1)); sleepErr != nil {
				return nil, sleepErr
			}
		}

		resp, err = g.client.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			// Network errors are retryable
			if attempt < maxRetries {
				continue
			}
			return nil, err
		}

		if rateLimitErr := g.checkRateLimit(resp); rateLimitErr != nil {
			//nolint:errcheck,gosec // G104: Best effort close on rate limit error
			resp.Body.Close()
			return nil, rateLimitErr
		}

		if !isRetryableError(resp.StatusCode) || attempt == maxRetries {
			return resp, nil
		}

		//nolint:errcheck,gosec // G104: Best effort close before retry
		resp.Body.Close()
	}

	return resp, err
}

// get issues an authenticated GET and returns the response when the status is 200
func (g *HTTPGitHubGateway) get(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.doWithRetry(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		//nolint:errcheck // Defer close on HTTP response body
		defer resp.Body.Close()
		bodyBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return nil, fmt.Errorf("status %d (failed to read response)", resp.StatusCode)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	return resp, nil
}

// githubRelease represents the GitHub API release format
type githubRelease struct {
	TagName         string        `json:"tag_name"`
	TargetCommitish string        `json:"target_commitish"`
	CreatedAt       time.Time     `json:"created_at"`
	Assets          []githubAsset `json:"assets"`
}

// githubAsset represents a GitHub release asset
type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

func (r githubRelease) toGateway() *gateways.GitHubRelease {
	assets := make([]gateways.GitHubAsset, len(r.Assets))
	for i, a := range r.Assets {
		assets[i] = gateways.GitHubAsset(a)
	}
	return &gateways.GitHubRelease{
		TagName:         r.TagName,
		TargetCommitish: r.TargetCommitish,
		CreatedAt:       r.CreatedAt,
		Assets:          assets,
	}
}

// ListReleases lists all releases in a repository, following Link pagination
func (g *HTTPGitHubGateway) ListReleases(ctx context.Context, owner, repo string) ([]*gateways.GitHubRelease, error) {
	pageURL := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d",
		g.baseURL, url.PathEscape(owner), url.PathEscape(repo), releasesPerPage)

	var releases []*gateways.GitHubRelease
	for page := 0; pageURL != ""; page++ {
		if page == maxReleasePages {
			return nil, fmt.Errorf("failed to list releases: more than %d pages", maxReleasePages)
		}

		resp, err := g.get(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to list releases: %w", err)
		}

		var apiReleases []githubRelease
		err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&apiReleases)
		//nolint:errcheck,gosec // G104: Body fully consumed
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode releases: %w", err)
		}

		for _, r := range apiReleases {
			releases = append(releases, r.toGateway())
		}
		g.logger.Debug("Fetched releases page",
			interfaces.F("page", page+1),
			interfaces.F("count", len(apiReleases)))

		pageURL = nextPageURL(resp.Header.Get("Link"))
	}

	return releases, nil
}

// ResolveCommitSHA returns the commit SHA a tag, branch or abbreviated SHA points to
func (g *HTTPGitHubGateway) ResolveCommitSHA(ctx context.Context, owner, repo, ref string) (string, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/commits/%s",
		g.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(ref))

	resp, err := g.get(ctx, reqURL)
	if err != nil {
		return "", fmt.Errorf("failed to resolve commit for %s: %w", ref, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	var commit struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&commit); err != nil {
		return "", fmt.Errorf("failed to decode commit: %w", err)
	}
	if commit.SHA == "" {
		return "", fmt.Errorf("failed to resolve commit for %s: empty SHA in response", ref)
	}
	return commit.SHA, nil
}

// nextPageURL extracts the rel="next" URL from a GitHub Link header, or "" on the last page
func nextPageURL(header string) string {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}
