// Package github implements the GitHub REST client used to list stars, fetch
// READMEs, and resolve the authenticated user.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/domain/star"
	"github.com/starscout/starscout/internal/retry"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// starsPerPage is the page size used when walking star listings, GitHub's
// maximum.
const starsPerPage = 100

const acceptHeader = "application/vnd.github+json"

// Client is a thin wrapper around the GitHub REST API. Tokens are passed
// per call; one client serves every user of the process.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	policy         retry.Policy
	readmeMaxChars int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint, used in tests
// and for GitHub Enterprise.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithReadmeMaxChars caps the README excerpt length returned by Readme.
// Non-positive disables truncation.
func WithReadmeMaxChars(n int) Option {
	return func(c *Client) {
		c.readmeMaxChars = n
	}
}

// NewClient creates a Client against the public GitHub API.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		policy:     retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthenticatedUser resolves the user the token belongs to.
func (c *Client) AuthenticatedUser(ctx context.Context, token string) (service.User, error) {
	var payload struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	}
	_, err := c.getJSON(ctx, token, "/user", nil, &payload)
	if err != nil {
		return service.User{}, fmt.Errorf("authenticated user: %w", err)
	}
	return service.NewUser(payload.ID, payload.Login), nil
}

// StarCount returns the number of repositories the token's user has starred
// without listing them, using a one-item page and the Link header's
// rel="last" page number.
func (c *Client) StarCount(ctx context.Context, token string) (int, error) {
	var page []json.RawMessage
	header, err := c.getJSON(ctx, token, "/user/starred", url.Values{"per_page": {"1"}}, &page)
	if err != nil {
		return 0, fmt.Errorf("star count: %w", err)
	}

	if last, ok := lastPage(header.Get("Link")); ok {
		return last, nil
	}
	// No Link header: zero or one star in total.
	return len(page), nil
}

// ListStarred returns a stream over the token's starred repositories. The
// total is resolved eagerly so callers can size their accounting before the
// walk; pages are fetched on demand.
func (c *Client) ListStarred(ctx context.Context, token string) (service.StarStream, error) {
	total, err := c.StarCount(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list starred: %w", err)
	}
	return &starStream{client: c, token: token, total: total, page: 1}, nil
}

// Readme returns the repository's README content, base64-decoded and
// truncated to the configured excerpt length. A missing README is reported
// as service.ErrReadmeNotFound.
func (c *Client) Readme(ctx context.Context, token, owner, name string) (string, error) {
	var payload struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	path := fmt.Sprintf("/repos/%s/%s/readme", owner, name)
	_, err := c.getJSON(ctx, token, path, nil, &payload)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusNotFound {
			return "", fmt.Errorf("readme %s/%s: %w", owner, name, service.ErrReadmeNotFound)
		}
		return "", fmt.Errorf("readme %s/%s: %w", owner, name, err)
	}

	// GitHub returns base64 with embedded newlines.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("readme %s/%s: decode: %w", owner, name, err)
	}

	return star.TruncateReadme(string(raw), c.readmeMaxChars), nil
}

// starStream walks star listing pages lazily.
type starStream struct {
	client    *Client
	token     string
	total     int
	page      int
	exhausted bool
}

// Total returns the number of starred repositories.
func (s *starStream) Total() int {
	return s.total
}

// NextPage fetches the next page of candidates. The second return is false
// once the listing is exhausted.
func (s *starStream) NextPage(ctx context.Context) ([]star.RepoCandidate, bool, error) {
	if s.exhausted {
		return nil, false, nil
	}

	var items []starredRepo
	params := url.Values{
		"per_page": {strconv.Itoa(starsPerPage)},
		"page":     {strconv.Itoa(s.page)},
	}
	_, err := s.client.getJSON(ctx, s.token, "/user/starred", params, &items)
	if err != nil {
		return nil, false, fmt.Errorf("starred page %d: %w", s.page, err)
	}

	s.page++
	if len(items) < starsPerPage {
		s.exhausted = true
	}
	if len(items) == 0 {
		return nil, false, nil
	}

	candidates := make([]star.RepoCandidate, len(items))
	for i, item := range items {
		candidates[i] = item.toCandidate()
	}
	return candidates, true, nil
}

// starredRepo is the wire shape of one star-listing item.
type starredRepo struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Topics      []string `json:"topics"`
	Stargazers  int      `json:"stargazers_count"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

func (r starredRepo) toCandidate() star.RepoCandidate {
	return star.NewRepoCandidate(r.ID, r.Owner.Login, r.Name, r.Description, r.HTMLURL, r.Topics, r.Stargazers)
}

// getJSON performs an authenticated GET with retry and decodes the response
// body into out. The response header is returned for Link inspection.
func (c *Client) getJSON(ctx context.Context, token, path string, params url.Values, out any) (http.Header, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var header http.Header
	err := c.policy.Do(ctx, isRetryable, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", acceptHeader)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &apiError{
				status:     resp.StatusCode,
				body:       strings.TrimSpace(string(body)),
				retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}

		header = resp.Header
		return json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return nil, classify(err)
	}
	return header, nil
}

// lastPage extracts the rel="last" page number from a Link header.
func lastPage(link string) (int, bool) {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		isLast := false
		for _, seg := range segments[1:] {
			if strings.TrimSpace(seg) == `rel="last"` {
				isLast = true
				break
			}
		}
		if !isLast {
			continue
		}

		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		u, err := url.Parse(target)
		if err != nil {
			continue
		}
		page, err := strconv.Atoi(u.Query().Get("page"))
		if err != nil {
			continue
		}
		return page, true
	}
	return 0, false
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
