package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/cache"
)

const (
	ServiceName       = "github"
	DefaultBaseURL    = "https://api.github.com"
	DefaultTimeout    = 10 * time.Second
	opListUserRepos   = "getUserRepositories"
	maxErrorBodyBytes = 1 << 12
)

type Repository struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	StarCount   int    `json:"star_count"`
	ForkCount   int    `json:"fork_count"`
}

// apiRepository mirrors the fields of GitHub's repository payload we keep.
type apiRepository struct {
	Name            string  `json:"name"`
	HTMLURL         string  `json:"html_url"`
	Description     *string `json:"description"`
	Language        *string `json:"language"`
	StargazersCount int     `json:"stargazers_count"`
	ForksCount      int     `json:"forks_count"`
}

type apiError struct {
	Message string `json:"message"`
}

// Client lists a user's public repositories, caching each listing.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	cache   cache.Cache
	keys    cache.Keys
	ttl     time.Duration
}

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	TTL     time.Duration
}

func NewClient(c cache.Cache, keys cache.Keys, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TTL <= 0 {
		opts.TTL = cache.DefaultTTL
	}

	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.Token,
		client:  &http.Client{Timeout: opts.Timeout},
		cache:   c,
		keys:    keys,
		ttl:     opts.TTL,
	}
}

// GetUserRepositories returns username's public repositories. An unknown user
// yields a NotFoundError; any other upstream failure an ExternalServiceError.
func (c *Client) GetUserRepositories(ctx context.Context, username string) ([]Repository, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewValidation("username", "username is required")
	}

	key := c.keys.GitHubRepos(username)

	var cached []Repository
	if found, err := c.cache.Get(ctx, key, &cached); err != nil {
		log.Printf("Failed to read GitHub cache for %s: %v", username, err)
	} else if found {
		return cached, nil
	}

	repos, err := c.fetch(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, repos, c.ttl); err != nil {
		log.Printf("Failed to cache GitHub repositories for %s: %v", username, err)
	}

	return repos, nil
}

func (c *Client) fetch(ctx context.Context, username string) ([]Repository, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=100&sort=updated", c.baseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "taskhub")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &apperrors.ExternalServiceError{
			ServiceName: ServiceName,
			Operation:   opListUserRepos,
			Timeout:     isTimeout(err),
			Message:     err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFound("github_user", username)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.ExternalServiceError{
			ServiceName: ServiceName,
			Operation:   opListUserRepos,
			StatusCode:  resp.StatusCode,
			Message:     errorMessage(resp),
		}
	}

	var payload []apiRepository
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &apperrors.ExternalServiceError{
			ServiceName: ServiceName,
			Operation:   opListUserRepos,
			StatusCode:  resp.StatusCode,
			Timeout:     isTimeout(err),
			Message:     "invalid response body: " + err.Error(),
		}
	}

	repos := make([]Repository, 0, len(payload))
	for _, r := range payload {
		repos = append(repos, Repository{
			Name:        r.Name,
			URL:         r.HTMLURL,
			Description: deref(r.Description),
			Language:    deref(r.Language),
			StarCount:   r.StargazersCount,
			ForkCount:   r.ForksCount,
		})
	}

	return repos, nil
}

func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var e apiError
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}

	if len(body) > 0 {
		return strings.TrimSpace(string(body))
	}

	return resp.Status
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
