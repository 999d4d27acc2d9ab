// Package tmdb provides the client for The Movie Database search and image
// endpoints used by film identity resolution.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinescrapers/internal/services"
)

// Result represents a single TMDB movie search match.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// ReleaseYear returns the candidate's release year, or zero when unknown.
func (r Result) ReleaseYear() int {
	if len(r.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(r.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Searcher defines the TMDB operations used by the resolver.
type Searcher interface {
	SearchMovieAllPages(ctx context.Context, query string) ([]Result, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*Result, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	imageURL   string
	language   string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, imageURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		imageURL:   strings.TrimRight(strings.TrimSpace(imageURL), "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovieAllPages searches TMDB for the supplied title, following every
// result page. Relevant matches for common titles can land on later pages, so
// stopping at page one would drop candidates.
func (c *Client) SearchMovieAllPages(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	first, err := c.searchMoviePage(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	results := append([]Result(nil), first.Results...)
	for page := 2; page <= first.TotalPages; page++ {
		resp, err := c.searchMoviePage(ctx, query, page)
		if err != nil {
			return nil, err
		}
		results = append(results, resp.Results...)
	}
	return results, nil
}

func (c *Client) searchMoviePage(ctx context.Context, query string, page int) (*Response, error) {
	endpoint, err := url.Parse(c.baseURL + "/search/movie")
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("api_key", c.apiKey)
	params.Set("page", strconv.Itoa(page))
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	var payload Response
	if err := c.getJSON(ctx, endpoint.String(), "tmdb search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieDetails fetches movie details by TMDB ID.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*Result, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/movie/%d", c.baseURL, movieID))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	var payload Result
	if err := c.getJSON(ctx, endpoint.String(), "tmdb movie details", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchImage downloads a poster or backdrop by its TMDB image path.
func (c *Client) FetchImage(ctx context.Context, imagePath string) ([]byte, error) {
	imagePath = strings.TrimSpace(imagePath)
	if !strings.HasPrefix(imagePath, "/") {
		return nil, fmt.Errorf("tmdb image path %q must start with /", imagePath)
	}
	if c.imageURL == "" {
		return nil, errors.New("tmdb image base url required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.imageURL+imagePath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, "tmdb image fetch"); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tmdb image: %w", err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, operation string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, operation); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// classifyStatus maps HTTP failures onto the service error taxonomy so the
// resolver can tell "the catalog refused us" from "the catalog has nothing".
func classifyStatus(status int, operation string) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "tmdb", operation, fmt.Sprintf("status %d", status), nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "tmdb", operation, fmt.Sprintf("status %d", status), nil)
	default:
		return services.Wrap(services.ErrTransient, "tmdb", operation, fmt.Sprintf("status %d", status), nil)
	}
}
