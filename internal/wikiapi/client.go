// Package wikiapi is a client for the MediaWiki action API. It supplies raw
// page source to the parsing pipeline and paginated search results.
package wikiapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skohara/wikibox/internal/version"
)

// DefaultBaseURL targets Japanese Wikipedia, matching the articles the
// infobox extraction was built around.
const DefaultBaseURL = "https://ja.wikipedia.org/w/api.php"

// ErrMissingPage is returned when the API reports no page for a title or id.
var ErrMissingPage = errors.New("page does not exist")

// Client calls the MediaWiki action API. The format=json, formatversion=2
// and action=query parameters are preset on every call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the api.php endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds each API call. Defaults to 15s. The resolver treats a
	// timed-out fetch as a missing page.
	Timeout time.Duration

	// UserAgent sent with each request. Defaults to the wikibox version.
	UserAgent string

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client

	// Logger for API call traces.
	Logger *slog.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = version.Name + "/" + version.Version
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// queryResponse is the subset of the action API response wikibox reads.
type queryResponse struct {
	Continue map[string]json.RawMessage `json:"continue"`
	Query    struct {
		SearchInfo struct {
			TotalHits int `json:"totalhits"`
		} `json:"searchinfo"`
		Search     []SearchHit `json:"search"`
		Redirects  []rename    `json:"redirects"`
		Normalized []rename    `json:"normalized"`
		Pages      []pageData  `json:"pages"`
	} `json:"query"`
}

// rename is one normalization or redirect step reported by the API.
type rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type pageData struct {
	PageID    int64  `json:"pageid"`
	Title     string `json:"title"`
	Missing   bool   `json:"missing"`
	Revisions []struct {
		Content string `json:"content"`
	} `json:"revisions"`
}

// call performs one action API query. The query values are merged over the
// preset parameters.
func (c *Client) call(ctx context.Context, query url.Values) (*queryResponse, error) {
	params := url.Values{
		"format":        {"json"},
		"formatversion": {"2"},
		"action":        {"query"},
	}
	for key, values := range query {
		params[key] = values
	}

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("api call", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api status %d", resp.StatusCode)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &decoded, nil
}

// FindPage fetches the latest revision source of a page by title. With
// redirects set, the API follows page redirects before returning.
func (c *Client) FindPage(ctx context.Context, title string, redirects bool) (*Page, error) {
	pages, err := c.FindPages(ctx, []string{title}, redirects)
	if err != nil {
		return nil, err
	}
	page, ok := pages[title]
	if !ok || page == nil {
		return nil, fmt.Errorf("find page %q: %w", title, ErrMissingPage)
	}
	return page, nil
}

// FindPageByID fetches a page by its numeric page id.
func (c *Client) FindPageByID(ctx context.Context, pageID int64, redirects bool) (*Page, error) {
	query := url.Values{
		"prop":    {"revisions"},
		"rvprop":  {"content"},
		"pageids": {fmt.Sprint(pageID)},
	}
	if redirects {
		query.Set("redirects", "true")
	}

	resp, err := c.call(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, pd := range resp.Query.Pages {
		if pd.Missing || len(pd.Revisions) == 0 {
			continue
		}
		return &Page{Title: pd.Title, PageID: pd.PageID, Source: pd.Revisions[0].Content}, nil
	}
	return nil, fmt.Errorf("find page id %d: %w", pageID, ErrMissingPage)
}

// FindPages fetches several pages by title in one call. The result maps each
// requested title to its page, or to nil when the page is missing. Requested
// titles are matched back through the API's normalization and redirect
// renames.
func (c *Client) FindPages(ctx context.Context, titles []string, redirects bool) (map[string]*Page, error) {
	query := url.Values{
		"prop":   {"revisions"},
		"rvprop": {"content"},
		"titles": {strings.Join(titles, "|")},
	}
	if redirects {
		query.Set("redirects", "true")
	}

	resp, err := c.call(ctx, query)
	if err != nil {
		return nil, err
	}

	renames := make(map[string]string)
	for _, r := range resp.Query.Normalized {
		renames[r.From] = r.To
	}
	for _, r := range resp.Query.Redirects {
		renames[r.From] = r.To
	}

	byTitle := make(map[string]pageData, len(resp.Query.Pages))
	for _, pd := range resp.Query.Pages {
		byTitle[pd.Title] = pd
	}

	result := make(map[string]*Page, len(titles))
	for _, title := range titles {
		// Visited-guarded like the stored-graph walk: a redirect loop in the
		// API response must not hang the lookup.
		resolved := title
		visited := map[string]struct{}{resolved: {}}
		for {
			next, ok := renames[resolved]
			if !ok {
				break
			}
			if _, seen := visited[next]; seen {
				c.logger.Debug("redirect loop in rename chain", "title", title, "at", next)
				break
			}
			visited[next] = struct{}{}
			resolved = next
		}

		pd, ok := byTitle[resolved]
		if !ok || pd.Missing || len(pd.Revisions) == 0 {
			result[title] = nil
			continue
		}
		result[title] = &Page{Title: pd.Title, PageID: pd.PageID, Source: pd.Revisions[0].Content}
	}
	return result, nil
}

// Fetch implements the page source interface consumed by the infobox
// resolver: a missing page is (ok=false, nil error).
func (c *Client) Fetch(ctx context.Context, title string) (string, bool, error) {
	page, err := c.FindPage(ctx, title, true)
	if errors.Is(err, ErrMissingPage) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return page.Source, true, nil
}
