package spec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is where published pyspec index versions live.
const DefaultBaseURL = "https://raw.githubusercontent.com/jtraglia/ethspecify/main/pyspec"

const fetchTimeout = 30 * time.Second

// Client fetches and caches specification indexes and link tables. Each
// version is fetched at most once per process; a fetch or decode failure
// is fatal for the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu      sync.Mutex
	indexes map[string]Index
	links   map[string]Links
}

// NewClient creates a Client against the published index location.
func NewClient() *Client {
	return NewClientWithBaseURL(DefaultBaseURL)
}

// NewClientWithBaseURL creates a Client against a custom index location.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: fetchTimeout},
		baseURL:    baseURL,
		indexes:    make(map[string]Index),
		links:      make(map[string]Links),
	}
}

// Index returns the specification index for a version, fetching it on
// first use.
func (c *Client) Index(ctx context.Context, version string) (Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.indexes[version]; ok {
		return idx, nil
	}

	body, err := c.fetch(ctx, version, "pyspec.json")
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("decode pyspec index (%s): %w", version, err)
	}
	c.indexes[version] = idx
	return idx, nil
}

// Links returns the external link table for a version, fetching it on
// first use.
func (c *Client) Links(ctx context.Context, version string) (Links, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if links, ok := c.links[version]; ok {
		return links, nil
	}

	body, err := c.fetch(ctx, version, "links.json")
	if err != nil {
		return nil, err
	}
	var links Links
	if err := json.Unmarshal(body, &links); err != nil {
		return nil, fmt.Errorf("decode links table (%s): %w", version, err)
	}
	c.links[version] = links
	return links, nil
}

func (c *Client) fetch(ctx context.Context, version, file string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, version, file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %q: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// LinkEntry is one key/URL pair of the link table.
type LinkEntry struct {
	Key string
	URL string
}

// Links is the external link table in file order. Order matters: link
// lookups return the first matching entry.
type Links []LinkEntry

// UnmarshalJSON decodes a JSON object while preserving key order.
func (l *Links) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode links: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("links table must be a JSON object")
	}

	var entries Links
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode links key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("links key must be a string")
		}
		var url string
		if err := dec.Decode(&url); err != nil {
			return fmt.Errorf("decode link for %q: %w", key, err)
		}
		entries = append(entries, LinkEntry{Key: key, URL: url})
	}
	*l = entries
	return nil
}

// FunctionLink returns the first link whose key contains the fork name
// and ends with the function name.
func (l Links) FunctionLink(fork, function string) (string, bool) {
	for _, entry := range l {
		if strings.Contains(entry.Key, fork) && strings.HasSuffix(entry.Key, function) {
			return entry.URL, true
		}
	}
	return "", false
}
