package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Fetcher retrieves one page of candidate items from the feed host. The
// listing endpoint returns a JSON envelope of children ordered newest-first;
// the fetcher preserves that order and does no filtering.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	path      string
	userAgent string
	timeout   time.Duration
}

func NewFetcher(client *http.Client, baseURL, path, userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:    client,
		baseURL:   baseURL,
		path:      path,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// listing mirrors the feed's wire shape:
// {data: {children: [{data: {...}}]}}
type listing struct {
	Data struct {
		Children []struct {
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	URL      string `json:"url_overridden_by_dest"`
	IsVideo  bool   `json:"is_video"`
	Stickied bool   `json:"stickied"`
}

// FetchPage returns the page of items following the cursor, newest-first.
// An empty cursor requests the most recent page.
func (f *Fetcher) FetchPage(ctx context.Context, cursor string) ([]Item, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", f.pageURL(cursor), nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Kind: FetchHTTP, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var page listing
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, &FetchError{Kind: FetchMalformed, Err: err}
	}

	items := make([]Item, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		items = append(items, Item{
			ID:        child.Data.Name,
			Title:     child.Data.Title,
			SourceURL: child.Data.URL,
			Stickied:  child.Data.Stickied,
			IsVideo:   child.Data.IsVideo,
		})
	}

	return items, nil
}

func (f *Fetcher) pageURL(cursor string) string {
	u := f.baseURL + f.path + ".json"
	if cursor != "" {
		u += "?before=" + url.QueryEscape(cursor)
	}
	return u
}
