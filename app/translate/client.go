// Package translate calls an HTTP translation API. The contract is strict:
// a 2xx response must carry a non-null translated_text field, anything else
// is a failure that aborts the item being processed.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type ErrorKind int

const (
	// Unavailable covers transport failures, timeouts and 5xx responses.
	// The item will naturally be retried on a future run.
	Unavailable ErrorKind = iota
	// Rejected covers 4xx responses and bodies without a usable
	// translated_text field. Permanent for this item in this run.
	Rejected
)

func (k ErrorKind) String() string {
	if k == Rejected {
		return "rejected"
	}
	return "unavailable"
}

type TranslationError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *TranslationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("translation %s: HTTP %d", e.Kind, e.Status)
	}
	return fmt.Sprintf("translation %s: %v", e.Kind, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

type Client struct {
	client   *http.Client
	endpoint string
	engine   string
	lang     string
	timeout  time.Duration
}

func NewClient(client *http.Client, endpoint, engine, lang string, timeout time.Duration) *Client {
	return &Client{
		client:   client,
		endpoint: endpoint,
		engine:   engine,
		lang:     lang,
		timeout:  timeout,
	}
}

type translateResponse struct {
	TranslatedText *string `json:"translated_text"`
}

// Translate returns the translated text for the given input. Empty input is
// a valid call and is sent to the API unchanged.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("to", c.lang)
	params.Set("text", text)

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", &TranslationError{Kind: Unavailable, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &TranslationError{Kind: Unavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		kind := Rejected
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusRequestTimeout {
			kind = Unavailable
		}
		return "", &TranslationError{Kind: kind, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TranslationError{Kind: Unavailable, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var body translateResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return "", &TranslationError{Kind: Rejected, Err: fmt.Errorf("unparsable response body: %w", err)}
	}
	if body.TranslatedText == nil {
		return "", &TranslationError{Kind: Rejected, Err: fmt.Errorf("response missing translated_text field")}
	}

	return *body.TranslatedText, nil
}
