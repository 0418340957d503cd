// Package publish delivers a caption and a media file to a Discord-compatible
// webhook as a single multipart request.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type PublishError struct {
	Status int
	Body   string
	Err    error
}

func (e *PublishError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("publish failed: HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("publish failed: %v", e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

type WebhookPublisher struct {
	client     *http.Client
	webhookURL string
	timeout    time.Duration
}

func NewWebhookPublisher(client *http.Client, webhookURL string, timeout time.Duration) *WebhookPublisher {
	return &WebhookPublisher{client: client, webhookURL: webhookURL, timeout: timeout}
}

// Publish posts the media file, with the caption as message content when one
// is present. The file is attached under its own base name in a single
// files[0] part, matching the webhook's multipart contract.
func (p *WebhookPublisher) Publish(ctx context.Context, caption string, mediaPath string) error {
	media, err := os.ReadFile(mediaPath)
	if err != nil {
		return &PublishError{Err: fmt.Errorf("failed to read media file: %w", err)}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if caption != "" {
		payload, err := json.Marshal(map[string]string{"content": caption})
		if err != nil {
			return &PublishError{Err: fmt.Errorf("failed to encode payload: %w", err)}
		}
		if err := writer.WriteField("payload_json", string(payload)); err != nil {
			return &PublishError{Err: fmt.Errorf("failed to write payload part: %w", err)}
		}
	}

	part, err := writer.CreateFormFile("files[0]", filepath.Base(mediaPath))
	if err != nil {
		return &PublishError{Err: fmt.Errorf("failed to create file part: %w", err)}
	}
	if _, err := part.Write(media); err != nil {
		return &PublishError{Err: fmt.Errorf("failed to write file part: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return &PublishError{Err: fmt.Errorf("failed to finalize multipart body: %w", err)}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", p.webhookURL, &body)
	if err != nil {
		return &PublishError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return &PublishError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &PublishError{Status: resp.StatusCode, Body: string(data)}
	}
	io.Copy(io.Discard, resp.Body)

	return nil
}
