package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeStub creates a fake downloader script. It writes a placeholder file
// at the path named by --output and exits 0, or prints the given message to
// stderr and exits 1.
func writeStub(t *testing.T, failMessage string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "yt-dlp-stub")

	var script string
	if failMessage == "" {
		script = `#!/bin/sh
out=""
prev=""
for arg in "$@"; do
	if [ "$prev" = "--output" ]; then out="$arg"; fi
	prev="$arg"
done
printf 'video-bytes' > "$out"
`
	} else {
		script = fmt.Sprintf("#!/bin/sh\necho %q >&2\nexit 1\n", failMessage)
	}

	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write stub: %v", err)
	}
	return path
}

func TestFetchSuccess(t *testing.T) {
	stub := writeStub(t, "")
	dir := t.TempDir()
	fetcher := NewFetcher(stub, dir, 10*time.Second)

	artifact, err := fetcher.Fetch(context.Background(), "https://v.example.com/a", "t3_a.mp4")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	want := filepath.Join(dir, "t3_a.mp4")
	if artifact.Path != want {
		t.Errorf("Expected artifact at %s, got %s", want, artifact.Path)
	}
	if _, err := os.Stat(artifact.Path); err != nil {
		t.Errorf("Expected media file to exist: %v", err)
	}

	if err := artifact.Remove(); err != nil {
		t.Errorf("Remove failed: %v", err)
	}
	if _, err := os.Stat(artifact.Path); !os.IsNotExist(err) {
		t.Error("Expected media file to be gone after Remove")
	}
}

func TestFetchMissingOutput(t *testing.T) {
	// Stub exits 0 without writing the destination file.
	dir := t.TempDir()
	stub := filepath.Join(dir, "noop")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("Failed to write stub: %v", err)
	}

	fetcher := NewFetcher(stub, t.TempDir(), 10*time.Second)
	_, err := fetcher.Fetch(context.Background(), "https://v.example.com/a", "t3_a.mp4")

	var mediaErr *MediaError
	if !errors.As(err, &mediaErr) {
		t.Fatalf("Expected *MediaError, got %T", err)
	}
	if mediaErr.Kind != IOFailure {
		t.Errorf("Expected IOFailure for missing output, got %s", mediaErr.Kind)
	}
}

func TestFetchClassification(t *testing.T) {
	cases := []struct {
		message string
		want    ErrorKind
	}{
		{"ERROR: Requested format is not available", NoCompatibleFormat},
		{"ERROR: no video formats found", NoCompatibleFormat},
		{"ERROR: unable to download video data: HTTP Error 403: Forbidden", SourceUnavailable},
		{"ERROR: Video unavailable", SourceUnavailable},
		{"ERROR: Unsupported URL: https://example.com", SourceUnavailable},
		{"ERROR: something exploded", IOFailure},
	}

	for _, tc := range cases {
		stub := writeStub(t, tc.message)
		fetcher := NewFetcher(stub, t.TempDir(), 10*time.Second)

		_, err := fetcher.Fetch(context.Background(), "https://v.example.com/a", "t3_a.mp4")
		var mediaErr *MediaError
		if !errors.As(err, &mediaErr) {
			t.Fatalf("%q: expected *MediaError, got %T", tc.message, err)
		}
		if mediaErr.Kind != tc.want {
			t.Errorf("%q: expected kind %s, got %s", tc.message, tc.want, mediaErr.Kind)
		}
	}
}

func TestFetchMissingBinary(t *testing.T) {
	fetcher := NewFetcher(filepath.Join(t.TempDir(), "does-not-exist"), t.TempDir(), 10*time.Second)

	_, err := fetcher.Fetch(context.Background(), "https://v.example.com/a", "t3_a.mp4")
	var mediaErr *MediaError
	if !errors.As(err, &mediaErr) {
		t.Fatalf("Expected *MediaError, got %T", err)
	}
	if mediaErr.Kind != IOFailure {
		t.Errorf("Expected IOFailure for missing binary, got %s", mediaErr.Kind)
	}
}
