// Package media materializes a local video file for a feed item by driving
// a yt-dlp subprocess.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// FormatPreference is the selection order handed to yt-dlp: a combined
// mp4+m4a container first, then the best single mp4, then whatever is
// available. Downstream publishing relies on a single playable file
// existing at the destination, so this ordering is part of the contract.
const FormatPreference = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

type ErrorKind int

const (
	SourceUnavailable ErrorKind = iota
	NoCompatibleFormat
	IOFailure
)

func (k ErrorKind) String() string {
	switch k {
	case SourceUnavailable:
		return "source unavailable"
	case NoCompatibleFormat:
		return "no compatible format"
	default:
		return "io failure"
	}
}

type MediaError struct {
	Kind ErrorKind
	Err  error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media fetch failed (%s): %v", e.Kind, e.Err)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

// Artifact is the ownership handle for one downloaded media file. The
// pipeline that received it is responsible for calling Remove once the
// file is no longer needed.
type Artifact struct {
	Path string
}

func (a *Artifact) Remove() error {
	if err := os.Remove(a.Path); err != nil {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}

type Fetcher struct {
	binPath string
	dir     string
	timeout time.Duration
}

func NewFetcher(binPath, dir string, timeout time.Duration) *Fetcher {
	return &Fetcher{binPath: binPath, dir: dir, timeout: timeout}
}

// Fetch downloads the video at sourceURL into the fetcher's directory under
// the given filename. On success the file at Artifact.Path is a single
// playable container. Partial files from failed attempts may remain on disk;
// fresh attempts reuse the same item-keyed filename and overwrite them.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, filename string) (*Artifact, error) {
	dest := filepath.Join(f.dir, filename)

	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, f.binPath,
		"--format", FormatPreference,
		"--output", dest,
		"--force-overwrites",
		"--no-progress",
		"--quiet",
		sourceURL,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, classify(err, string(output))
	}

	if _, err := os.Stat(dest); err != nil {
		return nil, &MediaError{Kind: IOFailure, Err: fmt.Errorf("downloader reported success but %s is missing: %w", dest, err)}
	}

	return &Artifact{Path: dest}, nil
}

// classify maps a yt-dlp failure onto the error taxonomy using the exit
// error and whatever the process wrote to its output streams.
func classify(err error, output string) *MediaError {
	lower := strings.ToLower(output)

	switch {
	case strings.Contains(lower, "requested format is not available"),
		strings.Contains(lower, "no video formats found"):
		return &MediaError{Kind: NoCompatibleFormat, Err: fmt.Errorf("%w: %s", err, firstLine(output))}
	case strings.Contains(lower, "unable to download"),
		strings.Contains(lower, "http error"),
		strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "unsupported url"),
		strings.Contains(lower, "name or service not known"):
		return &MediaError{Kind: SourceUnavailable, Err: fmt.Errorf("%w: %s", err, firstLine(output))}
	default:
		return &MediaError{Kind: IOFailure, Err: fmt.Errorf("%w: %s", err, firstLine(output))}
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
