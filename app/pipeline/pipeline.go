// Package pipeline contains the per-item processing state machine and the
// run orchestrator. Each item moves strictly forward through
// download -> translate -> publish -> checkpoint -> cleanup, with any stage
// able to end the item in a terminal failure. Nothing is retried within a
// run; recovery is the next scheduled run re-reading the same cursor.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"vidrelay/app/checkpoint"
	"vidrelay/app/feed"
	"vidrelay/app/media"
)

const mediaExt = ".mp4"

type MediaFetcher interface {
	Fetch(ctx context.Context, sourceURL, filename string) (*media.Artifact, error)
}

type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, caption string, mediaPath string) error
}

type Pipeline struct {
	media       MediaFetcher
	translator  Translator
	publisher   Publisher
	store       checkpoint.Store
	warning     string
	deleteAfter bool
}

func NewPipeline(mediaFetcher MediaFetcher, translator Translator, publisher Publisher,
	store checkpoint.Store, warning string, deleteAfter bool) *Pipeline {
	return &Pipeline{
		media:       mediaFetcher,
		translator:  translator,
		publisher:   publisher,
		store:       store,
		warning:     warning,
		deleteAfter: deleteAfter,
	}
}

// Process runs one item to a terminal outcome. The cursor is advanced only
// after a confirmed successful publish, and the local media file is cleaned
// up on every exit path that produced one (unless retention is configured).
func (p *Pipeline) Process(ctx context.Context, item feed.Item) Result {
	res := Result{ItemID: item.ID}

	slog.Info("Processing item", "item", item.ID, "title", item.Title)

	artifact, err := p.media.Fetch(ctx, item.SourceURL, item.ID+mediaExt)
	if err != nil {
		slog.Error("Stage failed", "item", item.ID, "stage", "download", "error", err)
		res.Outcome = OutcomeDownloadFailed
		res.Err = err
		return res
	}
	defer p.cleanup(item.ID, artifact)

	// Translation is attempted even for an empty title; a failure aborts
	// the item either way.
	translated, err := p.translator.Translate(ctx, item.Title)
	if err != nil {
		slog.Error("Stage failed", "item", item.ID, "stage", "translate", "error", err)
		res.Outcome = OutcomeTranslationFailed
		res.Err = err
		return res
	}

	caption := ComposeCaption(item.Title, p.warning, translated, item.SourceURL)

	if err := p.publisher.Publish(ctx, caption, artifact.Path); err != nil {
		slog.Error("Stage failed", "item", item.ID, "stage", "publish", "error", err)
		res.Outcome = OutcomePublishFailed
		res.Err = err
		return res
	}

	// Point of no return: the item is delivered, so the checkpoint must
	// move before anything else happens to the artifact.
	if err := p.store.Save(item.ID); err != nil {
		slog.Error("Stage failed", "item", item.ID, "stage", "checkpoint", "error", err)
		res.CheckpointErr = &CheckpointError{Cursor: item.ID, Err: err}
	}

	res.Outcome = OutcomeSuccess
	return res
}

// cleanup deletes the media file when retention is off. A delete failure is
// logged but never changes the item's outcome.
func (p *Pipeline) cleanup(itemID string, artifact *media.Artifact) {
	if !p.deleteAfter {
		return
	}
	if err := artifact.Remove(); err != nil {
		slog.Warn("Failed to clean up media file", "item", itemID, "path", artifact.Path, "error", err)
	}
}

// ComposeCaption builds the published message: title line, warning label
// with the translated text, and the source URL in angle brackets, each on
// its own line. An empty title yields no caption at all.
func ComposeCaption(title, warning, translated, sourceURL string) string {
	if title == "" {
		return ""
	}
	return fmt.Sprintf("%s\n%s: %s\n<%s>", title, warning, translated, sourceURL)
}
