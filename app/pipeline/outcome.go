package pipeline

import "fmt"

// Outcome is the terminal state of one item's pipeline. The cursor advances
// only for OutcomeSuccess; every other outcome skips the item for cursor
// purposes while the run continues.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeDownloadFailed
	OutcomeTranslationFailed
	OutcomePublishFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDownloadFailed:
		return "download_failed"
	case OutcomeTranslationFailed:
		return "translation_failed"
	case OutcomePublishFailed:
		return "publish_failed"
	default:
		return "unknown"
	}
}

// Result reports how one item's pipeline ended. CheckpointErr is set when
// the item itself was published but the cursor could not be persisted; the
// runner aborts the rest of the run in that case.
type Result struct {
	ItemID        string
	Outcome       Outcome
	Err           error
	CheckpointErr error
}

// CheckpointError reports a failure to persist the cursor after a
// successfully published item.
type CheckpointError struct {
	Cursor string
	Err    error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("failed to persist checkpoint %s: %v", e.Cursor, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}
