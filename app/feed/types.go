package feed

import "fmt"

// Item is a candidate post from one feed page. Items are transient: they
// exist only within a single run and are never persisted individually.
type Item struct {
	ID        string
	Title     string
	SourceURL string
	Stickied  bool
	IsVideo   bool
}

type FetchErrorKind int

const (
	FetchNetwork FetchErrorKind = iota
	FetchHTTP
	FetchMalformed
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNetwork:
		return "network"
	case FetchHTTP:
		return "http"
	case FetchMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// FetchError reports a failed page fetch. None of its kinds is fatal to the
// process; the runner logs it and ends the run with the cursor untouched.
type FetchError struct {
	Kind   FetchErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTP:
		return fmt.Sprintf("feed fetch failed: HTTP %d", e.Status)
	case FetchMalformed:
		return fmt.Sprintf("feed fetch failed: malformed response: %v", e.Err)
	default:
		return fmt.Sprintf("feed fetch failed: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
