package summarizer

import "context"

// Summarizer produces a bounded-length abstract of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}
