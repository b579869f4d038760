package pipeline

import "context"

// Pipeline turns one ready audio segment into a published transcript
// record.
type Pipeline interface {
	Process(ctx context.Context, audioPath string) error
}
