package transcriber

import "context"

// Transcriber converts one audio file to plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
