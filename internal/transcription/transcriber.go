package transcription

import (
	"context"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

// Transcriber converts an audio file on disk into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*types.TranscriptionResult, error)
}
