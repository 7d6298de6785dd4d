// Package speech adapts speech-to-text and text-to-speech providers behind
// a single interface.
package speech

import (
	"context"
)

// Service converts between audio and text. Transcription failures degrade
// to an empty transcript so voice turns can fall through to a clarifying
// reply instead of an error.
type Service interface {
	// Transcribe converts recorded audio to text. Returns "" when no
	// speech was recognized.
	Transcribe(ctx context.Context, audio []byte) (string, error)

	// Synthesize renders text as spoken audio.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
