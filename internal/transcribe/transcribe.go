// Package transcribe turns recorded audio into text using whichever
// speech-to-text provider has credentials configured.
package transcribe

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
)

// ErrNoProvider is returned when neither provider has a key.
var ErrNoProvider = errors.New("no transcription API key configured")

type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error)
}

// Provider names reported by New.
const (
	ProviderDeepgram = "deepgram"
	ProviderWhisper  = "whisper"
	ProviderNone     = "none"
)

// New returns the Deepgram transcriber when it has a key, otherwise Whisper,
// otherwise a transcriber that always fails with ErrNoProvider.
func New(deepgram DeepgramConfig, whisper WhisperConfig, logger *zap.Logger) (Transcriber, string) {
	switch {
	case deepgram.APIKey != "":
		return NewDeepgramTranscriber(deepgram, logger), ProviderDeepgram
	case whisper.APIKey != "":
		return NewWhisperTranscriber(whisper, logger), ProviderWhisper
	default:
		return unavailable{}, ProviderNone
	}
}

type unavailable struct{}

func (unavailable) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	return "", ErrNoProvider
}
