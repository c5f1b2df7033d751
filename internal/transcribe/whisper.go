package transcribe

import (
	"context"
	"fmt"
	"io"
	"mime"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type WhisperConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, must include /v1
}

// WhisperTranscriber uses the OpenAI audio transcription endpoint.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewWhisperTranscriber(cfg WhisperConfig, logger *zap.Logger) *WhisperTranscriber {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		Reader:   audio,
		FilePath: "audio" + extensionFor(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	t.logger.Debug("Transcribed audio with Whisper", zap.Int("chars", len(resp.Text)))
	return resp.Text, nil
}

// extensionFor picks a file extension the API will accept for the upload
// name; browsers record webm by default.
func extensionFor(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ".webm"
	}
	switch mediaType {
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/ogg", "audio/opus":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	}
	return ".webm"
}
