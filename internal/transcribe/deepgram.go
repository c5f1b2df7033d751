package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const deepgramBaseURL = "https://api.deepgram.com"

type DeepgramConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DeepgramTranscriber uses Deepgram's pre-recorded audio endpoint.
type DeepgramTranscriber struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func NewDeepgramTranscriber(cfg DeepgramConfig, logger *zap.Logger) *DeepgramTranscriber {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = deepgramBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &DeepgramTranscriber{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (t *DeepgramTranscriber) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v1/listen", audio)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("deepgram API error (%d): %s", resp.StatusCode, string(body))
	}

	var out deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode deepgram response: %w", err)
	}

	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		t.logger.Warn("Deepgram returned no alternatives")
		return "", nil
	}
	return out.Results.Channels[0].Alternatives[0].Transcript, nil
}
