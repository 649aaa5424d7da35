package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// HTTP posts the audio to a remote ASR service at <url>/transcribe
type HTTP struct {
	logger   zerolog.Logger
	url      string
	language string
	client   *http.Client
}

// NewHTTP creates an HTTP transcriber. A nil client uses http.DefaultClient.
func NewHTTP(logger zerolog.Logger, url, language string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{
		logger:   logger.With().Str("component", "asr-http").Logger(),
		url:      strings.TrimRight(url, "/"),
		language: language,
		client:   client,
	}
}

type asrResponse struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// Transcribe implements Transcriber
func (h *HTTP) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer fd.Close()

	if _, err := io.Copy(fw, fd); err != nil {
		return nil, fmt.Errorf("buffer audio: %w", err)
	}
	if h.language != "" {
		if err := w.WriteField("language", h.language); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url+"/transcribe", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	h.logger.Info().Str("url", h.url).Str("audio", audioPath).Msg("sending audio to asr service")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("asr %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out asrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("asr decode: %w", err)
	}

	h.logger.Info().
		Int("segments", len(out.Segments)).
		Str("language", out.Language).
		Msg("transcription complete")

	return out.Segments, nil
}
