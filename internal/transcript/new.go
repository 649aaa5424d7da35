package transcript

import (
	"fmt"

	"github.com/kikiluvv/bytesize/internal/config"
	"github.com/rs/zerolog"
)

// New builds the transcriber selected by configuration. A non-empty
// transcriptPath always wins and bypasses speech-to-text.
func New(logger zerolog.Logger, cfg config.TranscriberConfig, transcriptPath string) (Transcriber, error) {
	if transcriptPath != "" {
		return NewFile(transcriptPath), nil
	}

	switch cfg.Backend {
	case config.BackendWhisper, "":
		return NewWhisper(logger, WhisperOptions{
			Binary:   cfg.BinaryPath,
			Model:    cfg.Model,
			Language: cfg.Language,
			Threads:  cfg.Threads,
		}), nil
	case config.BackendWhisperCPP:
		return NewWhisperCPP(logger, WhisperCPPOptions{
			Binary:    cfg.BinaryPath,
			ModelPath: cfg.ModelPath,
			Language:  cfg.Language,
			Threads:   cfg.Threads,
		})
	case config.BackendHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("http transcriber requires a url")
		}
		return NewHTTP(logger, cfg.URL, cfg.Language, nil), nil
	case config.BackendFile:
		if cfg.Transcript == "" {
			return nil, fmt.Errorf("file transcriber requires --transcript or transcriber.transcript")
		}
		return NewFile(cfg.Transcript), nil
	default:
		return nil, fmt.Errorf("unknown transcriber backend %q", cfg.Backend)
	}
}
