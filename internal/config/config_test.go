package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Highlights.TopK != 5 || cfg.Highlights.MinGap != 5 {
		t.Errorf("unexpected peak defaults: %+v", cfg.Highlights)
	}
	if cfg.Reframe.Aspect != "9:16" || cfg.Reframe.Zoom != 1.35 {
		t.Errorf("unexpected reframe defaults: %+v", cfg.Reframe)
	}
	if cfg.Subtitles.FontSize != 42 || cfg.Subtitles.WidthRatio != 0.9 {
		t.Errorf("unexpected subtitle defaults: %+v", cfg.Subtitles)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "negative top_k", mutate: func(c *Config) { c.Highlights.TopK = -1 }, wantErr: true},
		{name: "negative min_gap", mutate: func(c *Config) { c.Highlights.MinGap = -0.5 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Transcriber.Backend = "vosk" }, wantErr: true},
		{name: "http without url", mutate: func(c *Config) { c.Transcriber.Backend = BackendHTTP }, wantErr: true},
		{
			name: "http with url",
			mutate: func(c *Config) {
				c.Transcriber.Backend = BackendHTTP
				c.Transcriber.URL = "http://localhost:9000"
			},
		},
		{name: "bad position", mutate: func(c *Config) { c.Subtitles.Position = "left" }, wantErr: true},
		{name: "bad caption source", mutate: func(c *Config) { c.Subtitles.Source = "both" }, wantErr: true},
		{name: "transcript captions", mutate: func(c *Config) { c.Subtitles.Source = CaptionsFromTranscript }},
		{name: "bad crf", mutate: func(c *Config) { c.FFmpeg.CRF = 60 }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Highlights.FrameLength != 2048 || cfg.Highlights.HopLength != 512 {
		t.Errorf("framing defaults not applied: %+v", cfg.Highlights)
	}
	if cfg.Concurrency <= 0 {
		t.Errorf("concurrency not defaulted: %d", cfg.Concurrency)
	}
	if cfg.Transcriber.Backend != BackendWhisper {
		t.Errorf("backend not defaulted: %q", cfg.Transcriber.Backend)
	}
	if cfg.Subtitles.Source != CaptionsFromRelevant {
		t.Errorf("caption source not defaulted: %q", cfg.Subtitles.Source)
	}
	if cfg.Timeouts.Render.Std() != 10*time.Minute {
		t.Errorf("render timeout not defaulted: %v", cfg.Timeouts.Render.Std())
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
output_dir: reels
concurrency: 3
highlights:
  top_k: 8
  min_gap: 2.5
  window: 10
  min_words: 4
  clip_duration: 30
transcriber:
  backend: whisper-cpp
  model_path: models/ggml-base.bin
reframe:
  aspect: "4:5"
  zoom: 1.2
timeouts:
  transcribe: 5m
  render: 90s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := HighlightConfig{
		TopK:         8,
		MinGap:       2.5,
		FrameLength:  2048,
		HopLength:    512,
		Window:       10,
		MinWords:     4,
		ClipDuration: 30,
	}
	if diff := cmp.Diff(want, cfg.Highlights); diff != "" {
		t.Errorf("highlights mismatch (-want +got):\n%s", diff)
	}
	if cfg.OutputDir != "reels" || cfg.Concurrency != 3 {
		t.Errorf("core settings not loaded: %+v", cfg)
	}
	if cfg.Transcriber.Backend != BackendWhisperCPP {
		t.Errorf("backend = %q", cfg.Transcriber.Backend)
	}
	if cfg.Reframe.Aspect != "4:5" || cfg.Reframe.Zoom != 1.2 {
		t.Errorf("reframe = %+v", cfg.Reframe)
	}
	if cfg.Timeouts.Transcribe.Std() != 5*time.Minute || cfg.Timeouts.Render.Std() != 90*time.Second {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
output_dir = "out"

[highlights]
top_k = 3
min_gap = 7.0

[subtitles]
position = "top"
font_size = 36

[timeouts]
render = "2m"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "out" {
		t.Errorf("output_dir = %q", cfg.OutputDir)
	}
	if cfg.Highlights.TopK != 3 || cfg.Highlights.MinGap != 7 {
		t.Errorf("highlights = %+v", cfg.Highlights)
	}
	if cfg.Highlights.Window != 15 {
		t.Errorf("unset window should keep default, got %v", cfg.Highlights.Window)
	}
	if cfg.Subtitles.Position != "top" || cfg.Subtitles.FontSize != 36 {
		t.Errorf("subtitles = %+v", cfg.Subtitles)
	}
	if cfg.Timeouts.Render.Std() != 2*time.Minute {
		t.Errorf("render timeout = %v", cfg.Timeouts.Render.Std())
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("highlights:\n  top_k: -2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Highlights.TopK = 9
			cfg.Timeouts.Render = Duration(3 * time.Minute)

			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(cfg, loaded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContext(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "elsewhere"
	ctx := WithConfig(context.Background(), cfg)
	if got := FromContext(ctx); got.OutputDir != "elsewhere" {
		t.Errorf("FromContext returned %q", got.OutputDir)
	}
	if got := FromContext(context.Background()); got.OutputDir != Default().OutputDir {
		t.Errorf("missing config should fall back to defaults")
	}
}
