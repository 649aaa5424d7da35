package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	OutputDir   string `yaml:"output_dir" toml:"output_dir"`
	TempDir     string `yaml:"temp_dir" toml:"temp_dir"`
	Concurrency int    `yaml:"concurrency" toml:"concurrency"`

	Highlights  HighlightConfig   `yaml:"highlights" toml:"highlights"`
	Transcriber TranscriberConfig `yaml:"transcriber" toml:"transcriber"`
	Reframe     ReframeConfig     `yaml:"reframe" toml:"reframe"`
	Subtitles   SubtitleConfig    `yaml:"subtitles" toml:"subtitles"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg" toml:"ffmpeg"`
	Timeouts    TimeoutConfig     `yaml:"timeouts" toml:"timeouts"`
	Index       IndexConfig       `yaml:"index" toml:"index"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

// HighlightConfig tunes peak detection, matching and window carving
type HighlightConfig struct {
	TopK         int     `yaml:"top_k" toml:"top_k"`
	MinGap       float64 `yaml:"min_gap" toml:"min_gap"`
	FrameLength  int     `yaml:"frame_length" toml:"frame_length"`
	HopLength    int     `yaml:"hop_length" toml:"hop_length"`
	Window       float64 `yaml:"window" toml:"window"`
	MinWords     int     `yaml:"min_words" toml:"min_words"`
	ClipDuration float64 `yaml:"clip_duration" toml:"clip_duration"`
}

type TranscriberConfig struct {
	Backend    string `yaml:"backend" toml:"backend"`
	Model      string `yaml:"model" toml:"model"`
	BinaryPath string `yaml:"binary_path" toml:"binary_path"`
	ModelPath  string `yaml:"model_path" toml:"model_path"`
	URL        string `yaml:"url" toml:"url"`
	Language   string `yaml:"language" toml:"language"`
	Threads    int    `yaml:"threads" toml:"threads"`
	// Transcript is a pre-computed transcript used by the file backend
	Transcript string `yaml:"transcript" toml:"transcript"`
}

type ReframeConfig struct {
	Aspect string  `yaml:"aspect" toml:"aspect"`
	Zoom   float64 `yaml:"zoom" toml:"zoom"`
	Poster bool    `yaml:"poster" toml:"poster"`
}

type SubtitleConfig struct {
	FontName     string  `yaml:"font_name" toml:"font_name"`
	FontSize     int     `yaml:"font_size" toml:"font_size"`
	FontColor    string  `yaml:"font_color" toml:"font_color"`
	OutlineWidth int     `yaml:"outline_width" toml:"outline_width"`
	Position     string  `yaml:"position" toml:"position"`
	WidthRatio   float64 `yaml:"width_ratio" toml:"width_ratio"`
	// Source picks which segments become captions: the relevant
	// segments only, or the whole transcript
	Source string `yaml:"source" toml:"source"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path" toml:"binary_path"`
	ProbePath  string `yaml:"ffprobe_path" toml:"ffprobe_path"`
	Threads    int    `yaml:"threads" toml:"threads"`
	Preset     string `yaml:"preset" toml:"preset"`
	CRF        int    `yaml:"crf" toml:"crf"`
}

type TimeoutConfig struct {
	Transcribe Duration `yaml:"transcribe" toml:"transcribe"`
	Render     Duration `yaml:"render" toml:"render"`
}

type IndexConfig struct {
	Path string `yaml:"path" toml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Duration is a time.Duration that reads and writes as "30m" style text
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, err
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects impossible settings and fills defaults for empty ones
func (c *Config) Validate() error {
	h := &c.Highlights
	if h.TopK < 0 {
		return fmt.Errorf("highlights.top_k must not be negative")
	}
	if h.MinGap < 0 {
		return fmt.Errorf("highlights.min_gap must not be negative")
	}
	if h.Window < 0 {
		return fmt.Errorf("highlights.window must not be negative")
	}
	if h.ClipDuration < 0 {
		return fmt.Errorf("highlights.clip_duration must not be negative")
	}
	if h.FrameLength < 0 || h.HopLength < 0 {
		return fmt.Errorf("highlights frame_length and hop_length must not be negative")
	}
	if c.Reframe.Zoom < 0 {
		return fmt.Errorf("reframe.zoom must not be negative")
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return fmt.Errorf("ffmpeg.crf must be between 0 and 51")
	}

	switch c.Transcriber.Backend {
	case "":
		c.Transcriber.Backend = BackendWhisper
	case BackendWhisper, BackendWhisperCPP, BackendFile:
	case BackendHTTP:
		if c.Transcriber.URL == "" {
			return fmt.Errorf("transcriber.url is required for the http backend")
		}
	default:
		return fmt.Errorf("unknown transcriber.backend %q", c.Transcriber.Backend)
	}

	switch c.Subtitles.Position {
	case "":
		c.Subtitles.Position = "bottom"
	case "bottom", "center", "top":
	default:
		return fmt.Errorf("subtitles.position must be bottom, center or top")
	}

	switch c.Subtitles.Source {
	case "":
		c.Subtitles.Source = CaptionsFromRelevant
	case CaptionsFromRelevant, CaptionsFromTranscript:
	default:
		return fmt.Errorf("subtitles.source must be relevant or transcript")
	}

	switch c.Logging.Format {
	case "":
		c.Logging.Format = "auto"
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console or json")
	}

	if h.FrameLength == 0 {
		h.FrameLength = 2048
	}
	if h.HopLength == 0 {
		h.HopLength = 512
	}
	if h.ClipDuration == 0 {
		h.ClipDuration = 40
	}
	if c.Reframe.Aspect == "" {
		c.Reframe.Aspect = "9:16"
	}
	if c.Reframe.Zoom == 0 {
		c.Reframe.Zoom = 1.35
	}
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.NumCPU()
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join("output", "clips")
	}
	if c.Transcriber.Model == "" {
		c.Transcriber.Model = "base"
	}
	if c.Subtitles.FontSize == 0 {
		c.Subtitles.FontSize = 42
	}
	if c.Subtitles.FontColor == "" {
		c.Subtitles.FontColor = "#FFFFFF"
	}
	if c.Subtitles.WidthRatio <= 0 || c.Subtitles.WidthRatio > 1 {
		c.Subtitles.WidthRatio = 0.9
	}
	if c.FFmpeg.Preset == "" {
		c.FFmpeg.Preset = "medium"
	}
	if c.FFmpeg.CRF == 0 {
		c.FFmpeg.CRF = 23
	}
	if c.Timeouts.Transcribe <= 0 {
		c.Timeouts.Transcribe = Duration(30 * time.Minute)
	}
	if c.Timeouts.Render <= 0 {
		c.Timeouts.Render = Duration(10 * time.Minute)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

// Transcriber backends
const (
	BackendWhisper    = "whisper"
	BackendWhisperCPP = "whisper-cpp"
	BackendHTTP       = "http"
	BackendFile       = "file"
)

// Caption sources
const (
	CaptionsFromRelevant   = "relevant"
	CaptionsFromTranscript = "transcript"
)

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		OutputDir:   filepath.Join("output", "clips"),
		Concurrency: runtime.NumCPU(),
		Highlights: HighlightConfig{
			TopK:         5,
			MinGap:       5,
			FrameLength:  2048,
			HopLength:    512,
			Window:       15,
			MinWords:     6,
			ClipDuration: 40,
		},
		Transcriber: TranscriberConfig{
			Backend:  BackendWhisper,
			Model:    "base",
			Language: "en",
		},
		Reframe: ReframeConfig{
			Aspect: "9:16",
			Zoom:   1.35,
			Poster: true,
		},
		Subtitles: SubtitleConfig{
			FontName:     "Arial",
			FontSize:     42,
			FontColor:    "#FFFFFF",
			OutlineWidth: 2,
			Position:     "bottom",
			WidthRatio:   0.9,
			Source:       CaptionsFromRelevant,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "medium",
			CRF:        23,
		},
		Timeouts: TimeoutConfig{
			Transcribe: Duration(30 * time.Minute),
			Render:     Duration(10 * time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		"./config.toml",
		filepath.Join(os.Getenv("HOME"), ".bytesize", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
