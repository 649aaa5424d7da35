package ffmpeg

import "time"

// VideoInfo contains metadata about a media file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Bitrate    int64
	VideoCodec string
	HasVideo   bool
	HasAudio   bool
	AudioCodec string
	SampleRate int
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
	DefaultPixFmt     = "yuv420p"
)

// RenderOptions configures video rendering operations
type RenderOptions struct {
	Input        string
	Output       string
	Subtitles    string
	Filters      []string
	VideoCodec   string
	AudioCodec   string
	CRF          int
	Preset       string
	ProgressFunc ProgressFunc
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)
