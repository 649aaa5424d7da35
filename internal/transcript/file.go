package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File serves a pre-computed transcript instead of running speech-to-text.
// The path may be an SRT file, a whisper style {"segments": [...]} object,
// or a bare JSON array of segments.
type File struct {
	path string
}

// NewFile creates a File transcriber
func NewFile(path string) *File {
	return &File{path: path}
}

// Transcribe implements Transcriber. The audio path is ignored.
func (f *File) Transcribe(ctx context.Context, _ string) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(f.path)
}

// LoadFile reads a transcript from disk, choosing the format by extension
func LoadFile(path string) ([]Segment, error) {
	if strings.EqualFold(filepath.Ext(path), ".srt") {
		return ReadSRT(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var segments []Segment
		if err := json.Unmarshal(data, &segments); err != nil {
			return nil, fmt.Errorf("parse transcript %s: %w", path, err)
		}
		return segments, nil
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	return out.Segments, nil
}
