package transcript

import (
	"fmt"
	"os"
	"strings"

	"github.com/kikiluvv/bytesize/pkg/util"
)

// ReadSRT parses an SRT file into segments
func ReadSRT(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return ParseSRT(string(data)), nil
}

// ParseSRT parses SRT text. Malformed blocks are skipped.
func ParseSRT(content string) []Segment {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(strings.TrimPrefix(content, "\ufeff"))
	if content == "" {
		return nil
	}

	var segments []Segment
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		// index line is optional in the wild
		timing := lines[0]
		text := lines[1:]
		if !strings.Contains(timing, "-->") && len(lines) >= 3 {
			timing = lines[1]
			text = lines[2:]
		}

		parts := strings.Split(timing, "-->")
		if len(parts) != 2 {
			continue
		}
		start, err := util.ParseTimestamp(parts[0])
		if err != nil {
			continue
		}
		// whisper.cpp may append position hints after the end time
		endField := strings.Fields(parts[1])
		if len(endField) == 0 {
			continue
		}
		end, err := util.ParseTimestamp(endField[0])
		if err != nil {
			continue
		}

		segments = append(segments, Segment{
			Start: start.Seconds(),
			End:   end.Seconds(),
			Text:  strings.Join(text, " "),
		})
	}
	return segments
}
