package captions

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kikiluvv/bytesize/internal/config"
	"github.com/kikiluvv/bytesize/pkg/util"
)

// ASS alignment values (numpad layout)
const (
	AlignBottom = 2
	AlignCenter = 5
	AlignTop    = 8
)

// Style controls how cues are drawn
type Style struct {
	FontName     string
	FontSize     int
	Color        string // #RRGGBB
	OutlineWidth int
	Alignment    int
	WidthRatio   float64 // share of the frame width text may use
	MarginV      int
}

// DefaultStyle matches the classic look: 42px white text, bottom centre,
// wrapped at 90% of the frame width.
func DefaultStyle() Style {
	return Style{
		FontName:     "Arial",
		FontSize:     42,
		Color:        "#FFFFFF",
		OutlineWidth: 2,
		Alignment:    AlignBottom,
		WidthRatio:   0.9,
		MarginV:      60,
	}
}

// StyleFromConfig maps subtitle settings onto a Style
func StyleFromConfig(cfg config.SubtitleConfig) Style {
	s := DefaultStyle()
	if cfg.FontName != "" {
		s.FontName = cfg.FontName
	}
	if cfg.FontSize > 0 {
		s.FontSize = cfg.FontSize
	}
	if cfg.FontColor != "" {
		s.Color = cfg.FontColor
	}
	if cfg.OutlineWidth > 0 {
		s.OutlineWidth = cfg.OutlineWidth
	}
	if cfg.WidthRatio > 0 && cfg.WidthRatio <= 1 {
		s.WidthRatio = cfg.WidthRatio
	}
	switch cfg.Position {
	case "top":
		s.Alignment = AlignTop
	case "center":
		s.Alignment = AlignCenter
	default:
		s.Alignment = AlignBottom
	}
	return s
}

// WriteASS renders cues as an ASS script sized for a playW x playH frame
func WriteASS(w io.Writer, cues []Cue, style Style, playW, playH int) error {
	colour, err := assColour(style.Color)
	if err != nil {
		return err
	}

	margin := int(math.Round(float64(playW) * (1 - style.WidthRatio) / 2))

	var sb strings.Builder
	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n")
	sb.WriteString(fmt.Sprintf("PlayResX: %d\n", playW))
	sb.WriteString(fmt.Sprintf("PlayResY: %d\n", playH))
	sb.WriteString("\n[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, " +
		"Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, " +
		"Alignment, MarginL, MarginR, MarginV, Encoding\n")
	sb.WriteString(fmt.Sprintf("Style: Default,%s,%d,%s,&H000000FF,&H00000000,&H80000000,"+
		"0,0,0,0,100,100,0,0,1,%d,0,%d,%d,%d,%d,1\n",
		style.FontName, style.FontSize, colour, style.OutlineWidth, style.Alignment, margin, margin, style.MarginV))
	sb.WriteString("\n[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, c := range cues {
		sb.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			util.FormatASSTimestamp(c.Start), util.FormatASSTimestamp(c.End), escapeText(c.Text)))
	}

	_, err = io.WriteString(w, sb.String())
	return err
}

// WriteASSFile writes the ASS script to path
func WriteASSFile(path string, cues []Cue, style Style, playW, playH int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteASS(f, cues, style, playW, playH); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// assColour converts #RRGGBB to &HAABBGGRR with opaque alpha
func assColour(hex string) (string, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return "", fmt.Errorf("invalid colour %q", hex)
	}
	if _, err := strconv.ParseUint(h, 16, 32); err != nil {
		return "", fmt.Errorf("invalid colour %q", hex)
	}
	h = strings.ToUpper(h)
	return "&H00" + h[4:6] + h[2:4] + h[0:2], nil
}

// wordJoiner breaks up a literal backslash from the next rune. libass has no
// escape for a backslash, so "\\N" would still render as a line break.
const wordJoiner = "\u2060"

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\\", "\\"+wordJoiner)
	s = strings.ReplaceAll(s, "{", "\\{")
	s = strings.ReplaceAll(s, "}", "\\}")
	return strings.ReplaceAll(s, "\n", "\\N")
}
