package captions

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kikiluvv/bytesize/internal/clips"
	"github.com/kikiluvv/bytesize/internal/config"
	"github.com/kikiluvv/bytesize/internal/transcript"
)

func TestBuildCuesCopiesSegments(t *testing.T) {
	local := []clips.LocalSegment{
		{Start: 0, End: 5, Text: "first"},
		{Start: 4, End: 9, Text: "overlaps first"},
		{Start: 38, End: 46, Text: "runs past the end"},
	}

	want := []Cue{
		{Start: 0, End: 5, Text: "first"},
		{Start: 4, End: 9, Text: "overlaps first"},
		{Start: 38, End: 46, Text: "runs past the end"},
	}
	if diff := cmp.Diff(want, BuildCues(local)); diff != "" {
		t.Errorf("BuildCues mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCuesEmpty(t *testing.T) {
	cues := BuildCues(nil)
	if cues == nil || len(cues) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", cues)
	}
}

func TestCuesStayOnWindowClock(t *testing.T) {
	all := []transcript.Segment{
		{Start: 2, End: 4, Text: "a"},
		{Start: 30, End: 36, Text: "b"},
		{Start: 58, End: 75, Text: "c"},
		{Start: 75, End: 77, Text: "d"},
		{Start: 300, End: 301, Text: "e"},
	}
	for _, seg := range all {
		w, local := clips.BuildWindow(seg, 40, 320, all)
		for _, c := range BuildCues(local) {
			if c.Start < 0 || c.Start > w.Duration() {
				t.Errorf("window %+v: cue %+v starts outside the window", w, c)
			}
		}
	}
}

func TestStyleFromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SubtitleConfig
		want Style
	}{
		{
			name: "defaults",
			cfg:  config.SubtitleConfig{},
			want: DefaultStyle(),
		},
		{
			name: "top yellow",
			cfg:  config.SubtitleConfig{FontName: "Impact", FontSize: 60, FontColor: "#FFFF00", OutlineWidth: 4, Position: "top", WidthRatio: 0.8},
			want: Style{FontName: "Impact", FontSize: 60, Color: "#FFFF00", OutlineWidth: 4, Alignment: AlignTop, WidthRatio: 0.8, MarginV: 60},
		},
		{
			name: "center keeps default width",
			cfg:  config.SubtitleConfig{Position: "center", WidthRatio: 3, OutlineWidth: 2},
			want: Style{FontName: "Arial", FontSize: 42, Color: "#FFFFFF", OutlineWidth: 2, Alignment: AlignCenter, WidthRatio: 0.9, MarginV: 60},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, StyleFromConfig(tt.cfg)); diff != "" {
				t.Errorf("StyleFromConfig mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteASS(t *testing.T) {
	cues := []Cue{
		{Start: 0, End: 2.5, Text: "hello {world}"},
		{Start: 61.25, End: 3725.5, Text: "two\nlines"},
	}

	var buf bytes.Buffer
	if err := WriteASS(&buf, cues, DefaultStyle(), 820, 1458); err != nil {
		t.Fatalf("WriteASS: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"[Script Info]",
		"PlayResX: 820\n",
		"PlayResY: 1458\n",
		"Style: Default,Arial,42,&H00FFFFFF,",
		",2,41,41,60,1\n",
		"Dialogue: 0,0:00:00.00,0:00:02.50,Default,,0,0,0,,hello \\{world\\}\n",
		"Dialogue: 0,0:01:01.25,1:02:05.50,Default,,0,0,0,,two\\Nlines\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ASS output missing %q\n%s", want, out)
		}
	}
}

func TestWriteASSInvalidColour(t *testing.T) {
	style := DefaultStyle()
	for _, c := range []string{"white", "#FFF", "#GGGGGG"} {
		style.Color = c
		var buf bytes.Buffer
		if err := WriteASS(&buf, nil, style, 100, 100); err == nil {
			t.Errorf("expected error for colour %q", c)
		}
	}
}

func TestEscapeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"{\\b1}bold", "\\{\\\u2060b1\\}bold"},
		{`say \N twice`, "say \\\u2060N twice"},
		{`C:\New\hat`, "C:\\\u2060New\\\u2060hat"},
		{"two\r\nlines", "two\\Nlines"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := escapeText(tt.in)
			if got != tt.want {
				t.Errorf("escapeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestASSColour(t *testing.T) {
	got, err := assColour("#12aBcD")
	if err != nil {
		t.Fatal(err)
	}
	if got != "&H00CDAB12" {
		t.Errorf("assColour = %s", got)
	}
}

func TestWriteASSFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reel.ass")
	if err := WriteASSFile(path, []Cue{{Start: 1, End: 2, Text: "x"}}, DefaultStyle(), 608, 1080); err != nil {
		t.Fatalf("WriteASSFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Dialogue: 0,0:00:01.00,0:00:02.00") {
		t.Errorf("unexpected file content:\n%s", data)
	}
}
