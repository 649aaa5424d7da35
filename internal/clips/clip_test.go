package clips

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kikiluvv/bytesize/internal/transcript"
)

func TestBuildWindow(t *testing.T) {
	tests := []struct {
		name      string
		seg       transcript.Segment
		duration  float64
		media     float64
		wantStart float64
		wantEnd   float64
	}{
		{
			name:      "clamped at zero keeps full length",
			seg:       transcript.Segment{Start: 8, End: 12},
			duration:  40,
			media:     600,
			wantStart: 0,
			wantEnd:   40,
		},
		{
			name:      "unclamped",
			seg:       transcript.Segment{Start: 100, End: 110},
			duration:  40,
			media:     600,
			wantStart: 85,
			wantEnd:   125,
		},
		{
			name:      "clamped at media end",
			seg:       transcript.Segment{Start: 590, End: 596},
			duration:  40,
			media:     600,
			wantStart: 573,
			wantEnd:   600,
		},
		{
			name:      "media shorter than clip",
			seg:       transcript.Segment{Start: 2, End: 4},
			duration:  40,
			media:     10,
			wantStart: 0,
			wantEnd:   10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := BuildWindow(tt.seg, tt.duration, tt.media, nil)
			if w.Start != tt.wantStart || w.End != tt.wantEnd {
				t.Errorf("window = [%v, %v], want [%v, %v]", w.Start, w.End, tt.wantStart, tt.wantEnd)
			}
			if w.Source != tt.seg {
				t.Errorf("source = %+v, want %+v", w.Source, tt.seg)
			}
		})
	}
}

func TestBuildWindowLocalSegments(t *testing.T) {
	all := []transcript.Segment{
		{Start: 80, End: 86, Text: "starts before window"},
		{Start: 85, End: 90, Text: "starts on boundary"},
		{Start: 100, End: 110, Text: "the highlight"},
		{Start: 123, End: 131, Text: "runs past the end"},
		{Start: 125, End: 127, Text: "starts at end"},
		{Start: 126, End: 128, Text: "after window"},
	}

	w, local := BuildWindow(all[2], 40, 600, all)
	if w.Start != 85 || w.End != 125 {
		t.Fatalf("unexpected window %+v", w)
	}

	want := []LocalSegment{
		{Start: 0, End: 5, Text: "starts on boundary"},
		{Start: 15, End: 25, Text: "the highlight"},
		{Start: 38, End: 46, Text: "runs past the end"},
		{Start: 40, End: 42, Text: "starts at end"},
	}
	if diff := cmp.Diff(want, local); diff != "" {
		t.Errorf("local segments mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWindowBounds(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 0, End: 1},
		{Start: 3, End: 9},
		{Start: 48, End: 55},
		{Start: 299, End: 300},
		{Start: 150, End: 190},
	}
	for _, seg := range segments {
		for _, d := range []float64{5, 30, 40, 90, 500} {
			w, local := BuildWindow(seg, d, 300, segments)
			if w.Start < 0 || w.End > 300 || w.Duration() > d || w.End < w.Start {
				t.Errorf("seg %+v d=%v: bad window %+v", seg, d, w)
			}
			for _, l := range local {
				if l.Start < 0 || l.Start > w.Duration() {
					t.Errorf("seg %+v d=%v: local start %v outside window", seg, d, l.Start)
				}
			}
		}
	}
}

func TestBuildWindowNoLocalSegments(t *testing.T) {
	_, local := BuildWindow(transcript.Segment{Start: 10, End: 12}, 4, 100, nil)
	if local == nil || len(local) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", local)
	}
}
