package pipeline

import (
	"errors"
	"fmt"

	"github.com/kikiluvv/bytesize/pkg/util"
)

// Kind classifies pipeline failures
type Kind int

const (
	KindUnknown Kind = iota
	// KindInput: the source cannot be probed, has no audio or cannot be decoded
	KindInput
	// KindTranscription: the transcriber failed, timed out or found no speech
	KindTranscription
	// KindRender: one window failed to render; siblings are unaffected
	KindRender
	// KindResource: the disk filled up; the whole run is aborted
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTranscription:
		return "transcription"
	case KindRender:
		return "render"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

var (
	// ErrNoAudio is returned for sources without an audio stream
	ErrNoAudio = errors.New("input has no audio stream")
	// ErrNoVideo is returned when reels are requested from audio-only input
	ErrNoVideo = errors.New("input has no video stream")
	// ErrOutputLocked means another run is writing the same reel set
	ErrOutputLocked = errors.New("output directory is locked by another run")
)

// Error is a classified pipeline failure
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// newError wraps err with kind and op. Out-of-space failures are always
// promoted to KindResource whatever stage produced them.
func newError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if util.IsOutOfSpace(err) {
		kind = KindResource
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
