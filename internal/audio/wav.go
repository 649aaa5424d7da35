package audio

import (
	"fmt"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

const readChunk = 4096

// LoadWAV decodes a PCM WAV file into normalized mono samples.
// Stereo input is averaged down to one channel. beep spreads a mono sample
// across both channels at half scale, so mono frames are summed.
func LoadWAV(path string) (Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return Samples{}, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	stream, format, err := wav.Decode(f)
	if err != nil {
		return Samples{}, fmt.Errorf("decode wav %s: %w", path, err)
	}

	rate := int(format.SampleRate)
	if rate <= 0 {
		return Samples{}, fmt.Errorf("decode wav %s: invalid sample rate %d", path, rate)
	}

	data := make([]float32, 0, max(stream.Len(), 0))
	buf := make([][2]float64, readChunk)
	stereo := format.NumChannels > 1

	for {
		n, ok := stream.Stream(buf)
		for _, frame := range buf[:n] {
			v := frame[0] + frame[1]
			if stereo {
				v /= 2
			}
			data = append(data, float32(v))
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return Samples{}, fmt.Errorf("read wav %s: %w", path, err)
	}

	return Samples{Rate: rate, Data: data}, nil
}

// WriteWAV encodes samples as a 16-bit mono PCM WAV file
func WriteWAV(path string, s Samples) error {
	if s.Rate <= 0 {
		return fmt.Errorf("invalid sample rate %d", s.Rate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	pos := 0
	streamer := beep.StreamerFunc(func(out [][2]float64) (int, bool) {
		if pos >= len(s.Data) {
			return 0, false
		}
		n := fillStereo(out, s.Data[pos:])
		pos += n
		return n, true
	})

	format := beep.Format{
		SampleRate:  beep.SampleRate(s.Rate),
		NumChannels: 1,
		Precision:   2,
	}

	if err := wav.Encode(f, streamer, format); err != nil {
		f.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	return f.Close()
}

func fillStereo(dst [][2]float64, src []float32) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		v := float64(src[i])
		dst[i] = [2]float64{v, v}
	}
	return n
}
