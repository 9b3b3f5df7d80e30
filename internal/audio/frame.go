package audio

import (
	"context"
	"math"
)

// Frame is one fixed-size chunk of signed 16-bit mono PCM samples, in
// capture order.
type Frame []int16

// Source is the contract for anything that produces frames: the live
// microphone capture, or a synthetic source in tests. Read blocks until a
// frame is available or ctx is done.
type Source interface {
	Read(ctx context.Context) (Frame, error)
}

// Energy returns the root-mean-square amplitude of the frame. An empty or
// all-zero frame has energy 0.
func Energy(frame Frame) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// IsSilence reports whether the frame's energy is below threshold.
func IsSilence(frame Frame, threshold float64) bool {
	return Energy(frame) < threshold
}

// Normalize flattens frames into a single float32 buffer scaled to [-1, 1],
// the layout recognizers expect.
func Normalize(frames []Frame) []float32 {
	total := 0
	for _, f := range frames {
		total += len(f)
	}
	out := make([]float32, 0, total)
	for _, f := range frames {
		for _, s := range f {
			out = append(out, float32(s)/32768.0)
		}
	}
	return out
}
