package listen

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/murmurlabs/murmur/internal/audio"
	"github.com/murmurlabs/murmur/internal/config"
	"github.com/murmurlabs/murmur/internal/stt"
	"github.com/murmurlabs/murmur/internal/trigger"
)

// Outcome is the terminal state of one recording episode.
type Outcome int

const (
	// Completed means the utterance was long and loud enough to transcribe.
	Completed Outcome = iota
	// Discarded means the episode ended without a usable utterance; no
	// transcription call was made.
	Discarded
)

func (o Outcome) String() string {
	if o == Completed {
		return "completed"
	}
	return "discarded"
}

// RecognizerObserver receives the duration of each recognizer call, tagged
// with the pipeline phase ("spot" or "transcribe") that issued it.
type RecognizerObserver func(ctx context.Context, phase string, seconds float64)

// Segmenter records one silence-bounded utterance from a frame source and
// hands it to the recognizer. One episode runs at a time; all state is local
// to Capture.
type Segmenter struct {
	silenceDur time.Duration
	minDur     time.Duration
	maxDur     time.Duration
	sampleRate int
	rec        stt.Recognizer
	latch      *trigger.Latch
	observe    RecognizerObserver
	log        *slog.Logger
	clock      func() time.Time
}

func NewSegmenter(cfg config.ListenConfig, sampleRate int, rec stt.Recognizer, latch *trigger.Latch, log *slog.Logger) *Segmenter {
	return &Segmenter{
		silenceDur: time.Duration(cfg.SilenceDurationMS) * time.Millisecond,
		minDur:     time.Duration(cfg.MinRecordingMS) * time.Millisecond,
		maxDur:     time.Duration(cfg.MaxRecordingMS) * time.Millisecond,
		sampleRate: sampleRate,
		rec:        rec,
		latch:      latch,
		log:        log,
		clock:      time.Now,
	}
}

// SetObserver installs a duration observer for the final transcription call.
func (s *Segmenter) SetObserver(o RecognizerObserver) {
	s.observe = o
}

// Capture records until trailing silence, the maximum duration, a manual
// stop edge, or cancellation. On Completed the trimmed transcript is
// returned; on Discarded the transcript is empty and the recognizer was not
// called. A transcription failure is logged and downgraded to Discarded.
// The returned error is non-nil only when ctx ended mid-recording; the
// partial recording is dropped.
func (s *Segmenter) Capture(ctx context.Context, src audio.Source, threshold float64) (string, Outcome, error) {
	s.latch.SetRecording(true)
	defer s.latch.SetRecording(false)

	var (
		frames       []audio.Frame
		hasAudio     bool
		silenceStart time.Time
	)
	start := s.clock()

	for {
		if s.clock().Sub(start) > s.maxDur {
			s.log.Debug("max recording duration reached")
			break
		}

		frame, err := src.Read(ctx)
		if err != nil {
			return "", Discarded, err
		}
		frames = append(frames, frame)

		now := s.clock()
		if audio.Energy(frame) >= threshold {
			hasAudio = true
			silenceStart = time.Time{}
		} else if hasAudio {
			if silenceStart.IsZero() {
				silenceStart = now
			} else if now.Sub(silenceStart) > s.silenceDur {
				s.log.Debug("trailing silence reached, stopping recording")
				break
			}
		}

		if s.latch.StopPending() {
			s.log.Debug("manual stop observed")
			break
		}
	}

	duration := s.clock().Sub(start)
	if duration < s.minDur || !hasAudio {
		s.log.Debug("recording discarded",
			slog.Duration("duration", duration),
			slog.Bool("has_audio", hasAudio))
		return "", Discarded, nil
	}

	samples := audio.Normalize(frames)
	began := s.clock()
	text, err := s.rec.Transcribe(ctx, samples, s.sampleRate)
	if s.observe != nil {
		s.observe(ctx, "transcribe", s.clock().Sub(began).Seconds())
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", Discarded, ctx.Err()
		}
		s.log.Warn("transcription failed", slog.String("error", err.Error()))
		return "", Discarded, nil
	}
	return strings.TrimSpace(text), Completed, nil
}
