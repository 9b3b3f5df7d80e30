package listen

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/murmurlabs/murmur/internal/action"
	"github.com/murmurlabs/murmur/internal/audio"
	"github.com/murmurlabs/murmur/internal/config"
	"github.com/murmurlabs/murmur/internal/stt"
	"github.com/murmurlabs/murmur/internal/trigger"
)

// Kind identifies which trigger fired for one arbitration iteration.
type Kind int

const (
	None Kind = iota
	WakeWord
	PasteWord
	ManualStart
	ManualStop
	Interrupt
)

func (k Kind) String() string {
	switch k {
	case WakeWord:
		return "wake_word"
	case PasteWord:
		return "paste_word"
	case ManualStart:
		return "manual_start"
	case ManualStop:
		return "manual_stop"
	case Interrupt:
		return "interrupt"
	default:
		return "none"
	}
}

// Result is the outcome of one arbitration iteration. Text is set only for
// triggers that captured an utterance; Origin tags where the trigger came
// from ("wake" or "keyboard").
type Result struct {
	Kind    Kind
	Text    string
	Origin  string
	Outcome Outcome
}

// Arbiter decides, per iteration, whether a manual edge, the paste word, or
// the wake word fired, and dispatches to the segmenter. Manual edges always
// win the iteration; the paste word wins a collision with the wake word.
type Arbiter struct {
	wake       string
	paste      string
	spotWindow time.Duration
	sampleRate int
	rec        stt.Recognizer
	seg        *Segmenter
	latch      *trigger.Latch
	cue        action.Feedback
	observe    RecognizerObserver
	log        *slog.Logger
	clock      func() time.Time
}

func NewArbiter(cfg config.ListenConfig, sampleRate int, rec stt.Recognizer, seg *Segmenter, latch *trigger.Latch, cue action.Feedback, log *slog.Logger) *Arbiter {
	return &Arbiter{
		wake:       strings.ToLower(strings.TrimSpace(cfg.WakeWord)),
		paste:      strings.ToLower(strings.TrimSpace(cfg.PasteWord)),
		spotWindow: time.Duration(cfg.SpotWindowMS) * time.Millisecond,
		sampleRate: sampleRate,
		rec:        rec,
		seg:        seg,
		latch:      latch,
		cue:        cue,
		log:        log,
		clock:      time.Now,
	}
}

// SetObserver installs a duration observer for spotting calls.
func (a *Arbiter) SetObserver(o RecognizerObserver) {
	a.observe = o
}

// Next runs one arbitration iteration. It returns a non-nil error only when
// ctx ended, together with an Interrupt result; every other failure is
// absorbed into the result.
func (a *Arbiter) Next(ctx context.Context, src audio.Source, threshold float64) (Result, error) {
	// A pending manual edge takes unconditional priority over voice
	// spotting for this iteration.
	switch a.latch.Take() {
	case trigger.StartRequested:
		return a.record(ctx, src, threshold, ManualStart, "keyboard")
	case trigger.StopRequested:
		// No recording is active out here; the edge is stale. Consuming it
		// is enough.
		a.log.Debug("stale manual stop consumed")
		return Result{Kind: ManualStop}, nil
	}

	spotted, err := a.spot(ctx, src)
	if err != nil {
		return Result{Kind: Interrupt}, err
	}
	if a.paste != "" && strings.Contains(spotted, a.paste) {
		return Result{Kind: PasteWord}, nil
	}
	if strings.Contains(spotted, a.wake) {
		return a.record(ctx, src, threshold, WakeWord, "wake")
	}
	return Result{Kind: None}, nil
}

// spot collects a short window of frames and transcribes them to test for
// trigger phrases. A recognizer failure degrades to "nothing spotted".
func (a *Arbiter) spot(ctx context.Context, src audio.Source) (string, error) {
	var frames []audio.Frame
	start := a.clock()
	for a.clock().Sub(start) < a.spotWindow {
		frame, err := src.Read(ctx)
		if err != nil {
			return "", err
		}
		frames = append(frames, frame)
	}
	if len(frames) == 0 {
		return "", nil
	}

	began := a.clock()
	text, err := a.rec.Transcribe(ctx, audio.Normalize(frames), a.sampleRate)
	if a.observe != nil {
		a.observe(ctx, "spot", a.clock().Sub(began).Seconds())
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		a.log.Warn("word spotting failed", slog.String("error", err.Error()))
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(text)), nil
}

func (a *Arbiter) record(ctx context.Context, src audio.Source, threshold float64, kind Kind, origin string) (Result, error) {
	// Publish the recording state before the cue plays: a key press in the
	// cue window must post a stop edge, not queue a second start.
	a.latch.SetRecording(true)
	a.cue.Play(action.CueDetected)
	text, outcome, err := a.seg.Capture(ctx, src, threshold)
	if err != nil {
		return Result{Kind: Interrupt}, err
	}
	return Result{Kind: kind, Text: text, Origin: origin, Outcome: outcome}, nil
}
