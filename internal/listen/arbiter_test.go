package listen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/murmurlabs/murmur/internal/action"
	"github.com/murmurlabs/murmur/internal/config"
	"github.com/murmurlabs/murmur/internal/trigger"
)

type countingFeedback struct {
	mu    sync.Mutex
	plays []action.Cue
}

func (f *countingFeedback) Play(cue action.Cue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, cue)
}

func (f *countingFeedback) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

func newTestArbiter(cfg config.ListenConfig, rec *fakeRecognizer, latch *trigger.Latch, cue action.Feedback, clock *fakeClock) *Arbiter {
	seg := newTestSegmenter(cfg, rec, latch, clock)
	arb := NewArbiter(cfg, 16000, rec, seg, latch, cue, discardLogger())
	arb.clock = clock.Now
	return arb
}

func TestPasteWordWinsCollision(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	// The spotted window contains both trigger phrases.
	rec := &fakeRecognizer{texts: []string{" Hello, please PASTE this "}}
	cfg := config.Default().Listen
	latch := trigger.NewLatch()
	cue := &countingFeedback{}
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(1000)}

	arb := newTestArbiter(cfg, rec, latch, cue, clock)
	res, err := arb.Next(context.Background(), src, testThreshold)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Kind != PasteWord {
		t.Fatalf("expected PasteWord on collision, got %v", res.Kind)
	}
	if res.Text != "" {
		t.Fatalf("paste word must not carry a transcript, got %q", res.Text)
	}
	if rec.calls != 1 {
		t.Fatalf("expected spotting call only, got %d", rec.calls)
	}
	if cue.count() != 0 {
		t.Fatal("paste word must not play the detection cue")
	}
}

func TestWakeWordStartsRecording(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	rec := &fakeRecognizer{texts: []string{"well hello there", " dictated text "}}
	cfg := config.Default().Listen
	latch := trigger.NewLatch()
	cue := &countingFeedback{}
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(1000)}

	arb := newTestArbiter(cfg, rec, latch, cue, clock)
	res, err := arb.Next(context.Background(), src, testThreshold)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Kind != WakeWord || res.Origin != "wake" {
		t.Fatalf("expected WakeWord/wake, got %v/%q", res.Kind, res.Origin)
	}
	if res.Text != "dictated text" {
		t.Fatalf("expected utterance transcript, got %q", res.Text)
	}
	if cue.count() != 1 {
		t.Fatalf("expected one detection cue, got %d", cue.count())
	}
	// One spotting call and one full transcription.
	if rec.calls != 2 {
		t.Fatalf("expected 2 recognizer calls, got %d", rec.calls)
	}
}

func TestManualEdgeWinsOverVoice(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	// Were spotting to run, this text would fire the paste word instead.
	rec := &fakeRecognizer{texts: []string{"please paste this", "typed by voice"}}
	cfg := config.Default().Listen
	latch := trigger.NewLatch()
	latch.Post(trigger.StartRequested)
	cue := &countingFeedback{}
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(1000)}

	arb := newTestArbiter(cfg, rec, latch, cue, clock)
	res, err := arb.Next(context.Background(), src, testThreshold)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Kind != ManualStart || res.Origin != "keyboard" {
		t.Fatalf("expected ManualStart/keyboard, got %v/%q", res.Kind, res.Origin)
	}
	// The only recognizer call is the utterance transcription; no spotting
	// happened this iteration.
	if rec.calls != 1 {
		t.Fatalf("expected 1 recognizer call, got %d", rec.calls)
	}
	if res.Text != "please paste this" {
		t.Fatalf("expected first queued text as transcript, got %q", res.Text)
	}
	if cue.count() != 1 {
		t.Fatalf("expected one detection cue, got %d", cue.count())
	}
}

// togglingFeedback simulates a key press landing while the detection cue is
// still playing.
type togglingFeedback struct {
	latch *trigger.Latch
}

func (f *togglingFeedback) Play(cue action.Cue) {
	if cue == action.CueDetected {
		f.latch.Toggle()
	}
}

func TestKeyPressDuringCueStopsRecording(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	rec := &fakeRecognizer{texts: []string{"brief note"}}
	cfg := config.Default().Listen
	latch := trigger.NewLatch()
	latch.Post(trigger.StartRequested)
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(1000)}

	arb := newTestArbiter(cfg, rec, latch, &togglingFeedback{latch: latch}, clock)
	res, err := arb.Next(context.Background(), src, testThreshold)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Kind != ManualStart {
		t.Fatalf("expected ManualStart, got %v", res.Kind)
	}
	// The toggle must read an active recording and post a stop, ending the
	// capture on its first frame.
	if src.reads != 1 {
		t.Fatalf("expected the recording to stop immediately, got %d reads", src.reads)
	}
	if latch.Take() != trigger.Idle {
		t.Fatal("no second start may be queued by a press during the cue")
	}
}

func TestRecognizerDurationsObserved(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	rec := &fakeRecognizer{texts: []string{"hello", "dictated text"}}
	cfg := config.Default().Listen
	latch := trigger.NewLatch()
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(1000)}

	var phases []string
	observe := func(_ context.Context, phase string, seconds float64) {
		phases = append(phases, phase)
		if seconds < 0 {
			t.Fatalf("negative duration for phase %q: %v", phase, seconds)
		}
	}
	arb := newTestArbiter(cfg, rec, latch, &countingFeedback{}, clock)
	arb.SetObserver(observe)
	arb.seg.SetObserver(observe)

	if _, err := arb.Next(context.Background(), src, testThreshold); err != nil {
		t.Fatalf("next: %v", err)
	}
	if len(phases) != 2 || phases[0] != "spot" || phases[1] != "transcribe" {
		t.Fatalf("expected spot then transcribe observations, got %v", phases)
	}
}

func TestStaleStopConsumedWithoutReading(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cfg := config.Default().Listen
	latch := trigger.NewLatch()
	latch.Post(trigger.StopRequested)
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(0)}

	arb := newTestArbiter(cfg, &fakeRecognizer{}, latch, &countingFeedback{}, clock)
	res, err := arb.Next(context.Background(), src, testThreshold)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Kind != ManualStop {
		t.Fatalf("expected ManualStop, got %v", res.Kind)
	}
	if src.reads != 0 {
		t.Fatalf("stale stop must not consume frames, got %d reads", src.reads)
	}
	if latch.Take() != trigger.Idle {
		t.Fatal("edge must be consumed")
	}
}

func TestSpottingFailureIsNone(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	rec := &fakeRecognizer{err: errors.New("asr unavailable")}
	cfg := config.Default().Listen
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(1000)}

	arb := newTestArbiter(cfg, rec, trigger.NewLatch(), &countingFeedback{}, clock)
	res, err := arb.Next(context.Background(), src, testThreshold)
	if err != nil {
		t.Fatalf("spotting failure must not propagate, got %v", err)
	}
	if res.Kind != None {
		t.Fatalf("expected None, got %v", res.Kind)
	}
}

func TestNoTriggerSpotted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	rec := &fakeRecognizer{texts: []string{"unrelated chatter"}}
	cfg := config.Default().Listen
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(1000)}

	arb := newTestArbiter(cfg, rec, trigger.NewLatch(), &countingFeedback{}, clock)
	res, err := arb.Next(context.Background(), src, testThreshold)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Kind != None {
		t.Fatalf("expected None, got %v", res.Kind)
	}
	// Spot window is 2s of 500ms frames.
	if src.reads != 4 {
		t.Fatalf("expected 4 spot frames, got %d", src.reads)
	}
}

func TestPasteWordWithoutWakeWord(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	rec := &fakeRecognizer{texts: []string{"please paste this"}}
	cfg := config.Default().Listen
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(1000)}

	arb := newTestArbiter(cfg, rec, trigger.NewLatch(), &countingFeedback{}, clock)
	res, err := arb.Next(context.Background(), src, testThreshold)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Kind != PasteWord {
		t.Fatalf("expected PasteWord, got %v", res.Kind)
	}
}

func TestCancelledContextInterrupts(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cfg := config.Default().Listen
	src := &scriptedSource{clock: clock, step: 500 * time.Millisecond, fill: makeFrame(0)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	arb := newTestArbiter(cfg, &fakeRecognizer{}, trigger.NewLatch(), &countingFeedback{}, clock)
	res, err := arb.Next(ctx, src, testThreshold)
	if err == nil {
		t.Fatal("expected error on cancellation")
	}
	if res.Kind != Interrupt {
		t.Fatalf("expected Interrupt, got %v", res.Kind)
	}
}
