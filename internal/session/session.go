// Package session wires the capture pipeline together and owns the one
// recognizer/microphone pairing for the process lifetime.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/murmurlabs/murmur/internal/action"
	"github.com/murmurlabs/murmur/internal/audio"
	"github.com/murmurlabs/murmur/internal/config"
	"github.com/murmurlabs/murmur/internal/listen"
	"github.com/murmurlabs/murmur/internal/stt"
	"github.com/murmurlabs/murmur/internal/telemetry"
	"github.com/murmurlabs/murmur/internal/trigger"
)

// frameSource is the capture device surface the session drives.
type frameSource interface {
	audio.Source
	Start() error
	Stop()
	Dropped() uint64
}

type Session struct {
	cfg     config.Config
	log     *slog.Logger
	capture frameSource
	cal     *audio.Calibrator
	keys    *trigger.KeySource
	arb     *listen.Arbiter
	clip    action.Clipboard
	paster  action.Paster
	cue     action.Feedback
	metrics *telemetry.Metrics
}

// New assembles a session from configuration. metrics may be nil.
func New(cfg config.Config, log *slog.Logger, metrics *telemetry.Metrics) (*Session, error) {
	rec, err := stt.New(cfg.STT)
	if err != nil {
		return nil, fmt.Errorf("build recognizer: %w", err)
	}

	var cue action.Feedback = action.NoopFeedback{}
	if cfg.Actions.FeedbackEnabled {
		cue = action.NewBeepFeedback(log)
	}
	var clip action.Clipboard = action.NoopClipboard{}
	if cfg.Actions.ClipboardEnabled {
		clip = action.NewSystemClipboard(log)
	}
	// The paster stays live regardless of Actions.PasteEnabled: that flag
	// only gates auto-paste after dictation, not the spoken paste trigger.
	paster := action.NewKeyPaster(log)

	latch := trigger.NewLatch()
	capture := audio.NewCaptureSource(cfg.Audio, log)
	seg := listen.NewSegmenter(cfg.Listen, cfg.Audio.SampleRate, rec, latch, log)
	arb := listen.NewArbiter(cfg.Listen, cfg.Audio.SampleRate, rec, seg, latch, cue, log)
	if metrics != nil {
		seg.SetObserver(metrics.ObserveRecognizer)
		arb.SetObserver(metrics.ObserveRecognizer)
	}

	s := &Session{
		cfg:     cfg,
		log:     log,
		capture: capture,
		cal:     audio.NewCalibrator(cfg.Listen, log),
		keys:    trigger.NewKeySource(os.Stdin, latch, log),
		arb:     arb,
		clip:    clip,
		paster:  paster,
		cue:     cue,
		metrics: metrics,
	}
	if metrics != nil {
		if err := metrics.ObserveDroppedFrames(capture.Dropped); err != nil {
			return nil, fmt.Errorf("register drop gauge: %w", err)
		}
	}
	return s, nil
}

// Run opens the capture device, calibrates once, and arbitrates until ctx is
// cancelled. A device failure is fatal; everything downstream recovers in
// place.
func (s *Session) Run(ctx context.Context) error {
	if err := s.capture.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	defer s.capture.Stop()

	if s.keys != nil {
		s.keys.Start(ctx)
	}

	if err := s.cal.Calibrate(ctx, s.capture); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("calibrate: %w", err)
	}
	threshold := s.cal.Threshold()

	s.log.Info("listening",
		slog.String("wake_word", s.cfg.Listen.WakeWord),
		slog.String("paste_word", s.cfg.Listen.PasteWord),
		slog.Float64("threshold", threshold))

	for {
		res, err := s.arb.Next(ctx, s.capture, threshold)
		if err != nil {
			s.log.Info("interrupted, shutting down")
			return nil
		}
		s.dispatch(ctx, res)
	}
}

func (s *Session) dispatch(ctx context.Context, res listen.Result) {
	if s.metrics != nil && res.Kind != listen.None {
		s.metrics.CountTrigger(ctx, res.Kind.String())
	}

	switch res.Kind {
	case listen.WakeWord, listen.ManualStart:
		id := uuid.NewString()
		if s.metrics != nil {
			s.metrics.CountUtterance(ctx, res.Outcome.String())
		}
		if res.Text == "" {
			s.log.Warn("no speech captured", slog.String("utterance", id), slog.String("origin", res.Origin))
			return
		}
		if !s.clip.Set(res.Text) {
			s.log.Warn("clipboard copy failed", slog.String("utterance", id))
			return
		}
		s.cue.Play(action.CueReady)
		s.log.Info("transcript copied",
			slog.String("utterance", id),
			slog.String("origin", res.Origin),
			slog.Int("chars", len(res.Text)))
		if s.cfg.Actions.PasteEnabled && !s.paster.Paste() {
			s.log.Warn("paste injection failed", slog.String("utterance", id))
		}
	case listen.PasteWord:
		text, ok := s.clip.Get()
		if !ok || text == "" {
			s.log.Warn("nothing on clipboard to paste")
			return
		}
		if !s.paster.Paste() {
			s.log.Warn("paste injection failed")
			return
		}
		s.log.Info("clipboard pasted at cursor", slog.Int("chars", len(text)))
	}
}
