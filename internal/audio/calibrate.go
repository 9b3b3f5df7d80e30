package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/murmurlabs/murmur/internal/config"
)

// Calibrator derives the silence threshold from ambient noise once per
// session. Until (or unless) calibration runs, Threshold returns the
// configured static value.
type Calibrator struct {
	window    time.Duration
	floor     float64
	auto      bool
	threshold float64
	done      bool
	log       *slog.Logger
	clock     func() time.Time
}

func NewCalibrator(cfg config.ListenConfig, log *slog.Logger) *Calibrator {
	return &Calibrator{
		window:    time.Duration(cfg.CalibrateMS) * time.Millisecond,
		floor:     cfg.SilenceFloor,
		auto:      cfg.AutoCalibrate,
		threshold: cfg.SilenceThreshold,
		log:       log,
		clock:     time.Now,
	}
}

// Calibrate pulls frames for the warm-up window and sets
// threshold = max(floor, 1.5 * mean(energy)). It runs at most once; when
// auto-calibration is disabled or calibration already happened it is a no-op.
func (c *Calibrator) Calibrate(ctx context.Context, src Source) error {
	if !c.auto || c.done {
		return nil
	}

	var samples []float64
	start := c.clock()
	for c.clock().Sub(start) < c.window {
		frame, err := src.Read(ctx)
		if err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
		samples = append(samples, Energy(frame))
	}

	if len(samples) > 0 {
		var sum float64
		for _, e := range samples {
			sum += e
		}
		mean := sum / float64(len(samples))
		c.threshold = 1.5 * mean
		if c.threshold < c.floor {
			c.threshold = c.floor
		}
	}
	c.done = true
	c.log.Info("silence threshold calibrated",
		slog.Float64("threshold", c.threshold),
		slog.Int("samples", len(samples)))
	return nil
}

// Threshold returns the active silence threshold.
func (c *Calibrator) Threshold() float64 {
	return c.threshold
}

// Calibrated reports whether the one calibration window has run.
func (c *Calibrator) Calibrated() bool {
	return c.done
}
