package action

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

type beepFeedback struct {
	log *slog.Logger
}

// NewBeepFeedback plays tone cues through the system beeper. Cues run on
// their own goroutine so the capture loop never waits on audio output.
func NewBeepFeedback(log *slog.Logger) Feedback {
	return &beepFeedback{log: log}
}

func (f *beepFeedback) Play(cue Cue) {
	go func() {
		var err error
		switch cue {
		case CueDetected:
			// Rising two-tone.
			if err = beeep.Beep(600, 100); err == nil {
				err = beeep.Beep(800, 100)
			}
		case CueReady:
			for _, freq := range []float64{1000, 1200, 1400} {
				if err = beeep.Beep(freq, 80); err != nil {
					break
				}
			}
		}
		if err != nil {
			f.log.Debug("feedback tone failed", slog.String("error", err.Error()))
		}
	}()
}
