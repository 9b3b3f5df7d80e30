// Package action holds the outward-facing capabilities the capture pipeline
// drives: clipboard, cursor paste, and audible feedback. Each is an
// interface with one concrete implementation selected at startup; failures
// are reported as false and never stop the loop.
package action

// Cue identifies an audible feedback tone.
type Cue int

const (
	// CueDetected is played when a trigger is recognized and recording
	// begins.
	CueDetected Cue = iota
	// CueReady is played when a transcript has landed on the clipboard.
	CueReady
)

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	Set(text string) bool
	Get() (string, bool)
}

// Paster injects a paste keystroke at the cursor.
type Paster interface {
	Paste() bool
}

// Feedback plays short cues. Play must not block the caller.
type Feedback interface {
	Play(cue Cue)
}

// NoopClipboard is used when clipboard delivery is disabled.
type NoopClipboard struct{}

func (NoopClipboard) Set(string) bool { return false }

func (NoopClipboard) Get() (string, bool) { return "", false }

// NoopFeedback is used when audible cues are disabled.
type NoopFeedback struct{}

func (NoopFeedback) Play(Cue) {}
