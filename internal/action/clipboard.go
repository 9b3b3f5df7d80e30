package action

import (
	"log/slog"

	"github.com/atotto/clipboard"
)

type systemClipboard struct {
	log *slog.Logger
}

// NewSystemClipboard returns the platform clipboard.
func NewSystemClipboard(log *slog.Logger) Clipboard {
	return &systemClipboard{log: log}
}

func (c *systemClipboard) Set(text string) bool {
	if text == "" {
		c.log.Warn("empty text, nothing to copy")
		return false
	}
	if err := clipboard.WriteAll(text); err != nil {
		c.log.Warn("clipboard write failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

func (c *systemClipboard) Get() (string, bool) {
	text, err := clipboard.ReadAll()
	if err != nil {
		c.log.Warn("clipboard read failed", slog.String("error", err.Error()))
		return "", false
	}
	return text, true
}
