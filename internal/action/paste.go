package action

import (
	"log/slog"
	"runtime"

	"github.com/micmonay/keybd_event"
)

type keyPaster struct {
	log *slog.Logger
}

// NewKeyPaster injects the platform paste chord (ctrl+V, cmd+V on macOS) at
// the current cursor position.
func NewKeyPaster(log *slog.Logger) Paster {
	return &keyPaster{log: log}
}

func (p *keyPaster) Paste() bool {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		p.log.Warn("keyboard binding failed", slog.String("error", err.Error()))
		return false
	}
	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	if err := kb.Launching(); err != nil {
		p.log.Warn("paste keystroke failed", slog.String("error", err.Error()))
		return false
	}
	return true
}
