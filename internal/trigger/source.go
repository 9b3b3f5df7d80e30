package trigger

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"
)

// KeySource turns key events from a terminal-style input into latch edges:
// every line (a bare Enter press) toggles between start and stop. The
// consumer loop never sees the raw input, only the latch.
type KeySource struct {
	in    io.Reader
	latch *Latch
	log   *slog.Logger
	wg    sync.WaitGroup
}

func NewKeySource(in io.Reader, latch *Latch, log *slog.Logger) *KeySource {
	return &KeySource{in: in, latch: latch, log: log}
}

// Start begins listening in the background. The listener exits when the
// input reaches EOF or ctx is cancelled; a blocked terminal read ends with
// the process.
func (k *KeySource) Start(ctx context.Context) {
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		scanner := bufio.NewScanner(k.in)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			k.latch.Toggle()
			k.log.Debug("manual trigger edge posted", slog.String("edge", State(k.latch.state.Load()).String()))
		}
	}()
}

// Wait blocks until the listener goroutine has exited. Useful in tests with
// a finite input.
func (k *KeySource) Wait() {
	k.wg.Wait()
}
