package stt

import (
	"context"
	"fmt"

	"github.com/murmurlabs/murmur/internal/config"
)

// Recognizer abstracts the transcription backend. Samples are mono float32
// PCM in [-1, 1]. Callers treat failures as recoverable: a failed call never
// crashes the capture loop.
type Recognizer interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
}

// New selects a recognizer implementation from configuration.
func New(cfg config.STTConfig) (Recognizer, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockRecognizer(), nil
	case "exec":
		return NewExecRecognizer(cfg)
	case "server":
		return NewServerRecognizer(cfg)
	default:
		return nil, fmt.Errorf("unknown stt mode %q", cfg.Mode)
	}
}
