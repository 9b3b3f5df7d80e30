package stt

import (
	"context"
	"fmt"
)

type mockRecognizer struct{}

func NewMockRecognizer() Recognizer {
	return &mockRecognizer{}
}

func (m *mockRecognizer) Transcribe(_ context.Context, samples []float32, _ int) (string, error) {
	return fmt.Sprintf("[transcript samples=%d]", len(samples)), nil
}
