package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/murmurlabs/murmur/internal/config"
)

// serverRecognizer posts utterances to a running whisper.cpp whisper-server
// (POST /inference, multipart/form-data).
type serverRecognizer struct {
	url    string
	cfg    config.STTConfig
	client *http.Client
}

func NewServerRecognizer(cfg config.STTConfig) (Recognizer, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("stt server url is empty")
	}
	return &serverRecognizer{
		url:    cfg.ServerURL,
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}, nil
}

func (r *serverRecognizer) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	file, err := os.CreateTemp(os.TempDir(), "murmur_stt_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())

	if err := writeSamplesToWav(file, samples, sampleRate); err != nil {
		file.Close()
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return "", fmt.Errorf("rewind wav: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		file.Close()
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		file.Close()
		return "", fmt.Errorf("copy wav data: %w", err)
	}
	file.Close()

	if r.cfg.Language != "" {
		if err := mw.WriteField("language", r.cfg.Language); err != nil {
			return "", fmt.Errorf("write language field: %w", err)
		}
	}
	if r.cfg.Model != "" {
		if err := mw.WriteField("model", r.cfg.Model); err != nil {
			return "", fmt.Errorf("write model field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stt server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode stt response: %w", err)
	}
	return result.Text, nil
}
