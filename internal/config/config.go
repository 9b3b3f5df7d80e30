package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	FrameSize  int `yaml:"frame_size"`
	QueueDepth int `yaml:"queue_depth"`
}

type ListenConfig struct {
	SilenceFloor      float64 `yaml:"silence_floor"`
	SilenceThreshold  float64 `yaml:"silence_threshold"`
	SilenceDurationMS int     `yaml:"silence_duration_ms"`
	MinRecordingMS    int     `yaml:"min_recording_ms"`
	MaxRecordingMS    int     `yaml:"max_recording_ms"`
	AutoCalibrate     bool    `yaml:"auto_calibrate"`
	CalibrateMS       int     `yaml:"calibrate_ms"`
	WakeWord          string  `yaml:"wake_word"`
	PasteWord         string  `yaml:"paste_word"`
	SpotWindowMS      int     `yaml:"spot_window_ms"`
}

type STTConfig struct {
	Mode      string `yaml:"mode"` // mock, exec, server
	Command   string `yaml:"command"`
	ServerURL string `yaml:"server_url"`
	Model     string `yaml:"model"`
	Language  string `yaml:"language"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type ActionsConfig struct {
	ClipboardEnabled bool `yaml:"clipboard_enabled"`
	PasteEnabled     bool `yaml:"paste_enabled"`
	FeedbackEnabled  bool `yaml:"feedback_enabled"`
}

type Config struct {
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Audio     AudioConfig     `yaml:"audio"`
	Listen    ListenConfig    `yaml:"listen"`
	STT       STTConfig       `yaml:"stt"`
	Actions   ActionsConfig   `yaml:"actions"`
}

func Default() Config {
	return Config{
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			PrometheusBind: ":9094",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
			FrameSize:  8000,
			QueueDepth: 64,
		},
		Listen: ListenConfig{
			SilenceFloor:      3,
			SilenceThreshold:  5,
			SilenceDurationMS: 2000,
			MinRecordingMS:    500,
			MaxRecordingMS:    30000,
			AutoCalibrate:     true,
			CalibrateMS:       2000,
			WakeWord:          "hello",
			PasteWord:         "paste",
			SpotWindowMS:      2000,
		},
		STT: STTConfig{
			Mode:      "mock",
			Model:     "base",
			Language:  "en",
			TimeoutMS: 45000,
		},
		Actions: ActionsConfig{
			ClipboardEnabled: true,
			PasteEnabled:     false,
			FeedbackEnabled:  true,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Telemetry.LogLevel, "MURMUR_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.PrometheusBind, "MURMUR_TELEMETRY_PROMETHEUS_BIND")
	overrideInt(&cfg.Audio.SampleRate, "MURMUR_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "MURMUR_AUDIO_CHANNELS")
	overrideInt(&cfg.Audio.FrameSize, "MURMUR_AUDIO_FRAME_SIZE")
	overrideInt(&cfg.Audio.QueueDepth, "MURMUR_AUDIO_QUEUE_DEPTH")
	overrideFloat(&cfg.Listen.SilenceFloor, "MURMUR_LISTEN_SILENCE_FLOOR")
	overrideFloat(&cfg.Listen.SilenceThreshold, "MURMUR_LISTEN_SILENCE_THRESHOLD")
	overrideInt(&cfg.Listen.SilenceDurationMS, "MURMUR_LISTEN_SILENCE_DURATION_MS")
	overrideInt(&cfg.Listen.MinRecordingMS, "MURMUR_LISTEN_MIN_RECORDING_MS")
	overrideInt(&cfg.Listen.MaxRecordingMS, "MURMUR_LISTEN_MAX_RECORDING_MS")
	overrideBool(&cfg.Listen.AutoCalibrate, "MURMUR_LISTEN_AUTO_CALIBRATE")
	overrideInt(&cfg.Listen.CalibrateMS, "MURMUR_LISTEN_CALIBRATE_MS")
	overrideString(&cfg.Listen.WakeWord, "MURMUR_LISTEN_WAKE_WORD")
	overrideString(&cfg.Listen.PasteWord, "MURMUR_LISTEN_PASTE_WORD")
	overrideInt(&cfg.Listen.SpotWindowMS, "MURMUR_LISTEN_SPOT_WINDOW_MS")
	overrideString(&cfg.STT.Mode, "MURMUR_STT_MODE")
	overrideString(&cfg.STT.Command, "MURMUR_STT_COMMAND")
	overrideString(&cfg.STT.ServerURL, "MURMUR_STT_SERVER_URL")
	overrideString(&cfg.STT.Model, "MURMUR_STT_MODEL")
	overrideString(&cfg.STT.Language, "MURMUR_STT_LANGUAGE")
	overrideInt(&cfg.STT.TimeoutMS, "MURMUR_STT_TIMEOUT_MS")
	overrideBool(&cfg.Actions.ClipboardEnabled, "MURMUR_ACTIONS_CLIPBOARD_ENABLED")
	overrideBool(&cfg.Actions.PasteEnabled, "MURMUR_ACTIONS_PASTE_ENABLED")
	overrideBool(&cfg.Actions.FeedbackEnabled, "MURMUR_ACTIONS_FEEDBACK_ENABLED")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels != 1 {
		return errors.New("audio.channels must be 1 (mono capture only)")
	}
	if cfg.Audio.FrameSize <= 0 {
		return errors.New("audio.frame_size must be positive")
	}
	if cfg.Audio.QueueDepth <= 0 {
		return errors.New("audio.queue_depth must be positive")
	}
	if cfg.Listen.SilenceFloor < 0 {
		return errors.New("listen.silence_floor must be >= 0")
	}
	if cfg.Listen.SilenceThreshold < cfg.Listen.SilenceFloor {
		return errors.New("listen.silence_threshold must be >= listen.silence_floor")
	}
	if cfg.Listen.SilenceDurationMS <= 0 {
		return errors.New("listen.silence_duration_ms must be positive")
	}
	if cfg.Listen.MinRecordingMS < 0 {
		return errors.New("listen.min_recording_ms must be >= 0")
	}
	if cfg.Listen.MaxRecordingMS <= cfg.Listen.MinRecordingMS {
		return errors.New("listen.max_recording_ms must be greater than min_recording_ms")
	}
	if cfg.Listen.AutoCalibrate && cfg.Listen.CalibrateMS <= 0 {
		return errors.New("listen.calibrate_ms must be positive when auto_calibrate is enabled")
	}
	if strings.TrimSpace(cfg.Listen.WakeWord) == "" {
		return errors.New("listen.wake_word must not be empty")
	}
	if cfg.Listen.SpotWindowMS <= 0 {
		return errors.New("listen.spot_window_ms must be positive")
	}
	switch cfg.STT.Mode {
	case "mock", "exec", "server":
	default:
		return errors.New("stt.mode must be one of mock|exec|server")
	}
	if cfg.STT.Mode == "exec" && cfg.STT.Command == "" {
		return errors.New("stt.command must be set when mode=exec")
	}
	if cfg.STT.Mode == "server" && cfg.STT.ServerURL == "" {
		return errors.New("stt.server_url must be set when mode=server")
	}
	if cfg.STT.TimeoutMS <= 0 {
		return errors.New("stt.timeout_ms must be positive")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	return nil
}
