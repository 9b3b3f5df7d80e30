package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/murmurlabs/murmur/internal/config"
)

// ErrDevice marks capture device failures. These are fatal at startup: there
// is nothing to listen to without a microphone.
var ErrDevice = errors.New("capture device error")

// CaptureSource owns the microphone and produces frames into a Queue from a
// background reader goroutine. It implements Source for the consumer side.
type CaptureSource struct {
	cfg    config.AudioConfig
	log    *slog.Logger
	queue  *Queue
	stream *portaudio.Stream
	buf    []int16

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewCaptureSource(cfg config.AudioConfig, log *slog.Logger) *CaptureSource {
	return &CaptureSource{
		cfg:   cfg,
		log:   log,
		queue: NewQueue(cfg.QueueDepth),
		buf:   make([]int16, cfg.FrameSize),
	}
}

// Start opens the default capture device and begins producing frames.
func (s *CaptureSource) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialize: %v", ErrDevice, err)
	}
	stream, err := portaudio.OpenDefaultStream(s.cfg.Channels, 0, float64(s.cfg.SampleRate), len(s.buf), s.buf)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: open stream: %v", ErrDevice, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: start stream: %v", ErrDevice, err)
	}
	s.stream = stream

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.produce(ctx)

	s.log.Info("audio capture started",
		slog.Int("sample_rate", s.cfg.SampleRate),
		slog.Int("frame_size", s.cfg.FrameSize))
	return nil
}

func (s *CaptureSource) produce(ctx context.Context) {
	defer s.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.stream.Read()
		if err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				// The driver discarded audio; nothing to replay.
				s.log.Warn("input overflow, audio lost")
			} else {
				if ctx.Err() != nil {
					return
				}
				s.log.Error("stream read failed", slog.String("error", err.Error()))
				return
			}
		}
		frame := make(Frame, len(s.buf))
		copy(frame, s.buf)
		s.queue.Push(frame)
	}
}

// Read blocks until the next frame arrives or ctx is done.
func (s *CaptureSource) Read(ctx context.Context) (Frame, error) {
	return s.queue.Pop(ctx)
}

// Dropped reports frames evicted by queue overflow.
func (s *CaptureSource) Dropped() uint64 {
	return s.queue.Dropped()
}

// Stop releases the device. Safe to call more than once.
func (s *CaptureSource) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.stream != nil {
			_ = s.stream.Abort()
			s.wg.Wait()
			_ = s.stream.Close()
			s.stream = nil
		}
		_ = portaudio.Terminate()
		s.log.Info("audio capture stopped", slog.Uint64("frames_dropped", s.queue.Dropped()))
	})
}
