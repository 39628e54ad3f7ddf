package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/mediagrab-go/internal/domain"
	"go.uber.org/zap"
)

// EncoderTester runs a trivial encode to check that an encoder works on this machine
type EncoderTester interface {
	TestEncoder(ctx context.Context, encoder string) error
}

// EncoderSelector probes the hardware encoders once and holds the encoder
// used for transcodes. Until the probe finishes the CPU encoder is returned.
type EncoderSelector struct {
	tester       EncoderTester
	probeTimeout time.Duration
	preferred    string
	logger       *zap.Logger

	startOnce sync.Once
	ready     chan struct{}

	mu        sync.RWMutex
	current   domain.EncoderChoice
	available []domain.EncoderChoice
}

// NewEncoderSelector creates a selector. preferred names an ffmpeg encoder
// to use when it passes the probe; empty means first working candidate.
func NewEncoderSelector(tester EncoderTester, probeTimeout time.Duration, preferred string, logger *zap.Logger) *EncoderSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EncoderSelector{
		tester:       tester,
		probeTimeout: probeTimeout,
		preferred:    preferred,
		logger:       logger,
		ready:        make(chan struct{}),
		current:      domain.CPUEncoder,
		available:    []domain.EncoderChoice{domain.CPUEncoder},
	}
}

// Start launches the probe in the background. Later calls do nothing.
func (s *EncoderSelector) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.probe(ctx)
	})
}

// Ready is closed once the probe has finished
func (s *EncoderSelector) Ready() <-chan struct{} {
	return s.ready
}

// IsReady reports whether the probe has finished
func (s *EncoderSelector) IsReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

func (s *EncoderSelector) probe(ctx context.Context) {
	defer close(s.ready)

	var working []domain.EncoderChoice
	for _, candidate := range domain.EncoderCandidates() {
		if candidate.Backend == domain.BackendCPU {
			working = append(working, candidate)
			continue
		}
		if ctx.Err() != nil {
			break
		}

		probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
		err := s.tester.TestEncoder(probeCtx, candidate.Encoder)
		cancel()

		if err != nil {
			s.logger.Debug("Encoder unavailable",
				zap.String("encoder", candidate.Encoder),
				zap.Error(err))
			continue
		}
		s.logger.Info("Encoder available", zap.String("encoder", candidate.Encoder))
		working = append(working, candidate)
	}
	if len(working) == 0 || working[len(working)-1].Backend != domain.BackendCPU {
		working = append(working, domain.CPUEncoder)
	}

	chosen := working[0]
	for _, c := range working {
		if s.preferred != "" && c.Encoder == s.preferred {
			chosen = c
			break
		}
	}

	s.mu.Lock()
	s.available = working
	s.current = chosen
	s.mu.Unlock()

	s.logger.Info("Encoder selected",
		zap.String("encoder", chosen.Encoder),
		zap.String("backend", string(chosen.Backend)))
}

// Current returns the encoder for the next transcode
func (s *EncoderSelector) Current() domain.EncoderChoice {
	if !s.IsReady() {
		return domain.CPUEncoder
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Available returns the encoders that passed the probe, in preference order
func (s *EncoderSelector) Available() []domain.EncoderChoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.EncoderChoice, len(s.available))
	copy(out, s.available)
	return out
}

// Use switches the current encoder to an available one by ffmpeg name
func (s *EncoderSelector) Use(name string) (domain.EncoderChoice, error) {
	if !s.IsReady() {
		return domain.EncoderChoice{}, fmt.Errorf("encoder probe still running")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.available {
		if c.Encoder == name {
			s.current = c
			s.logger.Info("Encoder changed", zap.String("encoder", name))
			return c, nil
		}
	}
	return domain.EncoderChoice{}, fmt.Errorf("encoder not available: %s", name)
}
