package rembg

import (
	"context"
	"image"
	"sync"

	"server/internal/domain"
)

// Segmenter is the external segmentation capability: preprocessed input in,
// single-channel foreground mask in [0,255] out.
type Segmenter interface {
	Segment(ctx context.Context, input Tensor) (*image.Gray, error)
}

// SegmenterFunc adapts a function to the Segmenter interface.
type SegmenterFunc func(ctx context.Context, input Tensor) (*image.Gray, error)

func (f SegmenterFunc) Segment(ctx context.Context, input Tensor) (*image.Gray, error) {
	return f(ctx, input)
}

// Service wraps a Segmenter behind a process-wide, lazily-initialized handle
// with explicit ready/unavailable states. Callers share one instance; the
// first Remove triggers initialization and later calls reuse it.
type Service struct {
	mu   sync.Mutex
	init func() (Segmenter, error)
	seg  Segmenter
}

// NewService builds a Service around an initializer. The initializer runs at
// most once per Reset cycle.
func NewService(init func() (Segmenter, error)) *Service {
	return &Service{init: init}
}

// Ready reports whether the capability has been initialized successfully.
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seg != nil
}

// Reset drops the loaded capability so the next call reinitializes. Exists
// for test isolation.
func (s *Service) Reset() {
	s.mu.Lock()
	s.seg = nil
	s.mu.Unlock()
}

func (s *Service) segmenter() (Segmenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seg != nil {
		return s.seg, nil
	}
	if s.init == nil {
		return nil, domain.E(domain.KindModelUnavailable, "no segmentation capability configured")
	}
	seg, err := s.init()
	if err != nil {
		return nil, domain.Wrap(domain.KindModelUnavailable, "initialize segmentation capability", err)
	}
	s.seg = seg
	return seg, nil
}
