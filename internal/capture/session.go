// Package capture manages the lifecycle of a live camera capture session.
// The camera is an exclusively-owned hardware resource between acquisition
// and release, so every path through a session must end with the stream
// closed.
package capture

import (
	"context"
	"image"
	"sync"

	"server/internal/domain"
)

// State is the capture session lifecycle.
type State int

const (
	Idle State = iota
	RequestingPermission
	Previewing
	Capturing
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RequestingPermission:
		return "requesting_permission"
	case Previewing:
		return "previewing"
	case Capturing:
		return "capturing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Device is a camera-like frame source.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open device stream. Close releases the hardware.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Session drives one capture through the state machine
// Idle -> RequestingPermission -> Previewing -> Capturing -> Closed.
// Stop is reachable from every non-terminal state.
type Session struct {
	mu     sync.Mutex
	state  State
	device Device
	stream Stream
}

func NewSession(device Device) *Session {
	return &Session{device: device, state: Idle}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start acquires the device stream and moves the session into Previewing.
// Acquisition failure closes the session; a partially-constructed stream is
// torn down before returning.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		state := s.state
		s.mu.Unlock()
		return domain.Ef(domain.KindCameraUnavailable, "cannot start capture from state %s", state)
	}
	s.state = RequestingPermission
	device := s.device
	s.mu.Unlock()

	stream, err := device.Open(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		// Stopped while permission was pending; release whatever we got.
		if stream != nil {
			_ = stream.Close()
		}
		return domain.E(domain.KindCameraUnavailable, "capture stopped before the stream opened")
	}
	if err != nil {
		s.state = Closed
		return domain.Wrap(domain.KindCameraUnavailable, "acquire camera stream", err)
	}
	s.stream = stream
	s.state = Previewing
	return nil
}

// Capture grabs one frame and releases the hardware immediately, whether or
// not the grab succeeds. The session ends Closed either way.
func (s *Session) Capture(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if s.state != Previewing {
		state := s.state
		s.mu.Unlock()
		return nil, domain.Ef(domain.KindCameraUnavailable, "cannot capture from state %s", state)
	}
	s.state = Capturing
	stream := s.stream
	s.mu.Unlock()

	frame, err := stream.Frame(ctx)

	s.mu.Lock()
	s.state = Closed
	s.stream = nil
	s.mu.Unlock()
	_ = stream.Close()

	if err != nil {
		return nil, domain.Wrap(domain.KindCameraUnavailable, "capture frame", err)
	}
	return frame, nil
}

// Stop closes the session from any non-terminal state and releases the
// stream if one is open. Safe to call repeatedly.
func (s *Session) Stop() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.state = Closed
	s.mu.Unlock()

	if stream != nil {
		_ = stream.Close()
	}
}
