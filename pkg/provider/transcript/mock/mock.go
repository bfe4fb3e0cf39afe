// Package mock provides a test double for the transcript package
// interfaces.
//
// Use Source to feed a controlled sequence of Events to a test ingest loop
// without a live speech-to-text backend.
//
// Example:
//
//	src := &mock.Source{EventsCh: make(chan transcript.Event, 4)}
//	src.EventsCh <- transcript.Event{Text: "hello", IsFinal: true}
//	close(src.EventsCh)
package mock

import (
	"sync"

	"github.com/livecortex/livecortex/pkg/provider/transcript"
)

// Source is a mock implementation of transcript.Source. Callers own
// EventsCh: send Events to it and close it when the session should end.
type Source struct {
	mu sync.Mutex

	// EventsCh is the channel returned by Events(). Callers own this
	// channel and are responsible for sending to and closing it in tests.
	EventsCh chan transcript.Event

	// TerminalErr is returned by Err() after EventsCh is closed.
	TerminalErr error

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int
}

// Events implements transcript.Source.
func (s *Source) Events() <-chan transcript.Event {
	return s.EventsCh
}

// Err implements transcript.Source.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TerminalErr
}

// Close implements transcript.Source.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return s.CloseErr
}

// Ensure Source implements transcript.Source at compile time.
var _ transcript.Source = (*Source)(nil)
