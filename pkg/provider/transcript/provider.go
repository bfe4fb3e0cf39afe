// Package transcript defines the upstream contract for a speech-to-text
// source: a stream of partial and final transcript events.
//
// Unlike a full STT provider, this package never deals in raw audio — audio
// capture, decoding, and the wire protocol to the recognition backend are
// explicitly out of scope for the pipeline (see the system's non-goals).
// Source only has to produce the events the pipeline consumes.
package transcript

import "context"

// Event is a single partial or final transcript event emitted by an
// upstream speech-to-text source.
type Event struct {
	// Text is the transcribed speech content.
	Text string

	// IsFinal distinguishes an authoritative transcript (IsFinal=true)
	// from a low-latency interim guess (IsFinal=false). Only final events
	// advance pipeline state counters.
	IsFinal bool

	// Confidence is the provider's overall confidence score, in [0,1].
	// Zero if the provider does not report confidence.
	Confidence float64

	// Timestamp is the event's wall-clock occurrence time, in Unix
	// nanoseconds, as reported or stamped by the source.
	Timestamp int64
}

// Source streams transcript Events from an upstream provider (a live
// recognition session, a recorded fixture, a test harness).
//
// Implementations must be safe for concurrent use. Events must be safe to
// close concurrently with a blocked reader draining Events.
type Source interface {
	// Events returns a read-only channel of transcript Events. The channel
	// is closed when the session ends, either because the upstream source
	// finished or ctx (passed to whatever opened the Source) was
	// cancelled.
	Events() <-chan Event

	// Err returns the terminal error that caused Events to close, or nil
	// if the session ended cleanly (upstream EOF, or ctx cancellation).
	// Err must not be called before Events is closed.
	Err() error

	// Close terminates the session and releases any associated resources.
	// Calling Close more than once is safe and returns nil.
	Close() error
}

// Open starts a new transcript Source. Implementations of this function
// type live alongside concrete Source implementations (e.g. a websocket
// client, a fixture replayer) and are the construction boundary the
// pipeline depends on instead of any specific transport.
type Open func(ctx context.Context) (Source, error)
