package mock

import (
	"testing"

	"github.com/livecortex/livecortex/pkg/provider/transcript"
)

func TestSource_EventsDeliversInOrder(t *testing.T) {
	src := &Source{EventsCh: make(chan transcript.Event, 2)}
	src.EventsCh <- transcript.Event{Text: "partial", IsFinal: false}
	src.EventsCh <- transcript.Event{Text: "final.", IsFinal: true}
	close(src.EventsCh)

	var got []transcript.Event
	for ev := range src.Events() {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].IsFinal {
		t.Error("expected first event to be partial")
	}
	if !got[1].IsFinal {
		t.Error("expected second event to be final")
	}
}

func TestSource_CloseIsIdempotent(t *testing.T) {
	src := &Source{EventsCh: make(chan transcript.Event)}
	if err := src.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
	if src.CloseCallCount != 2 {
		t.Errorf("expected CloseCallCount=2, got %d", src.CloseCallCount)
	}
}

func TestSource_ErrReturnsTerminalError(t *testing.T) {
	boom := &testError{"boom"}
	src := &Source{TerminalErr: boom}
	if src.Err() != boom {
		t.Errorf("expected Err() to return configured terminal error, got %v", src.Err())
	}
}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
