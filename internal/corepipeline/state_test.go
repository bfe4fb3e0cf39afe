package corepipeline

import (
	"context"
	"testing"
)

func TestState_AppendSegmentEvictsOldest(t *testing.T) {
	s := NewState(WithTranscriptBufferSize(3))
	for i := 0; i < 5; i++ {
		s.AppendSegment(TranscriptSegment{Text: string(rune('a' + i)), IsFinal: true})
	}

	got := s.Transcript()
	if len(got) != 3 {
		t.Fatalf("len(Transcript()) = %d, want 3", len(got))
	}
	want := []string{"c", "d", "e"}
	for i, seg := range got {
		if seg.Text != want[i] {
			t.Fatalf("Transcript()[%d].Text = %q, want %q", i, seg.Text, want[i])
		}
	}
}

func TestState_AppendSentenceToBatchOverflow(t *testing.T) {
	s := NewState(WithBatchSize(3))

	for i, want := range []bool{false, false, true} {
		_, overflow := s.AppendSentenceToBatch("x")
		if overflow != want {
			t.Fatalf("AppendSentenceToBatch() overflow #%d = %v, want %v", i, overflow, want)
		}
	}
}

func TestState_DrainBatchEmptiesAndReturns(t *testing.T) {
	s := NewState(WithBatchSize(10))
	s.AppendSentenceToBatch("one")
	s.AppendSentenceToBatch("two")

	drained := s.DrainBatch()
	if len(drained) != 2 {
		t.Fatalf("len(DrainBatch()) = %d, want 2", len(drained))
	}

	again := s.DrainBatch()
	if len(again) != 0 {
		t.Fatalf("len(DrainBatch()) after drain = %d, want 0", len(again))
	}
}

func TestState_AddTopicNodeAssignsMonotonicIDsAndEdges(t *testing.T) {
	s := NewState()

	t0 := s.AddTopicNode("Solar Energy", []string{"solar", "energy"}, 1)
	t1 := s.AddTopicNode("AI Future", []string{"ai"}, 2)

	if t0 != 0 || t1 != 1 {
		t.Fatalf("topic ids = %d, %d, want 0, 1", t0, t1)
	}

	snap := s.SnapshotForExport()
	if len(snap.Edges) != 1 || snap.Edges[0] != (Edge{From: t0, To: t1}) {
		t.Fatalf("edges = %+v, want single edge %d->%d", snap.Edges, t0, t1)
	}
	if len(snap.TopicPath) != 2 || snap.TopicPath[0] != t0 || snap.TopicPath[1] != t1 {
		t.Fatalf("topic path = %+v, want [%d %d]", snap.TopicPath, t0, t1)
	}

	current, ok := s.CurrentTopic()
	if !ok || current != t1 {
		t.Fatalf("CurrentTopic() = %d, %v, want %d, true", current, ok, t1)
	}
}

func TestState_SwitchToTopicDoesNotAddEdge(t *testing.T) {
	s := NewState()
	t0 := s.AddTopicNode("Solar Energy", nil, 1)
	t1 := s.AddTopicNode("AI Future", nil, 2)

	if err := s.SwitchToTopic(t0); err != nil {
		t.Fatalf("SwitchToTopic: %v", err)
	}

	snap := s.SnapshotForExport()
	if len(snap.Edges) != 1 {
		t.Fatalf("len(Edges) = %d, want 1 (reuse must not add an edge)", len(snap.Edges))
	}
	want := []TopicID{t0, t1, t0}
	if len(snap.TopicPath) != len(want) {
		t.Fatalf("topic path = %+v, want %+v", snap.TopicPath, want)
	}
	for i := range want {
		if snap.TopicPath[i] != want[i] {
			t.Fatalf("topic path = %+v, want %+v", snap.TopicPath, want)
		}
	}

	nodes := s.Nodes()
	for _, n := range nodes {
		if n.ID == t0 && n.SentenceCount != 2 {
			t.Fatalf("SentenceCount(t0) = %d, want 2", n.SentenceCount)
		}
		if n.ID == t1 && n.SentenceCount != 1 {
			t.Fatalf("SentenceCount(t1) = %d, want 1", n.SentenceCount)
		}
	}
}

func TestState_SwitchToTopicUnknownIDIsInvariantError(t *testing.T) {
	s := NewState()
	s.AddTopicNode("Solar Energy", nil, 1)

	err := s.SwitchToTopic(TopicID(99))
	if err == nil {
		t.Fatal("SwitchToTopic(unknown) err = nil, want *InvariantError")
	}
	if _, ok := err.(*InvariantError); !ok {
		t.Fatalf("SwitchToTopic(unknown) err = %T, want *InvariantError", err)
	}
}

func TestState_RecordTopicImageIsIdempotent(t *testing.T) {
	s := NewState()
	t0 := s.AddTopicNode("Solar Energy", nil, 1)
	url := "https://example.com/solar.png"

	s.RecordTopicImage(t0, "Solar Energy", &url)
	s.RecordTopicImage(t0, "Solar Energy", &url)
	s.RecordTopicImage(t0, "Solar Energy", &url)

	snap := s.SnapshotForExport()
	count := 0
	for _, img := range snap.TopicImages {
		if img.TopicID == t0 {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("topic image entries for t0 = %d, want 1", count)
	}
}

func TestState_RecordTopicImageDistinctURLsAreNotDeduped(t *testing.T) {
	s := NewState()
	t0 := s.AddTopicNode("Solar Energy", nil, 1)
	a, b := "https://example.com/a.png", "https://example.com/b.png"

	s.RecordTopicImage(t0, "Solar Energy", &a)
	s.RecordTopicImage(t0, "Solar Energy", &b)
	s.RecordTopicImage(t0, "Solar Energy", nil)

	snap := s.SnapshotForExport()
	count := 0
	for _, img := range snap.TopicImages {
		if img.TopicID == t0 {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("topic image entries for t0 = %d, want 3", count)
	}
}

func TestState_AppendFactResultPreservesOrder(t *testing.T) {
	s := NewState()
	s.AppendFactResult(FactResult{Claim: "first", Verdict: VerdictSupported})
	s.AppendFactResult(FactResult{Claim: "second", Verdict: VerdictRefuted})

	got := s.FactResults()
	if len(got) != 2 || got[0].Claim != "first" || got[1].Claim != "second" {
		t.Fatalf("FactResults() = %+v, want first then second", got)
	}
}

func TestState_StatsReflectsMutations(t *testing.T) {
	s := NewState(WithBatchSize(10))
	s.AddTopicNode("Solar Energy", nil, 1)
	s.AddTopicNode("AI Future", nil, 2)
	s.AppendSentenceToBatch("x")
	s.EnqueueClaim("claim one")
	s.AppendFactResult(FactResult{Claim: "claim one", Verdict: VerdictSupported})

	stats := s.Stats()
	if stats.TopicCount != 2 {
		t.Fatalf("TopicCount = %d, want 2", stats.TopicCount)
	}
	if stats.EdgeCount != 1 {
		t.Fatalf("EdgeCount = %d, want 1", stats.EdgeCount)
	}
	if stats.FactQueueDepth != 1 {
		t.Fatalf("FactQueueDepth = %d, want 1", stats.FactQueueDepth)
	}
	if stats.FactResultCount != 1 {
		t.Fatalf("FactResultCount = %d, want 1", stats.FactResultCount)
	}
	if stats.SentencesIngested != 1 {
		t.Fatalf("SentencesIngested = %d, want 1", stats.SentencesIngested)
	}
}

func TestState_EnqueueDequeueClaimRoundTrips(t *testing.T) {
	s := NewState()
	s.EnqueueClaim("claim")

	got, err := s.DequeueClaim(context.Background())
	if err != nil {
		t.Fatalf("DequeueClaim: %v", err)
	}
	if got != "claim" {
		t.Fatalf("DequeueClaim() = %q, want %q", got, "claim")
	}
}

func TestState_NodesOrderedByIDAscending(t *testing.T) {
	s := NewState()
	s.AddTopicNode("first", nil, 1)
	s.AddTopicNode("second", nil, 2)
	s.AddTopicNode("third", nil, 3)

	nodes := s.Nodes()
	for i := 1; i < len(nodes); i++ {
		if nodes[i-1].ID >= nodes[i].ID {
			t.Fatalf("Nodes() not ascending by id: %+v", nodes)
		}
	}
}
