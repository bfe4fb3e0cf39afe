package corepipeline

import (
	"context"
	"sort"
	"sync"
)

const (
	defaultTranscriptBufferSize = 100
	defaultBatchSize            = 10
)

// Option configures a [State] during construction.
type Option func(*State)

// WithTranscriptBufferSize overrides the number of recent transcript
// segments retained. The default is 100.
func WithTranscriptBufferSize(n int) Option {
	return func(s *State) { s.transcriptMax = n }
}

// WithBatchSize overrides the claim-selection batch size. The default is
// 10.
func WithBatchSize(n int) Option {
	return func(s *State) { s.batchSize = n }
}

// State is the single authoritative owner of all pipeline-mutable data: the
// transcript buffer, the sentence batch awaiting claim selection, the topic
// graph and its append-only path log, topic images, the fact queue, and the
// fact result log.
//
// Every mutation method is internally serialized: it mutates under lock,
// copies out whatever the caller needs, and unlocks before the caller does
// any I/O — the same shape as the teacher's Orchestrator/UtteranceBuffer
// pair. Callers never hold State's lock across a network call.
//
// All exported methods are safe for concurrent use.
type State struct {
	mu sync.RWMutex

	transcript    []TranscriptSegment
	transcriptMax int

	batch     []string
	batchSize int

	sentencesIngested int

	nodes           map[TopicID]*TopicNode
	nextTopicID     TopicID
	edges           []Edge
	currentTopicID  TopicID
	hasCurrentTopic bool
	topicPath       []TopicID

	topicImages []TopicImage

	factResults []FactResult

	queue *factQueue
}

// NewState creates an empty State with default limits, overridden by opts.
func NewState(opts ...Option) *State {
	s := &State{
		transcriptMax: defaultTranscriptBufferSize,
		batchSize:     defaultBatchSize,
		nodes:         make(map[TopicID]*TopicNode),
		queue:         newFactQueue(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// BatchSize returns the configured claim-selection batch size.
func (s *State) BatchSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batchSize
}

// AppendSegment records a transcript event. The buffer retains at most
// transcriptMax entries; the oldest are dropped first. Segments are never
// mutated after insertion.
func (s *State) AppendSegment(seg TranscriptSegment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, seg)
	if len(s.transcript) > s.transcriptMax {
		fresh := make([]TranscriptSegment, s.transcriptMax)
		copy(fresh, s.transcript[len(s.transcript)-s.transcriptMax:])
		s.transcript = fresh
	}
}

// Transcript returns a copy of the currently retained transcript segments,
// oldest first.
func (s *State) Transcript() []TranscriptSegment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TranscriptSegment, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// AppendSentenceToBatch appends text to the pending sentence batch and
// reports the new size and whether it has reached batchSize. The caller
// (transcript ingest) decides whether to drain based on overflow.
func (s *State) AppendSentenceToBatch(text string) (newSize int, overflow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch = append(s.batch, text)
	s.sentencesIngested++
	newSize = len(s.batch)
	overflow = newSize >= s.batchSize
	return newSize, overflow
}

// DrainBatch atomically empties the pending sentence batch and returns its
// former contents.
func (s *State) DrainBatch() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.batch
	s.batch = nil
	return out
}

// EnqueueClaim appends text to the fact queue and returns the resulting
// queue depth. Never blocks.
func (s *State) EnqueueClaim(text string) int {
	return s.queue.Enqueue(text)
}

// DequeueClaim blocks until a claim is available or ctx is cancelled.
func (s *State) DequeueClaim(ctx context.Context) (string, error) {
	return s.queue.Dequeue(ctx)
}

// AddTopicNode creates a new TopicNode for topic/keywords, assigns it the
// next monotonic id, and makes it the current topic. If a current topic
// already existed, an edge from it to the new node is added — reuse never
// reaches this path, so edges are added strictly on creation, preserving
// acyclicity (invariant 1).
func (s *State) AddTopicNode(topic string, keywords []string, ts int64) TopicID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextTopicID
	s.nextTopicID++

	s.nodes[id] = &TopicNode{
		ID:            id,
		Topic:         topic,
		Keywords:      keywords,
		Timestamp:     ts,
		SentenceCount: 1,
	}

	if s.hasCurrentTopic {
		s.edges = append(s.edges, Edge{From: s.currentTopicID, To: id})
	}
	s.currentTopicID = id
	s.hasCurrentTopic = true
	s.topicPath = append(s.topicPath, id)

	return id
}

// SwitchToTopic makes an existing node the current topic without adding an
// edge: the conversation returned to a topic it already visited.
//
// Returns an *InvariantError if id does not name an existing node — calling
// SwitchToTopic with an unknown id is a bug in the caller (the topic engine
// only ever switches to ids it just found via similarity search against
// the current node set), never an expected runtime condition.
func (s *State) SwitchToTopic(id TopicID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return raiseInvariant("SwitchToTopic", "topic id does not exist in the graph")
	}

	node.SentenceCount++
	s.currentTopicID = id
	s.hasCurrentTopic = true
	s.topicPath = append(s.topicPath, id)
	return nil
}

// RecordTopicImage appends one image-resolution attempt for topicID.
// Idempotent: a repeated call with the same (topicID, url) pair is a no-op
// so the image-enrichment task can retry its bookkeeping without
// duplicating history.
func (s *State) RecordTopicImage(topicID TopicID, topicText string, url *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.topicImages {
		if existing.TopicID == topicID && sameImageURL(existing.ImageURL, url) {
			return
		}
	}

	s.topicImages = append(s.topicImages, TopicImage{
		TopicID:   topicID,
		TopicText: topicText,
		ImageURL:  url,
	})
	if node, ok := s.nodes[topicID]; ok {
		node.ImageURL = url
	}
}

func sameImageURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// AppendFactResult appends r to the fact result log. Callers (the
// verification worker) are the only source of FactResults and always call
// this in the order they dequeued the corresponding claim, so the log is
// naturally in dequeue order (invariant 7).
func (s *State) AppendFactResult(r FactResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factResults = append(s.factResults, r)
}

// FactResults returns a copy of the fact result log, in append order.
func (s *State) FactResults() []FactResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FactResult, len(s.factResults))
	copy(out, s.factResults)
	return out
}

// Nodes returns a copy of all topic nodes, ordered by id ascending. The
// topic engine relies on this ordering to break similarity ties in favor
// of the earliest-created node.
func (s *State) Nodes() []TopicNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TopicNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CurrentTopic returns the current topic id and true, or the zero value and
// false if no topic has been created yet.
func (s *State) CurrentTopic() (TopicID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTopicID, s.hasCurrentTopic
}

// Stats returns a cheap, non-mutating snapshot of aggregate counters.
func (s *State) Stats() PipelineStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return PipelineStats{
		TopicCount:        len(s.nodes),
		EdgeCount:         len(s.edges),
		FactQueueDepth:    s.queue.Len(),
		FactResultCount:   len(s.factResults),
		SentencesIngested: s.sentencesIngested,
	}
}

// SnapshotForExport returns the full exportable state of the topic graph:
// nodes, edges, the topic path, and topic images. Intended for on-demand
// export and for [Replay] round-trips.
func (s *State) SnapshotForExport() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]TopicNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := make([]Edge, len(s.edges))
	copy(edges, s.edges)

	path := make([]TopicID, len(s.topicPath))
	copy(path, s.topicPath)

	images := make([]TopicImage, len(s.topicImages))
	copy(images, s.topicImages)

	return Snapshot{
		Nodes:       nodes,
		Edges:       edges,
		TopicPath:   path,
		TopicImages: images,
		Metadata:    map[string]string{},
	}
}
