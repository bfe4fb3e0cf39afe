package corepipeline

// Observer receives downstream notifications as the pipeline runs. All
// methods must be safe for concurrent use and must not block the caller for
// long: an Observer that needs to do slow I/O should hand the notification
// off to its own buffered channel or goroutine.
type Observer interface {
	OnTranscript(TranscriptNotification)
	OnTopicUpdate(TopicUpdateNotification)
	OnClaimSelected(ClaimSelectedNotification)
	OnFactResult(FactResult)
	OnError(ErrorNotification)
}

// TranscriptNotification mirrors one ingested transcript event.
type TranscriptNotification struct {
	Text       string
	IsFinal    bool
	Confidence float64
}

// TopicUpdateNotification is emitted every time the topic engine creates a
// new topic or reuses an existing one.
type TopicUpdateNotification struct {
	TopicID     TopicID
	Topic       string
	Keywords    []string
	IsNew       bool
	ImageURL    *string
	TotalTopics int
}

// ClaimSelectedNotification is emitted once per claim enqueued by the
// claim-selection step.
type ClaimSelectedNotification struct {
	Claim     string
	QueueSize int
}

// ErrorKind classifies an ErrorNotification by which taxonomy member
// produced it.
type ErrorKind string

const (
	ErrorKindTransport ErrorKind = "transport"
	ErrorKindAuth      ErrorKind = "auth"
	ErrorKindParse     ErrorKind = "parse"
	ErrorKindPolicy    ErrorKind = "policy"
	ErrorKindInvariant ErrorKind = "invariant"
)

// ErrorNotification carries a classified pipeline failure to observers.
// Emitting one never stops the transcript or topic streams.
type ErrorNotification struct {
	Kind    ErrorKind
	Message string
}

// NopObserver discards every notification. Useful as a default when the
// caller does not need downstream notifications, and as an embeddable base
// for observers that only care about a subset of methods.
type NopObserver struct{}

func (NopObserver) OnTranscript(TranscriptNotification)     {}
func (NopObserver) OnTopicUpdate(TopicUpdateNotification)   {}
func (NopObserver) OnClaimSelected(ClaimSelectedNotification) {}
func (NopObserver) OnFactResult(FactResult)                 {}
func (NopObserver) OnError(ErrorNotification)               {}

var _ Observer = NopObserver{}

// MultiObserver fans every notification out to each of its member Observers,
// in order. Use it to combine, e.g., a metrics observer with a logging one
// without either needing to know about the other.
type MultiObserver []Observer

func (m MultiObserver) OnTranscript(n TranscriptNotification) {
	for _, o := range m {
		o.OnTranscript(n)
	}
}

func (m MultiObserver) OnTopicUpdate(n TopicUpdateNotification) {
	for _, o := range m {
		o.OnTopicUpdate(n)
	}
}

func (m MultiObserver) OnClaimSelected(n ClaimSelectedNotification) {
	for _, o := range m {
		o.OnClaimSelected(n)
	}
}

func (m MultiObserver) OnFactResult(r FactResult) {
	for _, o := range m {
		o.OnFactResult(r)
	}
}

func (m MultiObserver) OnError(n ErrorNotification) {
	for _, o := range m {
		o.OnError(n)
	}
}

var _ Observer = MultiObserver(nil)
