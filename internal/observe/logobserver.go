package observe

import (
	"log/slog"

	"github.com/livecortex/livecortex/internal/corepipeline"
)

// LogObserver adapts slog into a [corepipeline.Observer], logging one line
// per notification at a level appropriate to its severity. Topic updates and
// claim selections log at debug (high-frequency, useful mostly when
// diagnosing a specific run); fact results and errors log at info and warn
// respectively since they are the pipeline's actual output.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver returns a LogObserver writing through logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnTranscript(n corepipeline.TranscriptNotification) {
	o.logger.Debug("transcript segment",
		"is_final", n.IsFinal,
		"confidence", n.Confidence,
		"len", len(n.Text),
	)
}

func (o *LogObserver) OnTopicUpdate(n corepipeline.TopicUpdateNotification) {
	o.logger.Debug("topic update",
		"topic_id", n.TopicID,
		"topic", n.Topic,
		"is_new", n.IsNew,
		"total_topics", n.TotalTopics,
	)
}

func (o *LogObserver) OnClaimSelected(n corepipeline.ClaimSelectedNotification) {
	o.logger.Debug("claim selected",
		"claim", n.Claim,
		"queue_size", n.QueueSize,
	)
}

func (o *LogObserver) OnFactResult(r corepipeline.FactResult) {
	o.logger.Info("fact result",
		"claim", r.Claim,
		"verdict", r.Verdict,
		"confidence", r.Confidence,
	)
}

func (o *LogObserver) OnError(n corepipeline.ErrorNotification) {
	o.logger.Warn("pipeline error",
		"kind", n.Kind,
		"message", n.Message,
	)
}

var _ corepipeline.Observer = (*LogObserver)(nil)
