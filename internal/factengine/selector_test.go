package factengine

import (
	"context"
	"testing"

	"github.com/livecortex/livecortex/internal/corepipeline"
	"github.com/livecortex/livecortex/pkg/provider/llm"
	"github.com/livecortex/livecortex/pkg/provider/llm/mock"
)

func TestSelector_EnqueuesClaimsUpToMax(t *testing.T) {
	state := corepipeline.NewState()
	provider := &mock.Provider{
		CompleteResponse: &llm.Response{Content: `{"selected_claims": [
			{"claim": "The moon is 384,400 km from Earth.", "reason": "factual distance"},
			{"claim": "Water boils at 100C at sea level.", "reason": "factual constant"},
			{"claim": "This is a great movie.", "reason": "opinion, should not count"}
		]}`},
	}

	sel := NewSelector(provider, state, nil, WithMaxClaimsPerBatch(2))
	sel.RunClaimSelection(context.Background(), []string{"some", "sentences"}, 0)

	claim1, err := state.DequeueClaim(context.Background())
	if err != nil {
		t.Fatalf("DequeueClaim: %v", err)
	}
	if claim1 != "The moon is 384,400 km from Earth." {
		t.Errorf("claim1 = %q", claim1)
	}

	claim2, err := state.DequeueClaim(context.Background())
	if err != nil {
		t.Fatalf("DequeueClaim: %v", err)
	}
	if claim2 != "Water boils at 100C at sea level." {
		t.Errorf("claim2 = %q", claim2)
	}

	if got := state.Stats().FactQueueDepth; got != 0 {
		t.Errorf("FactQueueDepth = %d, want 0 (third claim should have been truncated)", got)
	}
}

func TestSelector_EmptyBatchSkipsCall(t *testing.T) {
	state := corepipeline.NewState()
	provider := &mock.Provider{}

	sel := NewSelector(provider, state, nil)
	sel.RunClaimSelection(context.Background(), nil, 0)

	if len(provider.CompleteCalls) != 0 {
		t.Errorf("Complete called %d times, want 0 for an empty batch", len(provider.CompleteCalls))
	}
}

type recordingObserver struct {
	corepipeline.NopObserver
	claims []corepipeline.ClaimSelectedNotification
	errs   []corepipeline.ErrorNotification
}

func (o *recordingObserver) OnClaimSelected(n corepipeline.ClaimSelectedNotification) {
	o.claims = append(o.claims, n)
}

func (o *recordingObserver) OnError(n corepipeline.ErrorNotification) {
	o.errs = append(o.errs, n)
}

func TestSelector_NoCheckableClaimsEmitsNothing(t *testing.T) {
	state := corepipeline.NewState()
	provider := &mock.Provider{CompleteResponse: &llm.Response{Content: `{"selected_claims": []}`}}
	obs := &recordingObserver{}

	sel := NewSelector(provider, state, obs)
	sel.RunClaimSelection(context.Background(), []string{"how are you"}, 0)

	if len(obs.claims) != 0 {
		t.Errorf("claims notified = %d, want 0", len(obs.claims))
	}
	if got := state.Stats().FactQueueDepth; got != 0 {
		t.Errorf("FactQueueDepth = %d, want 0", got)
	}
}

func TestSelector_ParseErrorReportsAndDoesNotEnqueue(t *testing.T) {
	state := corepipeline.NewState()
	provider := &mock.Provider{CompleteResponse: &llm.Response{Content: "not json"}}
	obs := &recordingObserver{}

	sel := NewSelector(provider, state, obs)
	sel.RunClaimSelection(context.Background(), []string{"x"}, 0)

	if len(obs.errs) != 1 {
		t.Fatalf("errors reported = %d, want 1", len(obs.errs))
	}
	if obs.errs[0].Kind != corepipeline.ErrorKindParse {
		t.Errorf("error kind = %v, want parse", obs.errs[0].Kind)
	}
	if got := state.Stats().FactQueueDepth; got != 0 {
		t.Errorf("FactQueueDepth = %d, want 0", got)
	}
}

func TestSelector_TransportErrorReportsAndDoesNotEnqueue(t *testing.T) {
	state := corepipeline.NewState()
	provider := &mock.Provider{CompleteErr: &llm.TransportError{Provider: "mock"}}
	obs := &recordingObserver{}

	sel := NewSelector(provider, state, obs)
	sel.RunClaimSelection(context.Background(), []string{"x"}, 0)

	if len(obs.errs) != 1 {
		t.Fatalf("errors reported = %d, want 1", len(obs.errs))
	}
	if obs.errs[0].Kind != corepipeline.ErrorKindTransport {
		t.Errorf("error kind = %v, want transport", obs.errs[0].Kind)
	}
}
