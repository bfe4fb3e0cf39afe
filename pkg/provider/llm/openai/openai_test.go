package openai

import (
	"testing"

	"github.com/livecortex/livecortex/pkg/provider/llm"
)

// TestConvertMessage_System checks that system role is converted correctly.
func TestConvertMessage_System(t *testing.T) {
	msg := llm.Message{Role: "system", Content: "You are helpful."}
	param := convertMessage(msg)
	if param.OfSystem == nil {
		t.Fatal("expected OfSystem to be set")
	}
}

// TestConvertMessage_User checks that user role is converted correctly.
func TestConvertMessage_User(t *testing.T) {
	msg := llm.Message{Role: "user", Content: "Hello!"}
	param := convertMessage(msg)
	if param.OfUser == nil {
		t.Fatal("expected OfUser to be set")
	}
}

// TestConvertMessage_Assistant checks that assistant role is converted.
func TestConvertMessage_Assistant(t *testing.T) {
	msg := llm.Message{Role: "assistant", Content: "Hi there!"}
	param := convertMessage(msg)
	if param.OfAssistant == nil {
		t.Fatal("expected OfAssistant to be set")
	}
}

// TestConvertMessage_UnknownRoleDefaultsToUser checks the fallback behavior:
// an unrecognized role is treated as a user turn rather than rejected, since
// the pipeline only ever emits "system"/"user"/"assistant" itself.
func TestConvertMessage_UnknownRoleDefaultsToUser(t *testing.T) {
	msg := llm.Message{Role: "unknown", Content: "test"}
	param := convertMessage(msg)
	if param.OfUser == nil {
		t.Fatal("expected unknown role to fall back to OfUser")
	}
}

// TestNew_MissingAPIKey ensures constructor rejects an empty API key.
func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New("", "gpt-4o")
	if err == nil {
		t.Fatal("expected error for empty API key")
	}
}

// TestNew_MissingModel ensures constructor rejects an empty model.
func TestNew_MissingModel(t *testing.T) {
	_, err := New("sk-test", "")
	if err == nil {
		t.Fatal("expected error for empty model")
	}
}

// TestNew_Options checks that optional settings are accepted without error.
func TestNew_Options(t *testing.T) {
	_, err := New("sk-test", "gpt-4o",
		WithBaseURL("https://custom.example.com"),
		WithOrganization("org-123"),
	)
	if err != nil {
		t.Fatalf("unexpected error with valid options: %v", err)
	}
}

// TestBuildParams_IncludesSystemPrompt verifies the system prompt, when set,
// is prepended as a separate message ahead of the conversation history.
func TestBuildParams_IncludesSystemPrompt(t *testing.T) {
	p := &Provider{model: "gpt-4o"}
	req := llm.Request{
		SystemPrompt: "Be terse.",
		Messages:     []llm.Message{{Role: "user", Content: "hi"}},
		Temperature:  0.2,
		MaxTokens:    128,
	}
	params := p.buildParams(req)
	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages (system + user), got %d", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("expected first message to be system")
	}
}
