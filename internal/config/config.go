// Package config provides the configuration schema, loader, and provider
// registry for the livecortex conversation-understanding pipeline.
package config

// Config is the root configuration structure for livecortex.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Search    SearchConfig    `yaml:"search"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig holds network and logging settings for the demo HTTP surface
// (health and Prometheus metrics only — see SPEC_FULL §1 on transport being
// out of the core).
type ServerConfig struct {
	// ListenAddr is the TCP address the health/metrics server listens on
	// (e.g., ":8080"). Empty disables the HTTP surface.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`
}

// LogLevel is a validated log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is one of the enumerated log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	default:
		return false
	}
}

// PipelineConfig holds the tunables enumerated in SPEC_FULL §6: the
// transcript-ingest thresholds, the topic-reuse cutoff, and the fact-check
// worker's rate limit.
type PipelineConfig struct {
	// TranscriptBufferSize bounds the retained transcript segment history.
	// Default 100.
	TranscriptBufferSize int `yaml:"transcript_buffer_size"`

	// TopicUpdateThreshold is the number of final sentences between
	// topic-update dispatches. Default 5.
	TopicUpdateThreshold int `yaml:"topic_update_threshold"`

	// ClaimSelectionBatchSize is the number of sentences per
	// claim-selection batch. Default 10.
	ClaimSelectionBatchSize int `yaml:"claim_selection_batch_size"`

	// MaxClaimsPerBatch upper-bounds claims enqueued per batch. Default 2.
	MaxClaimsPerBatch int `yaml:"max_claims_per_batch"`

	// FactCheckRateLimitSeconds is the minimum spacing, in seconds,
	// between verification pipeline starts. Default 10.
	FactCheckRateLimitSeconds int `yaml:"fact_check_rate_limit_seconds"`

	// SimilarityThreshold is the topic-reuse cutoff in [0,1]. Default 0.7.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// TopicExtraction, ClaimSelection, QueryOptimization, and
	// Verification each parameterize one LLM call type. Temperature is
	// applied to all four call types; MaxTokens is applied to topic
	// extraction and claim selection only. Model is not read: every call
	// uses the model of the configured LLM provider entry.
	TopicExtraction   LLMCallConfig `yaml:"topic_extraction"`
	ClaimSelection    LLMCallConfig `yaml:"claim_selection"`
	QueryOptimization LLMCallConfig `yaml:"query_optimization"`
	Verification      LLMCallConfig `yaml:"verification"`
}

// LLMCallConfig parameterizes a single category of LLM call.
type LLMCallConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// SearchConfig holds web-search tunables shared by evidence retrieval and
// image enrichment.
type SearchConfig struct {
	// MaxResults caps the number of results requested per search call.
	// Default 5.
	MaxResults int `yaml:"max_results"`

	// SafeSearch is the content-filtering level. Default "strict".
	SafeSearch SafeSearchLevel `yaml:"safesearch"`

	// Region is a locale hint (e.g. "us-en"). Default "worldwide".
	Region string `yaml:"region"`

	// URLBlocklist is a set of hostname patterns (exact host or leading
	// "*." wildcard) whose results are dropped before verification sees
	// them (SPEC_FULL §4.4.2 evidence filtering).
	URLBlocklist []string `yaml:"url_blocklist"`
}

// SafeSearchLevel is a validated safe-search setting.
type SafeSearchLevel string

const (
	SafeSearchOff      SafeSearchLevel = "off"
	SafeSearchModerate SafeSearchLevel = "moderate"
	SafeSearchStrict   SafeSearchLevel = "strict"
)

// IsValid reports whether s is one of the enumerated safe-search levels.
func (s SafeSearchLevel) IsValid() bool {
	switch s {
	case SafeSearchOff, SafeSearchModerate, SafeSearchStrict:
		return true
	default:
		return false
	}
}

// ProvidersConfig declares which provider implementation to use for the
// two external capabilities the core depends on. Each field selects a
// named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM    ProviderEntry `yaml:"llm"`
	Search ProviderEntry `yaml:"search"`
}

// ProviderEntry is the common configuration block shared by both provider
// types.
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai",
	// "anyllm", "searxng").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API. Secrets
	// are expected to flow in from the environment (see cmd/livecortexd),
	// not be committed to the YAML file, but the field exists so tests
	// can construct providers without environment plumbing.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Leave empty
	// to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects the model within the provider; it is used for every
	// LLM call, whatever the call type.
	Model string `yaml:"model"`

	// Backend names the underlying LLM backend for meta-providers that
	// front more than one API (e.g. "anyllm" dispatching to "openai",
	// "anthropic", "ollama"). Ignored by providers that only ever speak
	// to one backend.
	Backend string `yaml:"backend"`
}
