package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// defaults mirror SPEC_FULL §6's enumerated default values. Load and
// LoadFromReader apply them to any zero-valued field after decoding.
const (
	defaultTranscriptBufferSize     = 100
	defaultTopicUpdateThreshold     = 5
	defaultClaimSelectionBatchSize  = 10
	defaultMaxClaimsPerBatch        = 2
	defaultFactCheckRateLimitSecs   = 10
	defaultSimilarityThreshold      = 0.7
	defaultSearchMaxResults         = 5
	defaultSearchRegion             = "worldwide"
)

// ValidProviderNames lists known provider names per provider kind. Used by
// [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":    {"openai", "anyllm"},
	"search": {"searxng"},
}

// Load reads the YAML configuration file at path, applies defaults, and
// returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills every zero-valued tunable in cfg with the default from
// SPEC_FULL §6. Called automatically by [LoadFromReader]; exported so tests
// and programmatic callers building a Config by hand can reuse it.
func ApplyDefaults(cfg *Config) {
	p := &cfg.Pipeline
	if p.TranscriptBufferSize == 0 {
		p.TranscriptBufferSize = defaultTranscriptBufferSize
	}
	if p.TopicUpdateThreshold == 0 {
		p.TopicUpdateThreshold = defaultTopicUpdateThreshold
	}
	if p.ClaimSelectionBatchSize == 0 {
		p.ClaimSelectionBatchSize = defaultClaimSelectionBatchSize
	}
	if p.MaxClaimsPerBatch == 0 {
		p.MaxClaimsPerBatch = defaultMaxClaimsPerBatch
	}
	if p.FactCheckRateLimitSeconds == 0 {
		p.FactCheckRateLimitSeconds = defaultFactCheckRateLimitSecs
	}
	if p.SimilarityThreshold == 0 {
		p.SimilarityThreshold = defaultSimilarityThreshold
	}

	s := &cfg.Search
	if s.MaxResults == 0 {
		s.MaxResults = defaultSearchMaxResults
	}
	if s.SafeSearch == "" {
		s.SafeSearch = SafeSearchStrict
	}
	if s.Region == "" {
		s.Region = defaultSearchRegion
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found; unknown and missing
// provider names are logged as warnings rather than treated as fatal,
// since a demo run may intentionally use mock providers. Credentials are
// not checked.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Search.SafeSearch != "" && !cfg.Search.SafeSearch.IsValid() {
		errs = append(errs, fmt.Errorf("search.safesearch %q is invalid; valid values: off, moderate, strict", cfg.Search.SafeSearch))
	}

	if cfg.Pipeline.SimilarityThreshold < 0 || cfg.Pipeline.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("pipeline.similarity_threshold %.2f is out of range [0,1]", cfg.Pipeline.SimilarityThreshold))
	}
	if cfg.Pipeline.TopicUpdateThreshold < 1 {
		errs = append(errs, fmt.Errorf("pipeline.topic_update_threshold must be >= 1"))
	}
	if cfg.Pipeline.ClaimSelectionBatchSize < 1 {
		errs = append(errs, fmt.Errorf("pipeline.claim_selection_batch_size must be >= 1"))
	}
	if cfg.Pipeline.FactCheckRateLimitSeconds < 0 {
		errs = append(errs, fmt.Errorf("pipeline.fact_check_rate_limit_seconds must be >= 0"))
	}

	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("search", cfg.Providers.Search.Name)

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; topic extraction, claim selection, and fact verification will be unavailable")
	}
	if cfg.Providers.Search.Name == "" {
		slog.Warn("no search provider configured; image enrichment and evidence retrieval will be unavailable")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
