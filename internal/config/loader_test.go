package config

import (
	"strings"
	"testing"
)

func TestLoadFromReader_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}

	if cfg.Pipeline.TopicUpdateThreshold != defaultTopicUpdateThreshold {
		t.Errorf("TopicUpdateThreshold = %d, want %d", cfg.Pipeline.TopicUpdateThreshold, defaultTopicUpdateThreshold)
	}
	if cfg.Pipeline.ClaimSelectionBatchSize != defaultClaimSelectionBatchSize {
		t.Errorf("ClaimSelectionBatchSize = %d, want %d", cfg.Pipeline.ClaimSelectionBatchSize, defaultClaimSelectionBatchSize)
	}
	if cfg.Pipeline.MaxClaimsPerBatch != defaultMaxClaimsPerBatch {
		t.Errorf("MaxClaimsPerBatch = %d, want %d", cfg.Pipeline.MaxClaimsPerBatch, defaultMaxClaimsPerBatch)
	}
	if cfg.Pipeline.FactCheckRateLimitSeconds != defaultFactCheckRateLimitSecs {
		t.Errorf("FactCheckRateLimitSeconds = %d, want %d", cfg.Pipeline.FactCheckRateLimitSeconds, defaultFactCheckRateLimitSecs)
	}
	if cfg.Pipeline.SimilarityThreshold != defaultSimilarityThreshold {
		t.Errorf("SimilarityThreshold = %v, want %v", cfg.Pipeline.SimilarityThreshold, defaultSimilarityThreshold)
	}
	if cfg.Search.SafeSearch != SafeSearchStrict {
		t.Errorf("SafeSearch = %q, want %q", cfg.Search.SafeSearch, SafeSearchStrict)
	}
	if cfg.Search.MaxResults != defaultSearchMaxResults {
		t.Errorf("MaxResults = %d, want %d", cfg.Search.MaxResults, defaultSearchMaxResults)
	}
}

func TestLoadFromReader_OverridesDefaults(t *testing.T) {
	yamlDoc := `
pipeline:
  topic_update_threshold: 3
  similarity_threshold: 0.9
search:
  safesearch: off
  url_blocklist: ["*.example-adult.test"]
providers:
  llm:
    name: openai
  search:
    name: searxng
`
	cfg, err := LoadFromReader(strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	if cfg.Pipeline.TopicUpdateThreshold != 3 {
		t.Errorf("TopicUpdateThreshold = %d, want 3", cfg.Pipeline.TopicUpdateThreshold)
	}
	if cfg.Pipeline.SimilarityThreshold != 0.9 {
		t.Errorf("SimilarityThreshold = %v, want 0.9", cfg.Pipeline.SimilarityThreshold)
	}
	if cfg.Search.SafeSearch != SafeSearchOff {
		t.Errorf("SafeSearch = %q, want off", cfg.Search.SafeSearch)
	}
	if len(cfg.Search.URLBlocklist) != 1 {
		t.Fatalf("URLBlocklist len = %d, want 1", len(cfg.Search.URLBlocklist))
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("pipeline:\n  bogus_field: 1\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown field, got nil")
	}
}

func TestValidate_RejectsOutOfRangeSimilarity(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Pipeline.SimilarityThreshold = 1.5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for similarity_threshold out of [0,1], got nil")
	}
}

func TestValidate_RejectsInvalidSafeSearch(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Search.SafeSearch = "paranoid"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for an invalid safesearch level, got nil")
	}
}
