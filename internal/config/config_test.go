package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{URL: "postgres://localhost/docuchat"},
		Auth:     AuthConfig{JWTSecret: "secret"},
		LLM:      LLMConfig{OpenAIKey: "sk-test"},
		RAG: RAGConfig{
			ChunkStrategy: "length",
			AnswerMode:    "generative",
		},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Database.URL = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("err = %v, want DATABASE_URL named", err)
	}
}

func TestValidateRequiresProviderKey(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.OpenAIKey = ""
	cfg.LLM.AnthropicKey = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY or ANTHROPIC_API_KEY") {
		t.Fatalf("err = %v, want provider key requirement named", err)
	}

	cfg.LLM.AnthropicKey = "ak-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("one provider key should satisfy validation: %v", err)
	}
}

func TestValidateRejectsUnknownChunkStrategy(t *testing.T) {
	cfg := validConfig()
	cfg.RAG.ChunkStrategy = "semantic"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown chunk strategy accepted")
	}
}

func TestValidateRejectsUnknownAnswerMode(t *testing.T) {
	cfg := validConfig()
	cfg.RAG.AnswerMode = "hybrid"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown answer mode accepted")
	}
}
