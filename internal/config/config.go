package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	RAG      RAGConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	DefaultProvider  string
	ChatModel        string
	EmbeddingModel   string
	FallbackProvider string
	MaxRetries       int
}

type RAGConfig struct {
	EmbeddingDim  int
	ChunkStrategy string // "length" or "sentence"
	ChunkSize     int
	ChunkOverlap  int
	TopK          int

	AnswerMode     string // "generative" or "extractive"
	Temperature    float64
	TopP           float64
	TrimToSentence bool

	SummarizeOnIngest bool
	SummaryMaxTokens  int // model input ceiling for one summarization call
	SummaryMinTokens  int // chunks below this are skipped
	SummaryReserve    int // output buffer reserved out of the input ceiling
}

type StorageConfig struct {
	DataDir    string
	ArchiveDir string
	StagingDir string
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenTTLMin, err := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	embeddingDim, err := getEnvInt("EMBEDDING_DIM", 1536)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_DIM: %w", err)
	}

	chunkSize, err := getEnvInt("CHUNK_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_SIZE: %w", err)
	}

	chunkOverlap, err := getEnvInt("CHUNK_OVERLAP", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_OVERLAP: %w", err)
	}

	topK, err := getEnvInt("RETRIEVAL_TOP_K", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid RETRIEVAL_TOP_K: %w", err)
	}

	summaryMax, err := getEnvInt("SUMMARY_MAX_TOKENS", 1024)
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_MAX_TOKENS: %w", err)
	}

	summaryMin, err := getEnvInt("SUMMARY_MIN_TOKENS", 50)
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_MIN_TOKENS: %w", err)
	}

	summaryReserve, err := getEnvInt("SUMMARY_OUTPUT_RESERVE", 256)
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_OUTPUT_RESERVE: %w", err)
	}

	temperature, err := getEnvFloat("ANSWER_TEMPERATURE", 0.7)
	if err != nil {
		return nil, fmt.Errorf("invalid ANSWER_TEMPERATURE: %w", err)
	}

	topP, err := getEnvFloat("ANSWER_TOP_P", 0.9)
	if err != nil {
		return nil, fmt.Errorf("invalid ANSWER_TOP_P: %w", err)
	}

	dataDir := getEnv("DATA_DIR", "vector_stores")

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  time.Duration(tokenTTLMin) * time.Minute,
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			ChatModel:        getEnv("LLM_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel:   getEnv("LLM_EMBEDDING_MODEL", "text-embedding-3-small"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
		},
		RAG: RAGConfig{
			EmbeddingDim:      embeddingDim,
			ChunkStrategy:     getEnv("CHUNK_STRATEGY", "length"),
			ChunkSize:         chunkSize,
			ChunkOverlap:      chunkOverlap,
			TopK:              topK,
			AnswerMode:        getEnv("ANSWER_MODE", "generative"),
			Temperature:       temperature,
			TopP:              topP,
			TrimToSentence:    getEnvBool("ANSWER_TRIM_TO_SENTENCE", true),
			SummarizeOnIngest: getEnvBool("SUMMARIZE_ON_INGEST", false),
			SummaryMaxTokens:  summaryMax,
			SummaryMinTokens:  summaryMin,
			SummaryReserve:    summaryReserve,
		},
		Storage: StorageConfig{
			DataDir:    dataDir,
			ArchiveDir: getEnv("TEAM_PDFS_DIR", "team_pdfs"),
			StagingDir: getEnv("STAGING_DIR", filepath.Join(dataDir, "staging")),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IndexPath is the persisted vector index artifact.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Storage.DataDir, "global_index.bin")
}

// ChunksPath is the persisted chunk metadata artifact.
func (c *Config) ChunksPath() string {
	return filepath.Join(c.Storage.DataDir, "global_chunks.json")
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.LLM.OpenAIKey == "" && c.LLM.AnthropicKey == "" {
		missing = append(missing, "OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	switch c.RAG.ChunkStrategy {
	case "length", "sentence":
	default:
		return fmt.Errorf("invalid CHUNK_STRATEGY %q (want length or sentence)", c.RAG.ChunkStrategy)
	}
	switch c.RAG.AnswerMode {
	case "generative", "extractive":
	default:
		return fmt.Errorf("invalid ANSWER_MODE %q (want generative or extractive)", c.RAG.AnswerMode)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
