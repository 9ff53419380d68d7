package config

import "strings"

// IndexerConfig configures the reference indexing service binary.
type IndexerConfig struct {
	Port              string
	Env               string
	CORSAllowOrigin   []string
	EmbeddingProvider string
	GeminiAPIKey      string
	GeminiEmbedModel  string
	GeminiRPM         int
	LLMProvider       string
	LLMModel          string
	OpenAIAPIKey      string
	VectorStore       string
	VectorDim         int
	ChunkSize         int
	DatabaseURL       string
}

// LoadIndexer reads the indexer's configuration from the environment.
func LoadIndexer() IndexerConfig {
	loadEnvFiles(".env", "cmd/.env")

	return IndexerConfig{
		Port:              getEnv("INDEXER_PORT", "8000"),
		Env:               normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		EmbeddingProvider: oneOf(getEnv("EMBEDDINGS_PROVIDER", "hash"), "hash", "gemini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiEmbedModel:  getEnv("GEMINI_EMBED_MODEL", "embedding-001"),
		GeminiRPM:         getEnvInt("GEMINI_RPM", 60),
		LLMProvider:       oneOf(getEnv("LLM_PROVIDER", "excerpt"), "excerpt", "gemini", "openai"),
		LLMModel:          getEnv("LLM_MODEL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		VectorStore:       oneOf(getEnv("VECTOR_STORE", "memory"), "memory", "pgvector"),
		VectorDim:         getEnvInt("VECTOR_DIM", 768),
		ChunkSize:         getEnvInt("CHUNK_SIZE", 300),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
	}
}

// oneOf lower-cases raw and returns it if allowed, otherwise the first allowed value.
func oneOf(raw string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return allowed[0]
}
