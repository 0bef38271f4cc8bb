package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	GinMode           string
	CORSOrigins       []string
	EnableAdminRoutes bool

	// Help-desk source API
	HelpDeskAPIURL     string
	ModuleListTimeout  time.Duration
	ModuleFetchTimeout time.Duration

	// Optical text recovery
	OCREnabled       bool
	OCRProvider      string // "http" (default), "gemini"
	OCRServiceURL    string
	OCRTimeout       time.Duration
	OCRMaxImages     int
	OCRMaxImageWidth int

	// Embeddings configuration
	EmbeddingsProvider    string // "ollama" (default), "openai", "google"
	EmbeddingsModel       string
	GoogleEmbeddingsModel string
	EmbeddingTimeout      time.Duration

	// Generation
	LLMProvider       string // "ollama" (default), "openai", "gemini"
	LLMModel          string
	OllamaBaseURL     string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	GeminiAPIKey      string
	GeminiTier        string
	GenerationTimeout time.Duration

	// Vector store
	VectorStore         string // "sqlite" (default), "mongo", "memory"
	VectorStoreDir      string
	VectorCollection    string
	MongoURI            string
	DBName              string
	VectorSearchEnabled bool
	VectorIndexName     string
	VectorDimensions    int

	// Retrieval
	RetrievalTopK     int
	ContextCharBudget int

	// Redis Configuration
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RateLimitReqs   int
	RateLimitWindow int
	ReindexCron     string

	// Telemetry
	OTELEnabled     bool
	OTELEndpoint    string
	OTELSampleRatio float64
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		CORSOrigins:       strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		EnableAdminRoutes: getEnvBool("ENABLE_ADMIN_ROUTES", false),

		HelpDeskAPIURL:     getEnv("HELPDESK_API_URL", "https://preprod.vmedulife.com/api/helpDesk/documentationPublicData.php"),
		ModuleListTimeout:  getEnvDuration("MODULE_LIST_TIMEOUT", 30*time.Second),
		ModuleFetchTimeout: getEnvDuration("MODULE_FETCH_TIMEOUT", 15*time.Second),

		OCREnabled:       getEnvBool("OCR_ENABLED", true),
		OCRProvider:      getEnv("OCR_PROVIDER", "http"),
		OCRServiceURL:    getEnv("OCR_SERVICE_URL", "http://localhost:8001"),
		OCRTimeout:       getEnvDuration("OCR_TIMEOUT", 5*time.Second),
		OCRMaxImages:     getEnvInt("OCR_MAX_IMAGES", 2),
		OCRMaxImageWidth: getEnvInt("OCR_MAX_IMAGE_WIDTH", 2000),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "ollama"),
		EmbeddingsModel:       getEnv("EMBEDDINGS_MODEL", "all-minilm"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbeddingTimeout:      getEnvDuration("EMBEDDING_TIMEOUT", 30*time.Second),

		LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
		LLMModel:          getEnv("LLM_MODEL", "phi3:mini"),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiTier:        getEnv("GEMINI_TIER", "free"),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 90*time.Second),

		VectorStore:         getEnv("VECTOR_STORE", "sqlite"),
		VectorStoreDir:      getEnv("VECTOR_STORE_DIR", "./.vectorstore"),
		VectorCollection:    getEnv("VECTOR_COLLECTION", "erp_docs"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017/erp_helpdesk"),
		DBName:              getEnv("DB_NAME", "erp_helpdesk"),
		VectorSearchEnabled: getEnvBool("MONGODB_VECTOR_ENABLED", false),
		VectorIndexName:     getEnv("MONGODB_VECTOR_INDEX", "erp_docs_vector"),
		VectorDimensions:    getEnvInt("VECTOR_DIM", 0),

		RetrievalTopK:     getEnvInt("RETRIEVAL_TOP_K", 1),
		ContextCharBudget: getEnvInt("CONTEXT_CHAR_BUDGET", 1200),

		// Redis is optional; an empty URL disables rate limiting and the job queue
		RedisURL:        getEnv("REDIS_URL", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
		ReindexCron:     getEnv("REINDEX_CRON", ""),

		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		OTELSampleRatio: getEnvFloat64("OTEL_SAMPLE_RATIO", 0.1),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MaxRetrievalTopK bounds how many chunks feed one prompt.
const MaxRetrievalTopK = 2

// Validate checks that credentials exist for the providers that were selected.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "ollama":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER: %s", c.LLMProvider)
	}

	switch c.EmbeddingsProvider {
	case "ollama":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDINGS_PROVIDER=openai")
		}
	case "google":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when EMBEDDINGS_PROVIDER=google")
		}
	default:
		return fmt.Errorf("unknown EMBEDDINGS_PROVIDER: %s", c.EmbeddingsProvider)
	}

	if c.OCREnabled && c.OCRProvider == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when OCR_PROVIDER=gemini")
	}

	switch c.VectorStore {
	case "sqlite", "mongo", "memory":
	default:
		return fmt.Errorf("unknown VECTOR_STORE: %s", c.VectorStore)
	}

	if c.RetrievalTopK < 1 || c.RetrievalTopK > MaxRetrievalTopK {
		return fmt.Errorf("RETRIEVAL_TOP_K must be between 1 and %d", MaxRetrievalTopK)
	}
	if c.ContextCharBudget < 1 {
		return fmt.Errorf("CONTEXT_CHAR_BUDGET must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
