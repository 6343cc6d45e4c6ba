package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Workers       int           `yaml:"workers"`
	Extract       ExtractConfig `yaml:"extract"`
	GenAI         GenAIConfig   `yaml:"genai"`
	Ollama        OllamaConfig  `yaml:"ollama"`
}

// ExtractConfig selects the model provider and the models used for the two
// gateway operations. Classification is a cheap call, extraction is the
// heavier structured one, so they may use different models.
type ExtractConfig struct {
	Provider      string        `yaml:"provider"` // "genai" or "ollama"
	ClassifyModel string        `yaml:"classify_model"`
	ExtractModel  string        `yaml:"extract_model"`
	Timeout       time.Duration `yaml:"timeout"`
}

// GenAIConfig holds settings for the hosted model HTTP client.
type GenAIConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	APIKey                  string        `yaml:"api_key"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
	RequestsPerMinute       int           `yaml:"requests_per_minute"`
}

// OllamaConfig points the local fallback provider at an Ollama instance.
type OllamaConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("DOCVERIFY_ADDR", ":8080"),
		JWTSecret:     getEnv("DOCVERIFY_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("DOCVERIFY_DATABASE_PATH", "docverify.db"),
		TokenDuration: 1 * time.Hour,
		Workers:       4,
		Extract: ExtractConfig{
			Provider:      getEnv("DOCVERIFY_PROVIDER", "genai"),
			ClassifyModel: "gemini-3-flash-preview",
			ExtractModel:  "gemini-3-pro-preview",
			Timeout:       60 * time.Second,
		},
		GenAI: GenAIConfig{
			BaseURL:                 getEnv("DOCVERIFY_GENAI_URL", "https://generativelanguage.googleapis.com"),
			APIKey:                  os.Getenv("DOCVERIFY_GENAI_API_KEY"),
			Timeout:                 60 * time.Second,
			Retries:                 3,
			Backoff:                 500 * time.Millisecond,
			CircuitFailureThreshold: 5,
			CircuitReset:            30 * time.Second,
			RequestsPerMinute:       60,
		},
		Ollama: OllamaConfig{
			BaseURL: getEnv("DOCVERIFY_OLLAMA_URL", "http://localhost:11434"),
			Timeout: 120 * time.Second,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
