package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Threshold is the global routing threshold: a document routes to its
	// category only when confidence >= Threshold, otherwise to the
	// uncertain queue.
	Threshold float64 `mapstructure:"threshold"`

	Paths struct {
		Input     string `mapstructure:"input"`
		Output    string `mapstructure:"output"`
		Uncertain string `mapstructure:"uncertain"`
		Database  string `mapstructure:"database"`
	} `mapstructure:"paths"`

	Backend struct {
		// Active selects the external-model backend: "openai", "gemini",
		// "ollama", "embedding", "onnx" or "" (cascade skips stage one).
		Active          string  `mapstructure:"active"`
		AcceptThreshold float64 `mapstructure:"accept_threshold"`
		MaxRetries      int     `mapstructure:"max_retries"`
		TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
		MaxTextLength   int     `mapstructure:"max_text_length"`

		OpenAI struct {
			APIKey  string `mapstructure:"api_key"`
			Model   string `mapstructure:"model"`
			BaseURL string `mapstructure:"base_url"`
		} `mapstructure:"openai"`

		Gemini struct {
			APIKey string `mapstructure:"api_key"`
			Model  string `mapstructure:"model"`
		} `mapstructure:"gemini"`

		Ollama struct {
			Endpoint string `mapstructure:"endpoint"`
			Model    string `mapstructure:"model"`
		} `mapstructure:"ollama"`

		Embedding struct {
			APIKey  string `mapstructure:"api_key"`
			Model   string `mapstructure:"model"`
			BaseURL string `mapstructure:"base_url"`
		} `mapstructure:"embedding"`

		ONNX struct {
			ModelPath   string `mapstructure:"model_path"`
			VocabPath   string `mapstructure:"vocab_path"`
			LibraryPath string `mapstructure:"library_path"`
			MaxTokens   int    `mapstructure:"max_tokens"`
		} `mapstructure:"onnx"`
	} `mapstructure:"backend"`

	Statistical struct {
		AcceptThreshold float64 `mapstructure:"accept_threshold"`
		MaxTextLength   int     `mapstructure:"max_text_length"`
	} `mapstructure:"statistical"`

	Feedback struct {
		// RetrainBatchSize is how many pending corrections trigger an
		// automatic retrain job.
		RetrainBatchSize int `mapstructure:"retrain_batch_size"`
	} `mapstructure:"feedback"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`

	Server struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.BindEnv("backend.openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("backend.embedding.api_key", "OPENAI_API_KEY")
	viper.BindEnv("backend.gemini.api_key", "GEMINI_API_KEY")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and env vars carry it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults pins the tuning constants the classification behavior depends
// on. The scoring constants themselves live with the strategies; only the
// operational knobs are configurable.
func setDefaults() {
	viper.SetDefault("threshold", 70)

	viper.SetDefault("paths.input", "input")
	viper.SetDefault("paths.output", "output")
	viper.SetDefault("paths.uncertain", "output/uncertain")
	viper.SetDefault("paths.database", "remsort.db")

	viper.SetDefault("backend.active", "")
	viper.SetDefault("backend.accept_threshold", 70)
	viper.SetDefault("backend.max_retries", 3)
	viper.SetDefault("backend.timeout_seconds", 30)
	viper.SetDefault("backend.max_text_length", 1000)
	viper.SetDefault("backend.openai.model", "gpt-4o-mini")
	viper.SetDefault("backend.gemini.model", "gemini-1.5-flash")
	viper.SetDefault("backend.ollama.endpoint", "http://localhost:11434")
	viper.SetDefault("backend.ollama.model", "mistral:7b-instruct")
	viper.SetDefault("backend.embedding.model", "text-embedding-3-small")
	viper.SetDefault("backend.onnx.max_tokens", 512)

	viper.SetDefault("statistical.accept_threshold", 70)
	viper.SetDefault("statistical.max_text_length", 4000)

	viper.SetDefault("feedback.retrain_batch_size", 10)

	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("worker.concurrency", 5)
	viper.SetDefault("worker.queues", map[string]int{"default": 1})

	viper.SetDefault("server.address", ":8080")
}
