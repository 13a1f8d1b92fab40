package healthagent

import (
	"errors"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	openAIBaseURL = "https://api.openai.com/v1"
)

type ModelConfig struct {
	Provider     string        `env:"LLM_PROVIDER,default=openai"`
	ModelID      string        `env:"MODEL_ID,default=llama-3.1-70b-versatile"`
	BedrockModel string        `env:"BEDROCK_MODEL_ID,default=us.meta.llama3-1-70b-instruct-v1:0"`
	BaseURL      string        `env:"LLM_BASE_URL"`
	GroqAPIKey   string        `env:"GROQ_API_KEY"`
	OpenAIAPIKey string        `env:"OPENAI_API_KEY"`
	MaxTokens    int32         `env:"MAX_TOKENS,default=1024"`
	Temperature  float32       `env:"TEMPERATURE,default=0.2"`
	TopP         float32       `env:"TOP_P,default=0.9"`
	Timeout      time.Duration `env:"GEN_TIMEOUT,default=30s"`
	MaxRetries   int           `env:"GEN_MAX_RETRIES,default=2"`
}

// APIKey returns the credential for the OpenAI-compatible provider. Groq wins when both are set.
func (c ModelConfig) APIKey() string {
	if c.GroqAPIKey != "" {
		return c.GroqAPIKey
	}
	return c.OpenAIAPIKey
}

// Endpoint returns the chat completions base URL, derived from whichever key is set unless overridden.
func (c ModelConfig) Endpoint() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.GroqAPIKey == "" && c.OpenAIAPIKey != "" {
		return openAIBaseURL
	}
	return groqBaseURL
}

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

// Model returns the model id used by the configured provider.
func (c ModelConfig) Model() string {
	if c.Provider == ProviderBedrock {
		return c.BedrockModel
	}
	return c.ModelID
}

type StoreConfig struct {
	DBFile string `env:"DB_FILE,default=./data/user_data.db"`
}

type ServerConfig struct {
	Host           string `env:"AGNO_HOST,default=0.0.0.0"`
	Port           int    `env:"AGNO_PORT,default=8000"`
	InteractionLog string `env:"INTERACTION_LOG,default=none"`
	OtelEnabled    bool   `env:"OTEL_ENABLED,default=false"`
}

type AlertConfig struct {
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"SLACK_CHANNEL,default=#health-alerts"`
}

// Config groups every environment-driven setting of the service.
type Config struct {
	Model  ModelConfig
	Store  StoreConfig
	Server ServerConfig
	Alert  AlertConfig
}

// LoadConfig reads an optional .env file and then decodes the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	var cfg Config
	if err := envdecode.Decode(&cfg.Model); err != nil {
		return Config{}, err
	}
	if err := envdecode.Decode(&cfg.Store); err != nil {
		return Config{}, err
	}
	if err := envdecode.Decode(&cfg.Server); err != nil {
		return Config{}, err
	}
	if err := envdecode.Decode(&cfg.Alert); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
