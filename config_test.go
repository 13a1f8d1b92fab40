package healthagent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelConfig_EndpointAndKey(t *testing.T) {
	tests := []struct {
		name         string
		cfg          ModelConfig
		wantEndpoint string
		wantKey      string
	}{
		{name: "groq only", cfg: ModelConfig{GroqAPIKey: "g"}, wantEndpoint: groqBaseURL, wantKey: "g"},
		{name: "openai only", cfg: ModelConfig{OpenAIAPIKey: "o"}, wantEndpoint: openAIBaseURL, wantKey: "o"},
		{name: "groq wins", cfg: ModelConfig{GroqAPIKey: "g", OpenAIAPIKey: "o"}, wantEndpoint: groqBaseURL, wantKey: "g"},
		{name: "base url override", cfg: ModelConfig{OpenAIAPIKey: "o", BaseURL: "http://localhost:8080/v1"}, wantEndpoint: "http://localhost:8080/v1", wantKey: "o"},
		{name: "no keys", cfg: ModelConfig{}, wantEndpoint: groqBaseURL, wantKey: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantEndpoint, tt.cfg.Endpoint())
			assert.Equal(t, tt.wantKey, tt.cfg.APIKey())
		})
	}
}

func TestModelConfig_Model(t *testing.T) {
	cfg := ModelConfig{Provider: ProviderOpenAI, ModelID: "llama-3.1-70b-versatile", BedrockModel: "us.meta.llama3-1-70b-instruct-v1:0"}
	assert.Equal(t, "llama-3.1-70b-versatile", cfg.Model())
	cfg.Provider = ProviderBedrock
	assert.Equal(t, "us.meta.llama3-1-70b-instruct-v1:0", cfg.Model())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("AGNO_PORT", "9001")
	t.Setenv("GEN_TIMEOUT", "5s")
	t.Setenv("DB_FILE", "/tmp/health.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, "llama-3.1-70b-versatile", cfg.Model.ModelID)
	assert.Equal(t, "test-key", cfg.Model.APIKey())
	assert.Equal(t, int32(1024), cfg.Model.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 2, cfg.Model.MaxRetries)
	assert.Equal(t, "/tmp/health.db", cfg.Store.DBFile)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Server.InteractionLog)
	assert.False(t, cfg.Server.OtelEnabled)
	assert.Equal(t, "#health-alerts", cfg.Alert.SlackChannel)
}
