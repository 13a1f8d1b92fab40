package bedrock

import (
	"context"
	"errors"
	"testing"

	"healthagent"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBedrockClient implements bedrockRuntimeClient for testing
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = input
	return m.response, m.err
}

func textOutput(stop types.StopReason, texts ...string) *bedrockruntime.ConverseOutput {
	var blocks []types.ContentBlock
	for _, t := range texts {
		blocks = append(blocks, &types.ContentBlockMemberText{Value: t})
	}
	return &bedrockruntime.ConverseOutput{
		StopReason: stop,
		Output:     &types.ConverseOutputMemberMessage{Value: types.Message{Content: blocks}},
		Usage:      &types.TokenUsage{InputTokens: aws.Int32(10), OutputTokens: aws.Int32(20)},
		Metrics:    &types.ConverseMetrics{LatencyMs: aws.Int64(100)},
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		input    Options
		expected Options
	}{
		{
			name:  "empty options uses defaults",
			input: Options{},
			expected: Options{
				ModelID:     defaultModelID,
				MaxTokens:   defaultMaxTokens,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
				Timeout:     defaultTimeout,
			},
		},
		{
			name:  "partial options with defaults",
			input: Options{ModelID: "custom-model", MaxTokens: 2048},
			expected: Options{
				ModelID:     "custom-model",
				MaxTokens:   2048,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
				Timeout:     defaultTimeout,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mockBedrockClient{}
			client := NewClient(mockClient, tt.input)
			assert.Equal(t, tt.expected, client.opts)
			assert.Equal(t, mockClient, client.brc)
		})
	}
}

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name     string
		response *bedrockruntime.ConverseOutput
		err      error
		want     string
		wantErr  bool
	}{
		{name: "single text block", response: textOutput(types.StopReasonEndTurn, "Drink water."), want: "Drink water."},
		{name: "joins blocks", response: textOutput(types.StopReasonEndTurn, "line one", "line two"), want: "line one\nline two"},
		{name: "truncated text still returned", response: textOutput(types.StopReasonMaxTokens, "partial"), want: "partial"},
		{name: "content filtered", response: textOutput(types.StopReasonContentFiltered, "x"), wantErr: true},
		{name: "empty output", response: textOutput(types.StopReasonEndTurn), wantErr: true},
		{name: "api error", err: errors.New("throttled"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(&mockBedrockClient{response: tt.response, err: tt.err}, Options{})
			got, err := client.Generate(context.Background(), healthagent.GenerateRequest{System: "sys", Prompt: "hi"})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, healthagent.ErrGeneration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Generate_Input(t *testing.T) {
	mock := &mockBedrockClient{response: textOutput(types.StopReasonEndTurn, "ok")}
	client := NewClient(mock, Options{ModelID: "m"})

	_, err := client.Generate(context.Background(), healthagent.GenerateRequest{System: "be kind", Prompt: "hello", MaxTokens: 150})
	require.NoError(t, err)

	require.NotNil(t, mock.input)
	assert.Equal(t, "m", aws.ToString(mock.input.ModelId))
	require.Len(t, mock.input.System, 1)
	assert.Equal(t, "be kind", mock.input.System[0].(*types.SystemContentBlockMemberText).Value)
	require.Len(t, mock.input.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, mock.input.Messages[0].Role)
	assert.Equal(t, int32(150), aws.ToInt32(mock.input.InferenceConfig.MaxTokens))
}
