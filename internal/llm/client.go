// Package llm provides completion client interfaces and implementations.
package llm

import (
	"context"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for completion providers. Implementations cover
// the local OpenAI-compatible runtime and the opt-in remote providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of completion provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewRemoteClient creates a remote escalation client for the provider
// whose key is set; Anthropic wins ties.
func NewRemoteClient(anthropicKey, openAIKey string) (Client, error) {
	if anthropicKey != "" {
		return NewAnthropicClient(anthropicKey)
	}
	if openAIKey != "" {
		return NewOpenAIClient(openAIKey)
	}
	return nil, nil
}
