package llm

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSystemMessagesExtractsSystemRole(t *testing.T) {
	system, chat := splitSystemMessages([]ChatMessage{
		{Role: "system", Content: "You are an intent classifier."},
		{Role: "user", Content: "book a meeting tomorrow"},
	})

	assert.Equal(t, "You are an intent classifier.", system)
	require.Len(t, chat, 1)
	assert.Equal(t, "user", chat[0].Role)
	assert.Equal(t, "book a meeting tomorrow", chat[0].Content)
}

func TestSplitSystemMessagesKeepsConversationOrder(t *testing.T) {
	system, chat := splitSystemMessages([]ChatMessage{
		{Role: "system", Content: "first instruction"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
		{Role: "system", Content: "second instruction"},
		{Role: "user", Content: "bye"},
	})

	assert.Equal(t, "first instruction\n\nsecond instruction", system)
	require.Len(t, chat, 3)
	assert.Equal(t, []string{"user", "assistant", "user"}, []string{chat[0].Role, chat[1].Role, chat[2].Role})
}

func TestSplitSystemMessagesWithoutSystemRole(t *testing.T) {
	system, chat := splitSystemMessages([]ChatMessage{
		{Role: "user", Content: "hello"},
	})

	assert.Empty(t, system)
	require.Len(t, chat, 1)
}

func TestNewOpenAIClientDefaultModel(t *testing.T) {
	c, err := NewOpenAIClient("test-key")
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4TurboPreview, c.defaultModel)
}

func TestNewLocalClientRequiresBaseURL(t *testing.T) {
	_, err := NewLocalClient("", "llama3")
	require.Error(t, err)
}
