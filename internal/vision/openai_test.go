package vision

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

func TestNewOpenAIServiceModel(t *testing.T) {
	svc, err := NewOpenAIService("test-key", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4VisionPreview, svc.model)
}

func TestNewOpenAIServiceRequiresKey(t *testing.T) {
	_, err := NewOpenAIService("", logger.NewNop())
	require.Error(t, err)
}

func TestParseAnalysis(t *testing.T) {
	analysis, err := parseAnalysis(`Here is my answer: {"description": "a half-painted wall", "task_type": "painting", "completion_status": "in_progress"}`)
	require.NoError(t, err)
	assert.Equal(t, "a half-painted wall", analysis.Description)
	assert.Equal(t, "painting", analysis.TaskType)
	assert.Equal(t, "in_progress", analysis.CompletionStatus)
}

func TestParseAnalysisRejectsMissingDescription(t *testing.T) {
	_, err := parseAnalysis(`{"task_type": "repair"}`)
	require.Error(t, err)
}
