// Package vision analyzes task progress photos with a multimodal model.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/internal/nlu"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

const visionPrompt = `Look at this photo of a household or work task and answer as a single JSON object:
{"description": "what the photo shows and what work is visible",
 "task_type": "one short category like repair, cleaning, assembly, painting",
 "completion_status": "not_started" | "in_progress" | "complete"}`

// Service describes a single image in terms of observable task progress.
type Service interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*model.MediaAnalysis, error)
}

// OpenAIService implements Service with a multimodal chat completion.
// Images are embedded as base64 data URLs, never uploaded separately.
type OpenAIService struct {
	client *openai.Client
	model  string
	logger *logger.Logger
}

// NewOpenAIService creates a vision service over the OpenAI API.
func NewOpenAIService(apiKey string, log *logger.Logger) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return &OpenAIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4VisionPreview,
		logger: log,
	}, nil
}

// Analyze asks the model what the photo shows and how far along the work
// is. Unparseable model output yields a plain-text description with
// unknown progress rather than an error.
func (s *OpenAIService) Analyze(ctx context.Context, image []byte, mimeType string) (*model.MediaAnalysis, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 512,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: visionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("vision model returned no choices")
	}

	content := resp.Choices[0].Message.Content
	analysis, err := parseAnalysis(content)
	if err != nil {
		s.logger.Warn("vision output unparseable, keeping raw description", zap.Error(err))
		return &model.MediaAnalysis{
			Description:      content,
			TaskType:         "unknown",
			CompletionStatus: "unknown",
		}, nil
	}
	return analysis, nil
}

func parseAnalysis(raw string) (*model.MediaAnalysis, error) {
	var analysis model.MediaAnalysis
	if err := nlu.UnmarshalFirstObject(raw, &analysis); err != nil {
		return nil, err
	}
	if analysis.Description == "" {
		return nil, errors.New("vision output has no description")
	}
	return &analysis, nil
}
