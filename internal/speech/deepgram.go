package speech

import (
	"bytes"
	"context"
	"errors"
	"strings"

	listenapi "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest"
	speakapi "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/rest"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/listen"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"
	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

const (
	transcriptionModel = "nova-2"
	synthesisModel     = "aura-asteria-en"
)

// DeepgramService is the Deepgram-backed Service implementation. It uses
// the prerecorded REST APIs; audio arrives as complete uploads, not live
// streams.
type DeepgramService struct {
	apiKey string
	logger *logger.Logger
}

// NewDeepgramService creates a Deepgram speech service.
func NewDeepgramService(apiKey string, log *logger.Logger) (*DeepgramService, error) {
	if apiKey == "" {
		return nil, errors.New("Deepgram API key is required")
	}
	return &DeepgramService{apiKey: apiKey, logger: log}, nil
}

// Transcribe sends audio to the prerecorded transcription API and returns
// the first alternative of the first channel.
func (s *DeepgramService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	c := listen.NewREST(s.apiKey, &interfaces.ClientOptions{})
	dg := listenapi.New(c)

	res, err := dg.FromStream(ctx, bytes.NewReader(audio), &interfaces.PreRecordedTranscriptionOptions{
		Model:       transcriptionModel,
		SmartFormat: true,
	})
	if err != nil {
		return "", err
	}

	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		s.logger.Warn("transcription returned no alternatives")
		return "", nil
	}

	transcript := strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript)
	s.logger.Debug("audio transcribed", zap.Int("audio_bytes", len(audio)), zap.Int("transcript_len", len(transcript)))
	return transcript, nil
}

// Synthesize renders text through the speak API.
func (s *DeepgramService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("nothing to synthesize")
	}

	c := speak.NewREST(s.apiKey, &interfaces.ClientOptions{})
	dg := speakapi.New(c)

	var buf interfaces.RawResponse
	_, err := dg.ToStream(ctx, text, &interfaces.SpeakOptions{Model: synthesisModel}, &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
