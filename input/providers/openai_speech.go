package providers

import (
	"context"
	"io"
	"strings"

	"github.com/gradreader/readerpack/core"
	openai "github.com/openai/openai-go/v3"
)

// OpenAISynthesizer implements SpeechSynthesizer with OpenAI text-to-speech,
// producing MP3 audio.
type OpenAISynthesizer struct {
	model  string
	client openai.Client
}

var _ SpeechSynthesizer = (*OpenAISynthesizer)(nil)

// NewOpenAISynthesizer creates a speech synthesizer. It fails if no API key
// is configured.
func NewOpenAISynthesizer(cfg OpenAIConfig) (*OpenAISynthesizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, MissingAPIKey()
	}
	cfg = cfg.withDefaults()
	return &OpenAISynthesizer{
		model:  cfg.SpeechModel,
		client: newOpenAIClient(cfg, int(cfg.Attempts)-1),
	}, nil
}

// Model returns the speech model.
func (s *OpenAISynthesizer) Model() string {
	return s.model
}

// Synthesize is part of interface SpeechSynthesizer.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, core.Error(core.EINVALID, "Cannot synthesize audio for empty text.")
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = DefaultVoice
	}
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, core.WrapError(serviceError(SpeechService, 0, err), core.ECONNECTION,
			"OpenAI audio synthesis failed.")
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.WrapError(&ServiceError{Service: SpeechService, Err: err}, core.ECONNECTION,
			"failed reading audio response")
	}
	if len(audio) == 0 {
		return nil, core.Error(core.ECONNECTION, "Audio synthesis returned no data.")
	}
	tracer().Debugf("synthesized %d bytes of audio with voice %s", len(audio), voice)
	return audio, nil
}
