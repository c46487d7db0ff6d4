package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gradreader/readerpack/input/story"
)

// TextGenerator creates the stories of a generation request, in request
// order.
type TextGenerator interface {
	Generate(ctx context.Context, req story.Request) ([]story.Story, error)
}

// SpeechSynthesizer creates MP3 audio for a text.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Services, as named in errors.
const (
	TextService   = "text-generation"
	SpeechService = "speech-synthesis"
)

// Voices are the narration voices offered for reader packs.
var Voices = []string{"alloy", "verse", "sol"}

// DefaultVoice is the voice used for requests without one.
const DefaultVoice = "alloy"

// ServiceError is an error returned from a hosted service.
type ServiceError struct {
	Service string // TextService or SpeechService
	Story   int    // 1-based index of the story, 0 if unknown
	Status  int    // HTTP status, 0 if the service has not been reached
	Err     error
}

func (e *ServiceError) Error() string {
	s := e.Service
	if e.Story > 0 {
		s = fmt.Sprintf("%s for story %d", s, e.Story)
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s failed (status %d): %v", s, e.Status, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", s, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Temporary is true for errors which may go away when retrying.
func (e *ServiceError) Temporary() bool {
	switch {
	case errors.Is(e.Err, context.Canceled), errors.Is(e.Err, context.DeadlineExceeded):
		return false
	case e.Status == 0:
		return true
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusConflict,
		e.Status == http.StatusTooManyRequests:
		return true
	}
	return e.Status >= 500
}
