package tts

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"paperstage/internal/script/emotion"
)

// ErrTimeout marks a provider request that ran out its deadline. The retry
// loop treats it differently from a generic failure: a backend that just
// timed out is unlikely to answer a retry within the same budget, so the
// service fails fast to the next provider.
var ErrTimeout = errors.New("tts: request timed out")

// ErrAllProvidersFailed is returned when every provider in the order was
// exhausted without producing audio.
var ErrAllProvidersFailed = errors.New("tts: all providers failed")

// ProviderError carries a backend-embedded failure, distinct from transport
// problems: the HTTP exchange succeeded but the provider said no.
type ProviderError struct {
	Provider string
	Code     int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts provider %s: status %d: %s", e.Provider, e.Code, e.Message)
}

// VoiceSettings select and shape one character's voice for a request.
type VoiceSettings struct {
	VoiceID string
	Speed   float64
	Volume  float64
	Pitch   float64
	Emotion emotion.Emotion
}

// Options tune one synthesis request.
type Options struct {
	Format     string
	SampleRate int
	Timeout    time.Duration
}

// Status reports a provider's health, separate from any synthesis attempt.
type Status struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// Provider is the uniform synthesis contract over all backends.
type Provider interface {
	Name() string
	// IsAvailable is a light probe, never a full generation, so the service
	// can skip an unreachable backend without wasting a synthesis attempt.
	IsAvailable(ctx context.Context) bool
	Status(ctx context.Context) Status
	GenerateAudio(ctx context.Context, text string, voice VoiceSettings, opts Options) ([]byte, error)
}

// wrapTimeout converts deadline failures into the typed timeout error so the
// service's retry loop can tell them apart from generic request errors.
func wrapTimeout(err error, what string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", what, ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", what, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", what, err)
}
