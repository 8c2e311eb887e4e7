package tts

import (
	"context"
	"fmt"
	"os"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

// synthesis request ceiling is 5000 chars; stay a little under to be safe
const gcloudChunkLimit = 4800

// GCloudConfig configures the Google Cloud synthesis backend.
type GCloudConfig struct {
	LanguageCode string
	DefaultVoice string
}

// GCloudProvider adapts Google Cloud Text-to-Speech to the Provider
// contract. Long text is split into chunks under the API's request
// ceiling and the resulting audio is concatenated.
type GCloudProvider struct {
	cfg    GCloudConfig
	client *texttospeech.Client
	log    *logrus.Entry
}

func NewGCloudProvider(ctx context.Context, cfg GCloudConfig) (*GCloudProvider, error) {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tts client: %w", err)
	}
	return &GCloudProvider{
		cfg:    cfg,
		client: client,
		log:    logrus.WithField("provider", "gcloud"),
	}, nil
}

func (p *GCloudProvider) Name() string { return "gcloud" }

// IsAvailable reports whether application credentials are configured.
// The client itself defers credential errors until the first call.
func (p *GCloudProvider) IsAvailable(ctx context.Context) bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok && p.client != nil
}

func (p *GCloudProvider) Status(ctx context.Context) Status {
	s := Status{Name: p.Name(), Available: p.IsAvailable(ctx)}
	if !s.Available {
		s.Detail = "application credentials not configured"
	}
	return s
}

func (p *GCloudProvider) GenerateAudio(ctx context.Context, text string, voice VoiceSettings, opts Options) ([]byte, error) {
	voiceName := voice.VoiceID
	if voiceName == "" {
		voiceName = p.cfg.DefaultVoice
	}

	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}
	// Chirp voices often don't support speakingRate/pitch — skip them
	if !strings.Contains(strings.ToLower(voiceName), "chirp") {
		if voice.Speed > 0 {
			audioCfg.SpeakingRate = voice.Speed
		}
		if voice.Pitch != 0 {
			audioCfg.Pitch = voice.Pitch
		}
	}
	if opts.SampleRate > 0 {
		audioCfg.SampleRateHertz = int32(opts.SampleRate)
	}

	reqCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var audio []byte
	for i, chunk := range splitChunks(text, gcloudChunkLimit) {
		resp, err := p.client.SynthesizeSpeech(reqCtx, &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: p.cfg.LanguageCode,
				Name:         voiceName,
			},
			AudioConfig: audioCfg,
		})
		if err != nil {
			return nil, wrapTimeout(err, fmt.Sprintf("gcloud synthesize chunk %d", i))
		}
		audio = append(audio, resp.AudioContent...)
	}

	if len(audio) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Message: "empty synthesis response"}
	}

	p.log.WithFields(logrus.Fields{
		"voice": voiceName,
		"bytes": len(audio),
	}).Debug("gcloud synthesis ok")
	return audio, nil
}

// ListVoices returns the voice names the backend offers.
func (p *GCloudProvider) ListVoices(ctx context.Context) ([]string, error) {
	resp, err := p.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	voices := make([]string, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, v.Name)
	}
	return voices, nil
}

// Close releases the underlying client.
func (p *GCloudProvider) Close() error {
	return p.client.Close()
}

// splitChunks cuts text on rune boundaries so no request exceeds the limit.
func splitChunks(text string, limit int) []string {
	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
