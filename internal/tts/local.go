package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// LocalConfig configures the free local-network synthesis engine.
type LocalConfig struct {
	BaseURL      string
	QueryTimeout time.Duration
	SynthTimeout time.Duration
}

// LocalProvider speaks the local engine's two-step protocol: request an
// audio query (phoneme/pitch plan) for text+speaker, mutate its parameters
// per request options, then post the mutated query for raw audio bytes.
// Each step carries its own timeout.
type LocalProvider struct {
	cfg    LocalConfig
	client *http.Client
	log    *logrus.Entry
}

func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	if cfg.SynthTimeout <= 0 {
		cfg.SynthTimeout = 60 * time.Second
	}
	return &LocalProvider{
		cfg:    cfg,
		client: &http.Client{},
		log:    logrus.WithField("provider", "local"),
	}
}

func (p *LocalProvider) Name() string { return "local" }

// IsAvailable checks the engine's version endpoint, a light request that
// performs no synthesis.
func (p *LocalProvider) IsAvailable(ctx context.Context) bool {
	if p.cfg.BaseURL == "" {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.cfg.BaseURL+"/version", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (p *LocalProvider) Status(ctx context.Context) Status {
	s := Status{Name: p.Name(), Available: p.IsAvailable(ctx)}
	if p.cfg.BaseURL == "" {
		s.Detail = "engine url not configured"
	}
	return s
}

func (p *LocalProvider) GenerateAudio(ctx context.Context, text string, voice VoiceSettings, opts Options) ([]byte, error) {
	query, err := p.audioQuery(ctx, text, voice.VoiceID)
	if err != nil {
		return nil, err
	}

	mutateQuery(query, voice, opts)

	audio, err := p.synthesis(ctx, query, voice.VoiceID)
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"speaker": voice.VoiceID,
		"bytes":   len(audio),
	}).Debug("local synthesis ok")
	return audio, nil
}

// audioQuery runs step one and returns the engine's mutable plan.
func (p *LocalProvider) audioQuery(ctx context.Context, text, speaker string) (map[string]interface{}, error) {
	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("text", text)
	params.Set("speaker", speaker)

	req, err := http.NewRequestWithContext(queryCtx, http.MethodPost,
		p.cfg.BaseURL+"/audio_query?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build audio query: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrapTimeout(err, "local audio query")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: p.Name(),
			Code:     resp.StatusCode,
			Message:  "audio query failed: " + resp.Status,
		}
	}

	var query map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&query); err != nil {
		return nil, fmt.Errorf("failed to parse audio query: %w", err)
	}
	return query, nil
}

// mutateQuery applies the per-request shaping the engine expects to find
// inside the query plan rather than on the synthesis call.
func mutateQuery(query map[string]interface{}, voice VoiceSettings, opts Options) {
	if voice.Speed > 0 {
		query["speedScale"] = voice.Speed
	}
	if voice.Pitch != 0 {
		query["pitchScale"] = voice.Pitch
	}
	if voice.Volume > 0 {
		query["volumeScale"] = voice.Volume
	}
	if opts.SampleRate > 0 {
		query["outputSamplingRate"] = opts.SampleRate
	}
}

// synthesis runs step two and returns raw audio bytes.
func (p *LocalProvider) synthesis(ctx context.Context, query map[string]interface{}, speaker string) ([]byte, error) {
	synthCtx, cancel := context.WithTimeout(ctx, p.cfg.SynthTimeout)
	defer cancel()

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audio query: %w", err)
	}

	params := url.Values{}
	params.Set("speaker", speaker)

	req, err := http.NewRequestWithContext(synthCtx, http.MethodPost,
		p.cfg.BaseURL+"/synthesis?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrapTimeout(err, "local synthesis")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: p.Name(),
			Code:     resp.StatusCode,
			Message:  "synthesis failed: " + resp.Status,
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}
	if len(audio) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Message: "empty synthesis response"}
	}
	return audio, nil
}
