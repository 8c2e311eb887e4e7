package tts

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// CloudConfig configures the hosted high-quality synthesis backend.
type CloudConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// CloudProvider speaks the hosted API's single-POST protocol: one request
// carrying model, text and voice shaping, one response carrying hex-encoded
// audio plus a body-embedded status code that can fail independently of the
// HTTP status.
type CloudProvider struct {
	cfg    CloudConfig
	client *http.Client
	log    *logrus.Entry
}

func NewCloudProvider(cfg CloudConfig) *CloudProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CloudProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logrus.WithField("provider", "cloud"),
	}
}

func (p *CloudProvider) Name() string { return "cloud" }

type cloudRequest struct {
	Model        string            `json:"model"`
	Text         string            `json:"text"`
	VoiceSetting cloudVoiceSetting `json:"voice_setting"`
	AudioSetting cloudAudioSetting `json:"audio_setting"`
}

type cloudVoiceSetting struct {
	VoiceID string  `json:"voice_id"`
	Speed   float64 `json:"speed"`
	Volume  float64 `json:"vol"`
	Pitch   float64 `json:"pitch"`
	Emotion string  `json:"emotion,omitempty"`
}

type cloudAudioSetting struct {
	SampleRate int    `json:"sample_rate"`
	Format     string `json:"format"`
}

type cloudResponse struct {
	Data struct {
		Audio string `json:"audio"`
	} `json:"data"`
	BaseResp struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
}

// IsAvailable probes the API host with a bare authenticated GET. The
// endpoint only answers POSTs, so 404/405 still mean reachable; a rejected
// key or a server failure does not, and the request skips to fallback
// instead of burning its retry budget.
func (p *CloudProvider) IsAvailable(ctx context.Context) bool {
	if p.cfg.APIKey == "" || p.cfg.BaseURL == "" {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.cfg.BaseURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return false
	}
	return resp.StatusCode < http.StatusInternalServerError
}

func (p *CloudProvider) Status(ctx context.Context) Status {
	s := Status{Name: p.Name(), Available: p.IsAvailable(ctx)}
	if p.cfg.APIKey == "" {
		s.Detail = "api key not configured"
	}
	return s
}

func (p *CloudProvider) GenerateAudio(ctx context.Context, text string, voice VoiceSettings, opts Options) ([]byte, error) {
	format := opts.Format
	if format == "" {
		format = "mp3"
	}
	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 32000
	}

	body, err := json.Marshal(cloudRequest{
		Model: p.cfg.Model,
		Text:  text,
		VoiceSetting: cloudVoiceSetting{
			VoiceID: voice.VoiceID,
			Speed:   voice.Speed,
			Volume:  voice.Volume,
			Pitch:   voice.Pitch,
			Emotion: string(voice.Emotion),
		},
		AudioSetting: cloudAudioSetting{
			SampleRate: sampleRate,
			Format:     format,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, p.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrapTimeout(err, "cloud synthesis request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: p.Name(),
			Code:     resp.StatusCode,
			Message:  resp.Status,
		}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed cloudResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// The API reports failures inside a 200 body.
	if parsed.BaseResp.StatusCode != 0 {
		return nil, &ProviderError{
			Provider: p.Name(),
			Code:     parsed.BaseResp.StatusCode,
			Message:  parsed.BaseResp.StatusMsg,
		}
	}
	if parsed.Data.Audio == "" {
		return nil, &ProviderError{Provider: p.Name(), Message: "empty audio in response"}
	}

	audio, err := hex.DecodeString(parsed.Data.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex audio: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"voice": voice.VoiceID,
		"bytes": len(audio),
	}).Debug("cloud synthesis ok")
	return audio, nil
}
