package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"paperstage/internal/script/emotion"
	"paperstage/internal/tts/cache"
)

// ServiceConfig tunes the retry and fallback policy.
type ServiceConfig struct {
	// Preferred names the provider tried first. Empty means registration order.
	Preferred string
	// Fallback enables trying further providers after the first is exhausted.
	Fallback bool
	// MaxRetries is per provider, on top of the initial attempt.
	MaxRetries int
	RetryDelay time.Duration
}

// Request is one synthesis job.
type Request struct {
	Text      string
	Character *Character
	Emotion   emotion.Emotion
	Options   Options
}

// Result is a completed synthesis, served from cache or a provider.
type Result struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Provider string `json:"provider,omitempty"`
	CacheHit bool   `json:"cache_hit"`
	Size     int    `json:"size"`
}

// Service fronts the provider pool with the cache. A request checks the
// cache first, then walks providers in preference order, retrying each a
// bounded number of times before falling back to the next.
type Service struct {
	cfg       ServiceConfig
	providers []Provider
	cache     *cache.Cache
	log       *logrus.Entry
}

func NewService(cfg ServiceConfig, c *cache.Cache, providers ...Provider) *Service {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &Service{
		cfg:       cfg,
		providers: providers,
		cache:     c,
		log:       logrus.WithField("component", "ttsservice"),
	}
}

// Cache exposes the service's audio cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Statuses probes every provider.
func (s *Service) Statuses(ctx context.Context) []Status {
	out := make([]Status, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p.Status(ctx))
	}
	return out
}

// GenerateSpeech resolves one request to cached audio, synthesizing through
// the provider chain on a miss. The cache key is derived from text, character
// and remapped emotion, so a hit is terminal regardless of provider health.
func (s *Service) GenerateSpeech(ctx context.Context, req Request) (*Result, error) {
	if req.Text == "" {
		return nil, errors.New("tts: empty text")
	}
	if req.Character == nil {
		return nil, errors.New("tts: no character")
	}

	key := cache.GenerateKey(req.Text, req.Character.ID, string(emotion.Remap(req.Character.Archetype, req.Emotion)))

	data, hit, err := s.cache.Get(key)
	if err != nil {
		return nil, err
	}
	if hit {
		return &Result{Key: key, URL: s.cache.URLFor(key), CacheHit: true, Size: len(data)}, nil
	}

	var lastErr error
	for _, p := range s.order() {
		if !p.IsAvailable(ctx) {
			s.log.WithField("provider", p.Name()).Debug("provider unavailable, skipping")
			continue
		}

		voice := req.Character.VoiceFor(p.Name(), req.Emotion)
		audio, err := s.tryProvider(ctx, p, req.Text, voice, req.Options)
		if err != nil {
			lastErr = err
			s.log.WithError(err).WithField("provider", p.Name()).Warn("provider exhausted")
			if !s.cfg.Fallback {
				break
			}
			continue
		}

		if err := s.cache.Store(key, audio); err != nil {
			return nil, err
		}
		return &Result{
			Key:      key,
			URL:      s.cache.URLFor(key),
			Provider: p.Name(),
			Size:     len(audio),
		}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllProvidersFailed, lastErr)
	}
	return nil, ErrAllProvidersFailed
}

// tryProvider runs the per-provider retry loop. A typed timeout skips the
// remaining retries: a backend that ran out its deadline once is unlikely to
// answer within the same budget again.
func (s *Service) tryProvider(ctx context.Context, p Provider, text string, voice VoiceSettings, opts Options) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.RetryDelay):
			}
			s.log.WithFields(logrus.Fields{
				"provider": p.Name(),
				"attempt":  attempt + 1,
			}).Debug("retrying synthesis")
		}

		audio, err := p.GenerateAudio(ctx, text, voice, opts)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		if errors.Is(err, ErrTimeout) {
			break
		}
	}
	return nil, lastErr
}

// order puts the preferred provider first, the rest in registration order.
func (s *Service) order() []Provider {
	if s.cfg.Preferred == "" {
		return s.providers
	}
	ordered := make([]Provider, 0, len(s.providers))
	for _, p := range s.providers {
		if p.Name() == s.cfg.Preferred {
			ordered = append(ordered, p)
		}
	}
	for _, p := range s.providers {
		if p.Name() != s.cfg.Preferred {
			ordered = append(ordered, p)
		}
	}
	return ordered
}
