package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"paperstage/internal/script/emotion"
	"paperstage/internal/tts/cache"
)

type fakeProvider struct {
	name      string
	available bool
	calls     int
	failures  int
	err       error
	audio     []byte
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return f.available }
func (f *fakeProvider) Status(ctx context.Context) Status {
	return Status{Name: f.name, Available: f.available}
}

func (f *fakeProvider) GenerateAudio(ctx context.Context, text string, voice VoiceSettings, opts Options) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return nil, f.err
		}
		return nil, &ProviderError{Provider: f.name, Code: 500, Message: "boom"}
	}
	if f.audio == nil {
		return []byte("audio-" + f.name), nil
	}
	return f.audio, nil
}

func testCharacter() *Character {
	return &Character{
		ID:        "rin",
		Archetype: emotion.ArchetypeEnergetic,
		Voices:    map[string]string{"a": "voice-a", "b": "voice-b"},
	}
}

func newTestService(t *testing.T, cfg ServiceConfig, providers ...Provider) *Service {
	t.Helper()
	c, err := cache.New(cache.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	return NewService(cfg, c, providers...)
}

func TestGenerateSpeechCacheHitIsTerminal(t *testing.T) {
	p := &fakeProvider{name: "a", available: true}
	svc := newTestService(t, ServiceConfig{Fallback: true}, p)
	req := Request{Text: "你好", Character: testCharacter(), Emotion: emotion.Neutral}

	first, err := svc.GenerateSpeech(context.Background(), req)
	if err != nil {
		t.Fatalf("first synthesis failed: %v", err)
	}
	if first.CacheHit || first.Provider != "a" {
		t.Fatalf("unexpected first result %+v", first)
	}

	// second call must not touch any provider
	p.available = false
	second, err := svc.GenerateSpeech(context.Background(), req)
	if err != nil {
		t.Fatalf("cached synthesis failed: %v", err)
	}
	if !second.CacheHit {
		t.Fatalf("expected cache hit, got %+v", second)
	}
	if second.Key != first.Key {
		t.Fatalf("key changed between calls: %q vs %q", second.Key, first.Key)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls got=%d want=1", p.calls)
	}
}

func TestGenerateSpeechSkipsUnavailableProvider(t *testing.T) {
	down := &fakeProvider{name: "a", available: false}
	up := &fakeProvider{name: "b", available: true}
	svc := newTestService(t, ServiceConfig{Fallback: true}, down, up)

	res, err := svc.GenerateSpeech(context.Background(), Request{
		Text: "hello", Character: testCharacter(), Emotion: emotion.Neutral,
	})
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}
	if res.Provider != "b" {
		t.Fatalf("provider got=%q want=b", res.Provider)
	}
	if down.calls != 0 {
		t.Fatalf("unavailable provider was called %d times", down.calls)
	}
}

func TestGenerateSpeechRetriesThenFallsBack(t *testing.T) {
	flaky := &fakeProvider{name: "a", available: true, failures: 10}
	backup := &fakeProvider{name: "b", available: true}
	svc := newTestService(t, ServiceConfig{Fallback: true, MaxRetries: 2}, flaky, backup)

	res, err := svc.GenerateSpeech(context.Background(), Request{
		Text: "hello", Character: testCharacter(), Emotion: emotion.Neutral,
	})
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}
	if res.Provider != "b" {
		t.Fatalf("provider got=%q want=b", res.Provider)
	}
	// initial attempt plus two retries
	if flaky.calls != 3 {
		t.Fatalf("flaky calls got=%d want=3", flaky.calls)
	}
}

func TestGenerateSpeechTimeoutSkipsRetries(t *testing.T) {
	slow := &fakeProvider{name: "a", available: true, failures: 10, err: ErrTimeout}
	backup := &fakeProvider{name: "b", available: true}
	svc := newTestService(t, ServiceConfig{Fallback: true, MaxRetries: 3}, slow, backup)

	res, err := svc.GenerateSpeech(context.Background(), Request{
		Text: "hello", Character: testCharacter(), Emotion: emotion.Neutral,
	})
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}
	if res.Provider != "b" {
		t.Fatalf("provider got=%q want=b", res.Provider)
	}
	if slow.calls != 1 {
		t.Fatalf("timed-out provider calls got=%d want=1", slow.calls)
	}
}

func TestGenerateSpeechFallbackDisabled(t *testing.T) {
	broken := &fakeProvider{name: "a", available: true, failures: 10}
	backup := &fakeProvider{name: "b", available: true}
	svc := newTestService(t, ServiceConfig{Fallback: false}, broken, backup)

	_, err := svc.GenerateSpeech(context.Background(), Request{
		Text: "hello", Character: testCharacter(), Emotion: emotion.Neutral,
	})
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("error got=%v want ErrAllProvidersFailed", err)
	}
	if backup.calls != 0 {
		t.Fatalf("backup was called with fallback disabled")
	}
}

func TestGenerateSpeechPreferredOrder(t *testing.T) {
	a := &fakeProvider{name: "a", available: true}
	b := &fakeProvider{name: "b", available: true}
	svc := newTestService(t, ServiceConfig{Preferred: "b", Fallback: true}, a, b)

	res, err := svc.GenerateSpeech(context.Background(), Request{
		Text: "hello", Character: testCharacter(), Emotion: emotion.Neutral,
	})
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}
	if res.Provider != "b" {
		t.Fatalf("provider got=%q want=b", res.Provider)
	}
	if a.calls != 0 {
		t.Fatalf("non-preferred provider was tried first")
	}
}

func TestGenerateSpeechAllFail(t *testing.T) {
	a := &fakeProvider{name: "a", available: true, failures: 10}
	b := &fakeProvider{name: "b", available: false}
	svc := newTestService(t, ServiceConfig{Fallback: true}, a, b)

	_, err := svc.GenerateSpeech(context.Background(), Request{
		Text: "hello", Character: testCharacter(), Emotion: emotion.Neutral,
	})
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("error got=%v want ErrAllProvidersFailed", err)
	}
}

func TestGenerateSpeechValidation(t *testing.T) {
	svc := newTestService(t, ServiceConfig{}, &fakeProvider{name: "a", available: true})
	if _, err := svc.GenerateSpeech(context.Background(), Request{Character: testCharacter()}); err == nil {
		t.Fatalf("expected error on empty text")
	}
	if _, err := svc.GenerateSpeech(context.Background(), Request{Text: "x"}); err == nil {
		t.Fatalf("expected error on missing character")
	}
}

func TestCacheKeyUsesRemappedEmotion(t *testing.T) {
	// energetic remaps happy to excited, so happy and excited requests
	// share one cache entry
	p := &fakeProvider{name: "a", available: true}
	svc := newTestService(t, ServiceConfig{}, p)
	ch := testCharacter()

	first, err := svc.GenerateSpeech(context.Background(), Request{Text: "好", Character: ch, Emotion: emotion.Happy})
	if err != nil {
		t.Fatalf("first synthesis failed: %v", err)
	}
	second, err := svc.GenerateSpeech(context.Background(), Request{Text: "好", Character: ch, Emotion: emotion.Excited})
	if err != nil {
		t.Fatalf("second synthesis failed: %v", err)
	}
	if first.Key != second.Key || !second.CacheHit {
		t.Fatalf("expected shared entry, got %+v then %+v", first, second)
	}
}
