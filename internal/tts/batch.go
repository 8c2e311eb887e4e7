package tts

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"paperstage/internal/script/emotion"
	"paperstage/internal/script/parser"
)

const defaultBatchConcurrency = 3

// formula-only lines carry no speech, only rendered math
var formulaRe = regexp.MustCompile(`^[\s0-9+\-*/^=<>≤≥≈()\[\]{}.,:;%\\$_|]+$`)

// BatchItem is one line queued for synthesis.
type BatchItem struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Speaker   string `json:"speaker"`
	Character *Character
	Emotion   emotion.Result `json:"emotion"`
}

// ItemResult is the per-item outcome. Items are independent: one failure
// never aborts its siblings.
type ItemResult struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// BatchResult summarizes one run.
type BatchResult struct {
	BatchID   string        `json:"batch_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	CacheHits int           `json:"cache_hits"`
	TotalTime time.Duration `json:"total_time"`
	Items     []ItemResult  `json:"items"`
}

// Progress is emitted after each completed item.
type Progress struct {
	BatchID   string `json:"batch_id"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	LastIndex int    `json:"last_index"`
	Preview   string `json:"preview"`
}

const previewRunes = 20

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "…"
}

// ProgressFunc receives progress snapshots. May be nil.
type ProgressFunc func(Progress)

// BatchProcessor drives bulk synthesis over a parsed script: extract the
// speakable dialogue, detect emotion per line, then synthesize with bounded
// parallelism.
type BatchProcessor struct {
	service     *Service
	detector    *emotion.Detector
	cast        *Cast
	concurrency int
	log         *logrus.Entry
}

func NewBatchProcessor(service *Service, detector *emotion.Detector, cast *Cast, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &BatchProcessor{
		service:     service,
		detector:    detector,
		cast:        cast,
		concurrency: concurrency,
		log:         logrus.WithField("component", "batch"),
	}
}

// ExtractSpeakable walks parsed sentences and collects the dialogue lines
// worth synthesizing. A continuation line without a speaker inherits the
// previous one. Lines whose speaker the cast cannot resolve are dropped
// with a warning; lines that already reference a vocal asset are left
// alone, the script author recorded those by hand.
func (b *BatchProcessor) ExtractSpeakable(sentences []parser.Sentence) (items []BatchItem, skipped int) {
	var lastCharacter *Character
	var lastSpeaker string

	for i, s := range sentences {
		if s.Command != parser.CommandSay {
			continue
		}
		text := strings.TrimSpace(s.Content)
		if text == "" || formulaRe.MatchString(text) {
			continue
		}
		if _, voiced := s.ArgString("vocal"); voiced {
			continue
		}

		speaker, hasSpeaker := s.Speaker()
		ch := lastCharacter
		if hasSpeaker {
			resolved, ok := b.cast.Resolve(speaker)
			if !ok {
				b.log.WithFields(logrus.Fields{
					"line":    i,
					"speaker": speaker,
				}).Warn("speaker not in cast, skipping line")
				skipped++
				lastCharacter = nil
				lastSpeaker = speaker
				continue
			}
			ch = resolved
			lastSpeaker = speaker
		}
		if ch == nil {
			// continuation of an unresolved or absent speaker
			skipped++
			continue
		}
		lastCharacter = ch

		items = append(items, BatchItem{
			Index:     i,
			Text:      text,
			Speaker:   lastSpeaker,
			Character: ch,
			Emotion:   b.detector.Detect(text),
		})
	}
	return items, skipped
}

// Process synthesizes items in chunks of the configured concurrency: full
// parallelism inside a chunk, a cancellation check between chunks so a dead
// context stops scheduling new work.
func (b *BatchProcessor) Process(ctx context.Context, items []BatchItem, skipped int, onProgress ProgressFunc) *BatchResult {
	start := time.Now()
	result := &BatchResult{
		BatchID: uuid.NewString(),
		Total:   len(items),
		Skipped: skipped,
		Items:   make([]ItemResult, len(items)),
	}

	statsBefore := b.service.Cache().Stats()

	var mu sync.Mutex
	done := 0

	for start := 0; start < len(items); start += b.concurrency {
		if err := ctx.Err(); err != nil {
			for j := start; j < len(items); j++ {
				result.Items[j] = ItemResult{Index: items[j].Index, Error: err.Error()}
				result.Failed++
			}
			break
		}

		end := start + b.concurrency
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for j := start; j < end; j++ {
			wg.Add(1)
			go func(slot int, item BatchItem) {
				defer wg.Done()

				// a caller-supplied emotion wins; directly constructed
				// items without one get the detector's label
				detected := item.Emotion
				if detected.Emotion == "" {
					detected = b.detector.Detect(item.Text)
				}

				res, err := b.service.GenerateSpeech(ctx, Request{
					Text:      item.Text,
					Character: item.Character,
					Emotion:   detected.Emotion,
				})

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Items[slot] = ItemResult{Index: item.Index, Error: err.Error()}
					result.Failed++
				} else {
					result.Items[slot] = ItemResult{Index: item.Index, Key: res.Key, URL: res.URL}
					result.Succeeded++
				}
				done++
				if onProgress != nil {
					onProgress(Progress{
						BatchID:   result.BatchID,
						Done:      done,
						Total:     result.Total,
						LastIndex: item.Index,
						Preview:   preview(item.Text),
					})
				}
			}(j, items[j])
		}
		wg.Wait()
	}

	statsAfter := b.service.Cache().Stats()
	result.CacheHits = int(statsAfter.Hits - statsBefore.Hits)
	result.TotalTime = time.Since(start)

	b.log.WithFields(logrus.Fields{
		"batch":     result.BatchID,
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
		"cache":     result.CacheHits,
	}).Info("batch complete")
	return result
}

// ProcessScript parses, extracts and synthesizes in one call.
func (b *BatchProcessor) ProcessScript(ctx context.Context, p *parser.Parser, script string, onProgress ProgressFunc) *BatchResult {
	items, skipped := b.ExtractSpeakable(p.ParseScript(script))
	return b.Process(ctx, items, skipped, onProgress)
}
