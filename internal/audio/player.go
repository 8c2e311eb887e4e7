package audio

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Player plays cached audio through the system output. One stream at a
// time; starting a new one stops the previous.
type Player struct {
	mu        sync.Mutex
	ctrl      *beep.Ctrl
	streamer  beep.StreamSeekCloser
	isPlaying bool
	done      chan struct{}
}

func NewPlayer() *Player {
	return &Player{}
}

// Play decodes and plays one audio file's bytes. The format is picked by
// extension: .wav from the local engine, .mp3 from everything else.
func (p *Player) Play(name string, data []byte) error {
	var streamer beep.StreamSeekCloser
	var format beep.Format
	var err error

	r := io.NopCloser(bytes.NewReader(data))
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		streamer, format, err = wav.Decode(r)
	default:
		streamer, format, err = mp3.Decode(r)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer != nil {
		p.streamer.Close()
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		streamer.Close()
		return fmt.Errorf("failed to init speaker: %w", err)
	}

	p.streamer = streamer
	p.ctrl = &beep.Ctrl{Streamer: streamer, Paused: false}
	p.done = make(chan struct{})
	p.isPlaying = true

	done := p.done
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		p.mu.Lock()
		p.isPlaying = false
		p.mu.Unlock()
		close(done)
	})))
	return nil
}

// Wait blocks until the current stream finishes. No-op when idle.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
	}
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.isPlaying = false
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isPlaying
}
