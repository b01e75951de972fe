package audio

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Player plays commentary files through the default audio device.
// Playback is serialized; the speaker is re-initialized per file so
// wav and mp3 sample rates can differ.
type Player struct {
	mu sync.Mutex
}

func NewPlayer() *Player {
	return &Player{}
}

// PlayFile decodes and plays an audio file, blocking until playback
// finishes. The container is picked by file extension; anything other
// than wav or mp3 is an error.
func (p *Player) PlayFile(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("decode audio file: %w", err)
	}
	defer streamer.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done

	return nil
}

// PlayAndDelete plays the file and removes it afterwards. Failures are
// logged, not returned.
func (p *Player) PlayAndDelete(path string) {
	log.Printf("[audio] playing %s", path)
	if err := p.PlayFile(path); err != nil {
		log.Printf("[audio] playback failed for %s: %v", path, err)
	}
	if err := os.Remove(path); err != nil {
		log.Printf("[audio] could not delete %s: %v", path, err)
	} else {
		log.Printf("[audio] deleted played file %s", path)
	}
}
