package audio

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"songteller/internal/service/speech"
)

// filePlayer is what the sink needs from the Player.
type filePlayer interface {
	PlayAndDelete(path string)
}

// Sink routes synthesized commentary to the speaker. In buffered mode
// new audio is written to buffered_commentary.<ext> and held for the
// next session; otherwise it is played immediately from a temp file.
type Sink struct {
	player   filePlayer
	dir      string
	format   string
	buffered bool
}

// NewSink builds a sink writing its buffer files under dir. format is
// the audio container extension the synthesizer produces ("wav"/"mp3").
func NewSink(player *Player, dir, format string, buffered bool) *Sink {
	return &Sink{player: player, dir: dir, format: format, buffered: buffered}
}

func (s *Sink) bufferPath() string {
	return filepath.Join(s.dir, "buffered_commentary."+s.format)
}

func (s *Sink) playingPath() string {
	return filepath.Join(s.dir, "playing_commentary."+s.format)
}

// Write stores synthesized audio. Buffered mode saves it for the next
// session; immediate mode plays it right away and deletes the file.
func (s *Sink) Write(audio speech.Audio) error {
	if s.buffered {
		path := s.bufferPath()
		if err := os.WriteFile(path, audio.Data, 0o644); err != nil {
			return fmt.Errorf("write buffered commentary: %w", err)
		}
		log.Printf("[audio] commentary buffered to %s for the next session", path)
		return nil
	}

	tmp, err := os.CreateTemp("", "commentary-*."+audio.Format)
	if err != nil {
		return fmt.Errorf("create playback file: %w", err)
	}
	path := tmp.Name()
	if _, err := tmp.Write(audio.Data); err != nil {
		tmp.Close()
		os.Remove(path)
		return fmt.Errorf("write playback file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close playback file: %w", err)
	}

	s.player.PlayAndDelete(path)
	return nil
}

// PlayBuffered promotes commentary buffered during the previous session
// to the playing file and starts asynchronous playback. It reports
// whether a buffer existed.
func (s *Sink) PlayBuffered() bool {
	buffer := s.bufferPath()
	if _, err := os.Stat(buffer); err != nil {
		return false
	}

	playing := s.playingPath()
	if _, err := os.Stat(playing); err == nil {
		if err := os.Remove(playing); err != nil {
			log.Printf("[audio] could not remove stale playing file %s: %v", playing, err)
		}
	}
	if err := os.Rename(buffer, playing); err != nil {
		log.Printf("[audio] could not promote buffered commentary: %v", err)
		return false
	}

	log.Printf("[audio] starting async playback of %s", playing)
	go s.player.PlayAndDelete(playing)
	return true
}
