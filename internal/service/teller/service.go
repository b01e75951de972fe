package teller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	sessionmodel "songteller/internal/model/session"
	sessionservice "songteller/internal/service/session"
	"songteller/internal/service/speech"
)

// ErrProcessing reports that a processed reset is already in flight.
// Song adds and further resets are rejected until it finishes.
var ErrProcessing = errors.New("session is currently being processed")

// Event types pushed to the websocket feed.
const (
	EventSongAdded    = "song_added"
	EventSessionReset = "session_reset"
)

// Event is the envelope broadcast to connected event listeners.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Narrator produces commentary text for a finished session.
type Narrator interface {
	GenerateNarrative(ctx context.Context, songs []sessionmodel.Song) (string, error)
}

// Synthesizer turns narrative text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (speech.Audio, error)
}

// Sink receives synthesized audio for playback or buffering.
// PlayBuffered promotes commentary buffered during the previous session
// and starts async playback; it reports whether a buffer existed.
type Sink interface {
	Write(audio speech.Audio) error
	PlayBuffered() bool
}

// Publisher broadcasts session events to listeners.
type Publisher interface {
	Publish(event Event)
}

// Config captures the processing flags the orchestrator honors on reset.
type Config struct {
	SaveSession bool
	PlayAudio   bool
	BufferAudio bool
	ArchiveDir  string
}

// ResetOptions controls what a reset does besides clearing the session.
type ResetOptions struct {
	Process          bool
	PlayOpeningAudio bool
}

// ResetOutcome reports what a reset did. LLMErr and TTSErr are soft
// failures: the session is cleared either way.
type ResetOutcome struct {
	SongsProcessed int
	Narrative      string
	LLMErr         error
	TTSErr         error
}

// Service coordinates the session store, the narrator, and the speech
// pipeline. It owns the accumulating/processing state machine: songs
// accumulate freely until a processed reset, which runs the pipeline
// exclusively and rejects concurrent mutations with ErrProcessing.
type Service struct {
	store    *sessionservice.Store
	narrator Narrator
	synth    Synthesizer
	sink     Sink
	events   Publisher
	cfg      Config

	mu         sync.Mutex
	processing bool
}

// NewService wires the orchestrator. synth, sink, and events may be nil
// when the corresponding feature is disabled.
func NewService(store *sessionservice.Store, narrator Narrator, synth Synthesizer, sink Sink, events Publisher, cfg Config) *Service {
	return &Service{
		store:    store,
		narrator: narrator,
		synth:    synth,
		sink:     sink,
		events:   events,
		cfg:      cfg,
	}
}

// AddSong records a song in the current session. Rejected with
// ErrProcessing while a reset is running.
func (s *Service) AddSong(artist, title string) (sessionservice.AddResult, error) {
	s.mu.Lock()
	busy := s.processing
	s.mu.Unlock()
	if busy {
		return sessionservice.AddResult{}, ErrProcessing
	}

	result, err := s.store.AddSong(artist, title)
	if err != nil {
		return sessionservice.AddResult{}, err
	}

	if result.Added {
		log.Printf("[teller] added: %s - %s (total: %d)", result.Song.Artist, result.Song.Title, result.Total)
		s.publish(EventSongAdded, map[string]any{
			"artist":      result.Song.Artist,
			"title":       result.Song.Title,
			"total_songs": result.Total,
		})
	} else {
		log.Printf("[teller] skipped duplicate: %s - %s", result.Song.Artist, result.Song.Title)
	}
	return result, nil
}

// Status returns a snapshot of the current session.
func (s *Service) Status() sessionmodel.Snapshot {
	return s.store.Status()
}

// Reset drains the session and, when opts.Process is set, runs the
// archive/audio/narrative pipeline over the drained songs. The session
// is cleared whatever the pipeline outcome; LLM and TTS failures come
// back in the ResetOutcome instead of failing the reset.
func (s *Service) Reset(ctx context.Context, opts ResetOptions) (ResetOutcome, error) {
	if !s.beginProcessing() {
		return ResetOutcome{}, ErrProcessing
	}
	defer s.endProcessing()

	songs := s.store.Reset()
	outcome := ResetOutcome{SongsProcessed: len(songs)}

	if opts.Process && len(songs) > 0 {
		s.process(ctx, songs, opts.PlayOpeningAudio, &outcome)
	}

	log.Printf("[teller] session reset (processed %d songs)", outcome.SongsProcessed)
	s.publish(EventSessionReset, map[string]any{
		"songs_processed": outcome.SongsProcessed,
	})
	return outcome, nil
}

func (s *Service) beginProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return false
	}
	s.processing = true
	return true
}

func (s *Service) endProcessing() {
	s.mu.Lock()
	s.processing = false
	s.mu.Unlock()
}

// process runs the pipeline over the drained songs: archive, opening
// audio, narrative, then synthesis of the new commentary.
func (s *Service) process(ctx context.Context, songs []sessionmodel.Song, playOpeningAudio bool, outcome *ResetOutcome) {
	log.Printf("[teller] closing session with %d songs", len(songs))

	if s.cfg.SaveSession {
		s.archiveSongs(songs)
	}

	wantAudio := playOpeningAudio && s.cfg.PlayAudio && s.synth != nil && s.sink != nil

	// Commentary buffered during the previous session opens this one.
	if wantAudio && s.cfg.BufferAudio {
		if !s.sink.PlayBuffered() {
			log.Printf("[teller] no buffered commentary found, nothing to play yet")
		}
	}

	if s.narrator == nil {
		outcome.LLMErr = errors.New("narrator is not configured")
		return
	}

	narrative, err := s.narrator.GenerateNarrative(ctx, songs)
	if err != nil {
		outcome.LLMErr = err
		log.Printf("[teller] narrative generation failed: %v", err)
		return
	}
	outcome.Narrative = narrative

	if !wantAudio || narrative == "" {
		return
	}

	audio, err := s.synth.Synthesize(ctx, narrative)
	if err != nil {
		outcome.TTSErr = err
		log.Printf("[teller] speech synthesis failed: %v", err)
		return
	}
	if err := s.sink.Write(audio); err != nil {
		outcome.TTSErr = err
		log.Printf("[teller] audio output failed: %v", err)
	}
}

// archiveSongs writes the drained songs to a timestamped JSON file.
// Archive failures are warnings, never reset failures.
func (s *Service) archiveSongs(songs []sessionmodel.Song) {
	name := fmt.Sprintf("song_session_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.cfg.ArchiveDir, name)

	data, err := json.MarshalIndent(songs, "", "  ")
	if err != nil {
		log.Printf("[teller] could not encode session archive: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("[teller] could not write session archive %s: %v", path, err)
		return
	}
	log.Printf("[teller] session saved to %s", path)
}

func (s *Service) publish(eventType string, data any) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
}
