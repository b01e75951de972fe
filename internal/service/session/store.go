package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	sessionmodel "songteller/internal/model/session"
)

var (
	ErrEmptyArtist = errors.New("artist is required")
	ErrEmptyTitle  = errors.New("title is required")
)

// AddResult reports the outcome of recording a song.
type AddResult struct {
	Song  sessionmodel.Song
	Added bool
	Total int
}

// Store owns the current listening session. All access goes through the
// store so handlers never share mutable session state directly.
type Store struct {
	mu      sync.RWMutex
	current sessionmodel.Session
}

// NewStore bootstraps an empty session.
func NewStore() *Store {
	return &Store{current: sessionmodel.Session{ID: uuid.NewString()}}
}

// AddSong appends a song stamped with the current time. A song whose
// artist/title pair is already in the session is not appended again;
// the result reports Added=false with the unchanged count.
func (s *Store) AddSong(artist, title string) (AddResult, error) {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if artist == "" {
		return AddResult{}, ErrEmptyArtist
	}
	if title == "" {
		return AddResult{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.current.Songs {
		if existing.Artist == artist && existing.Title == title {
			return AddResult{Song: existing, Added: false, Total: len(s.current.Songs)}, nil
		}
	}

	now := time.Now().UTC()
	song := sessionmodel.Song{Artist: artist, Title: title, Timestamp: now}
	s.current.Songs = append(s.current.Songs, song)
	s.current.LastUpdated = &now
	if s.current.StartedAt == nil {
		s.current.StartedAt = &now
	}

	return AddResult{Song: song, Added: true, Total: len(s.current.Songs)}, nil
}

// Status returns a snapshot of the current session. The songs slice is
// a copy, so callers can hold it across further mutations.
func (s *Store) Status() sessionmodel.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	songs := make([]sessionmodel.Song, len(s.current.Songs))
	copy(songs, s.current.Songs)

	return sessionmodel.Snapshot{
		SongCount:   len(songs),
		StartedAt:   s.current.StartedAt,
		LastUpdated: s.current.LastUpdated,
		Songs:       songs,
	}
}

// ID returns the identifier of the current accumulation period.
func (s *Store) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.ID
}

// Reset drains the session and reinitializes it to empty with a fresh
// identifier. The drained songs are returned in insertion order.
func (s *Store) Reset() []sessionmodel.Song {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := s.current.Songs
	s.current = sessionmodel.Session{ID: uuid.NewString()}
	return drained
}
