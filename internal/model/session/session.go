package session

import "time"

// Song is a single track reported by the radio automation.
type Song struct {
	Artist    string    `json:"artist"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds the ordered songs reported since the last reset.
// StartedAt and LastUpdated stay nil until the first song arrives.
type Session struct {
	ID          string
	Songs       []Song
	StartedAt   *time.Time
	LastUpdated *time.Time
}

// Snapshot is a read-only view of the current session.
type Snapshot struct {
	SongCount   int        `json:"song_count"`
	StartedAt   *time.Time `json:"started_at"`
	LastUpdated *time.Time `json:"last_updated"`
	Songs       []Song     `json:"songs"`
}
