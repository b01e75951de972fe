package song

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	sessionservice "songteller/internal/service/session"
	"songteller/internal/service/teller"
)

type fakeTeller struct {
	result    sessionservice.AddResult
	err       error
	gotArtist string
	gotTitle  string
}

func (f *fakeTeller) AddSong(artist, title string) (sessionservice.AddResult, error) {
	f.gotArtist, f.gotTitle = artist, title
	if f.err != nil {
		return sessionservice.AddResult{}, f.err
	}
	return f.result, nil
}

func postSong(t *testing.T, fake *fakeTeller, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	New(fake).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/song", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return m
}

func TestAddSong(t *testing.T) {
	fake := &fakeTeller{result: sessionservice.AddResult{Added: true, Total: 1}}
	rr := postSong(t, fake, `{"artist":"Iron Maiden","title":"The Prisoner"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != "success" || body["message"] != "Song added" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["total_songs"] != float64(1) {
		t.Fatalf("expected total_songs 1, got %v", body["total_songs"])
	}
	if fake.gotArtist != "Iron Maiden" || fake.gotTitle != "The Prisoner" {
		t.Fatalf("teller got %q / %q", fake.gotArtist, fake.gotTitle)
	}
}

func TestAddSongSkippedDuplicate(t *testing.T) {
	fake := &fakeTeller{result: sessionservice.AddResult{Added: false, Total: 3}}
	rr := postSong(t, fake, `{"artist":"Pink Floyd","title":"Time"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != "skipped" || body["message"] != "Song already in session" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["total_songs"] != float64(3) {
		t.Fatalf("expected total_songs 3, got %v", body["total_songs"])
	}
}

func TestAddSongRejectsBadJSON(t *testing.T) {
	rr := postSong(t, &fakeTeller{}, `{"artist":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] == "" {
		t.Fatalf("expected error message, got %v", body)
	}
}

func TestAddSongMissingFields(t *testing.T) {
	fake := &fakeTeller{err: sessionservice.ErrEmptyTitle}
	rr := postSong(t, fake, `{"artist":"Iron Maiden"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "Both artist and title are required" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestAddSongConflictWhileProcessing(t *testing.T) {
	fake := &fakeTeller{err: teller.ErrProcessing}
	rr := postSong(t, fake, `{"artist":"Kraftwerk","title":"The Model"}`)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}
