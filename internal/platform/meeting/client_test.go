package meeting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestCreateMeeting(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/meetings" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["reference"] != id.String() {
			t.Errorf("unexpected reference %q", req["reference"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"join_url": "https://meet.example.com/room-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	url, err := c.CreateMeeting(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://meet.example.com/room-1" {
		t.Errorf("unexpected url %q", url)
	}
}

func TestCreateMeeting_RetriesTransientFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"join_url": "https://meet.example.com/room-2"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	url, err := c.CreateMeeting(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://meet.example.com/room-2" {
		t.Errorf("unexpected url %q", url)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestCreateMeeting_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	_, err := c.CreateMeeting(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if !strings.Contains(err.Error(), "attempts") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCreateMeeting_EmptyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	if _, err := c.CreateMeeting(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error for missing join url")
	}
}
