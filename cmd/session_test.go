package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/restrainapp/restrain/internal/backend"
	"github.com/restrainapp/restrain/internal/config"
	"github.com/restrainapp/restrain/internal/localdb"
	"github.com/restrainapp/restrain/internal/wire"
)

// fakeServer records writes the flush path sends.
type fakeServer struct {
	mu          sync.Mutex
	entries     []wire.EntryRow
	inserted    []wire.EntryInsert
	updated     []string // entry ids PATCHed
	habitsAdded []wire.HabitInsert
	deactivated []string
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("GET /v1/entries", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(f.entries)
	})
	mux.HandleFunc("POST /v1/entries", func(w http.ResponseWriter, r *http.Request) {
		var ins wire.EntryInsert
		json.NewDecoder(r.Body).Decode(&ins)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.inserted = append(f.inserted, ins)
		row := wire.EntryRow{
			ID: "e-new", HabitID: ins.HabitID, UserID: ins.UserID,
			Date: ins.Date, Completed: ins.Completed, Timestamp: ins.Timestamp,
		}
		f.entries = append(f.entries, row)
		json.NewEncoder(w).Encode(row)
	})
	mux.HandleFunc("PATCH /v1/entries/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.updated = append(f.updated, r.URL.Path)
	})
	mux.HandleFunc("POST /v1/habits", func(w http.ResponseWriter, r *http.Request) {
		var ins wire.HabitInsert
		json.NewDecoder(r.Body).Decode(&ins)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.habitsAdded = append(f.habitsAdded, ins)
		now := time.Now().UTC().Format(time.RFC3339)
		json.NewEncoder(w).Encode(wire.HabitRow{
			ID: "h-new", UserID: ins.UserID, Name: ins.Name, Category: ins.Category,
			CreatedAt: now, UpdatedAt: now, StartDate: ins.StartDate, IsActive: true,
		})
	})
	mux.HandleFunc("PATCH /v1/habits/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deactivated = append(f.deactivated, r.URL.Path)
	})
	return mux
}

func testSession(t *testing.T, srv *httptest.Server) *session {
	t.Helper()
	db, err := localdb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("localdb.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &session{
		creds:  &config.Credentials{APIKey: "key", UserID: "user-1", DeviceID: "dev"},
		client: backend.New(srv.URL, "key"),
		db:     db,
		online: true,
	}
}

func TestFlushPendingReplaysInOrder(t *testing.T) {
	fs := &fakeServer{}
	srv := httptest.NewServer(fs.handler())
	defer srv.Close()
	s := testSession(t, srv)

	if err := s.db.Enqueue(localdb.KindToggle, localdb.Toggle{
		HabitID: "h-1", Date: "2026-08-31", Completed: true,
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := s.db.Enqueue(localdb.KindRemoveHabit, localdb.RemoveHabit{HabitID: "h-2"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := s.flushPending(context.Background()); err != nil {
		t.Fatalf("flushPending: %v", err)
	}

	fs.mu.Lock()
	if len(fs.inserted) != 1 || fs.inserted[0].HabitID != "h-1" {
		t.Errorf("inserted = %+v", fs.inserted)
	}
	if len(fs.deactivated) != 1 {
		t.Errorf("deactivated = %v", fs.deactivated)
	}
	fs.mu.Unlock()

	n, err := s.db.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if n != 0 {
		t.Errorf("queue depth after flush = %d, want 0", n)
	}
}

func TestFlushPendingUpdatesExistingEntry(t *testing.T) {
	fs := &fakeServer{
		entries: []wire.EntryRow{{
			ID: "e-1", HabitID: "h-1", UserID: "user-1",
			Date: "2026-08-31", Completed: false,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
	srv := httptest.NewServer(fs.handler())
	defer srv.Close()
	s := testSession(t, srv)

	if err := s.db.Enqueue(localdb.KindToggle, localdb.Toggle{
		HabitID: "h-1", Date: "2026-08-31", Completed: true,
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := s.flushPending(context.Background()); err != nil {
		t.Fatalf("flushPending: %v", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.inserted) != 0 {
		t.Errorf("existing entry should be updated, not inserted: %+v", fs.inserted)
	}
	if len(fs.updated) != 1 {
		t.Errorf("updated = %v, want one PATCH", fs.updated)
	}
}

func TestFlushPendingStopsOnFailure(t *testing.T) {
	// Server rejects habit creation; the later removal must stay queued.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/entries", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]wire.EntryRow{})
	})
	mux.HandleFunc("POST /v1/habits", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"invalid_input","message":"bad"}`, http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	s := testSession(t, srv)

	s.db.Enqueue(localdb.KindAddHabit, localdb.AddHabit{})
	s.db.Enqueue(localdb.KindRemoveHabit, localdb.RemoveHabit{HabitID: "h-2"})

	if err := s.flushPending(context.Background()); err == nil {
		t.Fatal("expected flush to fail")
	}
	n, _ := s.db.PendingCount()
	if n != 2 {
		t.Errorf("queue depth = %d, want 2 (nothing applied, order preserved)", n)
	}
}
