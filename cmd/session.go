package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/restrainapp/restrain/internal/backend"
	"github.com/restrainapp/restrain/internal/config"
	"github.com/restrainapp/restrain/internal/localdb"
	"github.com/restrainapp/restrain/internal/models"
	"github.com/restrainapp/restrain/internal/tracker"
	"github.com/restrainapp/restrain/internal/wire"
)

// session is the shared state a command runs against: credentials, the
// backend client, the local database, and when the server is reachable, a
// started tracker.
type session struct {
	creds  *config.Credentials
	client *backend.Client
	db     *localdb.DB
	tr     *tracker.Tracker
	online bool
}

// openSession authenticates, probes connectivity, and prepares either a
// live tracker (online) or the last snapshot (offline). Queued offline
// mutations are pushed before the tracker loads so the fresh state already
// includes them.
func openSession(ctx context.Context) (*session, error) {
	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil || creds.APIKey == "" {
		return nil, fmt.Errorf("not logged in: run 'restrain login' first")
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	db, err := localdb.Open(dir)
	if err != nil {
		return nil, err
	}

	s := &session{
		creds:  creds,
		client: backend.New(config.ServerURL(), creds.APIKey),
		db:     db,
	}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err = s.client.Health(probeCtx)
	cancel()
	s.online = err == nil
	if !s.online {
		slog.Info("server unreachable, working offline", "err", err)
		return s, nil
	}

	if err := s.flushPending(ctx); err != nil {
		slog.Warn("flushing queued mutations failed", "err", err)
	}

	tr := tracker.New(s.client, nil, creds.UserID, tracker.Options{})
	tr.SetOnline(true)
	if err := tr.Start(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.tr = tr

	if err := db.SaveSnapshot(tr.Habits(), tr.Entries()); err != nil {
		slog.Warn("saving snapshot failed", "err", err)
	}
	return s, nil
}

func (s *session) close() {
	if s.tr != nil {
		s.tr.Close()
	}
	s.db.Close()
}

// state returns the collections commands render: live tracker state when
// online, the stored snapshot otherwise.
func (s *session) state() ([]models.Habit, []models.HabitEntry, error) {
	if s.tr != nil {
		return s.tr.Habits(), s.tr.Entries(), nil
	}
	return s.db.LoadSnapshot()
}

// findHabit resolves a habit by id or (case-exact) name.
func (s *session) findHabit(ref string) (models.Habit, error) {
	habits, _, err := s.state()
	if err != nil {
		return models.Habit{}, err
	}
	for _, h := range habits {
		if h.ID == ref || h.Name == ref {
			return h, nil
		}
	}
	return models.Habit{}, fmt.Errorf("no habit matching %q", ref)
}

// settle waits for the tracker's debounced writes and queue to drain.
func (s *session) settle(timeout time.Duration) bool {
	if s.tr == nil {
		return true
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.tr.PendingUpdates() == 0 && s.tr.QueueDepth() == 0 {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

// flushPending replays the durable offline queue against the backend in
// submission order. Stops at the first failure so ordering is preserved
// for the next attempt.
func (s *session) flushPending(ctx context.Context) error {
	pending, err := s.db.PendingMutations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	slog.Info("replaying queued mutations", "count", len(pending))

	// One entries fetch up front so toggles can tell insert from update.
	entryIDs := make(map[string]string)
	rows, err := s.client.ListEntries(ctx, s.creds.UserID)
	if err != nil {
		return fmt.Errorf("list entries for replay: %w", err)
	}
	for _, r := range rows {
		entryIDs[r.HabitID+"|"+r.Date] = r.ID
	}

	for _, p := range pending {
		if err := s.applyPending(ctx, p, entryIDs); err != nil {
			return fmt.Errorf("apply queued %s: %w", p.Kind, err)
		}
		if err := s.db.DeletePending(p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) applyPending(ctx context.Context, p localdb.Pending, entryIDs map[string]string) error {
	switch p.Kind {
	case localdb.KindToggle:
		var tg localdb.Toggle
		if err := json.Unmarshal(p.Payload, &tg); err != nil {
			return err
		}
		ts := p.CreatedAt
		if ts.IsZero() {
			ts = time.Now()
		}
		if id, ok := entryIDs[tg.HabitID+"|"+tg.Date]; ok {
			upd := wire.EntryUpdate{Completed: tg.Completed, Timestamp: ts.UTC().Format(time.RFC3339)}
			if tg.Notes != "" {
				upd.Notes = &tg.Notes
			}
			return s.client.UpdateEntry(ctx, s.creds.UserID, id, upd)
		}
		row, err := s.client.InsertEntry(ctx, wire.EntryInsertFrom(models.HabitEntry{
			HabitID:   tg.HabitID,
			UserID:    s.creds.UserID,
			Date:      tg.Date,
			Completed: tg.Completed,
			Timestamp: ts,
			Notes:     tg.Notes,
		}))
		if err != nil {
			return err
		}
		entryIDs[tg.HabitID+"|"+tg.Date] = row.ID
		return nil

	case localdb.KindAddHabit:
		var ah localdb.AddHabit
		if err := json.Unmarshal(p.Payload, &ah); err != nil {
			return err
		}
		ah.Habit.UserID = s.creds.UserID
		_, err := s.client.InsertHabit(ctx, wire.HabitInsertFrom(ah.Habit))
		return err

	case localdb.KindRemoveHabit:
		var rh localdb.RemoveHabit
		if err := json.Unmarshal(p.Payload, &rh); err != nil {
			return err
		}
		err := s.client.DeactivateHabit(ctx, s.creds.UserID, rh.HabitID)
		if errors.Is(err, backend.ErrNotFound) {
			return nil // already gone
		}
		return err
	}
	return fmt.Errorf("unknown queued mutation kind %q", p.Kind)
}
