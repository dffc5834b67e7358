package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/restrainapp/restrain/internal/cache"
	"github.com/restrainapp/restrain/internal/models"
	"github.com/restrainapp/restrain/internal/wire"
)

// Options configures the engine's timing behavior. Zero values take the
// production defaults; tests shrink them.
type Options struct {
	DebounceDelay    time.Duration // coalesce window for same-target mutations
	RetryBaseDelay   time.Duration // backoff unit; attempt n waits n*base
	MaxRetryAttempts int           // total write attempts before revert
	CacheTTL         time.Duration // read-cache validity window
	ErrorDisplayTime time.Duration // per-key errors auto-clear after this
	Clock            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DebounceDelay == 0 {
		o.DebounceDelay = 300 * time.Millisecond
	}
	if o.RetryBaseDelay == 0 {
		o.RetryBaseDelay = time.Second
	}
	if o.MaxRetryAttempts == 0 {
		o.MaxRetryAttempts = 3
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.ErrorDisplayTime == 0 {
		o.ErrorDisplayTime = 5 * time.Second
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Tracker is the synchronization engine. One instance is scoped to one
// authenticated user session and owns the in-memory collections, the
// optimistic ledger, the offline queue, and the read cache.
//
// All shared state is guarded by mu. Mutating paths read state, decide,
// and write the optimistic result under a single lock acquisition — never
// across a network call — so interleaved timers, listener events, and user
// mutations cannot lose updates.
type Tracker struct {
	opts   Options
	store  Store
	feed   Feed // nil disables live updates
	userID string

	sched *scheduler
	cache *cache.Cache

	mu        sync.Mutex
	habits    []models.Habit
	entries   []models.HabitEntry
	ledger    *ledger
	queue     *offlineQueue
	retries   map[string]int
	loading   map[string]bool
	errors    map[string]string
	errTimers map[string]*time.Timer
	online    bool
	selected  time.Time
	closed    bool

	cancelFeed context.CancelFunc
	feedDone   chan struct{}
}

// New creates an engine for one user session. feed may be nil when live
// updates are not wanted (one-shot CLI invocations).
func New(store Store, feed Feed, userID string, opts Options) *Tracker {
	opts = opts.withDefaults()
	return &Tracker{
		opts:      opts,
		store:     store,
		feed:      feed,
		userID:    userID,
		sched:     newScheduler(),
		cache:     cache.NewWithClock(opts.CacheTTL, opts.Clock),
		ledger:    newLedger(),
		queue:     &offlineQueue{},
		retries:   make(map[string]int),
		loading:   make(map[string]bool),
		errors:    make(map[string]string),
		errTimers: make(map[string]*time.Timer),
		online:    true,
		selected:  opts.Clock(),
	}
}

// Start loads both collections (through the cache) and, when a feed is
// configured, establishes the live change subscription.
func (t *Tracker) Start(ctx context.Context) error {
	if t.userID == "" {
		return ErrNotAuthenticated
	}
	if err := t.loadHabits(ctx, true); err != nil {
		return err
	}
	if err := t.loadEntries(ctx, true); err != nil {
		return err
	}

	if t.feed != nil {
		fctx, cancel := context.WithCancel(context.Background())
		ch, err := t.feed.Subscribe(fctx, t.userID)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribe changes: %w", err)
		}
		t.cancelFeed = cancel
		t.feedDone = make(chan struct{})
		go func() {
			defer close(t.feedDone)
			for ev := range ch {
				t.handleChange(ev)
			}
		}()
	}
	return nil
}

// Close tears the engine down: all pending debounce/retry timers are
// cancelled and the live subscription is released. In-flight writes are
// not aborted; their results are dropped because the ledger no longer
// holds their update.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	for key, tm := range t.errTimers {
		tm.Stop()
		delete(t.errTimers, key)
	}
	for id := range t.ledger.updates {
		t.ledger.remove(id)
	}
	t.mu.Unlock()

	t.sched.stop()
	if t.cancelFeed != nil {
		t.cancelFeed()
		<-t.feedDone
	}
}

// --- Connectivity ---

// SetOnline records a connectivity transition. Going from offline to
// online drains the offline queue exactly once, in submission order.
func (t *Tracker) SetOnline(online bool) {
	t.mu.Lock()
	was := t.online
	t.online = online
	var queued []*Update
	if online && !was {
		queued = t.queue.drain()
	}
	t.mu.Unlock()

	if len(queued) > 0 {
		go t.replay(queued)
	}
}

// IsOnline reports the last observed connectivity state.
func (t *Tracker) IsOnline() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}

// replay attempts each queued mutation once, bypassing debounce: the
// optimistic effect was already applied at submission time. Bounded retry
// belongs to the live scheduler, not this path — a failure while online is
// dropped with a logged error; a failure while offline re-enqueues.
func (t *Tracker) replay(queued []*Update) {
	for _, u := range queued {
		err := t.execute(context.Background(), u)
		if err == nil {
			t.cache.Invalidate(t.cacheKeyFor(u.Mutation))
			continue
		}

		t.mu.Lock()
		offline := !t.online
		if offline {
			t.queue.push(u)
		}
		t.mu.Unlock()

		if offline {
			slog.Info("replay deferred, still offline", "kind", u.Mutation.kind())
		} else {
			slog.Error("dropping queued mutation", "kind", u.Mutation.kind(), "key", u.Mutation.Key(), "err", err)
		}
	}
}

// --- Mutations ---

// ToggleEntry records completion state for a habit on the currently
// selected date. The optimistic effect is applied immediately; the network
// write is debounced per (habit, date) so rapid repeated toggles collapse
// into one call. Failures surface through the per-key error map.
func (t *Tracker) ToggleEntry(habitID string, completed bool, notes string) error {
	if t.userID == "" {
		t.mu.Lock()
		t.setErrorLocked("toggle", "not authenticated")
		t.mu.Unlock()
		return ErrNotAuthenticated
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}

	m := ToggleData{
		HabitID:   habitID,
		Date:      models.DateString(t.selected),
		Completed: completed,
		Notes:     notes,
	}
	key := m.Key()

	t.setLoadingLocked(loadingKey(m), true)
	t.clearErrorLocked(loadingKey(m))

	u := &Update{ID: uuid.NewString(), Mutation: m, Timestamp: t.opts.Clock()}
	t.applyToggleLocked(m)
	t.ledger.add(u) // displaces any pending update for this key
	t.sched.schedule(key, t.opts.DebounceDelay, func() { t.flush(key) })
	return nil
}

// AddHabit creates a habit. Creation is a discrete, low-frequency action,
// so the write goes out directly rather than through the debouncer; the
// temp record is replaced by the server-confirmed one on success and
// removed on failure. Offline, the mutation is queued instead.
func (t *Tracker) AddHabit(ctx context.Context, data models.Habit) error {
	if t.userID == "" {
		t.mu.Lock()
		t.setErrorLocked("addHabit", "not authenticated")
		t.mu.Unlock()
		return ErrNotAuthenticated
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}

	now := t.opts.Clock()
	h := data
	h.ID = models.TempIDPrefix + "habit-" + uuid.NewString()
	h.UserID = t.userID
	h.CreatedAt = now
	h.UpdatedAt = now

	t.setLoadingLocked("addHabit", true)
	t.clearErrorLocked("addHabit")
	t.habits = append([]models.Habit{h}, t.habits...)

	u := &Update{
		ID:        uuid.NewString(),
		Mutation:  AddHabitData{TempID: h.ID, Habit: h},
		Timestamp: now,
	}

	if !t.online {
		t.queue.push(u)
		t.setLoadingLocked("addHabit", false)
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	err := t.execute(ctx, u)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLoadingLocked("addHabit", false)
	if err != nil {
		t.habits = removeHabitByID(t.habits, h.ID)
		t.setErrorLocked("addHabit", "failed to add habit")
		return fmt.Errorf("add habit: %w", err)
	}
	t.cache.Invalidate(t.habitsCacheKey())
	return nil
}

// RemoveHabit soft-deletes a habit. The record disappears from the visible
// collection immediately; on failure it is restored from the captured
// snapshot, sorted back into position by creation time.
func (t *Tracker) RemoveHabit(ctx context.Context, habitID string) error {
	key := "removeHabit-" + habitID
	if t.userID == "" {
		t.mu.Lock()
		t.setErrorLocked(key, "not authenticated")
		t.mu.Unlock()
		return ErrNotAuthenticated
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}

	snapshot, ok := findHabit(t.habits, habitID)
	if !ok {
		t.setErrorLocked(key, "habit not found")
		t.mu.Unlock()
		return ErrHabitNotFound
	}

	t.setLoadingLocked(key, true)
	t.clearErrorLocked(key)
	t.habits = removeHabitByID(t.habits, habitID)

	u := &Update{
		ID:        uuid.NewString(),
		Mutation:  RemoveHabitData{HabitID: habitID},
		Timestamp: t.opts.Clock(),
	}

	if !t.online {
		t.queue.push(u)
		t.setLoadingLocked(key, false)
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	err := t.execute(ctx, u)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLoadingLocked(key, false)
	if err != nil {
		t.habits = append(t.habits, snapshot)
		sort.Slice(t.habits, func(i, j int) bool {
			return t.habits[i].CreatedAt.After(t.habits[j].CreatedAt)
		})
		t.setErrorLocked(key, "failed to remove habit")
		return fmt.Errorf("remove habit: %w", err)
	}
	t.cache.Invalidate(t.habitsCacheKey())
	return nil
}

// Refresh clears the cache and forces a non-cached reload of both
// collections. Manual recovery path.
func (t *Tracker) Refresh(ctx context.Context) error {
	t.cache.Clear()
	if err := t.loadHabits(ctx, false); err != nil {
		return err
	}
	return t.loadEntries(ctx, false)
}

// --- Debounced write path ---

// flush runs when a debounce or retry timer fires for one target key.
func (t *Tracker) flush(key string) {
	t.mu.Lock()
	u := t.ledger.byTarget(key)
	if u == nil || t.closed {
		// Superseded or disposed between timer arm and fire.
		t.mu.Unlock()
		return
	}
	if !t.online {
		// Migrate to the offline queue; optimistic state stays visible.
		t.ledger.remove(u.ID)
		t.queue.push(u)
		delete(t.retries, key)
		t.setLoadingLocked(loadingKey(u.Mutation), false)
		t.mu.Unlock()
		return
	}
	id := u.ID
	t.mu.Unlock()

	err := t.execute(context.Background(), u)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ledger.get(id) == nil {
		// Superseded or disposed while the write was in flight; the
		// newer mutation (or nobody) owns this key now.
		return
	}

	if err == nil {
		t.ledger.remove(id)
		delete(t.retries, key)
		t.cache.Invalidate(t.cacheKeyFor(u.Mutation))
		t.setLoadingLocked(loadingKey(u.Mutation), false)
		return
	}

	attempts := t.retries[key] + 1
	t.retries[key] = attempts
	if attempts < t.opts.MaxRetryAttempts {
		delay := time.Duration(attempts) * t.opts.RetryBaseDelay
		slog.Warn("write failed, retrying", "key", key, "attempt", attempts, "delay", delay, "err", err)
		u.RetryCount = attempts
		t.sched.schedule(key, delay, func() { t.flush(key) })
		return
	}

	// Retry ceiling reached: revert and surface the error.
	slog.Warn("write failed, reverting", "key", key, "attempts", attempts, "err", err)
	t.ledger.remove(id)
	delete(t.retries, key)
	t.setLoadingLocked(loadingKey(u.Mutation), false)
	t.setErrorLocked(loadingKey(u.Mutation), "failed to save changes")
	t.revertLocked(u.Mutation)
}

// revertLocked undoes the optimistic effect of a terminally failed
// mutation. Toggles revert by a forced non-cached reload (an entry row is
// tiny, and the reload also repairs any other divergence); habit mutations
// revert from in-hand state.
func (t *Tracker) revertLocked(m Mutation) {
	switch m := m.(type) {
	case ToggleData:
		go func() {
			if err := t.loadEntries(context.Background(), false); err != nil {
				slog.Error("revert reload failed", "err", err)
			}
		}()
	case AddHabitData:
		t.habits = removeHabitByID(t.habits, m.TempID)
	case RemoveHabitData:
		// Direct path reverts from its own snapshot; nothing to do here.
	}
}

// applyToggleLocked applies a toggle's optimistic effect: overwrite the
// existing entry for (habit, date) in place, or synthesize a temp entry.
func (t *Tracker) applyToggleLocked(m ToggleData) {
	now := t.opts.Clock()
	for i := range t.entries {
		if t.entries[i].HabitID == m.HabitID && t.entries[i].Date == m.Date {
			t.entries[i].Completed = m.Completed
			t.entries[i].Timestamp = now
			if m.Notes != "" {
				t.entries[i].Notes = m.Notes
			}
			return
		}
	}
	e := models.HabitEntry{
		ID:        models.TempIDPrefix + uuid.NewString(),
		HabitID:   m.HabitID,
		UserID:    t.userID,
		Date:      m.Date,
		Completed: m.Completed,
		Timestamp: now,
		Notes:     m.Notes,
	}
	t.entries = append([]models.HabitEntry{e}, t.entries...)
}

// execute performs the actual network write for one mutation.
func (t *Tracker) execute(ctx context.Context, u *Update) error {
	switch m := u.Mutation.(type) {
	case ToggleData:
		t.mu.Lock()
		existing, ok := findConfirmedEntry(t.entries, m.HabitID, m.Date)
		t.mu.Unlock()

		ts := t.opts.Clock().UTC().Format(time.RFC3339)
		if ok {
			upd := wire.EntryUpdate{Completed: m.Completed, Timestamp: ts}
			if m.Notes != "" {
				upd.Notes = &m.Notes
			}
			return t.store.UpdateEntry(ctx, t.userID, existing.ID, upd)
		}

		ins := wire.EntryInsertFrom(models.HabitEntry{
			HabitID:   m.HabitID,
			UserID:    t.userID,
			Date:      m.Date,
			Completed: m.Completed,
			Timestamp: t.opts.Clock(),
			Notes:     m.Notes,
		})
		row, err := t.store.InsertEntry(ctx, ins)
		if err != nil {
			return err
		}
		confirmed, terr := wire.ToEntry(*row)
		if terr != nil {
			slog.Warn("confirmed entry row unreadable", "err", terr)
			return nil
		}
		t.mu.Lock()
		t.confirmEntryLocked(m.HabitID, m.Date, confirmed.ID)
		t.mu.Unlock()
		return nil

	case AddHabitData:
		row, err := t.store.InsertHabit(ctx, wire.HabitInsertFrom(m.Habit))
		if err != nil {
			return err
		}
		confirmed, terr := wire.ToHabit(*row)
		if terr != nil {
			// The insert succeeded; the live feed will deliver the
			// confirmed row. Don't fail the mutation over a bad echo.
			slog.Warn("confirmed habit row unreadable", "err", terr)
			return nil
		}
		t.mu.Lock()
		t.replaceHabitLocked(m.TempID, confirmed)
		t.mu.Unlock()
		return nil

	case RemoveHabitData:
		return t.store.DeactivateHabit(ctx, t.userID, m.HabitID)
	}
	return fmt.Errorf("unknown mutation %T", u.Mutation)
}

// --- Loading ---

func (t *Tracker) loadHabits(ctx context.Context, useCache bool) error {
	key := t.habitsCacheKey()
	if useCache {
		if data, ok := t.cache.Get(key); ok {
			// Copy out so in-place edits never reach the cached slice.
			cached := data.([]models.Habit)
			habits := make([]models.Habit, len(cached))
			copy(habits, cached)
			t.mu.Lock()
			t.habits = habits
			t.mu.Unlock()
			return nil
		}
	}

	rows, err := t.store.ListHabits(ctx, t.userID)
	if err != nil {
		t.mu.Lock()
		t.setErrorLocked("habits", "failed to load habits")
		t.mu.Unlock()
		return fmt.Errorf("load habits: %w", err)
	}

	habits := make([]models.Habit, 0, len(rows))
	for _, r := range rows {
		h, err := wire.ToHabit(r)
		if err != nil {
			slog.Warn("skipping unreadable habit row", "id", r.ID, "err", err)
			continue
		}
		habits = append(habits, h)
	}

	t.mu.Lock()
	t.habits = habits
	t.mu.Unlock()
	cached := make([]models.Habit, len(habits))
	copy(cached, habits)
	t.cache.Set(key, cached)
	return nil
}

func (t *Tracker) loadEntries(ctx context.Context, useCache bool) error {
	key := t.entriesCacheKey()
	if useCache {
		if data, ok := t.cache.Get(key); ok {
			cached := data.([]models.HabitEntry)
			entries := make([]models.HabitEntry, len(cached))
			copy(entries, cached)
			t.mu.Lock()
			t.entries = entries
			t.mu.Unlock()
			return nil
		}
	}

	rows, err := t.store.ListEntries(ctx, t.userID)
	if err != nil {
		t.mu.Lock()
		t.setErrorLocked("entries", "failed to load entries")
		t.mu.Unlock()
		return fmt.Errorf("load entries: %w", err)
	}

	entries := make([]models.HabitEntry, 0, len(rows))
	for _, r := range rows {
		e, err := wire.ToEntry(r)
		if err != nil {
			slog.Warn("skipping unreadable entry row", "id", r.ID, "err", err)
			continue
		}
		entries = append(entries, e)
	}

	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()
	cached := make([]models.HabitEntry, len(entries))
	copy(cached, entries)
	t.cache.Set(key, cached)
	return nil
}

// --- Snapshots for the UI ---

// Habits returns a copy of the visible habit collection.
func (t *Tracker) Habits() []models.Habit {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Habit, len(t.habits))
	copy(out, t.habits)
	return out
}

// Entries returns a copy of the entry collection, optimistic entries
// included.
func (t *Tracker) Entries() []models.HabitEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.HabitEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// EntryFor returns the entry for a habit on the given date, if any.
func (t *Tracker) EntryFor(habitID string, date time.Time) (models.HabitEntry, bool) {
	ds := models.DateString(date)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.HabitID == habitID && e.Date == ds {
			return e, true
		}
	}
	return models.HabitEntry{}, false
}

// SetSelectedDate changes the date toggles apply to.
func (t *Tracker) SetSelectedDate(d time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = d
}

// SelectedDate returns the date toggles currently apply to.
func (t *Tracker) SelectedDate() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selected
}

// Errors returns a copy of the per-key error map.
func (t *Tracker) Errors() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.errors))
	for k, v := range t.errors {
		out[k] = v
	}
	return out
}

// ErrorFor returns the error message for one target key, if set.
func (t *Tracker) ErrorFor(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg, ok := t.errors[key]
	return msg, ok
}

// IsLoading reports whether a mutation for the given target key is in
// flight.
func (t *Tracker) IsLoading(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading[key]
}

// PendingUpdates returns the number of unconfirmed optimistic updates.
func (t *Tracker) PendingUpdates() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.len()
}

// QueueDepth returns the number of mutations waiting for connectivity.
func (t *Tracker) QueueDepth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.len()
}

// ClearError dismisses a per-key error before its display window lapses.
func (t *Tracker) ClearError(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearErrorLocked(key)
}

// --- Locked helpers ---

func (t *Tracker) setErrorLocked(key, msg string) {
	t.errors[key] = msg
	if tm, ok := t.errTimers[key]; ok {
		tm.Stop()
	}
	t.errTimers[key] = time.AfterFunc(t.opts.ErrorDisplayTime, func() {
		t.ClearError(key)
	})
}

func (t *Tracker) clearErrorLocked(key string) {
	delete(t.errors, key)
	if tm, ok := t.errTimers[key]; ok {
		tm.Stop()
		delete(t.errTimers, key)
	}
}

func (t *Tracker) setLoadingLocked(key string, v bool) {
	if v {
		t.loading[key] = true
	} else {
		delete(t.loading, key)
	}
}

// confirmEntryLocked swaps the temp placeholder's id for the confirmed
// one. Only the id changes: a newer optimistic toggle may have already
// rewritten the entry's fields, and those must stay visible until its own
// write settles.
func (t *Tracker) confirmEntryLocked(habitID, date, confirmedID string) {
	for i := range t.entries {
		if t.entries[i].HabitID == habitID && t.entries[i].Date == date &&
			models.IsTempID(t.entries[i].ID) {
			t.entries[i].ID = confirmedID
			return
		}
	}
}

func (t *Tracker) replaceHabitLocked(oldID string, h models.Habit) {
	for i := range t.habits {
		if t.habits[i].ID == oldID {
			t.habits[i] = h
			return
		}
	}
}

func (t *Tracker) habitsCacheKey() string  { return "habits-" + t.userID }
func (t *Tracker) entriesCacheKey() string { return "entries-" + t.userID }

func (t *Tracker) cacheKeyFor(m Mutation) string {
	if _, ok := m.(ToggleData); ok {
		return t.entriesCacheKey()
	}
	return t.habitsCacheKey()
}

// loadingKey maps a mutation to the key the UI watches for spinners and
// errors. Toggle state is tracked per habit, not per (habit, date), so a
// habit card shows one indicator regardless of the date being toggled.
func loadingKey(m Mutation) string {
	switch m := m.(type) {
	case ToggleData:
		return "toggle-" + m.HabitID
	case AddHabitData:
		return "addHabit"
	case RemoveHabitData:
		return "removeHabit-" + m.HabitID
	}
	return m.Key()
}

func findHabit(habits []models.Habit, id string) (models.Habit, bool) {
	for _, h := range habits {
		if h.ID == id {
			return h, true
		}
	}
	return models.Habit{}, false
}

func removeHabitByID(habits []models.Habit, id string) []models.Habit {
	out := habits[:0]
	for _, h := range habits {
		if h.ID != id {
			out = append(out, h)
		}
	}
	return out
}

func findConfirmedEntry(entries []models.HabitEntry, habitID, date string) (models.HabitEntry, bool) {
	for _, e := range entries {
		if e.HabitID == habitID && e.Date == date && !models.IsTempID(e.ID) {
			return e, true
		}
	}
	return models.HabitEntry{}, false
}
