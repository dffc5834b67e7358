package tracker

// ledger tracks optimistic updates that were applied locally but not yet
// confirmed by the backend. At most one entry exists per target key: a new
// mutation for the same key supersedes the pending one instead of stacking.
// All access is serialized by the owning Tracker's mutex.
type ledger struct {
	updates map[string]*Update // by update ID
	byKey   map[string]string  // target key -> update ID
}

func newLedger() *ledger {
	return &ledger{
		updates: make(map[string]*Update),
		byKey:   make(map[string]string),
	}
}

// add records an update, displacing any pending update for the same key.
// Returns the displaced update, if any.
func (l *ledger) add(u *Update) *Update {
	key := u.Mutation.Key()
	var displaced *Update
	if prevID, ok := l.byKey[key]; ok {
		displaced = l.updates[prevID]
		delete(l.updates, prevID)
	}
	l.updates[u.ID] = u
	l.byKey[key] = u.ID
	return displaced
}

// get returns the update with the given id, or nil.
func (l *ledger) get(id string) *Update {
	return l.updates[id]
}

// byTarget returns the pending update for a target key, or nil.
func (l *ledger) byTarget(key string) *Update {
	id, ok := l.byKey[key]
	if !ok {
		return nil
	}
	return l.updates[id]
}

// remove drops an update by id. Safe to call for ids already removed.
func (l *ledger) remove(id string) {
	u, ok := l.updates[id]
	if !ok {
		return
	}
	delete(l.updates, id)
	key := u.Mutation.Key()
	if l.byKey[key] == id {
		delete(l.byKey, key)
	}
}

func (l *ledger) len() int {
	return len(l.updates)
}
