package tracker

// offlineQueue holds mutations deferred because connectivity was absent at
// the moment their write would have fired. FIFO; drained exactly once per
// offline-to-online transition. Guarded by the owning Tracker's mutex.
type offlineQueue struct {
	items []*Update
}

func (q *offlineQueue) push(u *Update) {
	q.items = append(q.items, u)
}

// drain removes and returns all queued updates in submission order.
func (q *offlineQueue) drain() []*Update {
	items := q.items
	q.items = nil
	return items
}

func (q *offlineQueue) len() int {
	return len(q.items)
}
