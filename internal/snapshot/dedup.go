package snapshot

// seenWindow is a bounded first-in-first-out set of recently seen
// event ids.  Realtime transports may redeliver, so merges must be
// idempotent; remembering every id for the lifetime of a session
// would grow without bound, so the window evicts its oldest entry
// once the capacity is reached.
type seenWindow struct {
	capacity int
	order    []string
	next     int
	index    map[string]struct{}
}

func newSeenWindow(capacity int) *seenWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &seenWindow{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		index:    make(map[string]struct{}, capacity),
	}
}

// Add records an event id and reports whether it was new.  A false
// return means the id was already inside the window and the caller
// should absorb the duplicate silently.
func (w *seenWindow) Add(id string) bool {
	if id == "" {
		// Events without ids cannot be deduplicated; treat as new.
		return true
	}
	if _, ok := w.index[id]; ok {
		return false
	}
	if len(w.order) < w.capacity {
		w.order = append(w.order, id)
	} else {
		evicted := w.order[w.next]
		delete(w.index, evicted)
		w.order[w.next] = id
		w.next = (w.next + 1) % w.capacity
	}
	w.index[id] = struct{}{}
	return true
}

// Len returns the number of ids currently tracked.
func (w *seenWindow) Len() int {
	return len(w.index)
}
