package memory

// Queue is the waiting list of rooms holding exactly one member. It is
// an ordered set: FIFO order is preserved, ids appear at most once.
// Like Store, it relies on the caller for serialization.
type Queue struct {
	ids []string
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push enqueues roomID unless it is empty or already queued.
func (q *Queue) Push(roomID string) {
	if roomID == "" || q.Contains(roomID) {
		return
	}
	q.ids = append(q.ids, roomID)
}

func (q *Queue) Remove(roomID string) {
	ids := make([]string, 0, len(q.ids))
	for _, id := range q.ids {
		if id != roomID {
			ids = append(ids, id)
		}
	}
	q.ids = ids
}

func (q *Queue) Contains(roomID string) bool {
	for _, id := range q.ids {
		if id == roomID {
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	return len(q.ids)
}

func (q *Queue) Clear() {
	q.ids = nil
}

// Snapshot returns a copy in queue order. Never nil, the wire format
// expects an array.
func (q *Queue) Snapshot() []string {
	out := make([]string, len(q.ids))
	copy(out, q.ids)
	return out
}
