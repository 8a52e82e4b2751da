package scheduler

import "github.com/osa030/cuebox/internal/domain/cue"

// queueEntry is one pending request plus its arrival sequence number.
// seq breaks priority ties in favor of earlier submissions and is never
// exposed outside the scheduler.
type queueEntry struct {
	req cue.Request
	seq uint64
}

// eventQueue keeps pending requests in play order: non-decreasing by
// priority, FIFO among equal priorities. Not safe for concurrent use;
// the owning Scheduler serializes access.
type eventQueue struct {
	entries []queueEntry
}

// insert places e immediately before the first entry whose priority is
// strictly lower (numerically greater), so a new arrival lands after all
// existing entries of the same or higher priority.
func (q *eventQueue) insert(e queueEntry) {
	q.insertFrom(0, e)
}

// insertFrom inserts like insert but never before index from. The
// scheduler passes from=1 while a playback is in flight, so the playing
// head keeps its slot and an urgent arrival cannot displace it; the
// pending tail behind it stays in priority order.
func (q *eventQueue) insertFrom(from int, e queueEntry) {
	if from > len(q.entries) {
		from = len(q.entries)
	}

	pos := len(q.entries)
	for i := from; i < len(q.entries); i++ {
		if q.entries[i].req.Priority > e.req.Priority {
			pos = i
			break
		}
	}

	q.entries = append(q.entries, queueEntry{})
	copy(q.entries[pos+1:], q.entries[pos:])
	q.entries[pos] = e
}

// popFront removes and returns the head of the queue.
func (q *eventQueue) popFront() (queueEntry, bool) {
	if len(q.entries) == 0 {
		return queueEntry{}, false
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head, true
}

// peekFront returns the head of the queue without removing it.
func (q *eventQueue) peekFront() (queueEntry, bool) {
	if len(q.entries) == 0 {
		return queueEntry{}, false
	}
	return q.entries[0], true
}

// isEmpty returns true if the queue has no pending requests.
func (q *eventQueue) isEmpty() bool {
	return len(q.entries) == 0
}

// len returns the number of pending requests.
func (q *eventQueue) len() int {
	return len(q.entries)
}

// snapshot returns a copy of the pending requests in play order.
func (q *eventQueue) snapshot() []cue.Request {
	result := make([]cue.Request, len(q.entries))
	for i, e := range q.entries {
		result[i] = e.req
	}
	return result
}
