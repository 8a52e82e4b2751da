package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/cuebox/internal/domain/cue"
)

func buildQueue(kinds []string, priorities []cue.Priority) *eventQueue {
	q := &eventQueue{}
	for i := range kinds {
		q.insert(queueEntry{
			req: cue.Request{Kind: cue.Kind(kinds[i]), Priority: priorities[i]},
			seq: uint64(i + 1),
		})
	}
	return q
}

func queueKinds(q *eventQueue) []string {
	kinds := make([]string, 0, q.len())
	for _, r := range q.snapshot() {
		kinds = append(kinds, string(r.Kind))
	}
	return kinds
}

func TestEventQueue_Insert_PriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		kinds      []string
		priorities []cue.Priority
		wantOrder  []string
	}{
		{
			name:       "single insert",
			kinds:      []string{"a"},
			priorities: []cue.Priority{30},
			wantOrder:  []string{"a"},
		},
		{
			name:       "ascending priorities keep arrival order",
			kinds:      []string{"a", "b", "c"},
			priorities: []cue.Priority{10, 20, 30},
			wantOrder:  []string{"a", "b", "c"},
		},
		{
			name:       "descending priorities reverse arrival order",
			kinds:      []string{"a", "b", "c"},
			priorities: []cue.Priority{30, 20, 10},
			wantOrder:  []string{"c", "b", "a"},
		},
		{
			name:       "mixed priorities",
			kinds:      []string{"a", "b", "c", "d"},
			priorities: []cue.Priority{30, 10, 40, 20},
			wantOrder:  []string{"b", "d", "a", "c"},
		},
		{
			name:       "urgent arrival jumps the whole queue",
			kinds:      []string{"a", "b", "c"},
			priorities: []cue.Priority{20, 20, 10},
			wantOrder:  []string{"c", "a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := buildQueue(tt.kinds, tt.priorities)
			assert.Equal(t, tt.wantOrder, queueKinds(q))
		})
	}
}

func TestEventQueue_Insert_FIFOAmongEqualPriorities(t *testing.T) {
	q := buildQueue(
		[]string{"a", "b", "c", "d", "e"},
		[]cue.Priority{30, 30, 10, 30, 10},
	)

	// Equal priorities keep submission order
	assert.Equal(t, []string{"c", "e", "a", "b", "d"}, queueKinds(q))
}

func TestEventQueue_Insert_SortedInvariant(t *testing.T) {
	q := buildQueue(
		[]string{"a", "b", "c", "d", "e", "f"},
		[]cue.Priority{25, 5, 40, 25, 5, 30},
	)

	snapshot := q.snapshot()
	for i := 1; i < len(snapshot); i++ {
		assert.LessOrEqual(t, snapshot[i-1].Priority, snapshot[i].Priority,
			"queue must be non-decreasing by priority")
	}
}

func TestEventQueue_InsertFrom_ProtectsHead(t *testing.T) {
	q := buildQueue([]string{"playing"}, []cue.Priority{30})

	// An urgent arrival may not displace the in-flight head
	q.insertFrom(1, queueEntry{
		req: cue.Request{Kind: "urgent", Priority: 10},
		seq: 2,
	})
	q.insertFrom(1, queueEntry{
		req: cue.Request{Kind: "casual", Priority: 40},
		seq: 3,
	})

	assert.Equal(t, []string{"playing", "urgent", "casual"}, queueKinds(q))
}

func TestEventQueue_PopFront(t *testing.T) {
	q := buildQueue([]string{"a", "b"}, []cue.Priority{20, 10})

	head, ok := q.popFront()
	assert.True(t, ok)
	assert.Equal(t, cue.Kind("b"), head.req.Kind)

	head, ok = q.popFront()
	assert.True(t, ok)
	assert.Equal(t, cue.Kind("a"), head.req.Kind)

	_, ok = q.popFront()
	assert.False(t, ok)
	assert.True(t, q.isEmpty())
}

func TestEventQueue_PeekFront(t *testing.T) {
	q := &eventQueue{}

	_, ok := q.peekFront()
	assert.False(t, ok)

	q.insert(queueEntry{req: cue.Request{Kind: "a", Priority: 30}, seq: 1})

	head, ok := q.peekFront()
	assert.True(t, ok)
	assert.Equal(t, cue.Kind("a"), head.req.Kind)
	assert.Equal(t, 1, q.len(), "peek must not remove the head")
}

func TestEventQueue_Snapshot_IsACopy(t *testing.T) {
	q := buildQueue([]string{"a", "b"}, []cue.Priority{10, 20})

	snapshot := q.snapshot()
	snapshot[0].Kind = "mutated"

	assert.Equal(t, []string{"a", "b"}, queueKinds(q))
}
