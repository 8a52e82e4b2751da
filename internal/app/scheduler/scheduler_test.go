package scheduler

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/cuebox/internal/domain/cue"
)

type fakeLocator struct {
	missing map[cue.Kind]bool
}

func (l *fakeLocator) Resolve(kind cue.Kind) (cue.Handle, error) {
	if l.missing[kind] {
		return cue.Handle{}, errors.Wrapf(ErrCueNotFound, "missing cue %q", kind)
	}
	return cue.Handle{Kind: kind, Path: "/media/" + string(kind) + ".wav"}, nil
}

type fakePlayer struct {
	mu      sync.Mutex
	rejects map[cue.Kind]bool
	starts  []string
	tokens  []string
}

func (p *fakePlayer) StartPlayback(handle cue.Handle, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rejects[handle.Kind] {
		return errors.Wrapf(ErrPlaybackStart, "cue %q", handle.Kind)
	}
	p.starts = append(p.starts, string(handle.Kind))
	p.tokens = append(p.tokens, token)
	return nil
}

func (p *fakePlayer) startedKinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.starts...)
}

func (p *fakePlayer) lastToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tokens) == 0 {
		return ""
	}
	return p.tokens[len(p.tokens)-1]
}

type fakeObserver struct {
	snapshots [][]cue.Request
}

func (o *fakeObserver) OnQueueChanged(snapshot []cue.Request) {
	o.snapshots = append(o.snapshots, snapshot)
}

func (o *fakeObserver) lastKinds() []string {
	if len(o.snapshots) == 0 {
		return nil
	}
	last := o.snapshots[len(o.snapshots)-1]
	kinds := make([]string, len(last))
	for i, r := range last {
		kinds[i] = string(r.Kind)
	}
	return kinds
}

type fixture struct {
	locator  *fakeLocator
	player   *fakePlayer
	observer *fakeObserver
	sched    *Scheduler
}

func newFixture(policy FailurePolicy) *fixture {
	f := &fixture{
		locator:  &fakeLocator{missing: make(map[cue.Kind]bool)},
		player:   &fakePlayer{rejects: make(map[cue.Kind]bool)},
		observer: &fakeObserver{},
	}
	f.sched = New(Config{OnStartFailure: policy}, f.locator, f.player, f.observer)
	return f
}

// finishCurrent reports completion of the outstanding playback, the way
// a real player backend would.
func (f *fixture) finishCurrent(t *testing.T, success bool) {
	t.Helper()
	token := f.player.lastToken()
	require.NotEmpty(t, token, "no playback outstanding")
	f.sched.OnPlaybackFinished(token, success)
}

func req(kind string, priority cue.Priority) cue.Request {
	return cue.NewRequest(cue.Kind(kind), priority, "")
}

func TestScheduler_SubmitStartsWhenIdle(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.Submit(req("doorbell", cue.PriorityNormal))

	assert.Equal(t, []string{"doorbell"}, f.player.startedKinds())
	assert.Equal(t, StatePlaying, f.sched.GetState())

	current, ok := f.sched.Current()
	require.True(t, ok)
	assert.Equal(t, cue.Kind("doorbell"), current.Kind)

	// The playing request stays at the queue head until it finishes
	assert.Equal(t, 1, f.sched.QueueLen())
	assert.Equal(t, []string{"doorbell"}, f.observer.lastKinds())
}

func TestScheduler_AutoAdvance(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.Submit(req("a", 1))
	f.sched.Submit(req("b", 2))

	assert.Equal(t, []string{"a"}, f.player.startedKinds())

	// b starts without a new submission once a finishes
	f.finishCurrent(t, true)
	assert.Equal(t, []string{"a", "b"}, f.player.startedKinds())
	assert.Equal(t, StatePlaying, f.sched.GetState())

	f.finishCurrent(t, true)
	assert.Equal(t, StateIdle, f.sched.GetState())
	assert.Equal(t, 0, f.sched.QueueLen())
	_, ok := f.sched.Current()
	assert.False(t, ok)
}

func TestScheduler_SingleActivePlayback(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.Submit(req("a", 10))
	f.sched.Submit(req("b", 10))
	f.sched.Submit(req("c", 5))

	// No second start without an intervening completion
	assert.Len(t, f.player.startedKinds(), 1)

	f.finishCurrent(t, true)
	assert.Len(t, f.player.startedKinds(), 2)

	f.finishCurrent(t, true)
	assert.Len(t, f.player.startedKinds(), 3)
}

func TestScheduler_TieBreakFIFO(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.Submit(req("background", 1))
	f.sched.Submit(req("x", 5))
	f.sched.Submit(req("y", 5))

	f.finishCurrent(t, true)
	assert.Equal(t, []string{"background", "x"}, f.player.startedKinds())

	f.finishCurrent(t, true)
	assert.Equal(t, []string{"background", "x", "y"}, f.player.startedKinds())
}

func TestScheduler_UrgentSubmissionDoesNotInterrupt(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.Submit(req("a", 5))
	f.sched.Submit(req("b", 1))

	// b jumps every pending request but not the playing one
	assert.Equal(t, []string{"a"}, f.player.startedKinds())
	assert.Equal(t, StatePlaying, f.sched.GetState())
	assert.Equal(t, []string{"a", "b"}, f.observer.lastKinds())

	f.finishCurrent(t, true)
	assert.Equal(t, []string{"a", "b"}, f.player.startedKinds())
}

func TestScheduler_FailFastSubmission(t *testing.T) {
	f := newFixture(PolicyStall)
	f.locator.missing["ghost"] = true

	f.sched.Submit(req("ghost", cue.PriorityUrgent))

	assert.Equal(t, StateIdle, f.sched.GetState())
	assert.Equal(t, 0, f.sched.QueueLen())
	assert.Empty(t, f.player.startedKinds())
	assert.Empty(t, f.observer.snapshots, "a dropped submission must not notify the observer")
}

func TestScheduler_FinishWhileIdleIsIgnored(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.OnPlaybackFinished("bogus-token", true)

	assert.Equal(t, StateIdle, f.sched.GetState())
	assert.Empty(t, f.observer.snapshots)
}

func TestScheduler_StaleTokenIgnored(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.Submit(req("a", 10))
	f.sched.Submit(req("b", 20))
	notifications := len(f.observer.snapshots)

	f.sched.OnPlaybackFinished("not-the-current-token", true)

	assert.Equal(t, StatePlaying, f.sched.GetState())
	assert.Equal(t, 2, f.sched.QueueLen())
	assert.Len(t, f.observer.snapshots, notifications, "a stale completion must not mutate the queue")

	current, ok := f.sched.Current()
	require.True(t, ok)
	assert.Equal(t, cue.Kind("a"), current.Kind)
}

func TestScheduler_FailedPlaybackStillAdvances(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.Submit(req("a", 10))
	f.sched.Submit(req("b", 20))

	f.finishCurrent(t, false)

	assert.Equal(t, []string{"a", "b"}, f.player.startedKinds())
	assert.Equal(t, StatePlaying, f.sched.GetState())
}

func TestScheduler_StallPolicyLeavesQueueWaiting(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.Submit(req("a", 10))
	f.sched.Submit(req("b", 20))
	f.sched.Submit(req("c", 30))

	// b's file disappears after it was accepted
	f.locator.missing["b"] = true

	f.finishCurrent(t, true)

	// The queue shrank by a, but nothing is audible
	assert.Equal(t, StateIdle, f.sched.GetState())
	assert.Equal(t, []string{"a"}, f.player.startedKinds())
	assert.Equal(t, []string{"b", "c"}, f.observer.lastKinds())

	// A new submission unsticks the queue
	f.locator.missing["b"] = false
	f.sched.Submit(req("d", 40))
	assert.Equal(t, []string{"a", "b"}, f.player.startedKinds())
}

func TestScheduler_SkipPolicyDiscardsFailedHead(t *testing.T) {
	f := newFixture(PolicySkip)

	f.sched.Submit(req("a", 10))
	f.sched.Submit(req("b", 20))
	f.sched.Submit(req("c", 30))

	f.locator.missing["b"] = true

	f.finishCurrent(t, true)

	// b is dropped and c plays
	assert.Equal(t, []string{"a", "c"}, f.player.startedKinds())
	assert.Equal(t, StatePlaying, f.sched.GetState())
	assert.Equal(t, []string{"c"}, f.observer.lastKinds())
}

func TestScheduler_StartRejectionOnSubmitStalls(t *testing.T) {
	f := newFixture(PolicyStall)
	f.player.rejects["a"] = true

	f.sched.Submit(req("a", 10))

	// The request is queued but nothing plays
	assert.Equal(t, StateIdle, f.sched.GetState())
	assert.Empty(t, f.player.startedKinds())
	assert.Equal(t, []string{"a"}, f.observer.lastKinds())
}

func TestScheduler_ObserverSnapshotsStaySorted(t *testing.T) {
	f := newFixture(PolicyStall)

	f.sched.Submit(req("a", 30))
	f.sched.Submit(req("b", 10))
	f.sched.Submit(req("c", 40))
	f.sched.Submit(req("d", 10))
	f.sched.Submit(req("e", 30))

	// Skip index 0: the playing head keeps its slot regardless of its
	// priority. The pending tail must stay sorted after every mutation.
	for _, snapshot := range f.observer.snapshots {
		for i := 2; i < len(snapshot); i++ {
			assert.LessOrEqual(t, snapshot[i-1].Priority, snapshot[i].Priority)
		}
	}

	assert.Equal(t, []string{"a", "b", "d", "e", "c"}, f.observer.lastKinds())
}
