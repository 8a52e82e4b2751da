package scheduler

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cuebox/internal/domain/cue"
)

// Errors
var (
	ErrCueNotFound   = errors.New("cue resource not found")
	ErrPlaybackStart = errors.New("playback start failed")
)

// Locator resolves a cue kind to a playable resource. Supplied by the
// embedding application; the scheduler never interprets the handle.
type Locator interface {
	Resolve(kind cue.Kind) (cue.Handle, error)
}

// Player begins playback of a resolved resource. StartPlayback is
// synchronous acceptance only; actual playback runs asynchronously. The
// player must report completion by calling Scheduler.OnPlaybackFinished
// with the same token exactly once, after playback ends naturally or by
// error, and never from inside the StartPlayback call itself.
type Player interface {
	StartPlayback(handle cue.Handle, token string) error
}

// QueueObserver receives an ordered copy of the pending queue after every
// queue mutation. While a cue is playing, the head of the snapshot is the
// playing request; it disappears when its playback finishes. Observers
// must not mutate the snapshot.
type QueueObserver interface {
	OnQueueChanged(snapshot []cue.Request)
}

// Config holds scheduler configuration.
type Config struct {
	OnStartFailure FailurePolicy // Policy when starting the queue head fails
}

// Scheduler guarantees that exactly one cue plays at a time, serves
// pending requests in priority order (FIFO among equal priorities) and
// advances automatically when the current playback finishes.
//
// Submit and OnPlaybackFinished may be called from any goroutine; one
// mutex covers both the queue and the state machine so a completion can
// never race a submission into a double start.
type Scheduler struct {
	mu sync.RWMutex

	queue   eventQueue
	state   State
	current *cue.Request
	token   string // Token of the outstanding playback; empty when idle

	nextSeq uint64

	locator  Locator
	player   Player
	observer QueueObserver

	config Config
}

// New creates a scheduler wired to the given collaborators. observer may
// be nil. The scheduler is built once by the composition root and lives
// for the process duration; it has no teardown of its own.
func New(config Config, locator Locator, player Player, observer QueueObserver) *Scheduler {
	return &Scheduler{
		state:    StateIdle,
		locator:  locator,
		player:   player,
		observer: observer,
		config:   config,
	}
}

// Submit enqueues the given request and starts it when nothing is
// playing. A request whose resource cannot be resolved is dropped without
// touching the queue or the state. Failures are logged, never returned;
// a playing cue is never interrupted by a submission, however urgent.
func (s *Scheduler) Submit(req cue.Request) {
	// Fail fast: a request for a missing resource never occupies a
	// queue slot.
	if _, err := s.locator.Resolve(req.Kind); err != nil {
		zlog.Warn().Msgf("scheduler: dropping submission: kind=%s priority=%s err=%v", req.Kind, req.Priority, err)
		return
	}

	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}

	s.mu.Lock()
	s.nextSeq++

	// While a cue plays it stays at the queue head; an arrival may jump
	// every pending request but never the playing one.
	from := 0
	if s.state == StatePlaying {
		from = 1
	}
	s.queue.insertFrom(from, queueEntry{req: req, seq: s.nextSeq})
	snapshots := [][]cue.Request{s.queue.snapshot()}

	if s.state == StateIdle {
		s.advanceLocked(&snapshots)
	}
	s.mu.Unlock()

	s.notify(snapshots)
}

// OnPlaybackFinished is the completion callback the player backend must
// invoke exactly once per accepted StartPlayback, regardless of whether
// the playback itself succeeded. The token guards against a completion
// racing a newer playback: a token that does not match the outstanding
// one is ignored. Calling this while idle is harmless.
func (s *Scheduler) OnPlaybackFinished(token string, success bool) {
	s.mu.Lock()

	if s.state != StatePlaying || token != s.token {
		s.mu.Unlock()
		zlog.Warn().Msgf("scheduler: ignoring stale playback completion: token=%s", token)
		return
	}

	finished := *s.current
	if success {
		zlog.Debug().Msgf("scheduler: playback finished: kind=%s", finished.Kind)
	} else {
		// A failed attempt advances the same way a successful one does.
		zlog.Warn().Msgf("scheduler: playback ended with failure: kind=%s", finished.Kind)
	}

	// The just-played request sits at the head; remove it.
	s.queue.popFront()
	s.current = nil
	s.token = ""
	s.state = StateIdle

	snapshots := [][]cue.Request{s.queue.snapshot()}
	s.advanceLocked(&snapshots)
	s.mu.Unlock()

	s.notify(snapshots)
}

// GetState returns the current scheduler state.
func (s *Scheduler) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns the request whose playback is outstanding.
func (s *Scheduler) Current() (cue.Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return cue.Request{}, false
	}
	return *s.current, true
}

// Snapshot returns a copy of the pending queue in play order, including
// the currently playing request at the head.
func (s *Scheduler) Snapshot() []cue.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.snapshot()
}

// QueueLen returns the number of pending requests, including the one
// currently playing.
func (s *Scheduler) QueueLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.len()
}

// advanceLocked tries to start the queue head. Under PolicySkip an
// unstartable head is discarded and the next one is tried; under
// PolicyStall the queue is left as is, waiting for the next Submit.
// Appends one snapshot per discarded head. Must be called with the lock
// held and the state idle.
func (s *Scheduler) advanceLocked(snapshots *[][]cue.Request) {
	for {
		if s.startHeadLocked() {
			return
		}
		if s.queue.isEmpty() || s.config.OnStartFailure == PolicyStall {
			return
		}
		dropped, _ := s.queue.popFront()
		zlog.Warn().Msgf("scheduler: skipping unstartable cue: kind=%s", dropped.req.Kind)
		*snapshots = append(*snapshots, s.queue.snapshot())
	}
}

// startHeadLocked re-peeks the head, resolves it and asks the player to
// begin playback. The head stays queued while it plays; the completion
// callback pops it. Returns true when the player accepted the start.
// Must be called with the lock held.
func (s *Scheduler) startHeadLocked() bool {
	head, ok := s.queue.peekFront()
	if !ok {
		return false
	}

	handle, err := s.locator.Resolve(head.req.Kind)
	if err != nil {
		zlog.Error().Msgf("scheduler: cannot resolve head: kind=%s err=%v", head.req.Kind, err)
		return false
	}

	token := uuid.New().String()
	if err := s.player.StartPlayback(handle, token); err != nil {
		zlog.Error().Msgf("scheduler: playback start rejected: kind=%s err=%v", head.req.Kind, err)
		return false
	}

	req := head.req
	s.current = &req
	s.token = token
	s.state = StatePlaying
	zlog.Debug().Msgf("scheduler: playback started: kind=%s priority=%s token=%s", req.Kind, req.Priority, token)
	return true
}

// notify delivers queue snapshots to the observer outside the lock, in
// mutation order.
func (s *Scheduler) notify(snapshots [][]cue.Request) {
	if s.observer == nil {
		return
	}
	for _, snap := range snapshots {
		s.observer.OnQueueChanged(snap)
	}
}
