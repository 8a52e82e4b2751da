// Package scheduler provides sequential cue playback on top of a
// priority-ordered request queue.
package scheduler

import "github.com/cockroachdb/errors"

// State represents the scheduler state.
type State int

const (
	StateIdle    State = iota // No cue playing
	StatePlaying              // A cue is playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// FailurePolicy decides what happens when starting the queue head fails.
type FailurePolicy int

const (
	// PolicyStall leaves the queue untouched after a failed start; the
	// pending requests wait for the next Submit to unstick them.
	PolicyStall FailurePolicy = iota
	// PolicySkip discards the failed head and tries the next request.
	PolicySkip
)

// String returns the string representation of the policy.
func (p FailurePolicy) String() string {
	switch p {
	case PolicyStall:
		return "stall"
	case PolicySkip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseFailurePolicy parses a policy name as used in configuration.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "stall", "":
		return PolicyStall, nil
	case "skip":
		return PolicySkip, nil
	default:
		return PolicyStall, errors.Newf("unknown failure policy: %s", s)
	}
}
