// Package cue provides the playback request domain entities.
package cue

import (
	"strconv"
	"time"
)

// Kind identifies which clip a request plays. The scheduler never
// interprets it; the locator maps it to a playable resource.
type Kind string

// Priority orders pending requests. Lower values play first.
type Priority int

// Named priority levels. Any int is accepted; these cover the common cases.
const (
	PriorityUrgent Priority = 10
	PriorityHigh   Priority = 20
	PriorityNormal Priority = 30
	PriorityLow    Priority = 40
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "urgent"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return strconv.Itoa(int(p))
	}
}

// Request represents one queued unit of playback work.
type Request struct {
	Kind       Kind      // Which clip to play
	Priority   Priority  // Lower value = more urgent
	Label      string    // Display name for queue listings (optional)
	EnqueuedAt time.Time // Time when the request was submitted
}

// NewRequest creates a Request with the current time as EnqueuedAt.
func NewRequest(kind Kind, priority Priority, label string) Request {
	return Request{
		Kind:       kind,
		Priority:   priority,
		Label:      label,
		EnqueuedAt: time.Now(),
	}
}

// Handle is an opaque reference to a resolved, playable resource.
// Produced by the locator, consumed by the player backend.
type Handle struct {
	Kind Kind   // Kind the handle was resolved from
	Path string // Filesystem path of the media file
	Size int64  // File size in bytes
}
