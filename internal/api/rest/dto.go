package rest

import (
	"time"

	"github.com/osa030/cuebox/internal/app/notification"
	"github.com/osa030/cuebox/internal/domain/cue"
)

// submitRequest is the POST /api/cues payload. Priority and label fall
// back to the library defaults for the kind when omitted.
type submitRequest struct {
	Kind     string `json:"kind"`
	Priority *int   `json:"priority,omitempty"`
	Label    string `json:"label,omitempty"`
}

// requestInfo is the wire form of a queued request.
type requestInfo struct {
	Kind       string    `json:"kind"`
	Priority   int       `json:"priority"`
	Label      string    `json:"label,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// queueResponse is the GET /api/queue payload.
type queueResponse struct {
	Queue []requestInfo `json:"queue"`
}

// statusResponse is the GET /api/status payload.
type statusResponse struct {
	State       string       `json:"state"`
	Current     *requestInfo `json:"current,omitempty"`
	QueueLength int          `json:"queue_length"`
}

// queueUpdateInfo is one SSE event payload on GET /api/events.
type queueUpdateInfo struct {
	SequenceNo uint64        `json:"sequence_no"`
	Queue      []requestInfo `json:"queue"`
}

func toRequestInfo(r cue.Request) requestInfo {
	return requestInfo{
		Kind:       string(r.Kind),
		Priority:   int(r.Priority),
		Label:      r.Label,
		EnqueuedAt: r.EnqueuedAt,
	}
}

func toRequestInfos(reqs []cue.Request) []requestInfo {
	infos := make([]requestInfo, len(reqs))
	for i, r := range reqs {
		infos[i] = toRequestInfo(r)
	}
	return infos
}

func toQueueUpdateInfo(u notification.QueueUpdate) queueUpdateInfo {
	return queueUpdateInfo{
		SequenceNo: u.SequenceNo,
		Queue:      toRequestInfos(u.Requests),
	}
}
