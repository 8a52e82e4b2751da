// Package library resolves cue kinds to media files on disk.
package library

import (
	"os"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/osa030/cuebox/internal/app/scheduler"
	"github.com/osa030/cuebox/internal/domain/cue"
	"github.com/osa030/cuebox/internal/infra/config"
)

// Entry is one configured cue.
type Entry struct {
	Path     string       // Media file path
	Priority cue.Priority // Default priority for submissions of this kind
	Label    string       // Display name for queue listings
}

// Library maps configured cue kinds to media files. It implements the
// scheduler's Locator interface. The catalog is fixed at construction;
// the files themselves are checked on every Resolve, so a file removed
// at runtime fails resolution instead of playback.
type Library struct {
	entries map[cue.Kind]Entry
}

// New builds a library from the cues section of the configuration.
func New(cues map[string]config.CueConfig) *Library {
	entries := make(map[cue.Kind]Entry, len(cues))
	for kind, c := range cues {
		label := c.Label
		if label == "" {
			label = kind
		}
		entries[cue.Kind(kind)] = Entry{
			Path:     c.Path,
			Priority: cue.Priority(c.Priority),
			Label:    label,
		}
	}
	return &Library{entries: entries}
}

// Resolve returns a handle for the given kind, or an error wrapping
// scheduler.ErrCueNotFound when the kind is unknown or its file is gone.
func (l *Library) Resolve(kind cue.Kind) (cue.Handle, error) {
	e, ok := l.entries[kind]
	if !ok {
		return cue.Handle{}, errors.Wrapf(scheduler.ErrCueNotFound, "unknown cue kind %q", kind)
	}

	info, err := os.Stat(e.Path)
	if err != nil {
		return cue.Handle{}, errors.Wrapf(scheduler.ErrCueNotFound, "cue %q: %s", kind, e.Path)
	}
	if info.IsDir() {
		return cue.Handle{}, errors.Wrapf(scheduler.ErrCueNotFound, "cue %q: %s is a directory", kind, e.Path)
	}

	return cue.Handle{
		Kind: kind,
		Path: e.Path,
		Size: info.Size(),
	}, nil
}

// Lookup returns the configured entry for a kind.
func (l *Library) Lookup(kind cue.Kind) (Entry, bool) {
	e, ok := l.entries[kind]
	return e, ok
}

// Kinds returns all configured kinds in sorted order.
func (l *Library) Kinds() []cue.Kind {
	kinds := make([]cue.Kind, 0, len(l.entries))
	for kind := range l.entries {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
