// Package player provides player backends for the scheduler.
package player

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cuebox/internal/app/scheduler"
	"github.com/osa030/cuebox/internal/infra/config"
)

// FinishFunc reports playback completion back to the scheduler. The
// token is the one passed to StartPlayback; success reports whether the
// clip played to its natural end.
type FinishFunc func(token string, success bool)

// New creates a player backend from configuration.
func New(cfg config.PlayerConfig, finish FinishFunc) (scheduler.Player, error) {
	zlog.Debug().Msgf("creating player backend: type=%s settings=%+v", cfg.Type, cfg.Settings)

	switch cfg.Type {
	case "exec":
		return NewExecPlayer(cfg.Settings, finish)
	case "null":
		return NewNullPlayer(cfg.Settings, finish)
	default:
		return nil, errors.Newf("unsupported player type: %s", cfg.Type)
	}
}

// Types returns the available player backend types.
func Types() []string {
	return []string{"exec", "null"}
}
