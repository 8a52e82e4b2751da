package player

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cuebox/internal/domain/cue"
)

// nullSettings holds the null player settings.
type nullSettings struct {
	DelayMs int `mapstructure:"delay_ms"`
}

// NullPlayer accepts every start and reports success after a fixed
// delay. Useful for dry runs and demos without an audio stack.
type NullPlayer struct {
	delay  time.Duration
	finish FinishFunc
}

// NewNullPlayer creates a null player from decoded settings.
func NewNullPlayer(settings map[string]any, finish FinishFunc) (*NullPlayer, error) {
	var s nullSettings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return nil, errors.Wrap(err, "invalid null player settings")
	}
	if s.DelayMs < 0 {
		return nil, errors.New("null player delay_ms must not be negative")
	}

	return &NullPlayer{
		delay:  time.Duration(s.DelayMs) * time.Millisecond,
		finish: finish,
	}, nil
}

// StartPlayback schedules the completion callback after the configured
// delay. Even a zero delay completes from the timer goroutine, keeping
// the callback out of the StartPlayback call path.
func (p *NullPlayer) StartPlayback(handle cue.Handle, token string) error {
	zlog.Debug().Msgf("player: null playback: path=%s delay=%v token=%s", handle.Path, p.delay, token)
	time.AfterFunc(p.delay, func() {
		p.finish(token, true)
	})
	return nil
}
