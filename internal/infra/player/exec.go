package player

import (
	"os/exec"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cuebox/internal/app/scheduler"
	"github.com/osa030/cuebox/internal/domain/cue"
)

// execSettings holds the exec player settings.
type execSettings struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// ExecPlayer plays a clip by spawning an external command (ffplay,
// afplay, paplay, ...) with the media file path appended to the
// configured arguments. Completion is reported when the process exits,
// so all decoding and output stays in the external player.
type ExecPlayer struct {
	command string
	args    []string
	finish  FinishFunc
}

// NewExecPlayer creates an exec player from decoded settings.
func NewExecPlayer(settings map[string]any, finish FinishFunc) (*ExecPlayer, error) {
	var s execSettings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return nil, errors.Wrap(err, "invalid exec player settings")
	}
	if s.Command == "" {
		return nil, errors.New("exec player requires a command")
	}

	return &ExecPlayer{
		command: s.Command,
		args:    s.Args,
		finish:  finish,
	}, nil
}

// StartPlayback spawns the configured command for the given handle. The
// spawn itself is the synchronous acceptance; the finish callback fires
// exactly once, from a goroutine, when the process exits.
func (p *ExecPlayer) StartPlayback(handle cue.Handle, token string) error {
	args := make([]string, 0, len(p.args)+1)
	args = append(args, p.args...)
	args = append(args, handle.Path)

	cmd := exec.Command(p.command, args...)
	if err := cmd.Start(); err != nil {
		return errors.Mark(errors.Wrapf(err, "start %s", p.command), scheduler.ErrPlaybackStart)
	}

	zlog.Debug().Msgf("player: spawned %s: path=%s pid=%d token=%s", p.command, handle.Path, cmd.Process.Pid, token)

	go func() {
		err := cmd.Wait()
		if err != nil {
			zlog.Warn().Msgf("player: %s exited with error: path=%s err=%v", p.command, handle.Path, err)
		}
		p.finish(token, err == nil)
	}()

	return nil
}
