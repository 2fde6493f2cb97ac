package playback

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// CommandPlayer spawns a configured external player binary per title.
type CommandPlayer struct {
	bin  string
	args []string
	log  *slog.Logger
}

// NewCommandPlayer wraps an external player binary. Extra args are passed
// before the start-offset and path arguments.
func NewCommandPlayer(bin string, args []string, log *slog.Logger) *CommandPlayer {
	if log == nil {
		log = slog.Default()
	}
	return &CommandPlayer{bin: bin, args: args, log: log}
}

// Spawn starts the external process for path at offset. Failures wrap
// ErrTranscodeSpawn so the caller can apply its single retry.
func (p *CommandPlayer) Spawn(ctx context.Context, path string, offset time.Duration, codec string) (Handle, error) {
	args := append([]string{}, p.args...)
	args = append(args, fmt.Sprintf("--start-time=%d", int(offset.Seconds())), path)

	cmd := exec.CommandContext(ctx, p.bin, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTranscodeSpawn, p.bin, err)
	}
	p.log.Info("external player started", "bin", p.bin, "path", path, "offset", offset, "codec", codec, "pid", cmd.Process.Pid)

	h := &processHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.err = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type processHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
	once sync.Once
}

func (h *processHandle) Stop() error {
	h.once.Do(func() {
		if h.cmd.Process != nil {
			_ = h.cmd.Process.Kill()
		}
		<-h.done
	})
	return nil
}
