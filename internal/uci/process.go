package uci

import (
	"bufio"
	"errors"
	"io"
	"os/exec"

	"go.uber.org/zap"

	"github.com/manuelpepe/async-uci/internal/obslog"
)

// process owns the spawned engine subprocess and its stdin pipe. The
// stdout pipe belongs to the reader goroutine once startReader has run.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	log    *zap.Logger
}

// spawn starts the engine executable with piped stdin/stdout.
func spawn(path string) (*process, error) {
	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &SpawnError{Path: path, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, &SpawnError{Path: path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, &SpawnError{Path: path, Err: err}
	}
	return &process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		log:    obslog.L().Named("uci").With(zap.String("engine", path)),
	}, nil
}

// send writes one command line to the engine's stdin. The trailing newline
// is appended here; callers pass the bare command.
func (p *process) send(command string) error {
	if _, err := io.WriteString(p.stdin, command+"\n"); err != nil {
		return &WriteError{Command: command, Err: err}
	}
	return nil
}

// startReader spawns the single background goroutine that reads engine
// output line by line, decodes each line and folds the event into the
// shared state. The goroutine runs until the stdout pipe closes; a read
// failure is terminal and ends it silently. Per-line parse errors are
// logged and skipped, an engine may emit malformed or debug lines at any
// time.
func (p *process) startReader(state *engineState) {
	scanner := bufio.NewScanner(p.stdout)
	go func() {
		for scanner.Scan() {
			line := scanner.Text()
			ev, err := Parse(line)
			if err != nil {
				if !errors.Is(err, ErrUnrecognized) {
					p.log.Debug("skipping malformed line", zap.String("line", line), zap.Error(err))
				}
				continue
			}
			state.apply(ev)
		}
		p.log.Debug("engine output closed", zap.Error(scanner.Err()))
	}()
}

// close tears down the subprocess: closing stdin asks a well-behaved
// engine to exit, the kill covers the rest. The reader goroutine exits on
// its own when the stdout pipe drains.
func (p *process) close() error {
	if p.stdin != nil {
		p.stdin.Close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	if p.cmd != nil {
		return p.cmd.Wait()
	}
	return nil
}
