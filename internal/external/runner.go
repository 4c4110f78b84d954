// Package external runs the command-line tools genoalign depends on:
// progressiveMauve for alignment and a genoPlotR script for plotting.
package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Command is one tool invocation. Args are passed to the process as-is;
// nothing goes through a shell.
type Command struct {
	Tool string
	Path string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ToolError reports a tool that could not start or exited non-zero.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Keep this much of a failing tool's stderr for the error message.
const stderrTail = 4096

// ExecRunner runs commands with os/exec and logs their output line by line.
type ExecRunner struct {
	Log *zap.Logger
	// Timeout bounds a single command; zero means no limit.
	Timeout time.Duration
}

func NewExecRunner(log *zap.Logger, timeout time.Duration) *ExecRunner {
	return &ExecRunner{Log: log, Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	log := r.Log.With(zap.String("tool", cmd.Tool))
	log.Info("running", zap.String("command", cmd.String()))

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	tail := &tailBuffer{max: stderrTail}
	stdout := &lineLogger{log: log, stream: "stdout"}
	stderr := &lineLogger{log: log, stream: "stderr"}
	c.Stdout = stdout
	c.Stderr = io.MultiWriter(stderr, tail)

	start := time.Now()
	err := c.Run()
	stdout.flush()
	stderr.flush()
	log.Debug("finished", zap.Duration("elapsed", time.Since(start)))
	if err == nil {
		return nil
	}

	toolErr := &ToolError{Tool: cmd.Tool, ExitCode: -1, Stderr: strings.TrimSpace(tail.String())}
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		toolErr.Err = ctx.Err()
	case errors.As(err, &exitErr):
		toolErr.ExitCode = exitErr.ExitCode()
	default:
		toolErr.Err = err
	}
	return toolErr
}

// lineLogger forwards complete lines of tool output to the logger at debug.
type lineLogger struct {
	log    *zap.Logger
	stream string
	buf    bytes.Buffer
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.buf.Write(p)
	for {
		i := bytes.IndexByte(l.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(l.buf.Next(i+1)), "\r\n")
		l.emit(line)
	}
	return len(p), nil
}

func (l *lineLogger) flush() {
	if l.buf.Len() > 0 {
		l.emit(l.buf.String())
		l.buf.Reset()
	}
}

func (l *lineLogger) emit(line string) {
	if line != "" {
		l.log.Debug(line, zap.String("stream", l.stream))
	}
}

// tailBuffer keeps only the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	// drop a partial first line left by trimming
	s := string(t.buf)
	if len(t.buf) == t.max {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
	}
	return s
}

// LookPath resolves a tool binary, honouring absolute and relative paths.
func LookPath(tool, path string) (string, error) {
	p, err := exec.LookPath(path)
	if err != nil {
		return "", &ToolError{Tool: tool, ExitCode: -1, Err: err}
	}
	return p, nil
}
