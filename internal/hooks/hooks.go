// Package hooks runs shell commands in response to admin events.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alfredjeanlab/adminkit/internal/events"
)

// Default and max timeout for hook commands.
const (
	DefaultTimeout = 30 * time.Second
	MaxTimeout     = 300 * time.Second
)

// Environment variables set for every hook command.
const (
	EnvTopic = "ADMIN_EVENT_TOPIC"
	EnvData  = "ADMIN_EVENT_DATA"
)

// Result holds the output of one hook run.
type Result struct {
	Output string
	Err    error
}

// Runner runs Command through "sh -c" for each event it is given. The event
// is passed on stdin and in the ADMIN_EVENT_* variables.
type Runner struct {
	Command string
	Timeout time.Duration
	Dir     string
	Logger  *slog.Logger
}

// NewRunner creates a runner for command. A zero timeout uses
// DefaultTimeout; larger ones are capped at MaxTimeout.
func NewRunner(command string, timeout time.Duration, logger *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Command: command, Timeout: timeout, Logger: logger}
}

// Run executes the command for msg and waits for it to exit.
func (r *Runner) Run(ctx context.Context, msg events.Message) Result {
	hookCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(hookCtx, "sh", "-c", r.Command) //nolint:gosec // the command comes from the operator's own flags
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(msg.Data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if r.Dir != "" {
		if info, err := os.Stat(r.Dir); err == nil && info.IsDir() {
			cmd.Dir = r.Dir
		}
	}

	cmd.Env = append(os.Environ(),
		EnvTopic+"="+msg.Topic,
		EnvData+"="+string(msg.Data),
	)

	err := cmd.Run()
	output := strings.TrimSpace(stdout.String())
	if output == "" {
		output = strings.TrimSpace(stderr.String())
	}
	if err != nil {
		err = fmt.Errorf("hook %q on %s: %w", r.Command, msg.Topic, err)
		r.Logger.Warn("hook failed", "topic", msg.Topic, "err", err, "output", output)
	}
	return Result{Output: output, Err: err}
}
