package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kbukum/transcribot/logger"
)

// Runner executes commands. Exec is the real implementation; tests
// substitute fakes.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Exec runs commands as local subprocesses and logs each invocation.
type Exec struct {
	log *logger.Logger
}

// NewExec creates an Exec runner. A nil logger disables logging.
func NewExec(log *logger.Logger) *Exec {
	if log == nil {
		log = logger.Nop()
	}
	return &Exec{log: log.WithComponent("process")}
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, cmd Command) (*Result, error) {
	e.log.Debug("Starting subprocess", logger.Fields("command", cmd.String()))
	result, err := Run(ctx, cmd)
	if err != nil {
		e.log.Warn("Subprocess failed", logger.Fields(
			"binary", cmd.Binary,
			"exit_code", exitCode(result),
			logger.FieldError, err.Error(),
		))
		return result, err
	}
	e.log.Debug("Subprocess finished", logger.DurationFields(cmd.Binary, result.Duration))
	return result, nil
}

// LookPath reports whether binary can be executed.
func LookPath(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("process: %s not found: %w", binary, err)
	}
	return nil
}

// Run executes a subprocess and waits for it to complete.
// If the context is canceled, SIGTERM goes to the process group first and
// SIGKILL follows after GracePeriod. There is no timeout of its own.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = 5 * time.Second
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // arguments are built by the engine adapters
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	// whisper.cpp and ffmpeg may fork helpers; signal the whole group.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	err := c.Run()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("process: killed by context: %w", ctx.Err())
		}
		return result, fmt.Errorf("process: %s exit code %d: %w", cmd.Binary, result.ExitCode, err)
	}
	return result, nil
}

func exitCode(r *Result) int {
	if r == nil {
		return -1
	}
	return r.ExitCode
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	return append(os.Environ(), extra...)
}
