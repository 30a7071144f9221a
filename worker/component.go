package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/logger"
)

var _ component.Component = (*Worker)(nil)

func (w *Worker) Name() string { return "worker" }

// Start runs the polling loop on its own goroutine.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancelFn = cancel
	w.isRunning = true
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	w.log.Info("Starting worker", logger.Fields(
		"interval", w.cfg.Interval.String(),
		logger.FieldProvider, w.deps.Transcriber.Name(),
	))

	go func() {
		defer close(done)
		if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			w.log.Error("Worker stopped with error", logger.ErrorFields("run", err))
		}
		w.mu.Lock()
		w.isRunning = false
		w.mu.Unlock()
		w.log.Info("Worker stopped")
	}()
	return nil
}

// Stop cancels the loop and waits for the in-flight job to wind down, or for
// ctx to expire.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	done := w.done
	if w.cancelFn != nil {
		w.cancelFn()
	}
	w.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker: stop: %w", ctx.Err())
	}
}

// IsRunning reports whether the loop goroutine is alive.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *Worker) Health(_ context.Context) component.Health {
	w.mu.Lock()
	defer w.mu.Unlock()

	h := component.Health{Name: w.Name(), Status: component.StatusHealthy}
	switch {
	case !w.isRunning:
		h.Status = component.StatusUnhealthy
		h.Message = "not running"
	case w.lastErr != nil:
		h.Status = component.StatusDegraded
		h.Message = w.lastErr.Error()
	case !w.lastPass.IsZero():
		h.Message = "last pass " + w.lastPass.Format(time.RFC3339)
	}
	return h
}

func (w *Worker) Describe() component.Description {
	return component.Description{
		Type:    "worker",
		Details: fmt.Sprintf("%s every %s", w.deps.Transcriber.Name(), w.cfg.Interval),
	}
}
