package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/telegram"
)

// errorBackoff is the pause after a failed getUpdates round.
const errorBackoff = 5 * time.Second

// UpdateSource long-polls for updates.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// UpdateHandler handles a single update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u telegram.Update) error
}

// Poller feeds updates from the Bot API to a handler, one at a time.
type Poller struct {
	source        UpdateSource
	handler       UpdateHandler
	pollTimeout   time.Duration
	updateTimeout time.Duration
	backoff       time.Duration
	log           *logger.Logger

	mu        sync.Mutex
	offset    int64
	handled   int64
	isRunning bool
	cancelFn  context.CancelFunc
	done      chan struct{}
	lastErr   error
}

var _ component.Component = (*Poller)(nil)

// NewPoller creates a Poller. Each update gets at most updateTimeout.
func NewPoller(source UpdateSource, handler UpdateHandler, pollTimeout, updateTimeout time.Duration, log *logger.Logger) *Poller {
	if updateTimeout <= 0 {
		updateTimeout = DefaultUpdateTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Poller{
		source:        source,
		handler:       handler,
		pollTimeout:   pollTimeout,
		updateTimeout: updateTimeout,
		backoff:       errorBackoff,
		log:           log.WithComponent("poller"),
	}
}

// Poll fetches one batch of updates and handles them in order. The offset
// moves past every update, whether its handling failed or not.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	p.mu.Lock()
	offset := p.offset
	p.mu.Unlock()

	updates, err := p.source.GetUpdates(ctx, offset, p.pollTimeout)
	if err != nil {
		return 0, fmt.Errorf("get updates: %w", err)
	}
	for _, u := range updates {
		p.handle(ctx, u)
		p.mu.Lock()
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
		p.handled++
		p.mu.Unlock()
	}
	return len(updates), nil
}

func (p *Poller) handle(ctx context.Context, u telegram.Update) {
	ctx, cancel := context.WithTimeout(ctx, p.updateTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Update handler panicked", logger.Fields(logger.FieldUpdateID, u.UpdateID, "panic", fmt.Sprint(r)))
		}
	}()
	if err := p.handler.HandleUpdate(ctx, u); err != nil {
		p.log.Warn("Update not handled", logger.MergeWithError(logger.Fields(logger.FieldUpdateID, u.UpdateID), err))
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	for {
		_, err := p.Poll(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		if err == nil {
			continue
		}
		p.log.Error("Polling failed", logger.ErrorFields("get_updates", err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff):
		}
	}
}

// Offset returns the next update id to request.
func (p *Poller) Offset() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

func (p *Poller) Name() string { return "poller" }

// Start runs the polling loop on its own goroutine.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancelFn = cancel
	p.isRunning = true
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	p.log.Info("Starting update polling", logger.Fields("poll_timeout", p.pollTimeout.String()))
	go func() {
		defer close(done)
		if err := p.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			p.log.Error("Poller stopped with error", logger.ErrorFields("run", err))
		}
		p.mu.Lock()
		p.isRunning = false
		p.mu.Unlock()
	}()
	return nil
}

// Stop cancels polling and waits for the current update to finish.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	done := p.done
	p.cancelFn()
	p.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("poller: stop: %w", ctx.Err())
	}
}

func (p *Poller) Health(_ context.Context) component.Health {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := component.Health{Name: p.Name(), Status: component.StatusHealthy}
	switch {
	case !p.isRunning:
		h.Status = component.StatusUnhealthy
		h.Message = "not running"
	case p.lastErr != nil:
		h.Status = component.StatusDegraded
		h.Message = p.lastErr.Error()
	}
	return h
}

func (p *Poller) Describe() component.Description {
	return component.Description{
		Type:    "poller",
		Details: fmt.Sprintf("long poll %s, update timeout %s", p.pollTimeout, p.updateTimeout),
	}
}
