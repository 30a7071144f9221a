package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/transcribot/cleanup"
	apperrors "github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/observability"
	"github.com/kbukum/transcribot/store"
	"github.com/kbukum/transcribot/transcription"
)

// JobStore is the part of the store the worker consumes.
type JobStore interface {
	PendingJobs(ctx context.Context) ([]store.Job, error)
	DeleteJob(ctx context.Context, id int64) error
}

// Fetcher downloads a job's media to its local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, localPath string) error
}

// Hasher fingerprints downloaded media.
type Hasher interface {
	Hash(ctx context.Context, path string) (string, error)
}

// ResultCache memoizes transcripts by fingerprint.
type ResultCache interface {
	Lookup(ctx context.Context, fingerprint string) (string, bool, error)
	Store(ctx context.Context, fingerprint string, chatID int64, sourceURL, transcript string) error
}

// Delivery replies to the conversation a job came from.
type Delivery interface {
	SendSuccess(ctx context.Context, chatID int64, transcript string, replyTo int64) error
	SendFailure(ctx context.Context, chatID int64, reason string, replyTo int64) error
	SendFile(ctx context.Context, chatID int64, localPath, displayName string, replyTo int64) error
}

// Purger removes a job's scratch files.
type Purger interface {
	Purge(ctx context.Context, localPath string) cleanup.Outcome
}

// Dependencies are the collaborators of a Worker. Metrics is optional.
type Dependencies struct {
	Store       JobStore
	Fetcher     Fetcher
	Hasher      Hasher
	Cache       ResultCache
	Transcriber transcription.Provider
	Delivery    Delivery
	Cleanup     Purger
	Metrics     *observability.Metrics
}

func (d Dependencies) validate() error {
	switch {
	case d.Store == nil:
		return fmt.Errorf("worker: store is required")
	case d.Fetcher == nil:
		return fmt.Errorf("worker: fetcher is required")
	case d.Hasher == nil:
		return fmt.Errorf("worker: hasher is required")
	case d.Cache == nil:
		return fmt.Errorf("worker: cache is required")
	case d.Transcriber == nil:
		return fmt.Errorf("worker: transcriber is required")
	case d.Delivery == nil:
		return fmt.Errorf("worker: delivery is required")
	case d.Cleanup == nil:
		return fmt.Errorf("worker: cleanup is required")
	}
	return nil
}

// Worker drains the job queue: one pass over every pending job, strictly
// sequential, then a fixed pause.
type Worker struct {
	cfg  Config
	deps Dependencies
	log  *logger.Logger

	mu        sync.Mutex
	isRunning bool
	cancelFn  context.CancelFunc
	done      chan struct{}
	lastErr   error
	lastPass  time.Time
}

// New creates a Worker.
func New(cfg Config, deps Dependencies, log *logger.Logger) (*Worker, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Worker{cfg: cfg, deps: deps, log: log.WithComponent("worker")}, nil
}

// Run polls until ctx is cancelled. Store and job errors are logged and
// never end the loop.
func (w *Worker) Run(ctx context.Context) error {
	for {
		n, err := w.RunPass(ctx)
		if err != nil && ctx.Err() == nil {
			w.log.Error("Worker pass failed", logger.ErrorFields("pass", err))
		}
		w.mu.Lock()
		w.lastErr = err
		w.lastPass = time.Now()
		w.mu.Unlock()
		if n == 0 && err == nil {
			w.log.Debug("No pending jobs", logger.Fields("next_in", w.cfg.Interval.String()))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Interval):
		}
	}
}

// RunPass processes every job pending at the start of the pass and returns
// how many were handled. Only a listing error is returned.
func (w *Worker) RunPass(ctx context.Context) (int, error) {
	passID := uuid.NewString()
	log := w.log.WithFields(logger.Fields(logger.FieldPassID, passID))

	ctx, span := observability.StartSpan(ctx, observability.SpanWorkerPass,
		trace.WithAttributes(attribute.String(observability.AttrPassID, passID)))
	defer span.End()

	jobs, err := w.deps.Store.PendingJobs(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return 0, fmt.Errorf("list pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		w.deps.Metrics.RecordPass(ctx, 0)
		return 0, nil
	}

	log.Info("Processing jobs", logger.Fields(logger.FieldJobCount, len(jobs)))
	handled := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			log.Warn("Pass interrupted, remaining jobs stay queued",
				logger.Fields(logger.FieldJobCount, len(jobs)-handled))
			break
		}
		w.process(ctx, job, log)
		handled++
	}
	w.deps.Metrics.RecordPass(ctx, handled)
	return handled, nil
}

// Process runs the full sequence for one job. The scratch files are purged
// and the job is dequeued on every path, including a panic in a
// collaborator. A job interrupted by shutdown keeps its record so the next
// start retries it.
func (w *Worker) Process(ctx context.Context, job store.Job) Outcome {
	return w.process(ctx, job, w.log)
}

func (w *Worker) process(ctx context.Context, job store.Job, log *logger.Logger) (out Outcome) {
	log = log.WithFields(logger.Fields(
		logger.FieldJobID, job.ID,
		logger.FieldChatID, job.ChatID,
		logger.FieldMessageID, job.MessageID,
	))
	ctx, span := observability.StartSpan(ctx, observability.SpanWorkerProcess, trace.WithAttributes(
		attribute.Int64(observability.AttrJobID, job.ID),
		attribute.Int64(observability.AttrChatID, job.ChatID),
	))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out = ioFailure(fmt.Sprintf("panic: %v", r))
		}
		interrupted := ctx.Err() != nil
		w.finish(ctx, job, interrupted, log)
		w.report(ctx, out, time.Since(start), log)
		span.End()
	}()

	if err := w.deps.Fetcher.Fetch(ctx, job.FileURL, job.FilePath); err != nil {
		return w.failIO(ctx, job, "fetch", err, log)
	}

	fingerprint, err := w.deps.Hasher.Hash(ctx, job.FilePath)
	if err != nil {
		return w.failIO(ctx, job, "hash", err, log)
	}
	log = log.WithFields(logger.Fields(logger.FieldFingerprint, fingerprint))
	observability.SetSpanAttribute(ctx, observability.AttrFingerprint, fingerprint)

	text, found, err := w.deps.Cache.Lookup(ctx, fingerprint)
	if err != nil {
		// Treated as a miss: the engine run is repeated, never skipped.
		log.Warn("Cache lookup failed", logger.ErrorFields("cache_lookup", err))
	}
	if found {
		if err := w.deps.Delivery.SendSuccess(ctx, job.ChatID, text, job.MessageID); err != nil {
			return ioFailure(err.Error())
		}
		return hit(text)
	}

	return w.transcribe(ctx, job, fingerprint, log)
}

func (w *Worker) transcribe(ctx context.Context, job store.Job, fingerprint string, log *logger.Logger) Outcome {
	provider := w.deps.Transcriber.Name()
	start := time.Now()
	res := w.deps.Transcriber.Transcribe(ctx, transcription.Request{
		AudioPath: job.FilePath,
		Model:     w.cfg.Model,
		Language:  w.cfg.Language,
	})
	w.deps.Metrics.RecordTranscription(ctx, provider, res.Success, time.Since(start))
	observability.SetSpanAttribute(ctx, observability.AttrProvider, provider)

	if !res.Success {
		if ctx.Err() != nil {
			return engineFailure(res.Reason)
		}
		if err := w.deps.Delivery.SendFailure(ctx, job.ChatID, res.Reason, job.MessageID); err != nil {
			log.Warn("Failure notice not delivered", logger.ErrorFields("send_failure", err))
		}
		return engineFailure(res.Reason)
	}

	if err := w.deps.Delivery.SendSuccess(ctx, job.ChatID, res.Text, job.MessageID); err != nil {
		log.Warn("Transcript not delivered", logger.ErrorFields("send_success", err))
	}
	for _, a := range res.Artifacts {
		if err := w.deps.Delivery.SendFile(ctx, job.ChatID, a.Path, a.DisplayName, job.MessageID); err != nil {
			log.Warn("Artifact not delivered", logger.MergeWithError(logger.Fields(logger.FieldPath, a.Path), err))
		}
	}
	if err := w.deps.Cache.Store(ctx, fingerprint, job.ChatID, job.FileURL, res.Text); err != nil {
		log.Error("Result not cached", logger.ErrorFields("cache_store", err))
	}
	return success(res.Text)
}

// failIO tells the user about a download or hashing error. Nothing is sent
// when the error comes from shutdown.
func (w *Worker) failIO(ctx context.Context, job store.Job, op string, err error, log *logger.Logger) Outcome {
	out := ioFailure(userReason(err))
	if ctx.Err() != nil {
		return out
	}
	log.Warn("Job step failed", logger.ErrorFields(op, err))
	if sendErr := w.deps.Delivery.SendFailure(ctx, job.ChatID, out.Reason, job.MessageID); sendErr != nil {
		log.Warn("Failure notice not delivered", logger.ErrorFields("send_failure", sendErr))
	}
	return out
}

// userReason keeps internal detail such as URLs out of user-facing text.
func userReason(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

func (w *Worker) finish(ctx context.Context, job store.Job, interrupted bool, log *logger.Logger) {
	ctx = context.WithoutCancel(ctx)
	if w.deps.Cleanup.Purge(ctx, job.FilePath) == cleanup.Partial {
		w.deps.Metrics.RecordCleanupPartial(ctx)
	}
	if interrupted {
		log.Warn("Job interrupted by shutdown, left queued")
		return
	}
	if err := w.deps.Store.DeleteJob(ctx, job.ID); err != nil {
		log.Error("Job not dequeued", logger.ErrorFields("delete_job", err))
	}
}

func (w *Worker) report(ctx context.Context, out Outcome, elapsed time.Duration, log *logger.Logger) {
	ctx = context.WithoutCancel(ctx)
	w.deps.Metrics.RecordJob(ctx, out.Kind.String())
	observability.SetSpanAttribute(ctx, observability.AttrOutcome, out.Kind.String())

	fields := logger.DurationFields("process", elapsed)
	fields[logger.FieldOutcome] = out.Kind.String()

	switch out.Kind {
	case KindHit:
		log.Info("Job served from cache", fields)
	case KindSuccess:
		log.Info("Job transcribed", fields)
	case KindEngineFailure:
		fields["reason"] = out.Reason
		log.Warn("Transcription failed", fields)
	case KindIoFailure:
		fields["reason"] = out.Reason
		observability.SetSpanError(ctx, errors.New(out.Reason))
		log.Warn("Job failed", fields)
	default:
		log.Error("Job ended without an outcome", fields)
	}
}
