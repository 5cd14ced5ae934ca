package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumenworks/sage/internal/convo"
	"github.com/lumenworks/sage/internal/job"
	"github.com/lumenworks/sage/internal/observability"
)

// TaskManager runs video jobs in the background and reconciles their
// terminal state into the JobStore.
type TaskManager struct {
	jobs     *JobStore
	provider job.Provider
	sink     job.Materializer
	log      *slog.Logger
	baseCtx  context.Context // cancelled on SIGTERM for graceful shutdown

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	maxJobs int
	running int
}

// NewTaskManager creates a task manager. baseCtx should be cancelled on
// shutdown so polling goroutines exit.
func NewTaskManager(jobs *JobStore, provider job.Provider, sink job.Materializer, maxJobs int, logger *slog.Logger, baseCtx context.Context) *TaskManager {
	if maxJobs <= 0 {
		maxJobs = 5
	}
	tm := &TaskManager{
		jobs:     jobs,
		provider: provider,
		sink:     sink,
		log:      logger,
		baseCtx:  baseCtx,
		cancels:  make(map[string]context.CancelFunc),
		maxJobs:  maxJobs,
	}
	return tm
}

// StartJob registers a job record and begins polling in a goroutine,
// returning the job ID immediately.
func (tm *TaskManager) StartJob(ctx context.Context, personaID, prompt string) (string, error) {
	id, err := convo.NewID()
	if err != nil {
		return "", err
	}

	tm.mu.Lock()
	if tm.running >= tm.maxJobs {
		tm.mu.Unlock()
		return "", fmt.Errorf("max concurrent video jobs reached (%d)", tm.maxJobs)
	}
	tm.running++

	// Derive the goroutine context from baseCtx rather than the tool-call
	// context, which dies when the response is sent. Keep the trace link.
	taskCtx := observability.DetachTraceContext(ctx, tm.baseCtx)
	taskCtx, cancel := context.WithCancel(taskCtx)
	tm.cancels[id] = cancel
	tm.mu.Unlock()

	tm.jobs.Create(id, personaID, prompt)
	go tm.run(taskCtx, id, prompt)

	return id, nil
}

// CancelJob stops a running job's polling.
func (tm *TaskManager) CancelJob(id string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if cancel, ok := tm.cancels[id]; ok {
		cancel()
	}
}

func (tm *TaskManager) run(ctx context.Context, id, prompt string) {
	ctx, span := tracer.Start(ctx, "video.job",
		trace.WithAttributes(attribute.String("job_id", id)),
	)
	defer span.End()

	defer func() {
		// On cancellation or shutdown, mark an in-progress job failed so
		// it doesn't sit in "polling" forever. A reason already recorded
		// (e.g. by cancel_video_job) wins.
		if ctx.Err() != nil {
			if rec, ok := tm.jobs.Get(id); ok && rec.Status != JobStatusComplete && rec.Status != JobStatusFailed {
				tm.jobs.Fail(id, "cancelled before completion")
			}
		}
		tm.mu.Lock()
		delete(tm.cancels, id)
		tm.running--
		tm.mu.Unlock()
	}()

	start := time.Now()
	tracker := job.New(id, tm.provider, tm.sink, tm.log)

	if err := tracker.Submit(ctx, prompt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		tm.jobs.Fail(id, err.Error())
		return
	}
	tm.jobs.SetStatus(id, JobStatusPolling)

	res := tracker.Await(ctx)
	if ctx.Err() != nil {
		span.SetStatus(codes.Error, "cancelled")
		return
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "job failed")
		tm.log.WarnContext(ctx, "Video job failed", "job_id", id, "error", res.Err,
			"elapsed", time.Since(start).Round(time.Second).String())
		tm.jobs.Fail(id, res.Err.Error())
		return
	}

	span.SetAttributes(attribute.String("video_url", res.Handle))
	span.SetStatus(codes.Ok, "complete")
	tm.log.InfoContext(ctx, "Video job complete", "job_id", id, "video_url", res.Handle,
		"elapsed", time.Since(start).Round(time.Second).String())
	tm.jobs.Complete(id, res.Handle)
}
