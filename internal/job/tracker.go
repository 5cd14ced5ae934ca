// Package job tracks one long-running video generation task from
// submission through polling to a terminal state. Each Tracker owns
// exactly one job; trackers for different turns poll independently.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lumenworks/sage/internal/genai"
)

// Status is the lifecycle state of a generation job.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusPolling   Status = "polling"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

const (
	// DefaultPollInterval matches the provider guidance for minutes-long
	// jobs; there is no backoff because the interval dominates anyway.
	DefaultPollInterval = 10 * time.Second

	// DefaultMaxWait caps the polling loop so a provider that never
	// reports done cannot pin a goroutine forever.
	DefaultMaxWait = 10 * time.Minute
)

// failedNoReason stands in when the provider reports failure without a
// message.
const failedNoReason = "video generation failed with no reason reported"

// Provider is the slice of the video API the tracker needs.
type Provider interface {
	SubmitVideo(ctx context.Context, prompt string) (genai.Operation, error)
	PollVideo(ctx context.Context, name string) (genai.Operation, error)
}

// Materializer turns a remote artifact locator into a handle the caller
// can use: a local file path for the CLI, a CDN URL for the server.
type Materializer interface {
	Materialize(ctx context.Context, jobID, uri string) (string, error)
}

// Result is the terminal outcome of a job. Err is nil exactly when the
// artifact was generated and materialized.
type Result struct {
	URI    string // remote artifact locator
	Handle string // materialized handle (file path or URL)
	Err    error
}

// Tracker drives one job. Create one per directive with New, then call
// Submit followed by Await.
type Tracker struct {
	id       string
	provider Provider
	sink     Materializer
	clock    Clock
	log      *slog.Logger
	interval time.Duration
	maxWait  time.Duration

	mu     sync.Mutex
	status Status
	opName string
}

// Option adjusts tracker behavior.
type Option func(*Tracker)

// WithClock substitutes the poll clock, used by tests.
func WithClock(c Clock) Option { return func(t *Tracker) { t.clock = c } }

// WithPollInterval overrides the fixed delay between status checks.
func WithPollInterval(d time.Duration) Option { return func(t *Tracker) { t.interval = d } }

// WithMaxWait overrides the wall-clock cap on polling.
func WithMaxWait(d time.Duration) Option { return func(t *Tracker) { t.maxWait = d } }

// New creates a tracker for a single job identified by id.
func New(id string, provider Provider, sink Materializer, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		id:       id,
		provider: provider,
		sink:     sink,
		clock:    SystemClock,
		log:      logger,
		interval: DefaultPollInterval,
		maxWait:  DefaultMaxWait,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Status reports the current lifecycle state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tracker) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Submit hands the prompt to the provider and records the operation
// handle. It must be called exactly once, before Await.
func (t *Tracker) Submit(ctx context.Context, prompt string) error {
	op, err := t.provider.SubmitVideo(ctx, prompt)
	if err != nil {
		t.setStatus(StatusFailed)
		return fmt.Errorf("submit job %s: %w", t.id, err)
	}

	t.mu.Lock()
	t.status = StatusSubmitted
	t.opName = op.Name
	t.mu.Unlock()

	t.log.InfoContext(ctx, "Video job submitted", "job_id", t.id, "operation", op.Name)
	return nil
}

// Await polls until the job is terminal and returns the outcome. Context
// cancellation stops polling without notifying the provider; the result
// then carries the context error. Provider poll failures and the wall
// cap both surface as failed results, never as panics or hangs.
func (t *Tracker) Await(ctx context.Context) Result {
	t.mu.Lock()
	opName := t.opName
	t.mu.Unlock()
	if opName == "" {
		t.setStatus(StatusFailed)
		return Result{Err: errors.New("await called before a successful submit")}
	}

	t.setStatus(StatusPolling)
	deadline := t.clock.Now().Add(t.maxWait)

	for {
		op, err := t.provider.PollVideo(ctx, opName)
		if err != nil {
			if ctx.Err() != nil {
				t.setStatus(StatusFailed)
				return Result{Err: ctx.Err()}
			}
			// Transient poll failure: keep the loop alive, the job may
			// still complete on the provider side.
			t.log.WarnContext(ctx, "Poll failed, will retry", "job_id", t.id, "error", err)
		} else if op.Done {
			return t.finish(ctx, op)
		}

		if t.clock.Now().After(deadline) {
			t.setStatus(StatusFailed)
			t.log.WarnContext(ctx, "Video job exceeded wall-clock cap", "job_id", t.id, "cap", t.maxWait)
			return Result{Err: fmt.Errorf("job %s did not complete within %s", t.id, t.maxWait)}
		}

		select {
		case <-ctx.Done():
			t.setStatus(StatusFailed)
			t.log.InfoContext(ctx, "Video job polling cancelled", "job_id", t.id)
			return Result{Err: ctx.Err()}
		case <-t.clock.After(t.interval):
		}
	}
}

func (t *Tracker) finish(ctx context.Context, op genai.Operation) Result {
	if op.ErrMessage != "" {
		t.setStatus(StatusFailed)
		return Result{Err: fmt.Errorf("provider reported failure: %s", op.ErrMessage)}
	}
	if op.VideoURI == "" {
		// Done with no locator: treated as generation failure.
		t.setStatus(StatusFailed)
		return Result{Err: errors.New(failedNoReason)}
	}

	handle, err := t.sink.Materialize(ctx, t.id, op.VideoURI)
	if err != nil {
		t.setStatus(StatusFailed)
		return Result{URI: op.VideoURI, Err: fmt.Errorf("materialize artifact: %w", err)}
	}

	t.setStatus(StatusDone)
	t.log.InfoContext(ctx, "Video job complete", "job_id", t.id, "handle", handle)
	return Result{URI: op.VideoURI, Handle: handle}
}
