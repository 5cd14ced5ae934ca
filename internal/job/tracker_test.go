package job

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenworks/sage/internal/genai"
)

// fakeClock advances virtual time by the requested delay and ticks
// immediately, so the poll loop runs without real waits.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// blockedClock never ticks; used to test context cancellation.
type blockedClock struct{}

func (blockedClock) Now() time.Time                       { return time.Time{} }
func (blockedClock) After(time.Duration) <-chan time.Time { return nil }

type fakeProvider struct {
	submitOp  genai.Operation
	submitErr error
	polls     []pollStep
	pollCount int
}

type pollStep struct {
	op  genai.Operation
	err error
}

func (f *fakeProvider) SubmitVideo(context.Context, string) (genai.Operation, error) {
	return f.submitOp, f.submitErr
}

func (f *fakeProvider) PollVideo(context.Context, string) (genai.Operation, error) {
	step := f.polls[f.pollCount]
	if f.pollCount < len(f.polls)-1 {
		f.pollCount++
	}
	return step.op, step.err
}

type fakeSink struct {
	handle string
	err    error
	gotURI string
}

func (f *fakeSink) Materialize(_ context.Context, _, uri string) (string, error) {
	f.gotURI = uri
	return f.handle, f.err
}

func newTestTracker(p Provider, sink Materializer, clock Clock) *Tracker {
	return New("job-1", p, sink, slog.New(slog.DiscardHandler), WithClock(clock))
}

func TestSubmitFailure(t *testing.T) {
	p := &fakeProvider{submitErr: errors.New("quota exceeded")}
	tr := newTestTracker(p, &fakeSink{}, &fakeClock{})

	err := tr.Submit(context.Background(), "a scene")
	require.Error(t, err)
	assert.Equal(t, StatusFailed, tr.Status())
}

func TestAwaitBeforeSubmit(t *testing.T) {
	tr := newTestTracker(&fakeProvider{}, &fakeSink{}, &fakeClock{})

	res := tr.Await(context.Background())
	require.Error(t, res.Err)
	assert.Equal(t, StatusFailed, tr.Status())
}

func TestAwaitSuccessAfterPolling(t *testing.T) {
	p := &fakeProvider{
		submitOp: genai.Operation{Name: "operations/abc"},
		polls: []pollStep{
			{op: genai.Operation{Name: "operations/abc"}},
			{op: genai.Operation{Name: "operations/abc"}},
			{op: genai.Operation{Name: "operations/abc", Done: true, VideoURI: "https://files.example/v.mp4"}},
		},
	}
	sink := &fakeSink{handle: "/videos/job-1.mp4"}
	tr := newTestTracker(p, sink, &fakeClock{})

	require.NoError(t, tr.Submit(context.Background(), "a scene"))
	res := tr.Await(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, "https://files.example/v.mp4", res.URI)
	assert.Equal(t, "/videos/job-1.mp4", res.Handle)
	assert.Equal(t, "https://files.example/v.mp4", sink.gotURI)
	assert.Equal(t, StatusDone, tr.Status())
}

func TestAwaitProviderReportedFailure(t *testing.T) {
	p := &fakeProvider{
		submitOp: genai.Operation{Name: "operations/abc"},
		polls: []pollStep{
			{op: genai.Operation{Name: "operations/abc", Done: true, ErrMessage: "safety block"}},
		},
	}
	tr := newTestTracker(p, &fakeSink{}, &fakeClock{})

	require.NoError(t, tr.Submit(context.Background(), "a scene"))
	res := tr.Await(context.Background())

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "safety block")
	assert.Equal(t, StatusFailed, tr.Status())
}

func TestAwaitDoneWithoutLocator(t *testing.T) {
	p := &fakeProvider{
		submitOp: genai.Operation{Name: "operations/abc"},
		polls: []pollStep{
			{op: genai.Operation{Name: "operations/abc", Done: true}},
		},
	}
	tr := newTestTracker(p, &fakeSink{}, &fakeClock{})

	require.NoError(t, tr.Submit(context.Background(), "a scene"))
	res := tr.Await(context.Background())

	require.Error(t, res.Err)
	assert.Equal(t, StatusFailed, tr.Status())
}

func TestAwaitDownloadFailureIsDistinct(t *testing.T) {
	p := &fakeProvider{
		submitOp: genai.Operation{Name: "operations/abc"},
		polls: []pollStep{
			{op: genai.Operation{Name: "operations/abc", Done: true, VideoURI: "https://files.example/v.mp4"}},
		},
	}
	sink := &fakeSink{err: genai.ErrDownloadFailed}
	tr := newTestTracker(p, sink, &fakeClock{})

	require.NoError(t, tr.Submit(context.Background(), "a scene"))
	res := tr.Await(context.Background())

	require.ErrorIs(t, res.Err, genai.ErrDownloadFailed)
	assert.Equal(t, "https://files.example/v.mp4", res.URI,
		"the remote locator is kept even when materialization fails")
	assert.Equal(t, StatusFailed, tr.Status())
}

func TestAwaitSurvivesTransientPollErrors(t *testing.T) {
	p := &fakeProvider{
		submitOp: genai.Operation{Name: "operations/abc"},
		polls: []pollStep{
			{err: errors.New("503")},
			{op: genai.Operation{Name: "operations/abc", Done: true, VideoURI: "u"}},
		},
	}
	tr := newTestTracker(p, &fakeSink{handle: "h"}, &fakeClock{})

	require.NoError(t, tr.Submit(context.Background(), "a scene"))
	res := tr.Await(context.Background())
	require.NoError(t, res.Err)
}

func TestAwaitWallClockCap(t *testing.T) {
	p := &fakeProvider{
		submitOp: genai.Operation{Name: "operations/abc"},
		polls:    []pollStep{{op: genai.Operation{Name: "operations/abc"}}}, // never done
	}
	tr := New("job-1", p, &fakeSink{}, slog.New(slog.DiscardHandler),
		WithClock(&fakeClock{}), WithMaxWait(25*time.Second))

	require.NoError(t, tr.Submit(context.Background(), "a scene"))
	res := tr.Await(context.Background())

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "did not complete")
	assert.Equal(t, StatusFailed, tr.Status())
	assert.LessOrEqual(t, p.pollCount, 4, "polling must stop once the cap is hit")
}

func TestAwaitCancellationStopsPolling(t *testing.T) {
	p := &fakeProvider{
		submitOp: genai.Operation{Name: "operations/abc"},
		polls:    []pollStep{{op: genai.Operation{Name: "operations/abc"}}},
	}
	tr := newTestTracker(p, &fakeSink{}, blockedClock{})

	require.NoError(t, tr.Submit(context.Background(), "a scene"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- tr.Await(ctx) }()
	cancel()

	select {
	case res := <-done:
		require.ErrorIs(t, res.Err, context.Canceled)
		assert.Equal(t, StatusFailed, tr.Status())
	case <-time.After(2 * time.Second):
		t.Fatal("Await did not return after cancellation")
	}

	polled := p.pollCount
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, polled, p.pollCount, "no further polls after cancellation")
}
