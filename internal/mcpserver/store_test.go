package mcpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStoreLifecycle(t *testing.T) {
	s := NewJobStore()
	s.Create("job-1", "marie-curie", "a beaker glowing faintly in the dark")

	rec, ok := s.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, JobStatusSubmitted, rec.Status)
	assert.Equal(t, "marie-curie", rec.PersonaID)

	s.SetStatus("job-1", JobStatusPolling)
	rec, _ = s.Get("job-1")
	assert.Equal(t, JobStatusPolling, rec.Status)

	s.Complete("job-1", "https://videos.example.com/videos/job-1.mp4")
	rec, _ = s.Get("job-1")
	assert.Equal(t, JobStatusComplete, rec.Status)
	assert.Equal(t, "https://videos.example.com/videos/job-1.mp4", rec.VideoURL)
	assert.Empty(t, rec.Error)
}

func TestJobStoreFail(t *testing.T) {
	s := NewJobStore()
	s.Create("job-1", "richard-feynman", "spinning plates")
	s.Fail("job-1", "generation rejected by safety filter")

	rec, ok := s.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, JobStatusFailed, rec.Status)
	assert.Equal(t, "generation rejected by safety filter", rec.Error)
	assert.Empty(t, rec.VideoURL)
}

func TestJobStoreGetUnknown(t *testing.T) {
	s := NewJobStore()
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestJobStoreListNewestFirst(t *testing.T) {
	s := NewJobStore()
	s.Create("old", "marie-curie", "first")
	// CreatedAt has wall-clock resolution; make the ordering unambiguous.
	time.Sleep(5 * time.Millisecond)
	s.Create("new", "marie-curie", "second")

	jobs := s.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, "new", jobs[0].ID)
	assert.Equal(t, "old", jobs[1].ID)
}
