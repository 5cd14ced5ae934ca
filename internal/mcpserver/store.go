package mcpserver

import (
	"sort"
	"sync"
	"time"
)

// JobStatus is the externally visible state of a video job.
type JobStatus string

const (
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusPolling   JobStatus = "polling"
	JobStatusComplete  JobStatus = "complete"
	JobStatusFailed    JobStatus = "failed"
)

// JobRecord describes one video generation job. Records live in memory
// for the lifetime of the server process; there is deliberately no
// persistence layer behind them.
type JobRecord struct {
	ID        string    `json:"job_id"`
	PersonaID string    `json:"persona_id"`
	Prompt    string    `json:"prompt"`
	Status    JobStatus `json:"status"`
	VideoURL  string    `json:"video_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobStore is an in-memory job registry, safe for concurrent use.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*JobRecord
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*JobRecord)}
}

func (s *JobStore) Create(id, personaID, prompt string) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &JobRecord{
		ID:        id,
		PersonaID: personaID,
		Prompt:    prompt,
		Status:    JobStatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *JobStore) SetStatus(id string, status JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = status
		j.UpdatedAt = time.Now().UTC()
	}
}

func (s *JobStore) Complete(id, videoURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = JobStatusComplete
		j.VideoURL = videoURL
		j.UpdatedAt = time.Now().UTC()
	}
}

func (s *JobStore) Fail(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = JobStatusFailed
		j.Error = reason
		j.UpdatedAt = time.Now().UTC()
	}
}

func (s *JobStore) Get(id string) (JobRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return JobRecord{}, false
	}
	return *j, true
}

// List returns all jobs, newest first.
func (s *JobStore) List() []JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JobRecord, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}
