package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/docblocks/internal/export"
)

// JobStatus represents the state of an export job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRendering JobStatus = "rendering"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single document export.
type Job struct {
	mu sync.Mutex

	ID        string `json:"job_id"`
	SessionID string `json:"session_id"`

	Status JobStatus       `json:"status"`
	Phase  string          `json:"phase"`
	Meta   export.Metadata `json:"meta"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	document    string
	result      []byte
	contentType string
	filename    string
	err         string
}

// NewJob captures doc at submission time; later session edits do not
// affect the export.
func NewJob(id, sessionID, doc string, meta export.Metadata) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		SessionID: sessionID,
		Status:    StatusQueued,
		Phase:     "queued",
		Meta:      meta,
		CreatedAt: now,
		UpdatedAt: now,
		document:  doc,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail marks the job failed with a reason.
func (j *Job) Fail(phase, reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.Phase = phase
	j.err = reason
	j.UpdatedAt = time.Now()
}

// Complete stores the export artifact and marks the job done.
func (j *Job) Complete(data []byte, contentType, filename string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = data
	j.contentType = contentType
	j.filename = filename
	j.document = ""
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Document returns the text captured at submission.
func (j *Job) Document() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.document
}

// Result returns the artifact of a completed job.
func (j *Job) Result() (data []byte, contentType, filename string, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusCompleted {
		return nil, "", "", false
	}
	return j.result, j.contentType, j.filename, true
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string        `json:"job_id"`
	SessionID string        `json:"session_id"`
	Status    JobStatus     `json:"status"`
	Phase     string        `json:"phase"`
	Format    export.Format `json:"format"`
	Filename  string        `json:"filename,omitempty"`
	Size      int           `json:"size"`
	Error     string        `json:"error,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		SessionID: j.SessionID,
		Status:    j.Status,
		Phase:     j.Phase,
		Format:    j.Meta.Format,
		Filename:  j.filename,
		Size:      len(j.result),
		Error:     j.err,
	}
}
