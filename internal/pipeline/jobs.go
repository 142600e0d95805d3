package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a tailoring job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusFetching  JobStatus = "fetching"
	StatusTailoring JobStatus = "tailoring"
	StatusUploading JobStatus = "uploading"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single tailoring request.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	UserID string `json:"user_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	JobTitle string    `json:"job_title"`

	Progress Progress `json:"progress"`

	// Set once the tailored document is uploaded.
	FileName  string `json:"file_name,omitempty"`
	ResultKey string `json:"result_key,omitempty"`
	ResultURL string `json:"result_url,omitempty"`

	// ErrorKind classifies the failure, see ErrorKind.
	ErrorKind string `json:"error_kind,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	jobDescription string
	errors         []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalChunks     int      `json:"total_chunks"`
	ChunksRewritten int      `json:"chunks_rewritten"`
	Errors          []string `json:"errors"`
}

// NewJob returns a queued job with a fresh ID.
func NewJob(userID, jobTitle, jobDescription string) *Job {
	now := time.Now()
	return &Job{
		ID:             uuid.NewString(),
		UserID:         userID,
		Status:         StatusQueued,
		Phase:          "queued",
		JobTitle:       jobTitle,
		CreatedAt:      now,
		UpdatedAt:      now,
		jobDescription: jobDescription,
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
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail marks the job failed, recording the error and its kind.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err.Error())
	j.Progress.Errors = j.errors
	j.ErrorKind = ErrorKind(err)
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetChunkProgress records how many chunks have been rewritten.
func (j *Job) SetChunkProgress(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	// Concurrent chunks may report out of order.
	if done > j.Progress.ChunksRewritten {
		j.Progress.ChunksRewritten = done
	}
	j.Progress.TotalChunks = total
	j.UpdatedAt = time.Now()
}

// Complete records the uploaded result and marks the job completed.
func (j *Job) Complete(fileName, key, url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.FileName = fileName
	j.ResultKey = key
	j.ResultURL = url
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// JobDescription returns the posting text the job tailors for.
func (j *Job) JobDescription() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jobDescription
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	UserID    string    `json:"user_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	JobTitle  string    `json:"job_title"`
	Progress  Progress  `json:"progress"`
	FileName  string    `json:"file_name,omitempty"`
	ResultKey string    `json:"result_key,omitempty"`
	ResultURL string    `json:"result_url,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:       j.ID,
		UserID:   j.UserID,
		Status:   j.Status,
		Phase:    j.Phase,
		JobTitle: j.JobTitle,
		Progress: Progress{
			TotalChunks:     j.Progress.TotalChunks,
			ChunksRewritten: j.Progress.ChunksRewritten,
			Errors:          errs,
		},
		FileName:  j.FileName,
		ResultKey: j.ResultKey,
		ResultURL: j.ResultURL,
		ErrorKind: j.ErrorKind,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
