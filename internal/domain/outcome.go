package domain

import (
	"time"
)

// TaskStatus represents where a task is in its lifecycle
type TaskStatus string

const (
	StatusPending     TaskStatus = "pending"
	StatusDownloading TaskStatus = "downloading"
	StatusSucceeded   TaskStatus = "succeeded"
	StatusFailed      TaskStatus = "failed"
	StatusCancelled   TaskStatus = "cancelled" // never submitted because the run was cancelled
)

// Outcome records what happened to a single task
type Outcome struct {
	Key          string     `json:"key"`
	URL          string     `json:"url"`
	Status       TaskStatus `json:"status"`
	FilePath     string     `json:"file_path,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Err          error      `json:"-"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewOutcome creates a pending outcome for a task
func NewOutcome(task *Task) *Outcome {
	return &Outcome{
		Key:    task.Key,
		URL:    task.URL,
		Status: StatusPending,
	}
}

// MarkDownloading marks the task as handed to the downloader
func (o *Outcome) MarkDownloading() {
	o.Status = StatusDownloading
	now := time.Now()
	o.StartedAt = &now
}

// MarkSucceeded marks the task as downloaded to filePath
func (o *Outcome) MarkSucceeded(filePath string) {
	o.Status = StatusSucceeded
	o.FilePath = filePath
	now := time.Now()
	o.CompletedAt = &now
}

// MarkFailed marks the task as failed
func (o *Outcome) MarkFailed(err error) {
	o.Status = StatusFailed
	o.Err = err
	o.ErrorMessage = err.Error()
	now := time.Now()
	o.CompletedAt = &now
}

// MarkCancelled marks a task that was never submitted
func (o *Outcome) MarkCancelled(err error) {
	o.Status = StatusCancelled
	o.Err = err
	if err != nil {
		o.ErrorMessage = err.Error()
	}
	now := time.Now()
	o.CompletedAt = &now
}

// IsTerminal checks if the outcome can no longer change
func (o *Outcome) IsTerminal() bool {
	return o.Status == StatusSucceeded || o.Status == StatusFailed || o.Status == StatusCancelled
}

// Duration returns how long the download took, or zero if it never ran to completion
func (o *Outcome) Duration() time.Duration {
	if o.StartedAt == nil || o.CompletedAt == nil {
		return 0
	}
	return o.CompletedAt.Sub(*o.StartedAt)
}

// Report is the aggregate result of a batch run
type Report struct {
	RunID      string     `json:"run_id"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Cancelled  int        `json:"cancelled"`
	Outcomes   []*Outcome `json:"outcomes"` // same order as the input tasks
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// NewReport creates a report for the given outcomes and tallies them
func NewReport(runID string, outcomes []*Outcome, startedAt time.Time) *Report {
	r := &Report{
		RunID:      runID,
		Total:      len(outcomes),
		Outcomes:   outcomes,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	for _, o := range outcomes {
		switch o.Status {
		case StatusSucceeded:
			r.Succeeded++
		case StatusFailed:
			r.Failed++
		case StatusCancelled:
			r.Cancelled++
		}
	}
	return r
}

// ByKey indexes the outcomes by task key
func (r *Report) ByKey() map[string]*Outcome {
	m := make(map[string]*Outcome, len(r.Outcomes))
	for _, o := range r.Outcomes {
		m[o.Key] = o
	}
	return m
}

// FailedKeys returns the keys of tasks that did not succeed, in input order
func (r *Report) FailedKeys() []string {
	var keys []string
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed || o.Status == StatusCancelled {
			keys = append(keys, o.Key)
		}
	}
	return keys
}

// HasFailures reports whether any task failed or was cancelled
func (r *Report) HasFailures() bool {
	return r.Failed > 0 || r.Cancelled > 0
}

// Elapsed returns the wall-clock duration of the run
func (r *Report) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
