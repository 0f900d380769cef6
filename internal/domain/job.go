package domain

import "time"

// JobState is the lifecycle position of a queued job.
type JobState string

const (
	JobWaiting   JobState = "waiting"
	JobDelayed   JobState = "delayed"
	JobActive    JobState = "active"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// JobStates lists every state in lifecycle order.
var JobStates = []JobState{JobWaiting, JobDelayed, JobActive, JobCompleted, JobFailed}

// Job is one durable unit of work on the email queue.
type Job struct {
	ID           string        `json:"id"`
	Queue        string        `json:"queue"`
	Name         string        `json:"name"`
	Data         EmailJobData  `json:"data"`
	Priority     Priority      `json:"priority"`
	State        JobState      `json:"state"`
	Attempts     int           `json:"attempts"`
	AttemptsMade int           `json:"attemptsMade"`
	Backoff      time.Duration `json:"backoff"`
	LastError    *string       `json:"lastError,omitempty"`
	RunAt        time.Time     `json:"runAt"`
	LockedUntil  *time.Time    `json:"lockedUntil,omitempty"`
	FinishedAt   *time.Time    `json:"finishedAt,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Terminal reports whether the job has left the queue for good.
func (j *Job) Terminal() bool {
	return j.State == JobCompleted || j.State == JobFailed
}

// JobCounts is a per-state snapshot of a queue.
type JobCounts map[JobState]int
