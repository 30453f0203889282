package jobstore

import (
	"sync"
	"time"
)

// Status is the lifecycle state of a transcription job.
//
// Transitions only move forward: queued -> processing -> complete | error.
// Terminal states are never left.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// ProgressUnknown marks a job whose progress has not been reported yet.
const ProgressUnknown = -1

// Job is the in-memory record for one transcription request.
//
// A job is mutated by exactly one worker during its processing lifetime.
// Everyone else reads through Snapshot, which returns a consistent copy
// of the current field values.
type Job struct {
	mu sync.RWMutex

	id         string
	fileName   string
	requestDir string
	createdAt  time.Time

	status   Status
	progress int
	duration string
	outputs  map[string]string
	errMsg   string
}

func newJob(id, fileName, requestDir string) *Job {
	return &Job{
		id:         id,
		fileName:   fileName,
		requestDir: requestDir,
		createdAt:  time.Now().UTC(),
		status:     StatusQueued,
		progress:   ProgressUnknown,
	}
}

// ID returns the immutable job identifier.
func (j *Job) ID() string { return j.id }

// FileName returns the original uploaded file name.
func (j *Job) FileName() string { return j.fileName }

// RequestDir returns the job's working directory.
func (j *Job) RequestDir() string { return j.requestDir }

// CreatedAt returns the submission time.
func (j *Job) CreatedAt() time.Time { return j.createdAt }

// SetProcessing moves the job from queued to processing. It reports
// whether the transition was applied.
func (j *Job) SetProcessing() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != StatusQueued {
		return false
	}
	j.status = StatusProcessing
	return true
}

// SetProgress records a 0-100 progress value. Values outside the range
// and updates after a terminal state are ignored.
func (j *Job) SetProgress(p int) {
	if p < 0 || p > 100 {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.progress = p
}

// SetDuration stores the tool-reported elapsed time string verbatim.
func (j *Job) SetDuration(d string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.duration = d
}

// Complete marks the job done with the given non-empty outputs.
// It reports whether the transition was applied.
func (j *Job) Complete(outputs map[string]string) bool {
	if len(outputs) == 0 {
		return false
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return false
	}

	j.status = StatusComplete
	j.progress = 100
	j.outputs = outputs
	return true
}

// Fail marks the job failed with a human-readable message. It reports
// whether the transition was applied.
func (j *Job) Fail(msg string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return false
	}

	j.status = StatusError
	j.errMsg = msg
	return true
}

// Snapshot is a read-only copy of a job's observable state.
type Snapshot struct {
	ID       string
	FileName string
	Status   Status
	Progress int
	Duration string
	Outputs  map[string]string
	Error    string
}

// Snapshot returns a consistent copy of the job's current state.
// The outputs map is copied so callers cannot alias internal state.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	snap := Snapshot{
		ID:       j.id,
		FileName: j.fileName,
		Status:   j.status,
		Progress: j.progress,
		Duration: j.duration,
		Error:    j.errMsg,
	}
	if len(j.outputs) > 0 {
		snap.Outputs = make(map[string]string, len(j.outputs))
		for k, v := range j.outputs {
			snap.Outputs[k] = v
		}
	}
	return snap
}
