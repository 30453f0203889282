// Package service wires the job store, submission queue, worker pool,
// and retention manager into one explicitly constructed value that the
// HTTP handlers and CLI share for the process lifetime.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openscribe/openscribe/internal/config"
	"github.com/openscribe/openscribe/internal/retention"
	"github.com/openscribe/openscribe/internal/worker"
	"github.com/openscribe/openscribe/pkg/jobstore"
	"github.com/openscribe/openscribe/pkg/queue"
)

// ErrNotFound is returned by Status for unknown job ids.
var ErrNotFound = jobstore.ErrNotFound

// ValidationError rejects a submission before any job is created.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Service owns the asynchronous transcription subsystem.
type Service struct {
	cfg       *config.Config
	store     *jobstore.Store
	queue     *queue.Queue
	pool      *worker.Pool
	retention *retention.Manager
	logger    *zap.Logger
}

// New builds the subsystem around the given runner. The runner is an
// interface so tests can substitute the external tool.
func New(cfg *config.Config, runner worker.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := jobstore.NewStore()
	q := queue.New()
	ret := retention.New(store, cfg.Jobs.UploadsRoot,
		cfg.Jobs.CompletedJobRetention, cfg.Jobs.OrphanedMaxAge, logger)
	pool := worker.NewPool(cfg.Jobs.MaxConcurrent, store, q, runner, ret, logger)

	return &Service{
		cfg:       cfg,
		store:     store,
		queue:     q,
		pool:      pool,
		retention: ret,
		logger:    logger,
	}
}

// Start sweeps orphaned upload directories from a prior run and then
// launches the workers. The sweep runs before any submission can be
// accepted.
func (s *Service) Start(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.Jobs.UploadsRoot, 0o755); err != nil {
		return fmt.Errorf("create uploads root: %w", err)
	}
	if err := s.retention.SweepOrphans(); err != nil {
		return fmt.Errorf("orphan sweep: %w", err)
	}

	s.pool.Start(ctx)
	s.logger.Info("workers started", zap.Int("count", s.cfg.Jobs.MaxConcurrent))
	return nil
}

// Shutdown stops accepting work and waits for in-flight jobs, bounded
// by ctx.
func (s *Service) Shutdown(ctx context.Context) error {
	s.queue.Close()

	done := make(chan struct{})
	go func() {
		s.pool.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submission is the caller-visible result of a successful Submit.
type Submission struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// Submit persists the uploaded bytes into a fresh request directory,
// publishes the job record, and enqueues it. The request directory
// exists before the record is visible anywhere.
func (s *Service) Submit(fileName string, content io.Reader) (Submission, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return Submission{}, &ValidationError{Message: "a non-empty file is required"}
	}

	id := uuid.New().String()
	requestDir := filepath.Join(s.cfg.Jobs.UploadsRoot, id)
	if err := os.MkdirAll(requestDir, 0o755); err != nil {
		return Submission{}, fmt.Errorf("create request directory: %w", err)
	}

	if err := writeUpload(filepath.Join(requestDir, fileName), content); err != nil {
		_ = os.RemoveAll(requestDir)
		return Submission{}, err
	}

	if _, err := s.store.Create(id, fileName, requestDir); err != nil {
		_ = os.RemoveAll(requestDir)
		return Submission{}, fmt.Errorf("create job record: %w", err)
	}
	if err := s.queue.Enqueue(id); err != nil {
		s.store.Remove(id)
		_ = os.RemoveAll(requestDir)
		return Submission{}, fmt.Errorf("enqueue job: %w", err)
	}

	position := s.queue.PositionOf(id)
	s.logger.Info("job submitted",
		zap.String("job_id", id),
		zap.String("file", fileName),
		zap.Int("position", position))

	return Submission{ID: id, Position: position}, nil
}

func writeUpload(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}

	n, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write upload file: %w", err)
	}
	if n == 0 {
		_ = os.Remove(path)
		return &ValidationError{Message: "uploaded file is empty"}
	}
	return nil
}

// JobStatus is the read-only snapshot exposed to status queries.
type JobStatus struct {
	ID       string            `json:"id"`
	FileName string            `json:"fileName"`
	Status   jobstore.Status   `json:"status"`
	Progress *int              `json:"progress,omitempty"`
	Duration string            `json:"duration,omitempty"`
	Outputs  map[string]string `json:"outputs,omitempty"`
	Error    string            `json:"error,omitempty"`

	// Position counts jobs ahead in submission order; it includes jobs
	// already processing and is -1 once this job has finished.
	Position int `json:"position"`
}

// Status returns the current snapshot for a job id.
func (s *Service) Status(id string) (JobStatus, error) {
	job, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			return JobStatus{}, ErrNotFound
		}
		return JobStatus{}, err
	}

	snap := job.Snapshot()
	status := JobStatus{
		ID:       snap.ID,
		FileName: snap.FileName,
		Status:   snap.Status,
		Duration: snap.Duration,
		Outputs:  snap.Outputs,
		Error:    snap.Error,
		Position: s.queue.PositionOf(id),
	}
	if snap.Progress != jobstore.ProgressUnknown {
		p := snap.Progress
		status.Progress = &p
	}
	return status, nil
}
