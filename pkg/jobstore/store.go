package jobstore

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound is returned when a job id has no record in the store.
var ErrNotFound = errors.New("job not found")

// Store is a concurrent map from job id to record.
//
// Records are created once at submission, read by any number of status
// queries, and removed exactly once by retention cleanup. An id is never
// reused while its record is live.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new queued job. The request directory must already
// exist on disk before the record is published here.
func (s *Store) Create(id, fileName, requestDir string) (*Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("job id is required")
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("file name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return nil, fmt.Errorf("job id already in use: %s", id)
	}

	job := newJob(id, fileName, requestDir)
	s.jobs[id] = job
	return job, nil
}

// Get returns the live record for id, or ErrNotFound.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}

// Remove deletes the record for id. Removing an absent id is a no-op so
// cleanup stays idempotent.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
