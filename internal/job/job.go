// Package job coordinates pipeline runs as retryable jobs with staged
// progress, pulled from a shared queue by worker goroutines.
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"spritesplit/internal/sprite"
)

// State is a job lifecycle stage.
type State string

const (
	StateQueued     State = "queued"
	StateGenerating State = "generating"
	StateProcessing State = "processing"
	StatePackaging  State = "packaging"
	StateSuccess    State = "success"
	StateFailure    State = "failure"
)

// Terminal reports whether the state ends the job.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// Progress checkpoints per stage. Progress only ever increases.
const (
	progressGenerating = 10
	progressProcessing = 50
	progressPackaging  = 90
	progressDone       = 100
)

// Job is the externally polled view of one pipeline run.
type Job struct {
	ID          string    `json:"task_id"`
	State       State     `json:"status"`
	Progress    int       `json:"progress"`
	Step        string    `json:"step"`
	Error       string    `json:"error,omitempty"`
	SpriteCount int       `json:"sprite_count,omitempty"`
	ArchivePath string    `json:"-"`
	Submitted   time.Time `json:"submitted"`
}

// Request is a unit of work for the pipeline.
type Request struct {
	ID        string
	InputPath string // uploaded raster; empty when Prompt drives generation
	Prompt    string // generate-mode prompt; empty for uploaded rasters
	Options   sprite.Options
}

// Store is the in-memory job registry polled for status. Jobs are returned
// by value; only the store mutates them.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new queued job and returns its snapshot.
func (s *Store) Create() Job {
	j := &Job{
		ID:        uuid.NewString(),
		State:     StateQueued,
		Step:      "queued",
		Submitted: time.Now(),
	}
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return *j
}

// Get returns a snapshot of the job, if it exists.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

func (s *Store) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
	}
}

// stage moves the job to a new state, raising progress monotonically.
func (s *Store) stage(id string, state State, progress int, step string) {
	s.update(id, func(j *Job) {
		j.State = state
		j.Step = step
		if progress > j.Progress {
			j.Progress = progress
		}
	})
}

// succeed marks the job terminal-success.
func (s *Store) succeed(id string, count int, archivePath string) {
	s.update(id, func(j *Job) {
		j.State = StateSuccess
		j.Step = "done"
		j.Progress = progressDone
		j.SpriteCount = count
		j.ArchivePath = archivePath
	})
}

// fail marks the job terminal-failure with the error message attached.
func (s *Store) fail(id string, err error) {
	s.update(id, func(j *Job) {
		j.State = StateFailure
		j.Step = "failed"
		j.Error = err.Error()
	})
}
