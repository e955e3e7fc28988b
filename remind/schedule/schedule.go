package schedule

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/logger"
)

// FireFunc is invoked once per due job, outside the schedule lock,
// so it may call back into the schedule.
type FireFunc func(job Job) error

// Schedule is a mutex-guarded map of jobs keyed by id.
// It is safe for concurrent use; RunPending is meant to be driven by a single ticker goroutine.
type Schedule struct {
	mu   sync.Mutex
	jobs map[string]Job
	fire FireFunc
	log  *zap.SugaredLogger
}

// New creates an empty schedule that hands due jobs to fire
func New(fire FireFunc, log *zap.SugaredLogger) *Schedule {
	if log == nil {
		log = logger.Logger
	}
	return &Schedule{
		jobs: make(map[string]Job),
		fire: fire,
		log:  log,
	}
}

// AddJob registers job, replacing any job with the same id
func (s *Schedule) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Cancel removes the job with id. It reports whether a job was removed;
// cancelling an unknown id is a no-op.
func (s *Schedule) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}

// Get returns the job registered under id
func (s *Schedule) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Len returns the number of registered jobs
func (s *Schedule) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Next returns the job that fires soonest, if any
func (s *Schedule) Next() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next Job
	found := false
	for _, job := range s.jobs {
		if !found || before(job, next) {
			next = job
			found = true
		}
	}
	return next, found
}

// Clear drops every job
func (s *Schedule) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]Job)
}

// ListJobs returns a snapshot of the jobs of the given kind ordered by next fire time
func (s *Schedule) ListJobs(kind Kind) []Job {
	s.mu.Lock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.Kind == kind {
			jobs = append(jobs, job)
		}
	}
	s.mu.Unlock()

	sortJobs(jobs)
	return jobs
}

// RunPending fires every job due at now and returns how many were fired.
//
// Due jobs are collected under the lock: one-time jobs are removed and
// recurring jobs advance to their rule's next occurrence after now. The fire
// function then runs for each job in fire-time order with the lock released.
// A job that errors or panics is logged and does not stop the rest.
func (s *Schedule) RunPending(now time.Time) int {
	due := s.collectDue(now)

	for _, job := range due {
		if err := s.runJob(job); err != nil {
			s.log.Errorw("Reminder job failed",
				logger.FieldReminderID, job.ID,
				logger.FieldKind, job.Kind.String(),
				logger.FieldError, err,
			)
		}
	}
	return len(due)
}

func (s *Schedule) collectDue(now time.Time) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Job
	for id, job := range s.jobs {
		if !job.Due(now) {
			continue
		}
		due = append(due, job)

		if job.Kind == Recurring && job.Rule != nil {
			job.NextFireAt = job.Rule.Next(now)
			s.jobs[id] = job
		} else {
			delete(s.jobs, id)
		}
	}

	sortJobs(due)
	return due
}

func (s *Schedule) runJob(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic firing reminder %s: %v", job.ID, r)
		}
	}()

	if s.fire == nil {
		return nil
	}
	return s.fire(job)
}

func sortJobs(jobs []Job) {
	sort.Slice(jobs, func(i, j int) bool {
		return before(jobs[i], jobs[j])
	})
}

func before(a, b Job) bool {
	if !a.NextFireAt.Equal(b.NextFireAt) {
		return a.NextFireAt.Before(b.NextFireAt)
	}
	return a.ID < b.ID
}
