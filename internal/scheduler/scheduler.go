// Package scheduler runs the maintenance jobs of the tracker on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusScheduled JobStatus = "scheduled"
)

// JobInfo contains information about a scheduled job.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	LastRun     time.Time `json:"lastRun"`
	NextRun     time.Time `json:"nextRun"`
	Schedule    string    `json:"schedule"`
	Enabled     bool      `json:"enabled"`
	RunCount    int       `json:"runCount"`
	ErrorCount  int       `json:"errorCount"`
	LastError   string    `json:"lastError,omitempty"`
	Singleton   bool      `json:"singleton"`

	gocronJob         gocron.Job
	instantAfterStart bool
}

// JobFunc represents a function that can be scheduled.
type JobFunc func(ctx context.Context) error

// Scheduler manages scheduled jobs.
type Scheduler struct {
	gocron gocron.Scheduler
	log    *logger

	mu   sync.RWMutex
	jobs map[string]*JobInfo

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler whose cron expressions are evaluated in loc.
func New(loc *time.Location) (*Scheduler, error) {
	l := newLogger()
	opts := []gocron.SchedulerOption{gocron.WithLogger(l)}
	if loc != nil {
		opts = append(opts, gocron.WithLocation(cronLocation(loc)))
	}
	gocronScheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		gocron: gocronScheduler,
		log:    l,
		jobs:   make(map[string]*JobInfo),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// cronLocation returns a zone that gocron can reference by name in CRON_TZ.
// Fixed zones such as "UTC+4" are mapped to their Etc/GMT counterpart.
func cronLocation(loc *time.Location) *time.Location {
	if _, err := time.LoadLocation(loc.String()); err == nil {
		return loc
	}
	_, offset := time.Now().In(loc).Zone()
	if offset%3600 == 0 {
		// Etc/GMT names carry the inverted sign.
		if l, err := time.LoadLocation(fmt.Sprintf("Etc/GMT%+d", -offset/3600)); err == nil {
			return l
		}
	}
	log.Warn("cannot schedule jobs in zone, falling back to UTC", "zone", loc.String())
	return time.UTC
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.log.Info("Starting job scheduler")
	s.gocron.Start()

	var instant []string
	s.mu.Lock()
	for id, jobInfo := range s.jobs {
		if nextRun, err := jobInfo.gocronJob.NextRun(); err == nil {
			jobInfo.NextRun = nextRun
		} else {
			s.log.Warn("Failed to get next run time for job", "id", id, "error", err)
		}
		if jobInfo.instantAfterStart {
			instant = append(instant, id)
		}
	}
	s.mu.Unlock()

	for _, id := range instant {
		s.log.Info("Running job immediately after start", "id", id)
		if err := s.RunJobNow(id); err != nil {
			s.log.Error("Failed to run job immediately after start", "id", id, "error", err)
		}
	}
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() error {
	s.log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// AddJob adds a job running on the 5-field cron expression schedule.
func (s *Scheduler) AddJob(id, name, description, schedule string, jobFunc JobFunc, instantAfterStart bool) error {
	return s.addJob(id, name, description, schedule, jobFunc, false, instantAfterStart)
}

// AddSingletonJob adds a job that never runs concurrently with itself.
func (s *Scheduler) AddSingletonJob(id, name, description, schedule string, jobFunc JobFunc, instantAfterStart bool) error {
	return s.addJob(id, name, description, schedule, jobFunc, true, instantAfterStart)
}

func (s *Scheduler) addJob(
	id, name, description, schedule string,
	jobFunc JobFunc,
	singleton, instantAfterStart bool,
) error {
	jobInfo := &JobInfo{
		ID:                id,
		Name:              name,
		Description:       description,
		Status:            JobStatusScheduled,
		Schedule:          schedule,
		Enabled:           true,
		Singleton:         singleton,
		instantAfterStart: instantAfterStart,
	}

	var jobOptions []gocron.JobOption
	if singleton {
		jobOptions = append(jobOptions, gocron.WithSingletonMode(gocron.LimitModeReschedule))
	}

	job, err := s.gocron.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(s.wrapJobFunc(id, jobFunc)),
		jobOptions...,
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	jobInfo.gocronJob = job

	s.mu.Lock()
	s.jobs[id] = jobInfo
	s.mu.Unlock()

	s.log.Info("Added job to scheduler", "id", id, "name", name, "singleton", singleton)
	return nil
}

// RunJobNow manually triggers a job to run immediately.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.RLock()
	jobInfo, exists := s.jobs[id]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	s.log.Info("Manually triggering job", "id", id, "name", jobInfo.Name)
	if err := jobInfo.gocronJob.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// GetJobs returns a snapshot of all jobs ordered by id.
func (s *Scheduler) GetJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, *j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })
	return jobs
}

// GetJob returns a snapshot of a single job.
func (s *Scheduler) GetJob(id string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return JobInfo{}, false
	}
	return *job, true
}

// SetEnabled enables or disables a job. Disabled jobs stay scheduled but skip their runs.
func (s *Scheduler) SetEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobInfo, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	jobInfo.Enabled = enabled
	s.log.Info("Changed job state", "id", id, "enabled", enabled)
	return nil
}

// wrapJobFunc wraps a job function to update job statistics.
func (s *Scheduler) wrapJobFunc(id string, jobFunc JobFunc) func() {
	return func() {
		s.mu.Lock()
		jobInfo := s.jobs[id]
		if jobInfo == nil {
			s.mu.Unlock()
			s.log.Error("Job info not found", "id", id)
			return
		}
		if !jobInfo.Enabled {
			s.mu.Unlock()
			s.log.Debug("Job is disabled, skipping", "id", id)
			return
		}
		jobInfo.Status = JobStatusRunning
		jobInfo.LastRun = time.Now()
		jobInfo.RunCount++
		name := jobInfo.Name
		s.mu.Unlock()

		s.log.Info("Starting job", "id", id, "name", name)
		err := jobFunc(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if nextRun, nerr := jobInfo.gocronJob.NextRun(); nerr == nil {
			jobInfo.NextRun = nextRun
		}
		if err != nil {
			s.log.Error("Job failed", "id", id, "name", name, "error", err)
			jobInfo.Status = JobStatusFailed
			jobInfo.ErrorCount++
			jobInfo.LastError = err.Error()
			return
		}
		s.log.Info("Job completed successfully", "id", id, "name", name)
		jobInfo.Status = JobStatusCompleted
		jobInfo.LastError = ""
	}
}
