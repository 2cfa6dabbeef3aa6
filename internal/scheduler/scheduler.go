package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of background work. An empty Schedule registers the
// job for manual runs only.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
}

// New returns a scheduler whose runs are cancelled after timeout.
func New(timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		jobs:    make([]Job, 0),
		timeout: timeout,
	}
}

func (s *Scheduler) Register(job Job) error {
	if s.find(job.Name()) != nil {
		return fmt.Errorf("job %q already registered", job.Name())
	}

	if schedule := job.Schedule(); schedule != "" {
		if _, err := s.cron.AddFunc(schedule, func() { s.run(job) }); err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
		}
		log.Printf("[scheduler] %s scheduled with %s", job.Name(), schedule)
	} else {
		log.Printf("[scheduler] %s registered for manual runs", job.Name())
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Printf("[scheduler] %s failed: %v", job.Name(), err)
		return
	}
	log.Printf("[scheduler] %s completed in %s", job.Name(), time.Since(started).Round(time.Millisecond))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[scheduler] started with %d jobs", len(s.jobs))
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] stopped")
}

// RunJobByName runs a registered job now, outside its schedule.
func (s *Scheduler) RunJobByName(ctx context.Context, name string) error {
	job := s.find(name)
	if job == nil {
		return fmt.Errorf("job %q not found", name)
	}
	log.Printf("[scheduler] %s running on demand", name)
	return job.Run(ctx)
}

func (s *Scheduler) JobNames() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

func (s *Scheduler) find(name string) Job {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job
		}
	}
	return nil
}
