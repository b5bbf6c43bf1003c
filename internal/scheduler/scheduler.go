package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is a unit of background work.
type Job interface {
	// Name identifies the job in logs and on-demand runs.
	Name() string

	// Schedule is a cron spec ("@every 5m", "0 7 * * *"). Empty keeps the job off the cron.
	Schedule() string

	Execute(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron schedule.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	stop context.CancelFunc

	mu   sync.Mutex
	jobs []Job
	wg   sync.WaitGroup
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:  ctx,
		stop: cancel,
	}
}

// RegisterJob adds a job; jobs with a schedule are queued on the cron.
func (s *Scheduler) RegisterJob(job Job) error {
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	schedule := job.Schedule()
	if schedule == "" {
		log.Printf("[scheduler] %s registered without a schedule", job.Name())
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.run(job) }); err != nil {
		return fmt.Errorf("scheduling %s with %q: %w", job.Name(), schedule, err)
	}
	log.Printf("[scheduler] %s scheduled with %s", job.Name(), schedule)
	return nil
}

// Start begins the cron loop. Every scheduled job also runs once right away.
func (s *Scheduler) Start() {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, job := range jobs {
		if job.Schedule() == "" {
			continue
		}
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			s.run(j)
		}(job)
	}

	s.cron.Start()
	log.Printf("[scheduler] started with %d registered jobs", len(jobs))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.stop()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Println("[scheduler] stopped")
}

func (s *Scheduler) run(job Job) {
	if err := job.Execute(s.ctx); err != nil {
		log.Printf("[scheduler] %s failed: %v", job.Name(), err)
	}
}
