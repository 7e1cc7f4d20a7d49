package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// JobFunc is one run of a periodic job. The context is cancelled when the job
// is removed or the scheduler stops.
type JobFunc func(ctx context.Context)

type Scheduler struct {
	jobs   map[string]*job // job name -> job
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type job struct {
	interval time.Duration
	ticker   *time.Ticker
	cancel   context.CancelFunc
}

// NewScheduler initializes a new Scheduler instance
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Stop cancels every job and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cancel()

	s.mu.Lock()
	for _, j := range s.jobs {
		j.ticker.Stop()
		j.cancel()
	}
	s.jobs = make(map[string]*job)
	s.mu.Unlock()

	s.wg.Wait()
	log.Println("Scheduler stopped")
}

// AddJob runs fn every interval. A job already registered under name is
// replaced. Adding to a stopped scheduler is a no-op.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn JobFunc) {
	if interval <= 0 {
		log.Printf("Refusing to schedule job %s with interval %v", name, interval)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	if existing, exists := s.jobs[name]; exists {
		existing.ticker.Stop()
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	j := &job{
		interval: interval,
		ticker:   time.NewTicker(interval),
		cancel:   jobCancel,
	}
	s.jobs[name] = j

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(jobCtx, j, fn)
	}()

	log.Printf("Added job %s every %v", name, interval)
}

// RemoveJob stops the named job. Unknown names are ignored.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, exists := s.jobs[name]; exists {
		j.ticker.Stop()
		j.cancel()
		delete(s.jobs, name)
		log.Printf("Removed job %s", name)
	}
}

func (s *Scheduler) run(ctx context.Context, j *job, fn JobFunc) {
	defer j.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.ticker.C:
			fn(ctx)
		}
	}
}

// Status returns current scheduler status
func (s *Scheduler) Status() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"active_jobs": len(s.jobs),
		"running":     s.ctx.Err() == nil,
	}
}
