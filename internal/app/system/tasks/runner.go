// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of recurring background work.
type Job struct {
	Name       string
	Interval   time.Duration
	RunAtStart bool
	// Timeout bounds one execution. Zero means no bound beyond Stop.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Runner executes jobs on fixed intervals until stopped. A job never overlaps
// with itself: the next tick is skipped while a run is in progress.
type Runner struct {
	log  *zap.Logger
	jobs []Job

	mu      sync.Mutex
	next    map[string]time.Time
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner creates a Runner for jobs.
func NewRunner(logger *zap.Logger, jobs ...Job) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		log:  logger,
		jobs: jobs,
		next: make(map[string]time.Time),
	}
}

// Start launches one goroutine per job. Calling Start twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, job := range r.jobs {
		if job.Interval <= 0 || job.Run == nil {
			r.log.Warn("skipping job with no interval or body", zap.String("job", job.Name))
			continue
		}
		r.next[job.Name] = time.Now().Add(job.Interval)
		r.wg.Add(1)
		go r.loop(ctx, job)
		r.log.Info("background job started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval),
			zap.Bool("run_at_start", job.RunAtStart))
	}
}

// Stop cancels running jobs and waits for their goroutines to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	r.log.Info("background jobs stopped")
}

// NextRun reports when the named job is next due. ok is false when the job is
// unknown or the runner has not been started.
func (r *Runner) NextRun(name string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.next[name]
	return t, ok
}

// Interval returns the configured interval of the named job.
func (r *Runner) Interval(name string) (time.Duration, bool) {
	for _, j := range r.jobs {
		if j.Name == name {
			return j.Interval, true
		}
	}
	return 0, false
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	if job.RunAtStart {
		r.execute(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := r.safeRun(runCtx, job)

	r.mu.Lock()
	r.next[job.Name] = time.Now().Add(job.Interval)
	r.mu.Unlock()

	if err != nil {
		r.log.Error("background job failed",
			zap.String("job", job.Name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return
	}
	r.log.Debug("background job finished",
		zap.String("job", job.Name),
		zap.Duration("took", time.Since(start)))
}

// safeRun keeps a panicking job from taking the process down.
func (r *Runner) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("background job panicked", zap.String("job", job.Name), zap.Any("panic", p))
			err = nil
		}
	}()
	return job.Run(ctx)
}
