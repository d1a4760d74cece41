// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/tasks"
	"go.uber.org/zap"
)

// jobTimeout bounds a single run of a job.
const jobTimeout = 30 * time.Second

// Runner runs each job on its own ticker until stopped, plus one-off work
// handed to Go.
type Runner struct {
	jobs   []tasks.Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
	oneOff sync.WaitGroup
	once   sync.Once
}

// NewRunner creates a runner for jobs. Jobs with a non-positive interval are skipped.
func NewRunner(logger *zap.Logger, jobs ...tasks.Job) *Runner {
	return &Runner{
		jobs:   jobs,
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Start begins the background loops.
func (w *Runner) Start() {
	for _, job := range w.jobs {
		if job.Interval <= 0 {
			w.log.Warn("skipping job with no interval", zap.String("job", job.Name))
			continue
		}
		w.wg.Add(1)
		go w.loop(job)
		w.log.Info("background job started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
}

// Go runs fn once in the background under the job timeout. Failures are
// logged under name. Stop and Drain wait for it.
func (w *Runner) Go(name string, fn func(context.Context) error) {
	w.oneOff.Add(1)
	go func() {
		defer w.oneOff.Done()
		w.runOnce(tasks.Job{Name: name, Run: fn})
	}()
}

// Drain waits for work started with Go.
func (w *Runner) Drain() {
	w.oneOff.Wait()
}

// Stop signals every loop to stop and waits for them and for one-off work
// to finish. It is safe to call more than once.
func (w *Runner) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.oneOff.Wait()
		w.log.Info("background jobs stopped")
	})
}

func (w *Runner) loop(job tasks.Job) {
	defer w.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runOnce(job)
		}
	}
}

func (w *Runner) runOnce(job tasks.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		w.log.Error("background job failed", zap.String("job", job.Name), zap.Error(err))
	}
}
