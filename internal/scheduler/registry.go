package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrAlreadyStarted = errors.New("scheduler_already_started")

// Registry is an explicit, constructed job registry with an injectable
// lifecycle. Jobs are registered before Start; the embedding process owns
// when Start and Stop happen.
type Registry struct {
	log *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		log:  log.Named("scheduler"),
		cron: cron.New(),
	}
}

// Register schedules fn on the given cron spec. The job gets a background
// context and panic isolation; its errors are the job's own to log.
func (r *Registry) Register(spec, name string, fn func(context.Context)) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("missing_job_name")
	}
	if fn == nil {
		return errors.New("missing_job_func")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.log.With(zap.String("job", name))
	_, err := r.cron.AddFunc(spec, func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("job panicked", zap.Any("panic", rec))
			}
		}()
		log.Debug("job started")
		fn(context.Background())
	})
	if err != nil {
		return err
	}
	log.Info("job registered", zap.String("spec", spec))
	return nil
}

// Start begins dispatching registered jobs.
func (r *Registry) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrAlreadyStarted
	}
	r.cron.Start()
	r.started = true
	r.log.Info("scheduler started")
	return nil
}

// Stop halts scheduling and waits for running jobs, honoring ctx.
func (r *Registry) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return nil
	}
	done := r.cron.Stop().Done()
	r.started = false
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	r.log.Info("scheduler stopped")
	return nil
}
