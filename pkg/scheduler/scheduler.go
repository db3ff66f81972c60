package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work, typically a fetch cycle.
type Job func(ctx context.Context)

// Config configures a Scheduler.
type Config struct {
	// Schedule is a standard cron expression or descriptor such as
	// "*/5 * * * *" or "@every 1m". It takes precedence over Interval.
	Schedule string

	// Interval fires the job every Interval when Schedule is empty.
	Interval time.Duration

	// RunOnStart runs the job once as soon as the scheduler starts.
	RunOnStart bool

	Logger *slog.Logger
}

// Scheduler runs a Job on a cron schedule. A firing is skipped while the
// previous run is still in progress.
type Scheduler struct {
	job      Job
	spec     string
	schedule cron.Schedule
	onStart  bool
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	startWG sync.WaitGroup
}

// New validates the schedule and creates a stopped Scheduler.
func New(cfg Config, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	spec, err := Spec(cfg.Schedule, cfg.Interval)
	if err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	return &Scheduler{
		job:      job,
		spec:     spec,
		schedule: schedule,
		onStart:  cfg.RunOnStart,
		logger:   cfg.Logger.With("component", "scheduler"),
	}, nil
}

// Spec resolves the effective cron spec from an explicit schedule or a fixed
// interval.
func Spec(schedule string, interval time.Duration) (string, error) {
	if schedule != "" {
		return schedule, nil
	}
	if interval <= 0 {
		return "", errors.New("either a schedule or a positive interval is required")
	}
	return "@every " + interval.String(), nil
}

// Start begins firing the job. The scheduler stops when ctx is cancelled or
// Stop is called. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	cronLogger := cronLogger{s.logger}
	c := cron.New(cron.WithLogger(cronLogger))

	// The on-start run shares the skip guard with scheduled firings. Recover
	// sits inside the guard: SkipIfStillRunning only releases its token when
	// the job returns normally.
	wrapped := cron.NewChain(
		cron.SkipIfStillRunning(cronLogger),
		cron.Recover(cronLogger),
	).Then(cron.FuncJob(func() {
		s.job(ctx)
	}))
	c.Schedule(s.schedule, wrapped)

	c.Start()
	s.cron = c
	s.running = true

	s.logger.Info("scheduler started", "schedule", s.spec, "run_on_start", s.onStart)

	if s.onStart {
		s.startWG.Add(1)
		go func() {
			defer s.startWG.Done()
			wrapped.Run()
		}()
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return
	}

	done := s.cron.Stop()
	<-done.Done()
	s.startWG.Wait()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the scheduler is started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next firing time, or nil when stopped.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}

// Schedule returns the effective cron spec.
func (s *Scheduler) Schedule() string {
	return s.spec
}

// cronLogger routes cron's own logging to slog. cron logs every wakeup at
// info, which is debug detail for us.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
