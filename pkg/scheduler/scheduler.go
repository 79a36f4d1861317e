// Package scheduler runs jobs on cron schedules.
//
// Runs of the same job never overlap: a run still in progress when the next
// one is due makes cron skip the latter. Panics in jobs are recovered and logged.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/linuxautomation/autokit/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSpec runs once a day, at midnight
const DefaultSpec = "@daily"

// ErrInvalidSpec is returned for a malformed cron expression
var ErrInvalidSpec = errors.New("invalid cron expression")

// ErrDuplicateJob is returned when a job name is registered twice
var ErrDuplicateJob = errors.New("job already scheduled")

// Job is a scheduled unit of work. The context is cancelled on Stop.
type Job func(ctx context.Context) error

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSpec validates a cron expression: 5 standard fields or a descriptor such as "@daily"
func ParseSpec(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, ErrInvalidSpec.Wrapf("%q: %v", spec, err)
	}
	return sched, nil
}

// Scheduler of named jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mx   sync.Mutex
	jobs map[string]cron.EntryID
}

// Option for the scheduler
type Option func(*settings)

type settings struct {
	logger   *zap.Logger
	location *time.Location
}

// WithLogger sets the logger (defaults to a no-op logger)
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation interprets schedules in loc (defaults to time.Local)
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.location = loc
		}
	}
}

// New scheduler, not started
func New(opts ...Option) *Scheduler {
	s := &settings{logger: zap.NewNop(), location: time.Local}
	for _, apply := range opts {
		apply(s)
	}
	cl := cronLogger{s.logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(s.location),
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		logger: s.logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Add schedules job under name
func (s *Scheduler) Add(spec, name string, job Job) error {
	sched, err := ParseSpec(spec)
	if err != nil {
		return err
	}

	s.mx.Lock()
	defer s.mx.Unlock()
	if _, ok := s.jobs[name]; ok {
		return ErrDuplicateJob.Wrapf("%s", name)
	}

	logger := s.logger.With(zap.String("job", name))
	s.jobs[name] = s.cron.Schedule(sched, cron.FuncJob(func() {
		t0 := time.Now()
		logger.Info("job started")
		if err := job(s.ctx); err != nil {
			logger.Error("job failed", zap.Error(err), zap.Duration("took", time.Since(t0)))
			return
		}
		logger.Info("job completed", zap.Duration("took", time.Since(t0)))
	}))
	logger.Info("job scheduled", zap.String("spec", spec), zap.Time("next", sched.Next(time.Now())))
	return nil
}

// Next run of the named job, zero if unknown or not started
func (s *Scheduler) Next(name string) time.Time {
	s.mx.Lock()
	id, ok := s.jobs[name]
	s.mx.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop scheduling, cancel the context of running jobs and wait for them to
// return, or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

// cronLogger adapts zap to cron's logger
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
