package rotation

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	cerrors "github.com/vnykmshr/logflow/pkg/common/errors"
	"github.com/vnykmshr/logflow/pkg/stats"
)

// Reopener is the part of a log file the rotation triggers act on.
type Reopener interface {
	Reopen() error
}

// SchedulerConfig holds construction options for a Scheduler.
type SchedulerConfig struct {
	// Schedule is a cron expression in the standard five-field format,
	// or a descriptor such as "@daily" or "@every 1h".
	Schedule string

	// Location is the timezone the expression is evaluated in.
	// Default: time.Local.
	Location *time.Location

	// OnError is invoked when a scheduled reopen fails. Optional.
	OnError func(error)

	// Stats receives the scheduler's counters. Defaults to a no-op scope.
	Stats stats.Scope
}

// Scheduler reopens a file on a cron schedule.
type Scheduler struct {
	target  Reopener
	onError func(error)
	stats   schedulerStats

	mu      sync.Mutex
	runner  *cron.Cron
	entry   cron.EntryID
	started bool
}

type schedulerStats struct {
	triggered stats.Counter
	failed    stats.Counter
}

// NewScheduler creates a Scheduler that calls target.Reopen per the
// configured cron schedule. The expression is validated here; Start only
// arms the runner.
func NewScheduler(target Reopener, config SchedulerConfig) (*Scheduler, error) {
	if target == nil {
		return nil, fmt.Errorf("rotation target: %w", cerrors.ErrInvalidConfiguration)
	}
	if config.Schedule == "" {
		return nil, fmt.Errorf("rotation schedule: %w", cerrors.ErrInvalidConfiguration)
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Stats == nil {
		config.Stats = stats.NewNopScope()
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid rotation schedule %q: %w", config.Schedule, err)
	}

	s := &Scheduler{
		target:  target,
		onError: config.OnError,
		stats: schedulerStats{
			triggered: config.Stats.Counter("rotation.triggered"),
			failed:    config.Stats.Counter("rotation.failed"),
		},
		runner: cron.New(cron.WithParser(parser), cron.WithLocation(config.Location)),
	}

	entry, err := s.runner.AddFunc(config.Schedule, s.rotate)
	if err != nil {
		return nil, fmt.Errorf("invalid rotation schedule %q: %w", config.Schedule, err)
	}
	s.entry = entry
	return s, nil
}

// Start arms the schedule. Calling Start on a running scheduler is an error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return cerrors.ErrAlreadyStarted
	}
	s.started = true
	s.runner.Start()
	return nil
}

// Stop disarms the schedule and waits for an in-flight reopen to finish.
// The scheduler can be started again afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	<-s.runner.Stop().Done()
}

// Next returns the time of the next scheduled reopen, or the zero time when
// the scheduler is stopped.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return time.Time{}
	}
	return s.runner.Entry(s.entry).Next
}

func (s *Scheduler) rotate() {
	s.stats.triggered.Inc()
	if err := s.target.Reopen(); err != nil {
		s.stats.failed.Inc()
		if s.onError != nil {
			s.onError(err)
		}
	}
}
