package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DailyJob is a maintenance task that runs once per day at a fixed
// local time.
type DailyJob struct {
	Name   string
	Hour   int
	Minute int
	Run    func(ctx context.Context) error
}

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// JobTimeout bounds a single job execution
	JobTimeout time.Duration
}

// DefaultDailyTriggerConfig returns default daily trigger configuration
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		CheckInterval: time.Minute,
		JobTimeout:    15 * time.Minute,
	}
}

// Validate validates the trigger configuration
func (c DailyTriggerConfig) Validate() error {
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// DailyTrigger runs registered jobs once per day at their configured
// times. It polls the clock on a coarse interval rather than arming
// per-job timers, and remembers the last date each job ran so a check
// landing twice inside the same minute cannot double-fire a job.
type DailyTrigger struct {
	config DailyTriggerConfig
	jobs   []DailyJob
	logger *zap.Logger
	clock  func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[string]string // job name -> date last executed (2006-01-02)
}

// NewDailyTrigger creates a new daily trigger
func NewDailyTrigger(config DailyTriggerConfig, jobs []DailyJob, logger *zap.Logger) (*DailyTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job.Name == "" || job.Run == nil {
			return nil, fmt.Errorf("%w: job needs a name and a run function", ErrInvalidConfig)
		}
		if job.Hour < 0 || job.Hour > 23 || job.Minute < 0 || job.Minute > 59 {
			return nil, fmt.Errorf("%w: job %q scheduled at invalid time %02d:%02d", ErrInvalidConfig, job.Name, job.Hour, job.Minute)
		}
		if _, dup := seen[job.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate job name %q", ErrInvalidConfig, job.Name)
		}
		seen[job.Name] = struct{}{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyTrigger{
		config:  config,
		jobs:    jobs,
		logger:  logger,
		clock:   time.Now,
		lastRun: make(map[string]string, len(jobs)),
	}, nil
}

// WithClock overrides the time source; tests pin the trigger minute with it.
func (t *DailyTrigger) WithClock(clock func() time.Time) *DailyTrigger {
	if clock != nil {
		t.clock = clock
	}
	return t
}

// Start starts the daily trigger
func (t *DailyTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	for _, job := range t.jobs {
		t.logger.Info("Scheduled daily job",
			zap.String("job", job.Name),
			zap.String("at", fmt.Sprintf("%02d:%02d", job.Hour, job.Minute)),
		)
	}
	t.logger.Info("Daily trigger started",
		zap.Int("jobs", len(t.jobs)),
		zap.Duration("check_interval", t.config.CheckInterval),
	)

	return nil
}

// Stop stops the daily trigger
func (t *DailyTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Daily trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically if any job is due
func (t *DailyTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs every job whose scheduled minute matches the
// current time and that has not already run today
func (t *DailyTrigger) checkAndTrigger(ctx context.Context) {
	now := t.clock()
	currentDate := now.Format("2006-01-02")

	for _, job := range t.jobs {
		if now.Hour() != job.Hour || now.Minute() != job.Minute {
			continue
		}

		t.mu.Lock()
		if t.lastRun[job.Name] == currentDate {
			t.mu.Unlock()
			continue
		}
		t.lastRun[job.Name] = currentDate
		t.mu.Unlock()

		t.runJob(ctx, job)
	}
}

// RunJobNow runs a registered job immediately, outside its schedule.
// The trigger does not need to be started.
func (t *DailyTrigger) RunJobNow(ctx context.Context, name string) error {
	for _, job := range t.jobs {
		if job.Name == name {
			t.runJob(ctx, job)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownJob, name)
}

// JobNames lists the registered job names in registration order.
func (t *DailyTrigger) JobNames() []string {
	names := make([]string, len(t.jobs))
	for i, job := range t.jobs {
		names[i] = job.Name
	}
	return names
}

func (t *DailyTrigger) runJob(ctx context.Context, job DailyJob) {
	jobCtx, cancel := context.WithTimeout(ctx, t.config.JobTimeout)
	defer cancel()

	start := t.clock()
	t.logger.Info("Running daily job", zap.String("job", job.Name))

	if err := job.Run(jobCtx); err != nil {
		t.logger.Error("Daily job failed",
			zap.String("job", job.Name),
			zap.Error(err),
		)
		return
	}

	t.logger.Info("Daily job finished",
		zap.String("job", job.Name),
		zap.Duration("duration", t.clock().Sub(start)),
	)
}
