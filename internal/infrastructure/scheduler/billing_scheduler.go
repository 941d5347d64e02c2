package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	billingapp "github.com/facturador/backend/internal/application/billing"
	"go.uber.org/zap"
)

// tickerInterval is how often the scheduler checks whether a run is due
const tickerInterval = 1 * time.Minute

// ErrInvalidConfig is returned when scheduler configuration is invalid
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// BillingRunner runs a mass-billing cycle for a period. Implemented by the
// mass billing application service.
type BillingRunner interface {
	RunMonthlyBilling(ctx context.Context, req billingapp.RunMonthlyBillingRequest) (*billingapp.BatchResponse, error)
}

// BillingSchedulerConfig holds configuration for the automatic billing run
type BillingSchedulerConfig struct {
	// Enabled indicates if automatic monthly runs are on
	Enabled bool
	// RunDay is the day of month (1-28) to bill the previous month
	RunDay int
	// RunHour is the hour (0-23) of the run
	RunHour int
	// RunMinute is the minute (0-59) of the run
	RunMinute int
	// JobTimeout bounds a single billing run
	JobTimeout time.Duration
}

// DefaultBillingSchedulerConfig returns defaults: the 1st of each month at 3:00 AM
func DefaultBillingSchedulerConfig() BillingSchedulerConfig {
	return BillingSchedulerConfig{
		Enabled:    true,
		RunDay:     1,
		RunHour:    3,
		RunMinute:  0,
		JobTimeout: 30 * time.Minute,
	}
}

// Validate checks the configured run moment
func (c BillingSchedulerConfig) Validate() error {
	if c.RunDay < 1 || c.RunDay > 28 {
		return ErrInvalidConfig
	}
	if c.RunHour < 0 || c.RunHour > 23 {
		return ErrInvalidConfig
	}
	if c.RunMinute < 0 || c.RunMinute > 59 {
		return ErrInvalidConfig
	}
	return nil
}

// BillingScheduler triggers the monthly mass-billing run. Concurrency and
// repeat protection live in the billing service (run lock, one live batch
// per period); the scheduler only decides when to fire.
type BillingScheduler struct {
	config BillingSchedulerConfig
	runner BillingRunner
	logger *zap.Logger

	cancel        context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
	isRunning     bool
	lastRunPeriod string // "2006-01" of the last period billed by this process
}

// NewBillingScheduler creates a new BillingScheduler
func NewBillingScheduler(config BillingSchedulerConfig, runner BillingRunner, logger *zap.Logger) *BillingScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start starts the scheduler loop
func (s *BillingScheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Billing scheduler started",
		zap.Int("run_day", s.config.RunDay),
		zap.Int("run_hour", s.config.RunHour),
		zap.Int("run_minute", s.config.RunMinute),
	)
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish
func (s *BillingScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Billing scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *BillingScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.execute(ctx, now)
			}
		}
	}
}

// shouldRun reports whether the configured moment for the current month has
// arrived and this process has not billed the target period yet
func (s *BillingScheduler) shouldRun(now time.Time) bool {
	if now.Day() != s.config.RunDay {
		return false
	}
	if now.Hour() < s.config.RunHour {
		return false
	}
	if now.Hour() == s.config.RunHour && now.Minute() < s.config.RunMinute {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunPeriod != targetPeriod(now).Format("2006-01")
}

func (s *BillingScheduler) execute(ctx context.Context, now time.Time) {
	period := targetPeriod(now)
	label := period.Format("2006-01")

	runCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	batch, err := s.runner.RunMonthlyBilling(runCtx, billingapp.RunMonthlyBillingRequest{
		Period: period,
	})
	if err != nil {
		s.logger.Error("Scheduled billing run failed",
			zap.String("period", label),
			zap.Error(err),
		)
		// Leave lastRunPeriod unset so the next tick retries
		return
	}

	s.mu.Lock()
	s.lastRunPeriod = label
	s.mu.Unlock()

	s.logger.Info("Scheduled billing run completed",
		zap.String("period", label),
		zap.Int("invoice_count", batch.InvoiceCount),
	)
}

// targetPeriod returns the month to bill when running at now: the previous
// calendar month
func targetPeriod(now time.Time) time.Time {
	firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return firstOfCurrent.AddDate(0, -1, 0)
}
