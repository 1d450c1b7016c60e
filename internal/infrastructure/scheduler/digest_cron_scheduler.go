package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cronTickerInterval is the interval at which the cron scheduler checks for execution
const cronTickerInterval = 1 * time.Minute

// Default digest time is 07:00 server time
const (
	defaultCronHour   = 7
	defaultCronMinute = 0
)

// DigestCronConfig holds configuration for the daily digest trigger
type DigestCronConfig struct {
	Enabled    bool
	CronHour   int
	CronMinute int
	Pool       Config
}

// NewDigestCronConfig builds the trigger configuration from a
// "minute hour * * *" expression and the worker pool settings
func NewDigestCronConfig(enabled bool, cronExpr string, pool Config) (DigestCronConfig, error) {
	hour, minute, err := ParseCronSchedule(cronExpr)
	if err != nil {
		return DigestCronConfig{}, err
	}
	return DigestCronConfig{
		Enabled:    enabled,
		CronHour:   hour,
		CronMinute: minute,
		Pool:       pool,
	}, nil
}

// ParseCronSchedule parses a cron expression "minute hour * * *" and returns
// the hour and minute. An empty expression yields 07:00.
// Only daily schedules are supported: the day, month and weekday fields must be "*".
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	parts := strings.Fields(cronExpr)
	if len(parts) == 0 {
		return defaultCronHour, defaultCronMinute, nil
	}
	if len(parts) != 5 {
		return 0, 0, fmt.Errorf("%w: cron expression %q must have 5 fields", ErrInvalidConfig, cronExpr)
	}
	for _, f := range parts[2:] {
		if f != "*" {
			return 0, 0, fmt.Errorf("%w: only daily schedules are supported, got %q", ErrInvalidConfig, cronExpr)
		}
	}

	minute, err = strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidConfig, parts[0])
	}
	hour, err = strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidConfig, parts[1])
	}
	return hour, minute, nil
}

// JobRunRecord is a persisted record of one job execution
type JobRunRecord struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID   uuid.UUID  `gorm:"column:company_id;type:uuid;not null"`
	Kind        string     `gorm:"column:kind;size:50;not null"`
	Status      string     `gorm:"column:status;size:20;not null"`
	Error       string     `gorm:"column:error;type:text"`
	Attempts    int        `gorm:"column:attempts;not null;default:0"`
	StartedAt   time.Time  `gorm:"column:started_at;not null"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}

// TableName returns the table name for GORM
func (JobRunRecord) TableName() string {
	return "scheduler_job_runs"
}

// JobRunRepository handles persistence of job run records
type JobRunRepository struct {
	db *gorm.DB
}

// NewJobRunRepository creates a new JobRunRepository
func NewJobRunRepository(db *gorm.DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

// RecordJobStart records a queued job and returns the run id
func (r *JobRunRepository) RecordJobStart(ctx context.Context, companyID uuid.UUID, kind JobKind) (uuid.UUID, error) {
	record := &JobRunRecord{
		ID:        uuid.New(),
		CompanyID: companyID,
		Kind:      string(kind),
		Status:    string(JobStatusPending),
		StartedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return uuid.Nil, err
	}
	return record.ID, nil
}

// RecordJobComplete records the final outcome of a run
func (r *JobRunRepository) RecordJobComplete(ctx context.Context, runID uuid.UUID, status JobStatus, attempts int, errMsg string) error {
	return r.db.WithContext(ctx).
		Model(&JobRunRecord{}).
		Where("id = ?", runID).
		Updates(map[string]any{
			"status":       string(status),
			"error":        errMsg,
			"attempts":     attempts,
			"completed_at": time.Now(),
		}).Error
}

// GetLastRun returns the most recent run of a kind for a company
func (r *JobRunRepository) GetLastRun(ctx context.Context, companyID uuid.UUID, kind JobKind) (*JobRunRecord, error) {
	var record JobRunRecord
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND kind = ?", companyID, string(kind)).
		Order("started_at DESC").
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// JobFinished persists the outcome of a job that has a run record
func (r *JobRunRepository) JobFinished(ctx context.Context, job *Job) {
	if job.RunID == uuid.Nil {
		return
	}
	// The pool context may already be cancelled during shutdown
	_ = r.RecordJobComplete(context.WithoutCancel(ctx), job.RunID, job.Status, job.RetryCount+1, job.Error)
}

// DigestCronScheduler queues one digest job per company at the configured time each day
type DigestCronScheduler struct {
	config      DigestCronConfig
	companyRepo identity.CompanyRepository
	runRepo     *JobRunRepository
	scheduler   *Scheduler
	logger      *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
	lastRunAt   *time.Time
	nextRunAt   *time.Time
}

// NewDigestCronScheduler creates a new DigestCronScheduler. runRepo may be nil.
func NewDigestCronScheduler(
	config DigestCronConfig,
	executor JobExecutor,
	companyRepo identity.CompanyRepository,
	runRepo *JobRunRepository,
	logger *zap.Logger,
) *DigestCronScheduler {
	pool := NewScheduler(config.Pool, executor, logger)
	if runRepo != nil {
		pool.SetObserver(runRepo)
	}

	return &DigestCronScheduler{
		config:      config,
		companyRepo: companyRepo,
		runRepo:     runRepo,
		scheduler:   pool,
		logger:      logger,
	}
}

// Start starts the worker pool and, when enabled, the cron loop.
// The pool also runs with the cron disabled so manual triggers still work.
func (s *DigestCronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}

	if !s.config.Enabled {
		s.logger.Info("Daily digest cron disabled, manual trigger only")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.calculateNextRunTime(time.Now())

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Daily digest cron started",
		zap.Int("cron_hour", s.config.CronHour),
		zap.Int("cron_minute", s.config.CronMinute),
		zap.Timep("next_run_at", s.GetNextRunAt()),
	)
	return nil
}

// Stop stops the cron loop, then the worker pool
func (s *DigestCronScheduler) Stop(ctx context.Context) error {
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
	case <-ctx.Done():
		s.logger.Warn("Daily digest cron stop timed out")
		return ctx.Err()
	}

	if err := s.scheduler.Stop(ctx); err != nil {
		s.logger.Warn("Error stopping job scheduler", zap.Error(err))
		return err
	}
	s.logger.Info("Daily digest cron stopped")
	return nil
}

func (s *DigestCronScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				if _, err := s.runScheduled(ctx, now); err != nil {
					s.logger.Error("Daily digest run failed", zap.Error(err))
				}
				s.calculateNextRunTime(now)
			}
		}
	}
}

// shouldRun reports whether now matches the schedule and today has not run yet
func (s *DigestCronScheduler) shouldRun(now time.Time) bool {
	if now.Hour() != s.config.CronHour || now.Minute() != s.config.CronMinute {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunDate != now.Format(time.DateOnly)
}

func (s *DigestCronScheduler) calculateNextRunTime(now time.Time) {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.CronHour, s.config.CronMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runScheduled marks today's slot as used and runs the digest.
// Manual runs go straight to runDigest so they never consume the slot.
func (s *DigestCronScheduler) runScheduled(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	s.lastRunDate = now.Format(time.DateOnly)
	s.mu.Unlock()
	return s.runDigest(ctx, now)
}

// runDigest queues one digest job per company and returns the number queued
func (s *DigestCronScheduler) runDigest(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	companies, err := s.companyRepo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list companies for digest: %w", err)
	}

	queued := 0
	for _, company := range companies {
		job := NewJob(JobKindDailyDigest, company.ID, now, s.config.Pool.RetryAttempts)
		if s.runRepo != nil {
			runID, recordErr := s.runRepo.RecordJobStart(ctx, company.ID, job.Kind)
			if recordErr != nil {
				s.logger.Warn("Failed to record digest job",
					zap.String("company_id", company.ID.String()),
					zap.Error(recordErr),
				)
			}
			job.RunID = runID
		}

		if err := s.scheduler.SubmitJob(job); err != nil {
			s.logger.Error("Failed to submit digest job",
				zap.String("company_id", company.ID.String()),
				zap.Error(err),
			)
			if s.runRepo != nil && job.RunID != uuid.Nil {
				_ = s.runRepo.RecordJobComplete(ctx, job.RunID, JobStatusFailed, 0, err.Error())
			}
			continue
		}
		queued++
	}

	s.logger.Info("Daily digest jobs queued",
		zap.Int("company_count", len(companies)),
		zap.Int("queued", queued),
	)
	return queued, nil
}

// TriggerManualRun queues the digest for every company now
func (s *DigestCronScheduler) TriggerManualRun(ctx context.Context) (int, error) {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return 0, ErrSchedulerNotRunning
	}
	return s.runDigest(ctx, time.Now())
}

// GetStatus returns the current status of the digest cron
func (s *DigestCronScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"cron_hour":   s.config.CronHour,
		"cron_minute": s.config.CronMinute,
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *DigestCronScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last run occurred
func (s *DigestCronScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}
