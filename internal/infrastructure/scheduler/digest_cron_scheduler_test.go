package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type mockCompanyRepository struct {
	mock.Mock
}

func (m *mockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Company), args.Error(1)
}

func (m *mockCompanyRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Company, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Company), args.Error(1)
}

func (m *mockCompanyRepository) FindAll(ctx context.Context) ([]identity.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Company), args.Error(1)
}

func (m *mockCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	return m.Called(ctx, company).Error(0)
}

func (m *mockCompanyRepository) Save(ctx context.Context, company *identity.Company) error {
	return m.Called(ctx, company).Error(0)
}

func newCompany(name string) identity.Company {
	var c identity.Company
	c.ID = uuid.New()
	c.Name = name
	return c
}

func newJobRunRepository(t *testing.T) *JobRunRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// Workers write from other goroutines; keep them on the one in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&JobRunRecord{}))
	return NewJobRunRepository(db)
}

// collectingExecutor records the companies it ran for
type collectingExecutor struct {
	mu        sync.Mutex
	companies []uuid.UUID
	done      chan struct{}
	fail      bool
}

func newCollectingExecutor() *collectingExecutor {
	return &collectingExecutor{done: make(chan struct{}, 16)}
}

func (e *collectingExecutor) Execute(_ context.Context, job *Job) error {
	e.mu.Lock()
	e.companies = append(e.companies, job.CompanyID)
	e.mu.Unlock()
	e.done <- struct{}{}
	if e.fail {
		return errors.New("mail server down")
	}
	return nil
}

func (e *collectingExecutor) waitFor(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-e.done:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d of %d jobs", i, n)
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uuid.UUID(nil), e.companies...)
}

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name         string
		cronExpr     string
		expectedHour int
		expectedMin  int
	}{
		{
			name:         "Default 7am",
			cronExpr:     "0 7 * * *",
			expectedHour: 7,
			expectedMin:  0,
		},
		{
			name:         "6:45am",
			cronExpr:     "45 6 * * *",
			expectedHour: 6,
			expectedMin:  45,
		},
		{
			name:         "Midnight",
			cronExpr:     "0 0 * * *",
			expectedHour: 0,
			expectedMin:  0,
		},
		{
			name:         "Empty string defaults",
			cronExpr:     "",
			expectedHour: 7,
			expectedMin:  0,
		},
		{
			name:         "Extra whitespace",
			cronExpr:     "  15   4   *   *   *  ",
			expectedHour: 4,
			expectedMin:  15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.cronExpr)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedHour, hour, "hour mismatch")
			assert.Equal(t, tt.expectedMin, minute, "minute mismatch")
		})
	}
}

func TestParseCronSchedule_Invalid(t *testing.T) {
	for _, expr := range []string{
		"0 7",
		"x 7 * * *",
		"0 y * * *",
		"60 7 * * *",
		"0 24 * * *",
		"0 7 * * 1",
		"0 7 1 * *",
	} {
		t.Run(expr, func(t *testing.T) {
			_, _, err := ParseCronSchedule(expr)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewDigestCronConfig(t *testing.T) {
	cfg, err := NewDigestCronConfig(true, "30 6 * * *", DefaultConfig())
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 6, cfg.CronHour)
	assert.Equal(t, 30, cfg.CronMinute)
	assert.Equal(t, DefaultConfig(), cfg.Pool)

	_, err = NewDigestCronConfig(true, "bad", DefaultConfig())
	assert.Error(t, err)
}

func TestDigestCronScheduler_ShouldRun(t *testing.T) {
	s := &DigestCronScheduler{
		config: DigestCronConfig{CronHour: 7, CronMinute: 30},
	}

	tests := []struct {
		name     string
		time     time.Time
		expected bool
	}{
		{
			name:     "Exact match",
			time:     time.Date(2026, 1, 15, 7, 30, 0, 0, time.UTC),
			expected: true,
		},
		{
			name:     "Wrong hour",
			time:     time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "Wrong minute",
			time:     time.Date(2026, 1, 15, 7, 31, 0, 0, time.UTC),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.shouldRun(tt.time))
		})
	}
}

func TestDigestCronScheduler_ShouldRun_OncePerDay(t *testing.T) {
	s := &DigestCronScheduler{
		config: DigestCronConfig{CronHour: 7, CronMinute: 0},
	}
	at := time.Date(2026, 1, 15, 7, 0, 0, 0, time.UTC)

	assert.True(t, s.shouldRun(at))
	s.lastRunDate = at.Format(time.DateOnly)
	assert.False(t, s.shouldRun(at.Add(30*time.Second)))
	assert.True(t, s.shouldRun(at.AddDate(0, 0, 1)))
}

func TestDigestCronScheduler_CalculateNextRunTime(t *testing.T) {
	s := &DigestCronScheduler{
		config: DigestCronConfig{CronHour: 7, CronMinute: 0},
	}

	s.calculateNextRunTime(time.Date(2026, 1, 15, 5, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 1, 15, 7, 0, 0, 0, time.UTC), *s.GetNextRunAt())

	s.calculateNextRunTime(time.Date(2026, 1, 15, 7, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 1, 16, 7, 0, 0, 0, time.UTC), *s.GetNextRunAt())

	s.calculateNextRunTime(time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 2, 1, 7, 0, 0, 0, time.UTC), *s.GetNextRunAt())
}

func TestDigestCronScheduler_TriggerManualRun_NotRunning(t *testing.T) {
	s := NewDigestCronScheduler(DigestCronConfig{Pool: DefaultConfig()}, newCollectingExecutor(), &mockCompanyRepository{}, nil, zap.NewNop())

	_, err := s.TriggerManualRun(context.Background())

	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestDigestCronScheduler_TriggerManualRun_QueuesEveryCompany(t *testing.T) {
	companies := []identity.Company{newCompany("Acme"), newCompany("Globex")}
	repo := &mockCompanyRepository{}
	repo.On("FindAll", mock.Anything).Return(companies, nil)
	executor := newCollectingExecutor()

	// Cron disabled: the pool still serves manual triggers
	s := NewDigestCronScheduler(DigestCronConfig{Enabled: false, Pool: testConfig()}, executor, repo, nil, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	queued, err := s.TriggerManualRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	ran := executor.waitFor(t, 2)
	assert.ElementsMatch(t, []uuid.UUID{companies[0].ID, companies[1].ID}, ran)
	assert.NotNil(t, s.GetLastRunAt())
	repo.AssertExpectations(t)
}

func TestDigestCronScheduler_ManualRunKeepsScheduledSlot(t *testing.T) {
	repo := &mockCompanyRepository{}
	repo.On("FindAll", mock.Anything).Return([]identity.Company{newCompany("Acme")}, nil)
	executor := newCollectingExecutor()

	s := NewDigestCronScheduler(DigestCronConfig{Enabled: false, CronHour: 7, Pool: testConfig()}, executor, repo, nil, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	_, err := s.TriggerManualRun(context.Background())
	require.NoError(t, err)
	executor.waitFor(t, 1)

	now := time.Now()
	slot := time.Date(now.Year(), now.Month(), now.Day(), 7, 0, 0, 0, now.Location())
	assert.True(t, s.shouldRun(slot), "manual run must not consume today's scheduled digest")

	_, err = s.runScheduled(context.Background(), slot)
	require.NoError(t, err)
	executor.waitFor(t, 1)
	assert.False(t, s.shouldRun(slot.Add(30*time.Second)))
}

func TestDigestCronScheduler_TriggerManualRun_ListError(t *testing.T) {
	repo := &mockCompanyRepository{}
	repo.On("FindAll", mock.Anything).Return(nil, errors.New("db down"))

	s := NewDigestCronScheduler(DigestCronConfig{Pool: testConfig()}, newCollectingExecutor(), repo, nil, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	queued, err := s.TriggerManualRun(context.Background())

	assert.Error(t, err)
	assert.Zero(t, queued)
}

func TestDigestCronScheduler_RecordsRuns(t *testing.T) {
	company := newCompany("Acme")
	repo := &mockCompanyRepository{}
	repo.On("FindAll", mock.Anything).Return([]identity.Company{company}, nil)
	runRepo := newJobRunRepository(t)
	executor := newCollectingExecutor()
	executor.fail = true

	pool := testConfig()
	pool.RetryAttempts = 0
	s := NewDigestCronScheduler(DigestCronConfig{Pool: pool}, executor, repo, runRepo, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	_, err := s.TriggerManualRun(context.Background())
	require.NoError(t, err)
	executor.waitFor(t, 1)

	require.Eventually(t, func() bool {
		run, err := runRepo.GetLastRun(context.Background(), company.ID, JobKindDailyDigest)
		return err == nil && run.Status == string(JobStatusFailed)
	}, 2*time.Second, 10*time.Millisecond)

	run, err := runRepo.GetLastRun(context.Background(), company.ID, JobKindDailyDigest)
	require.NoError(t, err)
	assert.Equal(t, "mail server down", run.Error)
	assert.Equal(t, 1, run.Attempts)
	assert.NotNil(t, run.CompletedAt)
}

func TestJobRunRepository_GetLastRun_NotFound(t *testing.T) {
	runRepo := newJobRunRepository(t)

	_, err := runRepo.GetLastRun(context.Background(), uuid.New(), JobKindDailyDigest)

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDigestCronScheduler_GetStatus(t *testing.T) {
	s := NewDigestCronScheduler(DigestCronConfig{Enabled: true, CronHour: 7, CronMinute: 15, Pool: testConfig()},
		newCollectingExecutor(), &mockCompanyRepository{}, nil, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	status := s.GetStatus()
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, true, status["enabled"])
	assert.Equal(t, true, status["is_running"])
	assert.Equal(t, 7, status["cron_hour"])
	assert.Equal(t, 15, status["cron_minute"])
	assert.NotNil(t, status["next_run_at"])
}
