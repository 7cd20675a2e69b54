package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"furnibles/internal/app/auth/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockDownloadCleaner мок для DownloadCleaner
type MockDownloadCleaner struct {
	mock.Mock
}

func (m *MockDownloadCleaner) CleanupExpiredDownloads(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// ===================== NewCronScheduler Tests =====================

func TestNewCronScheduler(t *testing.T) {
	tokenRepo := new(mocks.MockTokenRepository)
	downloads := new(MockDownloadCleaner)

	scheduler := NewCronScheduler(tokenRepo, downloads)

	assert.NotNil(t, scheduler)
	assert.NotNil(t, scheduler.cron)
}

// ===================== Start Tests =====================

func TestCronScheduler_Start_Success(t *testing.T) {
	tokenRepo := new(mocks.MockTokenRepository)
	downloads := new(MockDownloadCleaner)
	scheduler := NewCronScheduler(tokenRepo, downloads)

	err := scheduler.Start(context.Background(), "@hourly")

	assert.NoError(t, err)
	assert.Len(t, scheduler.GetEntries(), 1)

	scheduler.Stop()
}

func TestCronScheduler_Start_InvalidSchedule(t *testing.T) {
	tokenRepo := new(mocks.MockTokenRepository)
	downloads := new(MockDownloadCleaner)
	scheduler := NewCronScheduler(tokenRepo, downloads)

	err := scheduler.Start(context.Background(), "invalid cron expression")

	assert.Error(t, err)
}

// ===================== Cron Job Execution Tests =====================

func TestCronScheduler_JobExecution(t *testing.T) {
	tokenRepo := new(mocks.MockTokenRepository)
	downloads := new(MockDownloadCleaner)
	scheduler := NewCronScheduler(tokenRepo, downloads)

	tokenRepo.On("CleanupExpired", mock.Anything).Return(int64(2), nil)
	downloads.On("CleanupExpiredDownloads", mock.Anything).Return(int64(1), nil)

	// Используем @every для быстрого теста
	err := scheduler.Start(context.Background(), "@every 100ms")
	assert.NoError(t, err)

	time.Sleep(350 * time.Millisecond)

	scheduler.Stop()

	// Обе уборки выполнялись по расписанию
	assert.GreaterOrEqual(t, len(tokenRepo.Calls), 2)
	assert.GreaterOrEqual(t, len(downloads.Calls), 2)
}

func TestCronScheduler_JobExecution_BlacklistErrorDoesNotBlockDownloads(t *testing.T) {
	tokenRepo := new(mocks.MockTokenRepository)
	downloads := new(MockDownloadCleaner)
	scheduler := NewCronScheduler(tokenRepo, downloads)

	// Ошибка одной уборки не мешает второй
	tokenRepo.On("CleanupExpired", mock.Anything).Return(int64(0), errors.New("db unavailable"))
	downloads.On("CleanupExpiredDownloads", mock.Anything).Return(int64(0), nil)

	err := scheduler.Start(context.Background(), "@every 100ms")
	assert.NoError(t, err)

	time.Sleep(350 * time.Millisecond)

	scheduler.Stop()

	assert.GreaterOrEqual(t, len(downloads.Calls), 2)
}

// ===================== GetEntries Tests =====================

func TestCronScheduler_GetEntries_Empty(t *testing.T) {
	scheduler := NewCronScheduler(new(mocks.MockTokenRepository), new(MockDownloadCleaner))

	assert.Empty(t, scheduler.GetEntries())
}
