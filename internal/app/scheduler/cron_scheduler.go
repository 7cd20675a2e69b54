package scheduler

import (
	"context"

	"furnibles/internal/app/auth/repository"
	"furnibles/pkg/logger"

	"github.com/robfig/cron/v3"
)

// DownloadCleaner удаляет просроченные токены скачивания
type DownloadCleaner interface {
	CleanupExpiredDownloads(ctx context.Context) (int64, error)
}

// CronScheduler запускает фоновую уборку по расписанию:
// просроченные записи чёрного списка токенов и токены скачивания.
// Чёрный список также чистится лениво при проверке токена,
// cron подбирает записи, которые никто не проверял.
type CronScheduler struct {
	cron      *cron.Cron
	tokenRepo repository.TokenRepository
	downloads DownloadCleaner
}

func NewCronScheduler(tokenRepo repository.TokenRepository, downloads DownloadCleaner) *CronScheduler {
	return &CronScheduler{
		cron:      cron.New(),
		tokenRepo: tokenRepo,
		downloads: downloads,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		s.runCleanup(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

func (s *CronScheduler) runCleanup(ctx context.Context) {
	removed, err := s.tokenRepo.CleanupExpired(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to cleanup expired blacklist entries")
	} else if removed > 0 {
		logger.Info().Int64("removed", removed).Msg("Expired blacklist entries removed")
	}

	deleted, err := s.downloads.CleanupExpiredDownloads(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to cleanup expired download tokens")
	} else if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("Expired download tokens removed")
	}
}
