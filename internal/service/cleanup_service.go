package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/yamdb/internal/repository"
)

// CleanupService 清理服务，定期作废过期确认码
type CleanupService struct {
	repos    *repository.Repositories
	ttl      time.Duration
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewCleanupService 创建清理服务，ttl 为 0 时 Start 不做任何事
func NewCleanupService(repos *repository.Repositories, ttl time.Duration, log *zap.Logger) *CleanupService {
	interval := ttl
	if interval > time.Hour {
		interval = time.Hour
	}
	return &CleanupService{repos: repos, ttl: ttl, interval: interval, log: log.Named("cleanup"), now: time.Now}
}

// Start 启动定时清理任务，ctx 取消后退出
func (s *CleanupService) Start(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)

	go func() {
		defer ticker.Stop()
		// 启动时先运行一次
		s.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce 执行一次清理
func (s *CleanupService) RunOnce(ctx context.Context) {
	affected, err := s.repos.User.ClearCodesIssuedBefore(ctx, s.now().Add(-s.ttl))
	if err != nil {
		s.log.Error("清理过期确认码失败", zap.Error(err))
		return
	}
	if affected > 0 {
		s.log.Info("已清理过期确认码", zap.Int64("count", affected))
	}
}
