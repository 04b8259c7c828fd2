package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Start 启动定时刷新（RefreshInterval > 0 时）；重复调用无效
func (s *DashboardService) Start(ctx context.Context) {
	if s.opts.RefreshInterval <= 0 {
		return
	}

	s.mu.Lock()
	if s.stopped || s.pollCancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.pollCancel = cancel
	s.pollDone = done
	s.mu.Unlock()

	s.logger.Info("Starting dashboard poller", zap.Duration("interval", s.opts.RefreshInterval))
	go s.poll(ctx, done)
}

func (s *DashboardService) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Scheduled refresh failed", zap.Error(err))
			}
		}
	}
}

// Stop 停止轮询；之后到达的刷新 / 读数结果都会被丢弃
func (s *DashboardService) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel, done := s.pollCancel, s.pollDone
	s.pollCancel, s.pollDone = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.logger.Info("Dashboard service stopped")
}
