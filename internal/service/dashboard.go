package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"healthsync/internal/aggregator"
	"healthsync/internal/filter"
	"healthsync/internal/health"
	"healthsync/internal/models"
	"healthsync/internal/repository"
	"healthsync/internal/store"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrNotFound 快照中没有该患者
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput 请求参数不合法
	ErrInvalidInput = errors.New("invalid input")
	// ErrStopped 服务已停止
	ErrStopped = errors.New("dashboard service stopped")
)

// PatientAPI 外部 API（由 client.APIClient 实现）
type PatientAPI interface {
	ListPatients(ctx context.Context) ([]models.Patient, error)
	ListAlerts(ctx context.Context) ([]models.Alert, error)
	GetStats(ctx context.Context) (*models.APIStats, error)
	CreatePatient(ctx context.Context, in models.PatientInput) (*models.Patient, error)
	UpdatePatient(ctx context.Context, id string, in models.PatientInput) (*models.Patient, error)
	DeletePatient(ctx context.Context, id string) error
	ResolveAlert(ctx context.Context, id string) error
	SubmitTelemetry(ctx context.Context, r models.TelemetryReading) error
}

// Snapshot 最近一次成功刷新的数据
type Snapshot struct {
	Patients  []models.Patient `json:"patients"`
	Alerts    []models.Alert   `json:"alerts"`
	Stats     *models.APIStats `json:"stats,omitempty"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Options 服务参数
type Options struct {
	Thresholds      health.Thresholds
	Location        *time.Location
	CacheKey        string
	CacheTTL        time.Duration
	RefreshInterval time.Duration // 0 = 不自动刷新
}

// DashboardView 概览 + 错误横幅
type DashboardView struct {
	aggregator.Overview
	LastError string     `json:"last_error,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}

// PatientView 患者 + 推导出的健康状态
type PatientView struct {
	models.Patient
	HealthStatus health.Status `json:"health_status"`
}

// DashboardService 维护外部 API 数据的投影
type DashboardService struct {
	api    PatientAPI
	kv     store.KV
	audit  repository.AuditRepository
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	refreshMu sync.Mutex // 串行化刷新

	mu        sync.RWMutex
	snap      Snapshot
	lastError string
	stopped   bool

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// NewDashboardService 创建服务；kv / audit 可为 nil
func NewDashboardService(api PatientAPI, kv store.KV, audit repository.AuditRepository, opts Options, logger *zap.Logger) *DashboardService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Thresholds == (health.Thresholds{}) {
		opts.Thresholds = health.DefaultThresholds()
	}
	return &DashboardService{
		api:    api,
		kv:     kv,
		audit:  audit,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Thresholds 当前使用的阈值表
func (s *DashboardService) Thresholds() health.Thresholds { return s.opts.Thresholds }

// Location 日期分组使用的时区
func (s *DashboardService) Location() *time.Location { return s.opts.Location }

// Now 服务时钟（已转换到配置时区）
func (s *DashboardService) Now() time.Time { return s.now().In(s.opts.Location) }

// LoadCached 启动时从缓存恢复上次的快照，未命中不算错误
func (s *DashboardService) LoadCached(ctx context.Context) error {
	if s.kv == nil || s.opts.CacheKey == "" {
		return nil
	}
	var snap Snapshot
	if err := store.GetJSON(ctx, s.kv, s.opts.CacheKey, &snap); err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil
		}
		if errors.Is(err, store.ErrCorrupt) {
			s.logger.Warn("Dropping corrupt cached snapshot", zap.String("key", s.opts.CacheKey), zap.Error(err))
			if delErr := s.kv.Delete(ctx, s.opts.CacheKey); delErr != nil {
				return fmt.Errorf("delete corrupt snapshot: %w", delErr)
			}
			return nil
		}
		return fmt.Errorf("load cached snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.FetchedAt.IsZero() {
		s.snap = snap
		s.logger.Info("Restored cached snapshot",
			zap.Int("patients", len(snap.Patients)),
			zap.Int("alerts", len(snap.Alerts)),
			zap.Time("fetched_at", snap.FetchedAt),
		)
	}
	return nil
}

// Refresh 从外部 API 拉取患者、报警和统计
// 患者或报警失败时保留旧数据并设置错误横幅；/stats 失败只记日志
func (s *DashboardService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.isStopped() {
		return ErrStopped
	}

	var (
		wg                   sync.WaitGroup
		patients             []models.Patient
		alerts               []models.Alert
		stats                *models.APIStats
		pErr, aErr, statsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		patients, pErr = s.api.ListPatients(ctx)
	}()
	go func() {
		defer wg.Done()
		alerts, aErr = s.api.ListAlerts(ctx)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = s.api.GetStats(ctx)
	}()
	wg.Wait()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if err := multierr.Combine(pErr, aErr); err != nil {
		s.lastError = "Failed to refresh data: " + firstError(pErr, aErr).Error()
		s.mu.Unlock()
		s.logger.Warn("Dashboard refresh failed", zap.Error(err))
		return fmt.Errorf("refresh: %w", err)
	}
	if statsErr != nil {
		s.logger.Warn("Failed to fetch stats, keeping previous", zap.Error(statsErr))
		stats = s.snap.Stats
	}
	s.snap = Snapshot{
		Patients:  patients,
		Alerts:    alerts,
		Stats:     stats,
		FetchedAt: s.now().UTC(),
	}
	s.lastError = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("Dashboard refreshed",
		zap.Int("patients", len(patients)),
		zap.Int("alerts", len(alerts)),
	)
	s.saveCache(ctx, snap)
	return nil
}

func (s *DashboardService) saveCache(ctx context.Context, snap Snapshot) {
	if s.kv == nil || s.opts.CacheKey == "" {
		return
	}
	if err := store.SetJSON(ctx, s.kv, s.opts.CacheKey, snap, s.opts.CacheTTL); err != nil {
		s.logger.Warn("Failed to cache snapshot", zap.String("key", s.opts.CacheKey), zap.Error(err))
	}
}

// Snapshot 当前快照的副本
func (s *DashboardService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// snapshotLocked 复制切片，调用方需持有 mu；ApplyTelemetry 会原地修改 Patients
func (s *DashboardService) snapshotLocked() Snapshot {
	return Snapshot{
		Patients:  append([]models.Patient(nil), s.snap.Patients...),
		Alerts:    append([]models.Alert(nil), s.snap.Alerts...),
		Stats:     s.snap.Stats,
		FetchedAt: s.snap.FetchedAt,
	}
}

// LastError 当前错误横幅，空串表示无
func (s *DashboardService) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// DismissError 关闭错误横幅
func (s *DashboardService) DismissError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

// Dashboard 概览
func (s *DashboardService) Dashboard() DashboardView {
	snap := s.Snapshot()
	v := DashboardView{
		Overview:  aggregator.BuildOverview(snap.Patients, snap.Alerts, snap.Stats, s.Now(), s.opts.Thresholds),
		LastError: s.LastError(),
	}
	if !snap.FetchedAt.IsZero() {
		at := snap.FetchedAt
		v.FetchedAt = &at
	}
	return v
}

// Patients 过滤后的患者列表
func (s *DashboardService) Patients(f filter.PatientFilter) []PatientView {
	snap := s.Snapshot()
	matched := filter.FilterPatients(snap.Patients, f)
	out := make([]PatientView, 0, len(matched))
	for _, p := range matched {
		out = append(out, s.view(p))
	}
	return out
}

// Patient 按 ID 查找
func (s *DashboardService) Patient(id string) (PatientView, error) {
	snap := s.Snapshot()
	for _, p := range snap.Patients {
		if p.PatientID == id {
			return s.view(p), nil
		}
	}
	return PatientView{}, fmt.Errorf("patient %s: %w", id, ErrNotFound)
}

func (s *DashboardService) view(p models.Patient) PatientView {
	return PatientView{Patient: p, HealthStatus: s.opts.Thresholds.ClassifyPatient(p)}
}

// Alerts 过滤 + 排序后的报警
func (s *DashboardService) Alerts(f filter.AlertFilter, key filter.SortKey) []models.Alert {
	snap := s.Snapshot()
	return filter.SortAlerts(filter.FilterAlerts(snap.Alerts, f), key)
}

// AlertPatientNames 报警中出现过的患者名（筛选项）
func (s *DashboardService) AlertPatientNames() []string {
	return filter.UniquePatientNames(s.Snapshot().Alerts)
}

// AlertStats 报警汇总
func (s *DashboardService) AlertStats() aggregator.AlertStats {
	return aggregator.SummarizeAlerts(s.Snapshot().Alerts, s.Now())
}

func (s *DashboardService) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
