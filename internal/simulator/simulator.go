package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthsync/internal/models"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNoSinks 未配置任何 sink
var ErrNoSinks = errors.New("no telemetry sinks configured")

// Simulator 生成读数并投递到所有 sink
type Simulator struct {
	gen    *Generator
	sinks  []Sink
	stats  *Stats
	logger *zap.Logger
}

func NewSimulator(gen *Generator, sinks []Sink, logger *zap.Logger) *Simulator {
	return &Simulator{
		gen:    gen,
		sinks:  sinks,
		stats:  &Stats{},
		logger: logger,
	}
}

// Stats 发送统计
func (s *Simulator) Stats() StatsSnapshot { return s.stats.Snapshot() }

// ResetStats 清零统计
func (s *Simulator) ResetStats() { s.stats.Reset() }

// Emit 按场景生成一条读数并发送到所有 sink
func (s *Simulator) Emit(ctx context.Context, patientID string, sc Scenario) (models.TelemetryReading, error) {
	r := s.gen.Reading(patientID, sc)
	return r, s.Send(ctx, r)
}

// Send 把读数发送到所有 sink；每个 sink 单独计入统计，错误合并返回
func (s *Simulator) Send(ctx context.Context, r models.TelemetryReading) error {
	if len(s.sinks) == 0 {
		return ErrNoSinks
	}

	var errs error
	for _, sink := range s.sinks {
		start := time.Now()
		err := sink.Send(ctx, r)
		s.stats.observe(time.Since(start), start, err)
		if err != nil {
			s.logger.Warn("Failed to send telemetry",
				zap.String("sink", sink.Name()),
				zap.String("patient_id", r.PatientID),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errs
}

// RunOptions Run 参数
type RunOptions struct {
	PatientIDs []string
	Scenario   Scenario
	Count      int           // 每个患者发送的轮数，0 = 直到 ctx 结束
	Interval   time.Duration // 轮次间隔
}

// Run 按间隔为每个患者发送读数；失败只计入统计不终止
func (s *Simulator) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.PatientIDs) == 0 {
		return errors.New("at least one patient id is required")
	}
	if opts.Count <= 0 && opts.Interval <= 0 {
		return errors.New("interval is required when count is unbounded")
	}

	s.logger.Info("Simulator run started",
		zap.Strings("patients", opts.PatientIDs),
		zap.String("scenario", opts.Scenario.Name),
		zap.Int("count", opts.Count),
		zap.Duration("interval", opts.Interval),
	)

	var ticker *time.Ticker
	if opts.Interval > 0 {
		ticker = time.NewTicker(opts.Interval)
		defer ticker.Stop()
	}

	for round := 0; opts.Count <= 0 || round < opts.Count; round++ {
		if round > 0 && ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		for _, id := range opts.PatientIDs {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, _ = s.Emit(ctx, id, opts.Scenario)
		}
	}

	st := s.Stats()
	s.logger.Info("Simulator run finished",
		zap.Int("sent", st.Sent),
		zap.Int("failed", st.Failed),
		zap.Float64("avg_latency_ms", st.AvgLatencyMs),
	)
	return nil
}
