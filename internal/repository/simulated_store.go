package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"talentflow_backend/internal/config"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/util"
	"talentflow_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// SimulatedStore 在底层存储前模拟 mock API 的延迟和随机写入失败，运行时可替换配置
type SimulatedStore struct {
	next AssessmentStore

	mu   sync.RWMutex
	cfg  config.SimulationConfig
	rand *rand.Rand
	// sleep 等待d或直到ctx结束
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSimulatedStore(next AssessmentStore, cfg config.SimulationConfig) *SimulatedStore {
	return &SimulatedStore{
		next:  next,
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
}

// Update 替换模拟配置，一般在重新加载配置后调用
func (s *SimulatedStore) Update(cfg config.SimulationConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	logger.Log.Info("Network simulation updated",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("min_latency_ms", cfg.MinLatencyMS),
		zap.Int("max_latency_ms", cfg.MaxLatencyMS),
		zap.Float64("write_error_rate", cfg.WriteErrorRate),
	)
}

func (s *SimulatedStore) Settings() config.SimulationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *SimulatedStore) Load(ctx context.Context, jobID string) (*model.Assessment, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	return s.next.Load(ctx, jobID)
}

func (s *SimulatedStore) Save(ctx context.Context, doc *model.Assessment) error {
	if err := s.delay(ctx); err != nil {
		return err
	}
	if s.fail() {
		return fmt.Errorf("%w (PUT /assessments/%s)", util.ErrSimulatedFailure, doc.JobID)
	}
	return s.next.Save(ctx, doc)
}

func (s *SimulatedStore) Submit(ctx context.Context, sub *model.Submission) (*model.SubmissionRecord, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	if s.fail() {
		return nil, fmt.Errorf("%w (POST /assessments/%s/submit)", util.ErrSimulatedFailure, sub.JobID)
	}
	return s.next.Submit(ctx, sub)
}

func (s *SimulatedStore) List(ctx context.Context, q ListQuery) ([]model.AssessmentSummary, int64, error) {
	if err := s.delay(ctx); err != nil {
		return nil, 0, err
	}
	return s.next.List(ctx, q)
}

func (s *SimulatedStore) delay(ctx context.Context) error {
	s.mu.Lock()
	cfg := s.cfg
	var d time.Duration
	if cfg.Enabled {
		span := cfg.MaxLatencyMS - cfg.MinLatencyMS
		ms := cfg.MinLatencyMS
		if span > 0 {
			ms += s.rand.Intn(span + 1)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	s.mu.Unlock()
	if d == 0 {
		return ctx.Err()
	}
	return s.sleep(ctx, d)
}

func (s *SimulatedStore) fail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled && s.rand.Float64() < s.cfg.WriteErrorRate
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
