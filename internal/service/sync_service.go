package service

import (
	"context"
	"errors"
	"sync"
	"talentflow_backend/internal/config"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/repository"
	"talentflow_backend/internal/util"
	"talentflow_backend/pkg/logger"
	"talentflow_backend/pkg/monitoring"
	"talentflow_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxRetryBackoff = time.Minute

// StatusNotifier 接收每次同步状态变化
type StatusNotifier interface {
	Publish(status model.SyncStatus)
}

type noopNotifier struct{}

func (noopNotifier) Publish(model.SyncStatus) {}

type syncEntry struct {
	status  model.SyncStatus
	latest  model.Assessment
	queued  bool
	nextTry time.Time

	// saveMu 保证同一职位的写入串行执行。
	// scheduled 表示已有后台保存在等待取最新版本，由 SyncService.mu 保护
	saveMu    sync.Mutex
	scheduled bool
}

// SyncService 在后台持久化内存文档，并按职位跟踪存储是否已跟上最新修改。
// 最新版本保存失败后进入重试队列，由 Run 处理。内存文档不会回滚
type SyncService struct {
	store    repository.AssessmentStore
	notifier StatusNotifier
	cfg      config.SyncConfig
	limiter  *rate.Limiter
	now      func() time.Time

	mu       sync.Mutex
	entries  map[string]*syncEntry
	queueLen int
	inflight sync.WaitGroup
}

func NewSyncService(store repository.AssessmentStore, notifier StatusNotifier, cfg config.SyncConfig) *SyncService {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	if cfg.RetryRate <= 0 {
		cfg.RetryRate = 5
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &SyncService{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RetryRate), 1),
		now:      time.Now,
		entries:  make(map[string]*syncEntry),
	}
}

// Track 登记与存储一致的文档，已跟踪的职位不做处理
func (s *SyncService) Track(doc model.Assessment) model.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[doc.JobID]; ok {
		return e.status
	}
	e := &syncEntry{
		latest: doc,
		status: model.SyncStatus{
			JobID:         doc.JobID,
			State:         model.SyncSynced,
			Revision:      doc.Revision,
			SavedRevision: doc.Revision,
			UpdatedAt:     s.now(),
		},
	}
	s.entries[doc.JobID] = e
	return e.status
}

func (s *SyncService) Status(jobID string) (model.SyncStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[jobID]
	if !ok {
		return model.SyncStatus{}, false
	}
	return e.status, true
}

// Schedule 记录最新版本并异步保存。
// 每个职位同时最多一个保存，期间调度的版本合并为一次最新文档的保存
func (s *SyncService) Schedule(doc model.Assessment) model.SyncStatus {
	st := s.markPending(doc)

	s.mu.Lock()
	e := s.entry(doc.JobID)
	if e.scheduled {
		s.mu.Unlock()
		return st
	}
	e.scheduled = true
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		_ = s.saveLatest(context.Background(), e)
	}()
	return st
}

// SaveNow 记录最新版本并等待该职位的最新版本写入完成。
// 已被更新修改取代的版本不报告为失败
func (s *SyncService) SaveNow(ctx context.Context, doc model.Assessment) (model.SyncStatus, error) {
	s.markPending(doc)
	s.mu.Lock()
	e := s.entry(doc.JobID)
	s.mu.Unlock()

	err := s.saveLatest(ctx, e)
	st, _ := s.Status(doc.JobID)
	if errors.Is(err, util.ErrStaleRevision) && st.Revision > doc.Revision {
		err = nil
	}
	return st, err
}

// Retry 立即重新保存职位的最新版本，并重置自动重试次数
func (s *SyncService) Retry(ctx context.Context, jobID string) (model.SyncStatus, error) {
	s.mu.Lock()
	e, ok := s.entries[jobID]
	if !ok {
		s.mu.Unlock()
		return model.SyncStatus{}, util.ErrAssessmentNotFound
	}
	if e.status.State == model.SyncSynced {
		st := e.status
		s.mu.Unlock()
		return st, nil
	}
	e.status.Attempts = 0
	e.status.State = model.SyncPending
	e.status.UpdatedAt = s.now()
	s.dequeue(e)
	st := e.status
	s.mu.Unlock()

	s.notifier.Publish(st)
	err := s.saveLatest(ctx, e)
	st, _ = s.Status(jobID)
	return st, err
}

// Run 处理重试队列直到ctx结束，到期的重试经过共享限流器
func (s *SyncService) Run(ctx context.Context) {
	tick := s.cfg.RetryInterval / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.retryDue(ctx)
		}
	}
}

// Wait 等待后台保存完成或ctx结束
func (s *SyncService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unsynced 列出最新版本尚未保存的职位
func (s *SyncService) Unsynced() []model.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SyncStatus
	for _, e := range s.entries {
		if e.status.State != model.SyncSynced {
			out = append(out, e.status)
		}
	}
	return out
}

func (s *SyncService) retryDue(ctx context.Context) {
	now := s.now()
	var due []*syncEntry
	s.mu.Lock()
	for _, e := range s.entries {
		if e.queued && !now.Before(e.nextTry) {
			s.dequeue(e)
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		s.mu.Lock()
		jobID, revision := e.status.JobID, e.status.Revision
		s.mu.Unlock()
		logger.Log.Info("Retrying assessment save", zap.String("job_id", jobID), zap.Int64("revision", revision))
		_ = s.saveLatest(ctx, e)
	}
}

// saveLatest 写入e的最新版本，已保存时跳过
func (s *SyncService) saveLatest(ctx context.Context, e *syncEntry) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	s.mu.Lock()
	e.scheduled = false
	doc := e.latest
	stored := e.status.SavedRevision >= doc.Revision
	s.mu.Unlock()
	if stored {
		return nil
	}
	return s.save(ctx, doc)
}

func (s *SyncService) markPending(doc model.Assessment) model.SyncStatus {
	s.mu.Lock()
	e := s.entry(doc.JobID)
	if doc.Revision >= e.status.Revision {
		e.status.Revision = doc.Revision
		e.latest = doc
	}
	if e.status.Revision > e.status.SavedRevision || e.status.State == model.SyncError {
		e.status.State = model.SyncPending
		if e.status.PendingSince == nil {
			since := s.now()
			e.status.PendingSince = &since
		}
	}
	e.status.UpdatedAt = s.now()
	st := e.status
	s.mu.Unlock()

	s.notifier.Publish(st)
	return st
}

func (s *SyncService) save(ctx context.Context, doc model.Assessment) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SaveTimeout)
	defer cancel()
	ctx, span := tracing.StartSpan(ctx, "assessment.save",
		attribute.String("job_id", doc.JobID),
		attribute.Int64("revision", doc.Revision),
	)

	start := time.Now()
	err := s.store.Save(ctx, &doc)
	monitoring.SaveDuration.Observe(time.Since(start).Seconds())
	tracing.End(span, err)

	s.complete(doc, err)
	return err
}

func (s *SyncService) complete(doc model.Assessment, err error) {
	result := "ok"

	s.mu.Lock()
	e := s.entry(doc.JobID)
	st := &e.status
	switch {
	case err == nil:
		if doc.Revision > st.SavedRevision {
			st.SavedRevision = doc.Revision
		}
		if st.SavedRevision >= st.Revision {
			st.State = model.SyncSynced
			st.LastError = ""
			st.Attempts = 0
			st.PendingSince = nil
			s.dequeue(e)
		}
	case errors.Is(err, util.ErrStaleRevision):
		result = "stale"
		if doc.Revision >= st.Revision {
			st.State = model.SyncError
			st.LastError = err.Error()
			s.dequeue(e)
		}
	default:
		result = "error"
		if doc.Revision < st.Revision || st.SavedRevision >= doc.Revision {
			// 更新的版本正在保存或已保存
			break
		}
		st.State = model.SyncError
		st.LastError = err.Error()
		st.Attempts++
		if st.Attempts < s.cfg.MaxAttempts {
			s.enqueue(e, s.now().Add(s.backoff(st.Attempts)))
		} else {
			s.dequeue(e)
		}
	}
	st.UpdatedAt = s.now()
	snapshot := *st
	s.mu.Unlock()

	monitoring.SaveOutcomes.WithLabelValues(result).Inc()
	if err != nil {
		logger.Log.Warn("Assessment save failed",
			zap.String("job_id", doc.JobID),
			zap.Int64("revision", doc.Revision),
			zap.String("state", string(snapshot.State)),
			zap.Int("attempts", snapshot.Attempts),
			zap.Error(err),
		)
	}
	s.notifier.Publish(snapshot)
}

func (s *SyncService) backoff(attempts int) time.Duration {
	d := s.cfg.RetryInterval
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return d
}

// entry 返回jobID对应的条目，不存在时创建，调用方需持有 mu
func (s *SyncService) entry(jobID string) *syncEntry {
	e, ok := s.entries[jobID]
	if !ok {
		e = &syncEntry{status: model.SyncStatus{JobID: jobID, State: model.SyncSynced}}
		s.entries[jobID] = e
	}
	return e
}

func (s *SyncService) enqueue(e *syncEntry, at time.Time) {
	if !e.queued {
		e.queued = true
		s.queueLen++
		monitoring.RetryQueueSize.Set(float64(s.queueLen))
	}
	e.nextTry = at
}

func (s *SyncService) dequeue(e *syncEntry) {
	if e.queued {
		e.queued = false
		s.queueLen--
		monitoring.RetryQueueSize.Set(float64(s.queueLen))
	}
}
