package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"talentflow_backend/internal/model"
	"talentflow_backend/internal/repository"
	"talentflow_backend/internal/util"
)

var errWrite = errors.New("random write error")

// fakeStore 内存存储，failSaves 让接下来n次保存失败
type fakeStore struct {
	mu          sync.Mutex
	docs        map[string]model.Assessment
	submissions []model.Submission
	failSaves   int
	failSubmit  bool
	saves       int

	// delay 延长每次保存，active 和 maxActive 统计并发保存数
	delay     time.Duration
	active    int32
	maxActive int32
	// onSave 在每次保存写入前执行
	onSave func(doc model.Assessment)
}

func newFakeStore(docs ...model.Assessment) *fakeStore {
	s := &fakeStore{docs: map[string]model.Assessment{}}
	for _, d := range docs {
		s.docs[d.JobID] = d
	}
	return s
}

func (s *fakeStore) Load(_ context.Context, jobID string) (*model.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[jobID]
	if !ok {
		return nil, util.ErrAssessmentNotFound
	}
	return &d, nil
}

func (s *fakeStore) Save(_ context.Context, doc *model.Assessment) error {
	n := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)
	for {
		max := atomic.LoadInt32(&s.maxActive)
		if n <= max || atomic.CompareAndSwapInt32(&s.maxActive, max, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.onSave != nil {
		s.onSave(*doc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failSaves > 0 {
		s.failSaves--
		return errWrite
	}
	if cur, ok := s.docs[doc.JobID]; ok && cur.Revision > doc.Revision {
		return util.ErrStaleRevision
	}
	s.docs[doc.JobID] = *doc
	return nil
}

func (s *fakeStore) Submit(_ context.Context, sub *model.Submission) (*model.SubmissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSubmit {
		return nil, errWrite
	}
	s.submissions = append(s.submissions, *sub)
	return &model.SubmissionRecord{JobID: sub.JobID, CandidateID: sub.CandidateID, SubmittedAt: sub.SubmittedAt}, nil
}

func (s *fakeStore) List(_ context.Context, q repository.ListQuery) ([]model.AssessmentSummary, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AssessmentSummary
	for _, d := range s.docs {
		out = append(out, model.AssessmentSummary{JobID: d.JobID, Title: d.Title, Revision: d.Revision})
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) stored(jobID string) (model.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[jobID]
	return d, ok
}

func (s *fakeStore) setFailSaves(n int) {
	s.mu.Lock()
	s.failSaves = n
	s.mu.Unlock()
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []model.SyncStatus
}

func (n *recordingNotifier) Publish(st model.SyncStatus) {
	n.mu.Lock()
	n.statuses = append(n.statuses, st)
	n.mu.Unlock()
}

func (n *recordingNotifier) last() model.SyncStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.statuses) == 0 {
		return model.SyncStatus{}
	}
	return n.statuses[len(n.statuses)-1]
}

func waitSaves(s *SyncService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.Wait(ctx)
}
