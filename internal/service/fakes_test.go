package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

// fakeJobRepo is an in-memory JobRepository honoring the same CAS semantics
// as the SQL implementation.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
	seq  int

	createErr error
	markErr   error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*model.Job)}
}

func (r *fakeJobRepo) Create(_ context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, ok := r.jobs[req.ID]; ok {
		return nil, model.ErrDuplicateJob
	}
	r.seq++
	now := time.Unix(int64(r.seq), 0)
	job := &model.Job{
		ID:            req.ID,
		Email:         req.Email,
		Address:       req.Address,
		Details:       req.Details,
		Kind:          req.Kind,
		Status:        model.JobStatusProcessing,
		CorrelationID: req.CorrelationID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.jobs[req.ID] = job
	cp := *job
	return &cp, nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *fakeJobRepo) MarkReady(_ context.Context, id, artifactKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return false, r.markErr
	}
	job, ok := r.jobs[id]
	if !ok || !job.Status.CanTransitionTo(model.JobStatusReady) {
		return false, nil
	}
	job.Status = model.JobStatusReady
	job.ArtifactKey = &artifactKey
	return true, nil
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, id, lastError string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return false, r.markErr
	}
	job, ok := r.jobs[id]
	if !ok || !job.Status.CanTransitionTo(model.JobStatusFailed) {
		return false, nil
	}
	job.Status = model.JobStatusFailed
	job.LastError = &lastError
	return true, nil
}

func (r *fakeJobRepo) MarkPaidByCorrelation(_ context.Context, correlationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.latestByCorrelation(correlationID)
	if job == nil || !job.Status.CanTransitionTo(model.JobStatusPaid) {
		return false, nil
	}
	job.Status = model.JobStatusPaid
	job.ArtifactKey = nil
	return true, nil
}

func (r *fakeJobRepo) FindLatestByCorrelation(_ context.Context, correlationID string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.latestByCorrelation(correlationID)
	if job == nil {
		return nil, model.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *fakeJobRepo) latestByCorrelation(correlationID string) *model.Job {
	if correlationID == "" {
		return nil
	}
	var latest *model.Job
	for _, j := range r.jobs {
		if j.CorrelationID == nil || *j.CorrelationID != correlationID {
			continue
		}
		if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
			latest = j
		}
	}
	return latest
}

func (r *fakeJobRepo) ListRecent(_ context.Context, limit int) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeProvider struct {
	sessions      map[string]*core.PaymentSession
	retrieveErr   error
	retrieveCalls int
}

func (p *fakeProvider) CreateCheckoutSession(context.Context, core.CheckoutParams) (string, error) {
	return "https://checkout.example.com/cs_test", nil
}

func (p *fakeProvider) RetrieveSession(_ context.Context, sessionID string) (*core.PaymentSession, error) {
	p.retrieveCalls++
	if p.retrieveErr != nil {
		return nil, p.retrieveErr
	}
	sess, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session %s", sessionID)
	}
	return sess, nil
}

func (p *fakeProvider) VerifyWebhook([]byte, string) (*core.WebhookEvent, error) {
	return nil, fmt.Errorf("not used")
}

type fakeCopyGen struct {
	lc    model.ListingCopy
	err   error
	calls int
}

func (g *fakeCopyGen) Generate(context.Context, string, string) (model.ListingCopy, error) {
	g.calls++
	if g.err != nil {
		return model.ListingCopy{}, g.err
	}
	return g.lc, nil
}

type fakeEnhancer struct{ err error }

func (e *fakeEnhancer) Enhance(_ context.Context, srcPath, dstPath string) error {
	if e.err != nil {
		return e.err
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	return os.WriteFile(dstPath, data, 0o644)
}

type fakeDocRenderer struct {
	err        error
	gotParams  core.DocumentParams
	renderCall int
}

func (d *fakeDocRenderer) Render(_ context.Context, params core.DocumentParams) error {
	d.renderCall++
	if d.err != nil {
		return d.err
	}
	d.gotParams = params
	return os.WriteFile(params.OutPath, []byte("%PDF-fake"), 0o644)
}

type fakeVideoRenderer struct{ err error }

func (v *fakeVideoRenderer) Render(_ context.Context, _, outPath string) error {
	if v.err != nil {
		return v.err
	}
	return os.WriteFile(outPath, []byte("mp4"), 0o644)
}

type fakeArchiver struct{ err error }

func (a *fakeArchiver) Archive(_ context.Context, _, outPath string) error {
	if a.err != nil {
		return a.err
	}
	return os.WriteFile(outPath, []byte("zip"), 0o644)
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]string
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]string)}
}

func (s *fakeStore) Put(_ context.Context, key, filePath string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = filePath
	return nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.example.com/" + key + "?signed", nil
}

type fakeMailer struct {
	err  error
	sent []core.NotificationParams
}

func (m *fakeMailer) SendKitReady(_ context.Context, params core.NotificationParams) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, params)
	return nil
}

type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: make(map[string]bool)}
}

func (d *fakeDeduper) FirstDelivery(_ context.Context, eventID string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}
