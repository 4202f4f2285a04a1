package httpx

import (
	"context"
	"time"

	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
	"github.com/propkit/marketing-kit-api/internal/service"
)

// Compile-time conformance to the handler ports.
var (
	_ EntitlementAuthorizer = (*fakeEntitlement)(nil)
	_ KitGenerator          = (*fakeGenerator)(nil)
	_ WebhookProcessor      = (*fakeProcessor)(nil)
	_ JobDirectory          = (*fakeLister)(nil)
	_ core.PaymentProvider  = (*fakeProvider)(nil)
	_ core.ObjectStore      = (*fakeStore)(nil)
)

type fakeEntitlement struct {
	payerEmail string
	err        error
	calls      int
}

func (f *fakeEntitlement) Authorize(_ context.Context, _ model.JobKind, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.payerEmail, nil
}

type fakeGenerator struct {
	result     *service.GenerateResult
	err        error
	lastReq    *service.GenerateRequest
	lastCtx    context.Context
	onGenerate func()
	calls      int
}

func (f *fakeGenerator) Generate(ctx context.Context, req *service.GenerateRequest) (*service.GenerateResult, error) {
	f.calls++
	f.lastReq = req
	f.lastCtx = ctx
	if f.onGenerate != nil {
		f.onGenerate()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeProvider struct {
	checkoutURL    string
	checkoutErr    error
	checkoutParams *core.CheckoutParams

	session    *core.PaymentSession
	sessionErr error

	verifyEvent   *core.WebhookEvent
	verifyErr     error
	verifyPayload []byte
	verifySig     string
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params core.CheckoutParams) (string, error) {
	f.checkoutParams = &params
	if f.checkoutErr != nil {
		return "", f.checkoutErr
	}
	return f.checkoutURL, nil
}

func (f *fakeProvider) RetrieveSession(_ context.Context, _ string) (*core.PaymentSession, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeProvider) VerifyWebhook(payload []byte, signatureHeader string) (*core.WebhookEvent, error) {
	f.verifyPayload = payload
	f.verifySig = signatureHeader
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyEvent, nil
}

type fakeProcessor struct {
	events []*core.WebhookEvent
	err    error
}

func (f *fakeProcessor) Process(_ context.Context, event *core.WebhookEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeStore struct {
	objects   map[string]bool
	existsErr error

	presignURL string
	presignErr error
	presignTTL time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]bool)}
}

func (f *fakeStore) Put(_ context.Context, key, _ string) error {
	f.objects[key] = true
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.objects[key], nil
}

func (f *fakeStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.presignTTL = ttl
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return f.presignURL + key, nil
}

type fakeLister struct {
	jobs  []*model.Job
	err   error
	limit int
}

func (f *fakeLister) ListRecent(_ context.Context, limit int) ([]*model.Job, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.jobs, nil
}

func (f *fakeLister) GetByID(_ context.Context, id string) (*model.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, j := range f.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, model.ErrJobNotFound
}
