package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

func newWebhookService(t *testing.T, repo *fakeJobRepo, deduper core.EventDeduper) *WebhookService {
	t.Helper()
	svc, err := NewWebhookService(WebhookOptions{Repo: repo, Deduper: deduper})
	require.NoError(t, err)
	return svc
}

func createProcessingJob(t *testing.T, repo *fakeJobRepo, id, sid string) {
	t.Helper()
	_, err := repo.Create(context.Background(), &model.CreateJobRequest{
		ID: id, Email: "b@e.c", Address: "1 Elm St",
		Kind: model.JobKindOneTime, CorrelationID: &sid,
	})
	require.NoError(t, err)
}

func TestProcessCheckoutCompleted(t *testing.T) {
	repo := newFakeJobRepo()
	createProcessingJob(t, repo, "j1", "cs_1")
	svc := newWebhookService(t, repo, nil)

	err := svc.Process(context.Background(), &core.WebhookEvent{
		ID: "evt_1", Type: "checkout.session.completed", SessionID: "cs_1",
	})
	require.NoError(t, err)

	job, err := repo.GetByID(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPaid, job.Status)
	assert.Nil(t, job.ArtifactKey, "paid transition clears the artifact reference")
}

func TestProcessNoMatchingJobIsNoop(t *testing.T) {
	repo := newFakeJobRepo()
	svc := newWebhookService(t, repo, nil)

	// The event may race ahead of the generation request.
	err := svc.Process(context.Background(), &core.WebhookEvent{
		ID: "evt_2", Type: "checkout.session.completed", SessionID: "cs_unknown",
	})
	require.NoError(t, err)

	jobs, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs, "no record may be created or altered")
}

func TestProcessOtherEventTypesAcknowledged(t *testing.T) {
	repo := newFakeJobRepo()
	createProcessingJob(t, repo, "j2", "cs_2")
	svc := newWebhookService(t, repo, nil)

	err := svc.Process(context.Background(), &core.WebhookEvent{
		ID: "evt_3", Type: "customer.subscription.deleted", SessionID: "cs_2",
	})
	require.NoError(t, err)

	job, err := repo.GetByID(context.Background(), "j2")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, job.Status, "unhandled events produce no state change")
}

func TestProcessDuplicateDeliveryIgnored(t *testing.T) {
	repo := newFakeJobRepo()
	createProcessingJob(t, repo, "j3", "cs_3")
	svc := newWebhookService(t, repo, newFakeDeduper())

	event := &core.WebhookEvent{ID: "evt_4", Type: "checkout.session.completed", SessionID: "cs_3"}
	require.NoError(t, svc.Process(context.Background(), event))

	// Force the job onward; a replay must not touch it again.
	ok, err := repo.MarkReady(context.Background(), "j3", "kits/j3.zip")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.Process(context.Background(), event))
	job, err := repo.GetByID(context.Background(), "j3")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusReady, job.Status)
}

func TestProcessDedupFailureFallsBackToApply(t *testing.T) {
	repo := newFakeJobRepo()
	createProcessingJob(t, repo, "j4", "cs_4")
	deduper := newFakeDeduper()
	deduper.err = errors.New("redis down")
	svc := newWebhookService(t, repo, deduper)

	err := svc.Process(context.Background(), &core.WebhookEvent{
		ID: "evt_5", Type: "checkout.session.completed", SessionID: "cs_4",
	})
	require.NoError(t, err, "dedup is best effort")

	job, err := repo.GetByID(context.Background(), "j4")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPaid, job.Status)
}
