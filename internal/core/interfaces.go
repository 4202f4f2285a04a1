// Package core contains the port interfaces between the service layer and
// the data/adapter layers. Service implementations depend on these
// interfaces, not on concrete adapters, so tests can substitute fakes.
package core

import (
	"context"
	"time"

	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

// JobRepository defines the interface for job record persistence.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// MarkReady moves a job from processing/paid to ready and records the
	// artifact key. Returns false when no row was in an eligible state.
	MarkReady(ctx context.Context, id, artifactKey string) (bool, error)
	// MarkFailed moves a job from processing/paid to failed and records the
	// failing step. Returns false when no row was in an eligible state.
	MarkFailed(ctx context.Context, id, lastError string) (bool, error)
	// MarkPaidByCorrelation moves the most recent job with the given
	// correlation id from processing to paid and clears its artifact key.
	// A missing match is not an error; returns false.
	MarkPaidByCorrelation(ctx context.Context, correlationID string) (bool, error)
	FindLatestByCorrelation(ctx context.Context, correlationID string) (*model.Job, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Job, error)
}

// PaymentSession is the subset of a provider checkout session the backend
// cares about.
type PaymentSession struct {
	ID            string
	PaymentStatus string
	Status        string
	CustomerEmail string
}

// Paid reports whether the session is settled from the provider's point of view.
func (s PaymentSession) Paid() bool {
	return s.PaymentStatus == "paid" || s.Status == "complete"
}

// CheckoutParams groups inputs for creating a new checkout session.
type CheckoutParams struct {
	Kind  model.JobKind
	Email string
}

// PaymentProvider defines the payment collaborator contract: create a
// checkout session, retrieve session state, and verify webhook payloads.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (url string, err error)
	RetrieveSession(ctx context.Context, sessionID string) (*PaymentSession, error)
	// VerifyWebhook checks the signature over the raw, unparsed body and
	// returns the decoded event. The body must not have passed through any
	// structural parsing middleware.
	VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
}

// WebhookEvent is a verified payment provider event.
type WebhookEvent struct {
	ID   string
	Type string
	// SessionID is the checkout session the event refers to, when applicable.
	SessionID string
}

// CopyGenerator produces the structured listing copy for an address.
type CopyGenerator interface {
	Generate(ctx context.Context, address, details string) (model.ListingCopy, error)
}

// ImageEnhancer applies the deterministic per-image enhancement.
type ImageEnhancer interface {
	Enhance(ctx context.Context, srcPath, dstPath string) error
}

// DocumentParams groups inputs for rendering the kit document.
type DocumentParams struct {
	Address    string
	Copy       model.ListingCopy
	ImagePaths []string
	OutPath    string
}

// DocumentRenderer renders the multi-page kit document.
type DocumentRenderer interface {
	Render(ctx context.Context, params DocumentParams) error
}

// VideoRenderer renders the slideshow video from ordered images.
type VideoRenderer interface {
	Render(ctx context.Context, imageDir, outPath string) error
}

// Archiver compresses a directory into a single archive file.
type Archiver interface {
	Archive(ctx context.Context, dir, outPath string) error
}

// ObjectStore stores finished artifacts and issues time-limited download URLs.
type ObjectStore interface {
	Put(ctx context.Context, key, filePath string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// NotificationParams groups inputs for the completion mail.
type NotificationParams struct {
	To          string
	Address     string
	DownloadURL string
}

// Mailer sends the kit-ready notification. Implementations may be absent at
// runtime; callers must treat a nil Mailer as "not configured".
type Mailer interface {
	SendKitReady(ctx context.Context, params NotificationParams) error
}

// EventDeduper remembers processed webhook event ids so duplicate deliveries
// are acknowledged without being reapplied.
type EventDeduper interface {
	// FirstDelivery returns true when the event id has not been seen before.
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
}
