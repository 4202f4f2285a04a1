package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/propkit/marketing-kit-api/internal/core"
)

// RouterServices holds all the collaborators needed by the HTTP router.
type RouterServices struct {
	Entitlement EntitlementAuthorizer
	Pipeline    KitGenerator
	Webhooks    WebhookProcessor
	Jobs        JobDirectory
	Provider    core.PaymentProvider
	Store       core.ObjectStore

	// Configuration
	UploadRoot string
	MaxFiles   int
	MaxBytes   int64
	PresignTTL time.Duration
	AdminToken string // Empty disables the admin routes entirely
	Logger     *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	generateHandlers := &GenerateHandlers{
		Entitlement: services.Entitlement,
		Pipeline:    services.Pipeline,
		UploadRoot:  services.UploadRoot,
		MaxFiles:    services.MaxFiles,
		MaxBytes:    services.MaxBytes,
		Logger:      services.Logger,
	}
	checkoutHandlers := &CheckoutHandlers{Provider: services.Provider}
	webhookHandlers := &WebhookHandlers{Provider: services.Provider, Processor: services.Webhooks}
	downloadHandlers := &DownloadHandlers{Store: services.Store, PresignTTL: services.PresignTTL}

	mux.HandleFunc("POST /api/generate", generateHandlers.Generate)
	mux.HandleFunc("POST /api/create-checkout-session", checkoutHandlers.CreateSession)
	mux.HandleFunc("POST /api/stripe-webhook", webhookHandlers.Receive)
	mux.HandleFunc("GET /download/s3/{key...}", downloadHandlers.Redirect)

	mux.Handle("GET /api/health", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /api/health", http.HandlerFunc(healthHandler))

	if services.AdminToken != "" {
		adminHandlers := &AdminHandlers{Jobs: services.Jobs}
		adminOnly := RequireAdminToken(services.AdminToken)
		mux.Handle("GET /api/admin/jobs", adminOnly(http.HandlerFunc(adminHandlers.ListJobs)))
		mux.Handle("GET /api/admin/jobs/{id}", adminOnly(http.HandlerFunc(adminHandlers.GetJob)))
	}

	return mux
}
