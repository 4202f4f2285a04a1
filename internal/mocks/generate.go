// Package mocks provides mock implementations for testing the marketing kit backend.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core port interfaces. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Mock for job record persistence:
// Create, GetByID, MarkReady, MarkFailed, MarkPaidByCorrelation, FindLatestByCorrelation, ListRecent
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/propkit/marketing-kit-api/internal/core JobRepository

// Mock for the payment provider:
// CreateCheckoutSession, RetrieveSession, VerifyWebhook
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=payment_provider_mock.go github.com/propkit/marketing-kit-api/internal/core PaymentProvider

// Mock for artifact object storage:
// Put, Exists, PresignGet
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=object_store_mock.go github.com/propkit/marketing-kit-api/internal/core ObjectStore
