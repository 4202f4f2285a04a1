// Package model defines the core data types used throughout the marketing kit backend.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobKind represents the entitlement class of a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobKind string

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobKindOneTime is a single paid kit purchase.
	JobKindOneTime JobKind = "one_time"
	// JobKindSubscription is a kit produced under an active subscription.
	JobKindSubscription JobKind = "subscription"
	// JobKindDemo is a free kit that requires no payment session.
	JobKindDemo JobKind = "demo"

	// JobStatusProcessing indicates the pipeline is (or was) producing the kit.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusPaid indicates the payment provider confirmed the checkout
	// session before the pipeline finished.
	JobStatusPaid JobStatus = "paid"
	// JobStatusReady indicates the artifact was uploaded and is downloadable.
	JobStatusReady JobStatus = "ready"
	// JobStatusFailed indicates a pipeline step failed; LastError names the step.
	JobStatusFailed JobStatus = "failed"
)

// ErrJobNotFound is returned when a job lookup matches no record.
var ErrJobNotFound = errors.New("job not found")

// ErrDuplicateJob is returned when a job id collides on insert.
var ErrDuplicateJob = errors.New("job id already exists")

// UnmarshalText implements encoding.TextUnmarshaler for JobKind so it can be
// parsed from form values and env.
func (k *JobKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	kind := JobKind(v)
	if kind.Valid() {
		*k = kind
		return nil
	}
	return fmt.Errorf("invalid JobKind: %q", v)
}

// Valid returns true if the JobKind is valid.
func (k JobKind) Valid() bool {
	return k == JobKindOneTime || k == JobKindSubscription || k == JobKindDemo
}

// RequiresPayment reports whether the kind is gated on a confirmed payment session.
func (k JobKind) RequiresPayment() bool {
	return k == JobKindOneTime || k == JobKindSubscription
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusProcessing || s == JobStatusPaid || s == JobStatusReady ||
		s == JobStatusFailed
}

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusReady || s == JobStatusFailed
}

// CanTransitionTo reports whether the status may move forward to next.
// The machine is strictly forward: processing → paid, processing/paid → ready,
// processing/paid → failed. Updates must be compare-and-swap on the prior
// status so a webhook and the pipeline never regress each other's writes.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusProcessing:
		return next == JobStatusPaid || next == JobStatusReady || next == JobStatusFailed
	case JobStatusPaid:
		return next == JobStatusReady || next == JobStatusFailed
	case JobStatusReady, JobStatusFailed:
		return false
	default:
		return false
	}
}

// Job represents one end-to-end request to produce a marketing kit.
type Job struct {
	ID            string    `json:"id"                       db:"id"`
	Email         string    `json:"email"                    db:"email"`
	Address       string    `json:"address"                  db:"address"`
	Details       string    `json:"details,omitempty"        db:"details"`
	Kind          JobKind   `json:"kind"                     db:"kind"`
	Status        JobStatus `json:"status"                   db:"status"`
	CorrelationID *string   `json:"correlation_id,omitempty" db:"correlation_id"`
	ArtifactKey   *string   `json:"artifact_key,omitempty"   db:"artifact_key"`
	LastError     *string   `json:"last_error,omitempty"     db:"last_error"`
	CreatedAt     time.Time `json:"created_at"               db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"               db:"updated_at"`
}

// CreateJobRequest represents a request to insert a new job record.
type CreateJobRequest struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Address       string  `json:"address"`
	Details       string  `json:"details,omitempty"`
	Kind          JobKind `json:"kind"`
	CorrelationID *string `json:"correlation_id,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("job id is required")
	}
	if !r.Kind.Valid() {
		return errors.New("invalid job kind")
	}
	if strings.TrimSpace(r.Address) == "" {
		return errors.New("address is required")
	}
	if r.Kind.RequiresPayment() && strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required for paid kinds")
	}
	return nil
}
