// Package httpx provides HTTP handlers and the router for the marketing kit API.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/propkit/marketing-kit-api/internal/domain/model"
	"github.com/propkit/marketing-kit-api/internal/service"
)

const (
	defaultMaxUploadFiles = 20
	defaultMaxUploadBytes = 256 << 20

	// Memory threshold for multipart parsing; larger uploads spill to disk.
	multipartMemoryLimit = 32 << 20

	photosFieldName = "photos"
)

// EntitlementAuthorizer gates generation requests on payment state. For
// verified paid sessions it also reports the email the payer gave at checkout.
type EntitlementAuthorizer interface {
	Authorize(ctx context.Context, kind model.JobKind, correlationID string) (payerEmail string, err error)
}

// KitGenerator runs the artifact pipeline for an authorized request.
type KitGenerator interface {
	Generate(ctx context.Context, req *service.GenerateRequest) (*service.GenerateResult, error)
}

// GenerateHandlers provides the HTTP handler for kit generation.
type GenerateHandlers struct {
	Entitlement EntitlementAuthorizer
	Pipeline    KitGenerator
	UploadRoot  string // Uploads are staged here and removed on every exit path
	MaxFiles    int
	MaxBytes    int64
	Logger      *slog.Logger
}

func (h *GenerateHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type generateResponse struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"`
	Download string `json:"download"`
}

// Generate handles multipart generation requests: validate, authorize against
// the payment provider, stage the uploads, run the pipeline, and reply with
// the job id and a relative download path.
func (h *GenerateHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_multipart", Err: err})
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger().WarnContext(r.Context(), "removing multipart temp files failed", "error", err)
		}
	}()

	req, photos, ok := h.parseGenerateForm(w, r)
	if !ok {
		return
	}

	// Authorization happens before any side effect; a rejected request leaves
	// no job record and no staged files.
	payerEmail, err := h.Entitlement.Authorize(r.Context(), req.Kind, req.CorrelationID)
	if err != nil {
		writeAuthorizeError(w, err)
		return
	}
	if req.Email == "" {
		req.Email = payerEmail
	}
	if req.Kind.RequiresPayment() && req.Email == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_email",
			Err:     errors.New("email is required for paid kits"),
		})
		return
	}

	uploadDir, err := os.MkdirTemp(h.UploadRoot, "upload-")
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "upload_failed", Err: errors.New("could not stage uploads")})
		return
	}
	// Staged source files go away on success and failure alike.
	defer func() {
		if err := os.RemoveAll(uploadDir); err != nil {
			h.logger().WarnContext(r.Context(), "removing staged uploads failed", "dir", uploadDir, "error", err)
		}
	}()

	req.PhotoPaths, err = saveUploads(uploadDir, photos)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "upload_failed", Err: errors.New("could not stage uploads")})
		return
	}

	// The pipeline must not be abortable by a client disconnect: once started,
	// a job runs to completion or failure on its own per-step timeouts.
	result, err := h.Pipeline.Generate(context.WithoutCancel(r.Context()), req)
	if err != nil {
		// Full detail is logged inside the pipeline; callers get a generic message.
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "generation_failed",
			Err:     errors.New("kit generation failed"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, generateResponse{
		JobID:    result.Job.ID,
		Status:   string(result.Job.Status),
		Download: downloadPathPrefix + result.ArtifactKey,
	})
}

// parseGenerateForm validates the multipart fields and file list. On failure
// the 400 response has already been written.
func (h *GenerateHandlers) parseGenerateForm(
	w http.ResponseWriter,
	r *http.Request,
) (*service.GenerateRequest, []*multipart.FileHeader, bool) {
	var kind model.JobKind
	if err := kind.UnmarshalText([]byte(r.FormValue("kind"))); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_kind", Err: err})
		return nil, nil, false
	}

	address := strings.TrimSpace(r.FormValue("address"))
	if address == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_address",
			Err:     errors.New("address is required"),
		})
		return nil, nil, false
	}

	photos := r.MultipartForm.File[photosFieldName]
	if len(photos) == 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_photos",
			Err:     errors.New("at least one photo is required"),
		})
		return nil, nil, false
	}
	maxFiles := h.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultMaxUploadFiles
	}
	if len(photos) > maxFiles {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "too_many_photos",
			Err:     fmt.Errorf("at most %d photos are accepted", maxFiles),
		})
		return nil, nil, false
	}

	// For paid kinds a missing email can still be resolved from the verified
	// checkout session, so it is checked after authorization.
	return &service.GenerateRequest{
		Email:         strings.TrimSpace(r.FormValue("email")),
		Address:       address,
		Details:       strings.TrimSpace(r.FormValue("details")),
		Kind:          kind,
		CorrelationID: strings.TrimSpace(r.FormValue("sessionId")),
	}, photos, true
}

// writeAuthorizeError maps entitlement failures onto the 401/402 taxonomy.
func writeAuthorizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingSession):
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "missing_session", Err: err})
	case errors.Is(err, service.ErrPaymentRequired):
		WriteError(w, ErrorParams{Code: http.StatusPaymentRequired, ErrCode: "payment_required", Err: err})
	default:
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "entitlement_failed",
			Err:     errors.New("could not verify entitlement"),
		})
	}
}

// saveUploads writes each uploaded file into dir, preserving input order in
// the returned paths. Filenames from the client are never trusted; only the
// extension survives, lowercased.
func saveUploads(dir string, photos []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(photos))
	for i, fh := range photos {
		dst := filepath.Join(dir, fmt.Sprintf("photo-%03d%s", i+1, safeExt(fh.Filename)))
		if err := saveUpload(fh, dst); err != nil {
			return nil, fmt.Errorf("save upload %d: %w", i+1, err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// safeExt returns a lowercase extension containing only word characters, or
// empty when the client-supplied name has anything else.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
