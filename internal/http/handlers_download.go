package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/propkit/marketing-kit-api/internal/core"
)

// downloadPathPrefix is the relative path clients receive for fetching a
// finished kit; the trailing segment is the object storage key.
const downloadPathPrefix = "/download/s3/"

// DownloadHandlers redirects artifact downloads to time-limited storage URLs.
type DownloadHandlers struct {
	Store      core.ObjectStore
	PresignTTL time.Duration
}

// Redirect checks the object exists and issues a 302 to a presigned URL.
func (h *DownloadHandlers) Redirect(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("object key is required")})
		return
	}

	exists, err := h.Store.Exists(r.Context(), key)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "storage_failed",
			Err:     errors.New("could not check artifact"),
		})
		return
	}
	if !exists {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("artifact not found")})
		return
	}

	url, err := h.Store.PresignGet(r.Context(), key, h.PresignTTL)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "storage_failed",
			Err:     errors.New("could not sign download link"),
		})
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}
