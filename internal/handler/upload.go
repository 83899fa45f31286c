package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bimora/portal/internal/auth"
	"github.com/bimora/portal/internal/media"
)

type imageUploader interface {
	Configured() bool
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// UploadHandler sanitizes an uploaded image and forwards it to the image
// host.
type UploadHandler struct {
	BaseHandler
	host     imageUploader
	maxBytes int64
}

func NewUploadHandler(logger *slog.Logger, host imageUploader, maxBytes int64) *UploadHandler {
	return &UploadHandler{BaseHandler: BaseHandler{Logger: logger}, host: host, maxBytes: maxBytes}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.host.Configured() {
		h.errorResponse(w, r, http.StatusServiceUnavailable, "image uploads are not configured")
		return
	}

	// Multipart framing needs a little room beyond the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+64<<10)
	file, _, err := r.FormFile("image")
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			h.errorResponse(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("image must not be larger than %d bytes", h.maxBytes))
			return
		}
		h.badRequestResponse(w, r, errors.New("form must contain an image file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if int64(len(data)) > h.maxBytes {
		h.errorResponse(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("image must not be larger than %d bytes", h.maxBytes))
		return
	}

	clean, contentType, ext, err := media.Sanitize(data)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedType) {
			h.errorResponse(w, r, http.StatusUnsupportedMediaType, "only JPEG, PNG, GIF and WebP images are accepted")
			return
		}
		h.badRequestResponse(w, r, errors.New("image could not be decoded"))
		return
	}

	url, err := h.host.Upload(r.Context(), auth.NewID()+ext, contentType, clean)
	if err != nil {
		h.logError(r, err)
		h.errorResponse(w, r, http.StatusBadGateway, "image host rejected the upload")
		return
	}

	if err := h.writeJSON(w, http.StatusOK, envelope{"url": url}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
