package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/mingle/backend/internal/logging"
)

// maxUploadBytes caps multipart uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// MediaHandler accepts file uploads and stores them in the object store.
type MediaHandler struct {
	Storage MediaStorage
}

// Upload handles POST /api/v1/media requests carrying a multipart "file" part.
func (h MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := actorFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	if h.Storage == nil {
		logger.Error("media storage unavailable")
		respondJSON(ctx, w, http.StatusServiceUnavailable, errorPayload("media uploads are not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid upload payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("invalid multipart payload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("upload missing file part", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("a file part is required"))
		return
	}
	defer file.Close()

	key := fmt.Sprintf("uploads/%s/%s%s", actor.ID, uuid.NewString(), safeExtension(header.Filename))
	contentType := header.Header.Get("Content-Type")

	url, err := h.Storage.Save(ctx, key, contentType, file)
	if err != nil {
		logger.Error("upload failed", "error", err, "key", key)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("failed to store upload"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, uploadResponse{URL: url})
}

func safeExtension(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filename)))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".mp4":
		return ext
	default:
		return ""
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}
