// Package handlers implements the HTTP endpoints for job submission
// and status queries.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/openscribe/openscribe/internal/errors"
	"github.com/openscribe/openscribe/internal/service"
)

// maxUploadMemory bounds multipart form memory buffering; larger files
// spill to disk.
const maxUploadMemory = 32 << 20

// Handler serves the submission and status endpoints backed by the
// shared service.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Transcribe accepts a multipart upload under the "file" field, creates
// a job, and returns its id and queue position.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		apperrors.Respond(w, http.StatusBadRequest, apperrors.CodeValidation,
			"request is not a valid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apperrors.Respond(w, http.StatusBadRequest, apperrors.CodeValidation,
			"a file upload is required")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size == 0 {
		apperrors.Respond(w, http.StatusBadRequest, apperrors.CodeValidation,
			"uploaded file is empty")
		return
	}

	sub, err := h.svc.Submit(header.Filename, file)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			apperrors.Respond(w, http.StatusBadRequest, apperrors.CodeValidation, vErr.Message)
			return
		}
		h.logger.Error("submission failed", zap.Error(err))
		apperrors.Respond(w, http.StatusInternalServerError, apperrors.CodeInternal,
			"failed to accept submission")
		return
	}

	writeJSON(w, http.StatusAccepted, sub)
}

// Status returns the read-only snapshot for one job.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := h.svc.Status(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apperrors.Respond(w, http.StatusNotFound, apperrors.CodeNotFound,
				"no such job: "+id)
			return
		}
		h.logger.Error("status lookup failed", zap.String("job_id", id), zap.Error(err))
		apperrors.Respond(w, http.StatusInternalServerError, apperrors.CodeInternal,
			"failed to read job status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VersionInfo is the payload of the version endpoint.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// Version returns build information.
func (h *Handler) Version(info VersionInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, info)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
