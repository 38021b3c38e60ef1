package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pastcheck/internal/platform/middleware"
	"pastcheck/internal/search/models"
	id "pastcheck/pkg/domain"
	dErrors "pastcheck/pkg/domain-errors"
)

// estimatedSeconds is the completion hint returned on submission.
const estimatedSeconds = 180

// Service defines the search operations the handler delegates to.
type Service interface {
	Submit(ctx context.Context, req models.SearchRequest) (id.JobID, error)
	Status(ctx context.Context, jobID id.JobID) (models.StatusResponse, error)
	Result(ctx context.Context, jobID id.JobID) (*models.SearchResult, error)
	Export(ctx context.Context, jobID id.JobID) ([]byte, string, error)
}

// PhotoSaver stores a validated upload and returns its reference.
type PhotoSaver interface {
	Save(jobID id.JobID, data []byte) (string, error)
}

// Handler is the thin HTTP layer over the search service. It owns request
// parsing and response mapping; business rules stay in the service.
type Handler struct {
	service Service
	photos  PhotoSaver
	logger  *slog.Logger
}

// New creates the search handler.
func New(service Service, photos PhotoSaver, logger *slog.Logger) *Handler {
	return &Handler{service: service, photos: photos, logger: logger}
}

// Register mounts the search routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	searchRouter := chi.NewRouter()
	searchRouter.Use(middleware.Recovery(h.logger))
	searchRouter.Use(middleware.RequestID)
	searchRouter.Use(middleware.Logger(h.logger))
	searchRouter.Use(middleware.Timeout(30 * time.Second))
	searchRouter.Get("/", h.handleRoot)
	searchRouter.Post("/search", h.handleCreateSearch)
	searchRouter.Get("/search/{jobID}/status", h.handleStatus)
	searchRouter.Get("/search/{jobID}/result", h.handleResult)
	searchRouter.Get("/search/{jobID}/export", h.handleExport)

	r.Mount("/api", searchRouter)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Past Matters API v1.0"})
}

// handleCreateSearch accepts the multipart submission, validates it, stores
// an optional photo and schedules the verification job.
func (h *Handler) handleCreateSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	// Cap memory usage; larger photos spill to disk before validation.
	if err := r.ParseMultipartForm(models.MaxPhotoBytes); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	req, err := models.NewSearchRequest(
		r.FormValue("name"),
		r.FormValue("dob"),
		r.FormValue("state"),
		r.FormValue("email"),
		r.FormValue("phone"),
	)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid search submission",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	photo, err := h.readPhoto(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid photo upload",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	jobID, err := h.submit(ctx, req, photo)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create search",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, models.CreateSearchResponse{
		JobID:         jobID.String(),
		Status:        string(models.StatusProcessing),
		EstimatedTime: estimatedSeconds,
		StatusURL:     "/api/search/" + jobID.String() + "/status",
	})
}

// readPhoto extracts and validates the optional photo field. Returns nil
// bytes when no photo was submitted.
func (h *Handler) readPhoto(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid photo upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, models.MaxPhotoBytes+1))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "failed to read photo")
	}
	if err := models.ValidatePhoto(data); err != nil {
		return nil, err
	}
	return data, nil
}

// submit stores the photo (if any) under the job's ID and schedules the job.
// The photo reference travels on the request so the matching stage can find
// it.
func (h *Handler) submit(ctx context.Context, req models.SearchRequest, photo []byte) (id.JobID, error) {
	if photo == nil {
		return h.service.Submit(ctx, req)
	}

	// The upload is keyed by a fresh ID that becomes the job ID via the
	// stored reference; a failed submit leaves only an orphan file for the
	// retention janitor.
	ref, err := h.photos.Save(id.NewJobID(), photo)
	if err != nil {
		return id.JobID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store photo")
	}
	req.PhotoRef = ref
	return h.service.Submit(ctx, req)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "search job not found"))
		return
	}
	status, err := h.service.Status(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "search job not found"))
		return
	}
	result, err := h.service.Result(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "search job not found"))
		return
	}
	data, contentType, err := h.service.Export(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so all
// endpoints share one JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	status := http.StatusInternalServerError
	code := string(dErrors.CodeInternal)
	message := "internal error"
	if errors.As(err, &de) {
		status = dErrors.ToHTTPStatus(de.Code)
		code = string(de.Code)
		message = de.Message
	}
	writeJSON(w, status, models.ErrorResponse{Error: code, Message: message})
}
