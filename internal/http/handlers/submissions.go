package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/photohub/internal/classifier"
	"github.com/geocoder89/photohub/internal/config"
	"github.com/geocoder89/photohub/internal/domain/submission"
	"github.com/geocoder89/photohub/internal/http/middlewares"
	"github.com/geocoder89/photohub/internal/observability"
	"github.com/geocoder89/photohub/internal/photostore"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubmissionCreator interface {
	Create(ctx context.Context, userID string, req submission.CreateSubmissionRequest, photoPath, label string) (submission.Submission, error)
}

type SubmissionGetter interface {
	GetByID(ctx context.Context, id string) (submission.Submission, error)
}

type SubmissionStore interface {
	SubmissionCreator
	SubmissionGetter
}

type Classifier interface {
	Classify(ctx context.Context, m submission.Metadata) (string, error)
}

type SubmissionsHandler struct {
	repo             SubmissionStore
	classifier       Classifier
	photos           photostore.Store
	prom             *observability.Prom
	log              *slog.Logger
	cleanupOnFailure bool
}

type SubmissionsOptions struct {
	Prom *observability.Prom
	Log  *slog.Logger
	// CleanupOnFailure removes the stored photo when classification or the
	// insert fails. Off by default, leaving the file on disk.
	CleanupOnFailure bool
}

func NewSubmissionsHandler(repo SubmissionStore, cls Classifier, photos photostore.Store, opts SubmissionsOptions) *SubmissionsHandler {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &SubmissionsHandler{
		repo:             repo,
		classifier:       cls,
		photos:           photos,
		prom:             opts.Prom,
		log:              log,
		cleanupOnFailure: opts.CleanupOnFailure,
	}
}

// Create runs the submission pipeline: validate the form, store the photo,
// classify, then persist the record with its audit entry.
func (h *SubmissionsHandler) Create(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	var req submission.CreateSubmissionRequest

	if !BindForm(ctx, &req) {
		return
	}

	req.Normalize()

	fileHeader, err := ctx.FormFile("photo")
	if err != nil {
		RespondBadRequest(ctx, "Invalid form data", gin.H{
			"fields": []FieldError{{Field: "photo", Rule: "required", Message: "is required"}},
		})
		return
	}

	reqCtx := ctx.Request.Context()

	file, err := fileHeader.Open()
	if err != nil {
		RespondInternal(ctx, "Could not read photo")
		return
	}
	defer file.Close()

	photoPath, err := h.photos.Save(reqCtx, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, photostore.ErrUnsupportedType):
			RespondError(ctx, http.StatusBadRequest, "unsupported_media_type", "Photo must be a JPEG or PNG image", nil)
		case errors.Is(err, photostore.ErrTooLarge):
			RespondPayloadTooLarge(ctx, "Photo exceeds the maximum upload size")
		default:
			h.log.ErrorContext(reqCtx, "photo_store_failed", "err", err)
			RespondInternal(ctx, "Could not store photo")
		}
		return
	}

	start := time.Now()
	label, err := h.classifier.Classify(reqCtx, req.Metadata())
	if h.prom != nil {
		h.prom.ObserveClassification(start, err)
	}

	if err != nil {
		h.log.WarnContext(reqCtx, "classification_failed", "err", err, "photo_path", photoPath)
		h.discardPhoto(reqCtx, photoPath)
		RespondBadGateway(ctx, "classifier_unavailable", "Classification service unavailable")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, u.ID, req, photoPath, label)
	if err != nil {
		h.log.ErrorContext(reqCtx, "submission_insert_failed", "err", err)
		h.discardPhoto(reqCtx, photoPath)
		RespondInternal(ctx, "Could not save submission")
		return
	}

	if h.prom != nil {
		h.prom.SubmissionsTotal.WithLabelValues(label).Inc()
	}

	h.log.InfoContext(reqCtx, "submission_created", "submission_id", created.ID, "label", label)

	ctx.JSON(http.StatusCreated, created)
}

// GetByID returns a submission to its owner or to an admin.
func (h *SubmissionsHandler) GetByID(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid submission id", gin.H{"id": id})
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	s, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			RespondNotFound(ctx, "Submission not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "submission_get_failed", "err", err)
		RespondInternal(ctx, "Could not load submission")
		return
	}

	if s.UserID != u.ID && !u.IsAdmin {
		RespondForbidden(ctx, "Not allowed to view this submission")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, s)
}

func (h *SubmissionsHandler) discardPhoto(ctx context.Context, path string) {
	if !h.cleanupOnFailure {
		return
	}
	// detached so a cancelled request still cleans up
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := h.photos.Remove(cctx, path); err != nil {
		h.log.WarnContext(ctx, "photo_cleanup_failed", "err", err, "photo_path", path)
	}
}

var _ Classifier = (*classifier.Client)(nil)
