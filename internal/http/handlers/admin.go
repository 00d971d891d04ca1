package handlers

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/photohub/internal/config"
	"github.com/geocoder89/photohub/internal/domain/submission"
	"github.com/geocoder89/photohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// PanelLimit caps the HTML panel. The JSON listing is uncapped.
const PanelLimit = 50

//go:embed templates/admin.html
var templatesFS embed.FS

var adminPanelTmpl = template.Must(template.ParseFS(templatesFS, "templates/admin.html"))

type SubmissionLister interface {
	ListFiltered(ctx context.Context, f submission.ListFilter) ([]submission.Submission, error)
	ListLatest(ctx context.Context, limit int) ([]submission.Submission, error)
}

type AdminHandler struct {
	repo  SubmissionLister
	title string
	log   *slog.Logger
}

func NewAdminHandler(repo SubmissionLister, appName string, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{repo: repo, title: appName + " admin", log: log}
}

// ListSubmissions serves GET /admin/submissions.
func (h *AdminHandler) ListSubmissions(ctx *gin.Context) {
	var q submission.ListFilterQuery

	if !BindQuery(ctx, &q) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	subs, err := h.repo.ListFiltered(cctx, q.Filter())
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "admin_list_failed", "err", err)
		RespondInternal(ctx, "Could not list submissions")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, subs)
}

type adminPanelView struct {
	Title       string
	AdminEmail  string
	Limit       int
	Submissions []submission.Submission
}

// Panel renders the latest submissions as an HTML table.
func (h *AdminHandler) Panel(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	subs, err := h.repo.ListLatest(cctx, PanelLimit)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "admin_panel_failed", "err", err)
		RespondInternal(ctx, "Could not list submissions")
		return
	}

	admin, _ := middlewares.CurrentUser(ctx)

	var buf bytes.Buffer
	err = adminPanelTmpl.Execute(&buf, adminPanelView{
		Title:       h.title,
		AdminEmail:  admin.Email,
		Limit:       PanelLimit,
		Submissions: subs,
	})
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "admin_panel_render_failed", "err", err)
		RespondInternal(ctx, "Could not render panel")
		return
	}

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
