package http

import (
	"log/slog"

	"github.com/geocoder89/photohub/internal/auth"
	"github.com/geocoder89/photohub/internal/config"
	"github.com/geocoder89/photohub/internal/http/handlers"
	"github.com/geocoder89/photohub/internal/http/middlewares"
	"github.com/geocoder89/photohub/internal/observability"
	"github.com/geocoder89/photohub/internal/photostore"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// multipart framing and the text fields on top of the photo itself
const formOverheadBytes = 1 << 20

type UserRepository interface {
	handlers.UserStore
	middlewares.UserLoader
}

type SubmissionRepository interface {
	handlers.SubmissionStore
	handlers.SubmissionLister
}

// Deps are the collaborators the API router wires into its handlers.
type Deps struct {
	Users       UserRepository
	Submissions SubmissionRepository
	Classifier  handlers.Classifier
	Photos      photostore.Store
	JWT         *auth.Manager
	Prom        *observability.Prom
	Gatherer    prometheus.Gatherer
	ReadyChecks map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	r := newEngine(log, cfg, cfg.AppName, deps.Prom)

	h := handlers.NewHealthHandler(deps.ReadyChecks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	mountMetrics(r, deps.Gatherer)

	authMW := middlewares.NewAuthMiddleware(deps.JWT, deps.Users, log)

	authHandler := handlers.NewAuthHandler(deps.Users, deps.JWT, log)
	authGroup := r.Group("/auth")
	authGroup.Use(middlewares.RequireJSON())
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	submissionsHandler := handlers.NewSubmissionsHandler(deps.Submissions, deps.Classifier, deps.Photos, handlers.SubmissionsOptions{
		Prom:             deps.Prom,
		Log:              log,
		CleanupOnFailure: cfg.PhotoCleanupOnFailure,
	})
	subs := r.Group("/submissions")
	subs.Use(authMW.RequireAuth())
	{
		subs.POST("", middlewares.MaxBodyBytes(cfg.MaxUploadBytes+formOverheadBytes), submissionsHandler.Create)
		subs.GET("/:id", submissionsHandler.GetByID)
	}

	adminHandler := handlers.NewAdminHandler(deps.Submissions, cfg.AppName, log)
	admin := r.Group("/admin")
	admin.Use(authMW.RequireAuth(), authMW.RequireAdmin())
	{
		admin.GET("", adminHandler.Panel)
		admin.GET("/submissions", adminHandler.ListSubmissions)
	}

	return r
}

// NewClassifierRouter serves the stateless rules service.
func NewClassifierRouter(log *slog.Logger, cfg config.Config, prom *observability.Prom, gatherer prometheus.Gatherer) *gin.Engine {
	r := newEngine(log, cfg, "photo-classification-service", prom)

	h := handlers.NewHealthHandler(nil)
	r.GET("/healthz", h.Healthz)
	mountMetrics(r, gatherer)

	ch := handlers.NewClassifyHandler(prom)
	r.POST("/classify", ch.Classify)

	return r
}

func newEngine(log *slog.Logger, cfg config.Config, service string, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(service))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	return r
}

func mountMetrics(r *gin.Engine, gatherer prometheus.Gatherer) {
	if gatherer == nil {
		return
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
