package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/config"
	"github.com/geocoder89/devdeck/internal/http/handlers"
	"github.com/geocoder89/devdeck/internal/http/middlewares"
	"github.com/geocoder89/devdeck/internal/observability"
	"github.com/geocoder89/devdeck/internal/service"
)

const maxJSONBodyBytes = 1 << 20

type UploadService interface {
	UploadImage(ctx context.Context, caller access.Caller, filename string, size int64, r io.Reader) (service.UploadResult, error)
	MaxBytes() int64
}

// Dependencies is everything the router wires into handlers. Prom, Metrics
// and UploadsDir are optional.
type Dependencies struct {
	Config config.Config
	Log    *slog.Logger
	Prom   *observability.Prom

	// Metrics serves /metrics when set.
	Metrics http.Handler

	Tokens middlewares.TokenVerifier

	Auth      handlers.LoginService
	Users     handlers.UserService
	Projects  handlers.ProjectService
	Messages  handlers.MessageService
	Admin     handlers.AdminService
	AdminJobs handlers.AdminJobsService
	Uploads   UploadService

	// UploadsDir is served at /uploads when images are stored on local disk.
	UploadsDir string

	// RateCounter shares login rate limits across API replicas when set.
	RateCounter middlewares.WindowCounter

	ReadyChecks map[string]func(ctx context.Context) error
}

func NewRouter(d Dependencies) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("devdeck-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders(d.Config.IsProd()))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// ops
	health := handlers.NewHealthHandler(d.ReadyChecks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	if d.UploadsDir != "" {
		r.Static("/uploads", d.UploadsDir)
	}

	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	requireAuth := authMW.RequireAuth()

	authH := handlers.NewAuthHandler(d.Auth)
	usersH := handlers.NewUsersHandler(d.Users)
	projectsH := handlers.NewProjectsHandler(d.Projects)
	messagesH := handlers.NewMessagesHandler(d.Messages)
	adminH := handlers.NewAdminHandler(d.Admin)
	adminJobsH := handlers.NewAdminJobsHandler(d.AdminJobs)

	loginPerMinute := d.Config.LoginRatePerMinute
	if loginPerMinute <= 0 {
		loginPerMinute = 10
	}
	loginLimiter := middlewares.NewRateLimiter(loginPerMinute, time.Minute)
	if d.RateCounter != nil {
		loginLimiter.Shared("login", d.RateCounter, d.Log)
	}

	api := r.Group("/")
	api.Use(middlewares.MaxBodyBytes(maxJSONBodyBytes))
	api.Use(middlewares.RequireJSON())

	// public
	api.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authH.Login)
	api.POST("/users", usersH.Register)
	api.GET("/users/:id/portfolio", usersH.Portfolio)
	api.GET("/projects", projectsH.List)
	api.GET("/projects/:id", projectsH.Get)

	// authenticated
	authed := api.Group("/")
	authed.Use(requireAuth)
	{
		authed.GET("/users", usersH.SearchTalent)
		authed.GET("/users/me", usersH.Me)
		authed.DELETE("/users/me", usersH.DeleteMe)
		authed.GET("/users/profile", usersH.Profile)
		authed.PUT("/users/profile", usersH.UpdateProfile)
		authed.PUT("/users/password", usersH.ChangePassword)

		authed.POST("/projects", projectsH.Create)
		authed.PUT("/projects/:id", projectsH.Update)
		authed.DELETE("/projects/:id", projectsH.Delete)

		authed.POST("/messages", messagesH.Send)
		authed.GET("/messages/inbox", messagesH.Inbox)
	}

	admin := api.Group("/admin")
	admin.Use(requireAuth, authMW.RequireAdmin())
	{
		admin.GET("/users", adminH.ListUsers)
		admin.DELETE("/users/:id", adminH.DeleteUser)
		admin.PATCH("/users/:id/role", adminH.UpdateRole)

		admin.GET("/projects", adminH.ListProjects)
		admin.PUT("/projects/:id", adminH.UpdateProject)
		admin.DELETE("/projects/:id", adminH.DeleteProject)

		admin.GET("/jobs", adminJobsH.List)
		admin.GET("/jobs/:id", adminJobsH.Get)
		admin.POST("/jobs/:id/retry", adminJobsH.Retry)
	}

	// multipart lives outside the JSON group
	if d.Uploads != nil {
		uploadsH := handlers.NewUploadsHandler(d.Uploads)
		r.POST("/uploads",
			middlewares.MaxBodyBytes(d.Uploads.MaxBytes()+maxJSONBodyBytes),
			requireAuth,
			uploadsH.Upload,
		)
	}

	return r
}
