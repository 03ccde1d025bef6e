// Package router assembles the gin engine and the route table.
package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/research-match-api/internal/handler"
	"github.com/noah-isme/research-match-api/internal/middleware"
	"github.com/noah-isme/research-match-api/internal/models"
	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
	"github.com/noah-isme/research-match-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/research-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/research-match-api/pkg/middleware/requestid"
	"github.com/noah-isme/research-match-api/pkg/response"
)

// Options carries the collaborators the route table needs.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	CookieName     string
	EnableSwagger  bool

	Logger        *zap.Logger
	Authenticator middleware.TokenAuthenticator
	Observer      middleware.RequestObserver
	LoginLimiter  *middleware.RateLimiter

	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Projects     *handler.ProjectHandler
	Applications *handler.ApplicationHandler
	Metrics      *handler.MetricsHandler
}

// New builds the engine with global middleware and every route mounted.
func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		opts.Logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		response.Abort(c, appErrors.ErrInternal)
	}))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Observer))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Route not found"))
	})

	r.GET("/health", opts.Metrics.Health)
	r.GET("/metrics", opts.Metrics.Prometheus)
	if opts.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWT(opts.Authenticator, opts.CookieName)
	optionalAuth := middleware.OptionalJWT(opts.Authenticator, opts.CookieName)
	professorOnly := middleware.RequireRoles(models.RoleProfessor)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		credentials := []gin.HandlerFunc{}
		if opts.LoginLimiter != nil {
			credentials = append(credentials, opts.LoginLimiter.Middleware())
		}
		auth.POST("/register", append(credentials, opts.Auth.Register)...)
		auth.POST("/login", append(credentials, opts.Auth.Login)...)
		auth.POST("/logout", opts.Auth.Logout)
		auth.GET("/me", requireAuth, opts.Auth.Me)
	}

	users := api.Group("/users")
	{
		users.GET("/profile", requireAuth, opts.Users.Profile)
		users.PUT("/profile", requireAuth, opts.Users.UpdateProfile)
		users.GET("/departments", opts.Users.Departments)
		users.GET("/skills", opts.Users.Skills)
	}

	projects := api.Group("/projects")
	{
		projects.GET("", optionalAuth, opts.Projects.List)
		projects.POST("", requireAuth, professorOnly, opts.Projects.Create)
		projects.GET("/professor/my-projects", requireAuth, professorOnly, opts.Projects.MyProjects)
		projects.GET("/:id", optionalAuth, opts.Projects.Get)
		projects.PUT("/:id", requireAuth, professorOnly, opts.Projects.Update)
		projects.DELETE("/:id", requireAuth, professorOnly, opts.Projects.Delete)
	}

	applications := api.Group("/applications", requireAuth)
	{
		applications.POST("", studentOnly, opts.Applications.Create)
		applications.PUT("/:id/status", professorOnly, opts.Applications.UpdateStatus)
		applications.DELETE("/:id", studentOnly, opts.Applications.Withdraw)
		applications.GET("/student/my-applications", studentOnly, opts.Applications.ListMine)
		applications.GET("/professor/my-project-applications", professorOnly, opts.Applications.ListReceived)
		applications.GET("/professor/my-project-applications/export", professorOnly, opts.Applications.Export)
	}

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, response.Envelope{Success: false, Error: "method not allowed", Code: "METHOD_NOT_ALLOWED"})
	})
	return r
}
