package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/research-match-api/internal/dto"
	"github.com/noah-isme/research-match-api/internal/handler"
	"github.com/noah-isme/research-match-api/internal/middleware"
	"github.com/noah-isme/research-match-api/internal/models"
	"github.com/noah-isme/research-match-api/internal/service"
	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
)

type tokens map[string]*models.User

func (t tokens) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if u, ok := t[token]; ok {
		return u, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type projects struct{}

func (projects) Create(ctx context.Context, professor *models.User, req dto.CreateProjectRequest) (*models.Project, error) {
	return &models.Project{ID: "p1"}, nil
}
func (projects) Get(ctx context.Context, id string, viewer *models.User) (*models.Project, error) {
	return &models.Project{ID: id}, nil
}
func (projects) Search(ctx context.Context, query dto.ProjectQuery, viewer *models.User) (*models.ProjectPage, error) {
	return &models.ProjectPage{Projects: []models.Project{}}, nil
}
func (projects) ListMine(ctx context.Context, professor *models.User) ([]models.Project, error) {
	return []models.Project{}, nil
}
func (projects) Update(ctx context.Context, professor *models.User, id string, req dto.UpdateProjectRequest) (*models.Project, error) {
	return &models.Project{ID: id}, nil
}
func (projects) Delete(ctx context.Context, professor *models.User, id string) error { return nil }

type applications struct{}

func (applications) Create(ctx context.Context, student *models.User, req dto.CreateApplicationRequest) (*models.Application, error) {
	return &models.Application{}, nil
}
func (applications) UpdateStatus(ctx context.Context, professor *models.User, id string, req dto.UpdateApplicationStatusRequest) (*models.Application, error) {
	return &models.Application{}, nil
}
func (applications) Withdraw(ctx context.Context, student *models.User, id string) error { return nil }
func (applications) ListMine(ctx context.Context, student *models.User) ([]models.Application, error) {
	return []models.Application{}, nil
}
func (applications) ListReceived(ctx context.Context, professor *models.User, query dto.ReceivedApplicationsQuery) ([]models.Application, error) {
	return []models.Application{}, nil
}
func (applications) ExportReceived(ctx context.Context, professor *models.User, query dto.ExportQuery) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "a.csv", ContentType: "text/csv", Data: []byte("x")}, nil
}

type auths struct{}

func (auths) Register(ctx context.Context, req dto.RegisterRequest) (*models.AuthResult, error) {
	return &models.AuthResult{User: &models.User{}}, nil
}
func (auths) Login(ctx context.Context, req dto.LoginRequest) (*models.AuthResult, error) {
	return &models.AuthResult{User: &models.User{}, Token: "t"}, nil
}

func newTestEngine(limiter *middleware.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Options{
		APIPrefix:  "/api",
		CookieName: "auth-token",
		Authenticator: tokens{
			"prof":    {ID: "p", Role: models.RoleProfessor},
			"student": {ID: "s", Role: models.RoleStudent},
		},
		LoginLimiter: limiter,
		Auth:         handler.NewAuthHandler(auths{}, handler.CookieConfig{}),
		Users:        handler.NewUserHandler(nil),
		Projects:     handler.NewProjectHandler(projects{}),
		Applications: handler.NewApplicationHandler(applications{}, applications{}),
		Metrics:      handler.NewMetricsHandler(nil),
	})
}

func serve(engine *gin.Engine, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouteGuards(t *testing.T) {
	engine := newTestEngine(nil)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/projects", "", http.StatusOK},
		{http.MethodGet, "/api/projects/abc", "", http.StatusOK},
		{http.MethodPost, "/api/projects", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/projects/professor/my-projects", "student", http.StatusForbidden},
		{http.MethodGet, "/api/projects/professor/my-projects", "prof", http.StatusOK},
		{http.MethodDelete, "/api/projects/abc", "student", http.StatusForbidden},
		{http.MethodDelete, "/api/projects/abc", "prof", http.StatusOK},
		{http.MethodGet, "/api/applications/student/my-applications", "prof", http.StatusForbidden},
		{http.MethodGet, "/api/applications/student/my-applications", "student", http.StatusOK},
		{http.MethodDelete, "/api/applications/a1", "student", http.StatusOK},
		{http.MethodGet, "/api/applications/professor/my-project-applications", "student", http.StatusForbidden},
		{http.MethodGet, "/api/applications/professor/my-project-applications/export", "prof", http.StatusOK},
		{http.MethodGet, "/api/applications/professor/my-project-applications", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/auth/me", "bogus", http.StatusUnauthorized},
		{http.MethodPost, "/api/auth/logout", "", http.StatusOK},
		{http.MethodGet, "/api/nope", "", http.StatusNotFound},
		{http.MethodGet, "/metrics", "", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, serve(engine, tc.method, tc.path, tc.token), "%s %s as %q", tc.method, tc.path, tc.token)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	engine := newTestEngine(middleware.NewRateLimiter(0.001, 1, nil))

	assert.Equal(t, http.StatusBadRequest, serve(engine, http.MethodPost, "/api/auth/login", ""))
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/auth/login", ""))
}
