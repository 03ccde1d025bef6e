package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/research-match-api/internal/dto"
	"github.com/noah-isme/research-match-api/internal/models"
	"github.com/noah-isme/research-match-api/internal/service"
	"github.com/noah-isme/research-match-api/pkg/response"
)

type applicationService interface {
	Create(ctx context.Context, student *models.User, req dto.CreateApplicationRequest) (*models.Application, error)
	UpdateStatus(ctx context.Context, professor *models.User, id string, req dto.UpdateApplicationStatusRequest) (*models.Application, error)
	Withdraw(ctx context.Context, student *models.User, id string) error
	ListMine(ctx context.Context, student *models.User) ([]models.Application, error)
	ListReceived(ctx context.Context, professor *models.User, query dto.ReceivedApplicationsQuery) ([]models.Application, error)
}

type applicationExporter interface {
	ExportReceived(ctx context.Context, professor *models.User, query dto.ExportQuery) (*service.ExportFile, error)
}

// ApplicationHandler exposes application endpoints.
type ApplicationHandler struct {
	service  applicationService
	exporter applicationExporter
}

// NewApplicationHandler constructs an ApplicationHandler.
func NewApplicationHandler(svc applicationService, exporter applicationExporter) *ApplicationHandler {
	return &ApplicationHandler{service: svc, exporter: exporter}
}

// Create godoc
// @Summary Apply to a project
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req dto.CreateApplicationRequest
	if !bindJSON(c, &req, "invalid application payload") {
		return
	}
	app, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"application": app})
}

// UpdateStatus godoc
// @Summary Accept or reject an application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body dto.UpdateApplicationStatusRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/status [put]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req dto.UpdateApplicationStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	app, err := h.service.UpdateStatus(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"application": app})
}

// Withdraw godoc
// @Summary Withdraw a pending application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if err := h.service.Withdraw(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Application withdrawn successfully")
}

// ListMine godoc
// @Summary Own applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /applications/student/my-applications [get]
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	apps, err := h.service.ListMine(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"applications": apps})
}

// ListReceived godoc
// @Summary Applications to own projects
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, accepted, rejected or withdrawn"
// @Param projectId query string false "Restrict to one project"
// @Success 200 {object} response.Envelope
// @Router /applications/professor/my-project-applications [get]
func (h *ApplicationHandler) ListReceived(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var query dto.ReceivedApplicationsQuery
	if !bindQuery(c, &query, "invalid filter parameters") {
		return
	}
	apps, err := h.service.ListReceived(c.Request.Context(), user, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"applications": apps})
}

// Export godoc
// @Summary Export received applications
// @Tags Applications
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "pending, accepted, rejected or withdrawn"
// @Param projectId query string false "Restrict to one project"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /applications/professor/my-project-applications/export [get]
func (h *ApplicationHandler) Export(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var query dto.ExportQuery
	if !bindQuery(c, &query, "invalid export parameters") {
		return
	}
	file, err := h.exporter.ExportReceived(c.Request.Context(), user, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(file.Data)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
