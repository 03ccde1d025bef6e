package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/research-match-api/internal/dto"
	"github.com/noah-isme/research-match-api/internal/models"
	"github.com/noah-isme/research-match-api/pkg/response"
)

type projectService interface {
	Create(ctx context.Context, professor *models.User, req dto.CreateProjectRequest) (*models.Project, error)
	Get(ctx context.Context, id string, viewer *models.User) (*models.Project, error)
	Search(ctx context.Context, query dto.ProjectQuery, viewer *models.User) (*models.ProjectPage, error)
	ListMine(ctx context.Context, professor *models.User) ([]models.Project, error)
	Update(ctx context.Context, professor *models.User, id string, req dto.UpdateProjectRequest) (*models.Project, error)
	Delete(ctx context.Context, professor *models.User, id string) error
}

// ProjectHandler exposes project endpoints.
type ProjectHandler struct {
	service projectService
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(svc projectService) *ProjectHandler {
	return &ProjectHandler{service: svc}
}

// List godoc
// @Summary Search projects
// @Description Paginated project search. Defaults to active projects, page 1, limit 10.
// @Tags Projects
// @Produce json
// @Param search query string false "Matches title, description, department, skills or tags"
// @Param department query string false "Exact department"
// @Param skills query string false "Required skill"
// @Param status query string false "active, paused, completed or cancelled"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var query dto.ProjectQuery
	if !bindQuery(c, &query, "invalid search parameters") {
		return
	}
	page, err := h.service.Search(c.Request.Context(), query, optionalUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// Create godoc
// @Summary Publish a project
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req dto.CreateProjectRequest
	if !bindJSON(c, &req, "invalid project payload") {
		return
	}
	project, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"project": project})
}

// Get godoc
// @Summary Project detail
// @Description Project with professor, requirements, materials and applications
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.service.Get(c.Request.Context(), c.Param("id"), optionalUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"project": project})
}

// MyProjects godoc
// @Summary Own projects
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /projects/professor/my-projects [get]
func (h *ProjectHandler) MyProjects(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	projects, err := h.service.ListMine(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"projects": projects})
}

// Update godoc
// @Summary Edit a project
// @Description Partial update. A present requirements or materials key replaces the stored one.
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param payload body dto.UpdateProjectRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req dto.UpdateProjectRequest
	if !bindJSON(c, &req, "invalid project payload") {
		return
	}
	project, err := h.service.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"project": project})
}

// Delete godoc
// @Summary Delete a project
// @Description Removes the project with its applications, requirements and materials
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Project deleted successfully")
}
