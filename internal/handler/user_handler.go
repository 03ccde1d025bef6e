package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/research-match-api/internal/dto"
	"github.com/noah-isme/research-match-api/internal/models"
	"github.com/noah-isme/research-match-api/pkg/response"
)

type userService interface {
	Profile(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, req dto.UpdateProfileRequest) (*models.User, error)
	Departments(ctx context.Context) ([]string, error)
	Skills(ctx context.Context) ([]string, error)
}

// UserHandler serves profile and directory endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Profile godoc
// @Summary Own profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	profile, err := h.service.Profile(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": profile})
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	updated, err := h.service.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": updated})
}

// Departments godoc
// @Summary Distinct departments
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/departments [get]
func (h *UserHandler) Departments(c *gin.Context) {
	values, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"departments": values})
}

// Skills godoc
// @Summary Distinct skills
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/skills [get]
func (h *UserHandler) Skills(c *gin.Context) {
	values, err := h.service.Skills(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"skills": values})
}
