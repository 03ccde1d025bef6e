package dto

import "github.com/noah-isme/research-match-api/internal/models"

// RequirementsInput is the eligibility block of a project payload.
type RequirementsInput struct {
	GPA           *Number  `json:"gpa" validate:"omitempty,min=0,max=4"`
	Year          []string `json:"year" validate:"omitempty,dive,oneof=Freshman Sophomore Junior Senior Graduate"`
	Prerequisites []string `json:"prerequisites" validate:"omitempty,dive,required"`
}

// ToModel converts the input, defaulting both lists to empty.
func (r *RequirementsInput) ToModel() *models.ProjectRequirements {
	if r == nil {
		return nil
	}
	req := &models.ProjectRequirements{
		GPA:           r.GPA.Float64(),
		Year:          append([]string{}, r.Year...),
		Prerequisites: append([]string{}, r.Prerequisites...),
	}
	return req
}

// MaterialInput describes one project material.
type MaterialInput struct {
	Name        string              `json:"name" validate:"required,min=1,max=200"`
	Type        models.MaterialType `json:"type" validate:"required,oneof=document image video link other"`
	URL         string              `json:"url" validate:"required,url"`
	Description *string             `json:"description" validate:"omitempty,max=500"`
}

// CreateProjectRequest defines payload for publishing a project.
type CreateProjectRequest struct {
	Title               string                `json:"title" validate:"required,min=5,max=200"`
	Description         string                `json:"description" validate:"required,min=50,max=2000"`
	Department          string                `json:"department" validate:"required,min=2"`
	Skills              []string              `json:"skills" validate:"omitempty,dive,required"`
	Requirements        *RequirementsInput    `json:"requirements"`
	Duration            int                   `json:"duration" validate:"required,min=1"`
	TimeCommitment      int                   `json:"timeCommitment" validate:"required,min=1"`
	Compensation        models.Compensation   `json:"compensation" validate:"required,oneof=unpaid stipend course_credit hourly"`
	CompensationAmount  *string               `json:"compensationAmount" validate:"omitempty,max=100"`
	MaxStudents         *int                  `json:"maxStudents" validate:"omitempty,min=1"`
	Materials           []MaterialInput       `json:"materials" validate:"omitempty,dive"`
	Tags                []string              `json:"tags" validate:"omitempty,dive,required"`
	ApplicationDeadline *string               `json:"applicationDeadline" validate:"omitempty,flexdate"`
	StartDate           *string               `json:"startDate" validate:"omitempty,flexdate"`
	EndDate             *string               `json:"endDate" validate:"omitempty,flexdate"`
	Status              *models.ProjectStatus `json:"status" validate:"omitempty,oneof=active paused completed cancelled"`
}

// UpdateProjectRequest is the partial form of CreateProjectRequest. A nil
// field is left untouched; a present materials list replaces the old one.
type UpdateProjectRequest struct {
	Title               *string               `json:"title" validate:"omitempty,min=5,max=200"`
	Description         *string               `json:"description" validate:"omitempty,min=50,max=2000"`
	Department          *string               `json:"department" validate:"omitempty,min=2"`
	Skills              []string              `json:"skills" validate:"omitempty,dive,required"`
	Requirements        *RequirementsInput    `json:"requirements"`
	Duration            *int                  `json:"duration" validate:"omitempty,min=1"`
	TimeCommitment      *int                  `json:"timeCommitment" validate:"omitempty,min=1"`
	Compensation        *models.Compensation  `json:"compensation" validate:"omitempty,oneof=unpaid stipend course_credit hourly"`
	CompensationAmount  *string               `json:"compensationAmount" validate:"omitempty,max=100"`
	MaxStudents         *int                  `json:"maxStudents" validate:"omitempty,min=1"`
	Materials           *[]MaterialInput      `json:"materials" validate:"omitempty,dive"`
	Tags                []string              `json:"tags" validate:"omitempty,dive,required"`
	ApplicationDeadline *string               `json:"applicationDeadline" validate:"omitempty,flexdate"`
	StartDate           *string               `json:"startDate" validate:"omitempty,flexdate"`
	EndDate             *string               `json:"endDate" validate:"omitempty,flexdate"`
	Status              *models.ProjectStatus `json:"status" validate:"omitempty,oneof=active paused completed cancelled"`
}

// ProjectQuery binds public search parameters.
type ProjectQuery struct {
	Search     string `form:"search" validate:"omitempty,max=100"`
	Department string `form:"department" validate:"omitempty,max=100"`
	Skills     string `form:"skills" validate:"omitempty,max=100"`
	Status     string `form:"status" validate:"omitempty,oneof=active paused completed cancelled"`
	Page       *int   `form:"page" validate:"omitempty,min=1"`
	Limit      *int   `form:"limit" validate:"omitempty,min=1,max=50"`
}

// ToFilter applies defaults: status active, page 1, limit 10.
func (q ProjectQuery) ToFilter() models.ProjectFilter {
	filter := models.ProjectFilter{
		Status:     models.ProjectStatusActive,
		Department: q.Department,
		Skills:     q.Skills,
		Search:     q.Search,
		Page:       1,
		Limit:      10,
	}
	if q.Status != "" {
		filter.Status = models.ProjectStatus(q.Status)
	}
	if q.Page != nil {
		filter.Page = *q.Page
	}
	if q.Limit != nil {
		filter.Limit = *q.Limit
	}
	return filter
}
