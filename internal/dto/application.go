package dto

import "github.com/noah-isme/research-match-api/internal/models"

// CreateApplicationRequest defines payload for applying to a project.
type CreateApplicationRequest struct {
	ProjectID          string  `json:"projectId" validate:"required,uuid"`
	CoverLetter        string  `json:"coverLetter" validate:"required,min=50,max=1000"`
	RelevantExperience *string `json:"relevantExperience" validate:"omitempty,max=1000"`
	Motivation         string  `json:"motivation" validate:"required,min=50,max=1000"`
}

// UpdateApplicationStatusRequest is a professor's decision.
type UpdateApplicationStatusRequest struct {
	Status         models.ApplicationStatus `json:"status" validate:"required,oneof=accepted rejected"`
	ProfessorNotes *string                  `json:"professorNotes" validate:"omitempty,max=1000"`
}

// ReceivedApplicationsQuery filters a professor's inbox.
type ReceivedApplicationsQuery struct {
	Status    string `form:"status" validate:"omitempty,oneof=pending accepted rejected withdrawn"`
	ProjectID string `form:"projectId" validate:"omitempty,uuid"`
}

// ToFilter scopes the query to professorID.
func (q ReceivedApplicationsQuery) ToFilter(professorID string) models.ApplicationFilter {
	return models.ApplicationFilter{
		ProfessorID: professorID,
		ProjectID:   q.ProjectID,
		Status:      models.ApplicationStatus(q.Status),
	}
}

// ExportQuery selects the export format.
type ExportQuery struct {
	ReceivedApplicationsQuery
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
