package models

import "time"

// ApplicationStatus tracks a student's bid. Pending is the only non terminal
// state.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// Terminal reports whether no further transition is permitted.
func (s ApplicationStatus) Terminal() bool {
	return s != ApplicationPending
}

// Application is a student's request to join a project.
type Application struct {
	ID                 string            `db:"id" json:"id"`
	StudentID          string            `db:"student_id" json:"studentId"`
	ProjectID          string            `db:"project_id" json:"projectId"`
	ProfessorID        string            `db:"professor_id" json:"professorId"`
	CoverLetter        string            `db:"cover_letter" json:"coverLetter"`
	RelevantExperience *string           `db:"relevant_experience" json:"relevantExperience,omitempty"`
	Motivation         string            `db:"motivation" json:"motivation"`
	Status             ApplicationStatus `db:"status" json:"status"`
	ProfessorNotes     *string           `db:"professor_notes" json:"professorNotes,omitempty"`
	ApplicationDate    time.Time         `db:"application_date" json:"applicationDate"`
	ResponseDate       *time.Time        `db:"response_date" json:"responseDate,omitempty"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updatedAt"`

	Student   *ApplicantSummary `db:"-" json:"student,omitempty"`
	Project   *ProjectSummary   `db:"-" json:"project,omitempty"`
	Professor *UserSummary      `db:"-" json:"professor,omitempty"`
}

// ApplicationFilter narrows application listings. Empty fields match all.
type ApplicationFilter struct {
	StudentID   string
	ProfessorID string
	ProjectID   string
	Status      ApplicationStatus
}

// StatusDecision is a professor's accept or reject of an application.
type StatusDecision struct {
	ApplicationID string
	Status        ApplicationStatus
	Notes         *string
	DecidedAt     time.Time
}
