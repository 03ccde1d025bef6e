package models

import (
	"time"

	"github.com/lib/pq"
)

// ProjectStatus is set directly by the owning professor.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusPaused    ProjectStatus = "paused"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// Compensation describes how students are rewarded.
type Compensation string

const (
	CompensationUnpaid       Compensation = "unpaid"
	CompensationStipend      Compensation = "stipend"
	CompensationCourseCredit Compensation = "course_credit"
	CompensationHourly       Compensation = "hourly"
)

// MaterialType classifies a project material link.
type MaterialType string

const (
	MaterialDocument MaterialType = "document"
	MaterialImage    MaterialType = "image"
	MaterialVideo    MaterialType = "video"
	MaterialLink     MaterialType = "link"
	MaterialOther    MaterialType = "other"
)

// Project is a research opportunity owned by one professor.
type Project struct {
	ID                  string         `db:"id" json:"id"`
	Title               string         `db:"title" json:"title"`
	Description         string         `db:"description" json:"description"`
	Department          string         `db:"department" json:"department"`
	Skills              pq.StringArray `db:"skills" json:"skills"`
	Tags                pq.StringArray `db:"tags" json:"tags"`
	Status              ProjectStatus  `db:"status" json:"status"`
	Duration            int            `db:"duration" json:"duration"`
	TimeCommitment      int            `db:"time_commitment" json:"timeCommitment"`
	Compensation        Compensation   `db:"compensation" json:"compensation"`
	CompensationAmount  *string        `db:"compensation_amount" json:"compensationAmount,omitempty"`
	MaxStudents         int            `db:"max_students" json:"maxStudents"`
	CurrentStudents     int            `db:"current_students" json:"currentStudents"`
	ApplicationDeadline *time.Time     `db:"application_deadline" json:"applicationDeadline,omitempty"`
	StartDate           *time.Time     `db:"start_date" json:"startDate,omitempty"`
	EndDate             *time.Time     `db:"end_date" json:"endDate,omitempty"`
	ProfessorID         string         `db:"professor_id" json:"professorId"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updatedAt"`

	Professor    *UserSummary         `db:"-" json:"professor,omitempty"`
	Requirements *ProjectRequirements `db:"-" json:"requirements"`
	Materials    []ProjectMaterial    `db:"-" json:"materials"`
	Applications []Application        `db:"-" json:"applications,omitempty"`

	// Viewer dependent flags, only set when the request carries an identity.
	IsOwner    *bool `db:"-" json:"isOwner,omitempty"`
	HasApplied *bool `db:"-" json:"hasApplied,omitempty"`
}

// IsFull reports whether no seat is left.
func (p *Project) IsFull() bool {
	return p.CurrentStudents >= p.MaxStudents
}

// DeadlinePassed reports whether applications are closed at now.
func (p *Project) DeadlinePassed(now time.Time) bool {
	return p.ApplicationDeadline != nil && now.After(*p.ApplicationDeadline)
}

// ProjectRequirements holds optional eligibility criteria; at most one row
// per project.
type ProjectRequirements struct {
	ProjectID     string         `db:"project_id" json:"-"`
	GPA           *float64       `db:"gpa" json:"gpa,omitempty"`
	Year          pq.StringArray `db:"year" json:"year"`
	Prerequisites pq.StringArray `db:"prerequisites" json:"prerequisites"`
}

// Empty reports whether the record carries no criterion at all.
func (r *ProjectRequirements) Empty() bool {
	return r == nil || (r.GPA == nil && len(r.Year) == 0 && len(r.Prerequisites) == 0)
}

// ProjectMaterial is an ordered reference attached to a project.
type ProjectMaterial struct {
	ID          string       `db:"id" json:"id"`
	ProjectID   string       `db:"project_id" json:"-"`
	Name        string       `db:"name" json:"name"`
	Type        MaterialType `db:"type" json:"type"`
	URL         string       `db:"url" json:"url"`
	Description *string      `db:"description" json:"description,omitempty"`
	Position    int          `db:"position" json:"-"`
}

// ProjectSummary is the project subset embedded in application listings.
type ProjectSummary struct {
	ID          string        `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	Department  string        `db:"department" json:"department"`
	Status      ProjectStatus `db:"status" json:"status"`
}

// ProjectFilter captures public search criteria.
type ProjectFilter struct {
	Status     ProjectStatus
	Department string
	Skills     string
	Search     string
	Page       int
	Limit      int
}

// Offset returns the row offset for the filter page.
func (f ProjectFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// ProjectPage is a page of search results.
type ProjectPage struct {
	Projects    []Project `json:"projects"`
	Total       int       `json:"total"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
}
