package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleProfessor UserRole = "professor"
	RoleStudent   UserRole = "student"
)

// AcademicYear is a student's standing.
type AcademicYear string

const (
	YearFreshman  AcademicYear = "Freshman"
	YearSophomore AcademicYear = "Sophomore"
	YearJunior    AcademicYear = "Junior"
	YearSenior    AcademicYear = "Senior"
	YearGraduate  AcademicYear = "Graduate"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Role         UserRole       `db:"role" json:"role"`
	Department   string         `db:"department" json:"department"`
	Bio          *string        `db:"bio" json:"bio,omitempty"`
	Skills       pq.StringArray `db:"skills" json:"skills"`
	Interests    pq.StringArray `db:"interests" json:"interests"`
	GPA          *float64       `db:"gpa" json:"gpa,omitempty"`
	Year         *AcademicYear  `db:"year" json:"year,omitempty"`
	Avatar       *string        `db:"avatar" json:"avatar,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// IsProfessor reports whether the user may own projects.
func (u *User) IsProfessor() bool { return u != nil && u.Role == RoleProfessor }

// IsStudent reports whether the user may apply to projects.
func (u *User) IsStudent() bool { return u != nil && u.Role == RoleStudent }

// UserSummary is the public subset of a professor shown next to projects
// and applications.
type UserSummary struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Email      string  `db:"email" json:"email"`
	Department string  `db:"department" json:"department"`
	Bio        *string `db:"bio" json:"bio,omitempty"`
}

// ApplicantSummary is the subset of a student profile visible to the
// professor reviewing an application.
type ApplicantSummary struct {
	ID         string         `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Email      string         `db:"email" json:"email"`
	Department string         `db:"department" json:"department"`
	Year       *AcademicYear  `db:"year" json:"year,omitempty"`
	GPA        *float64       `db:"gpa" json:"gpa,omitempty"`
	Skills     pq.StringArray `db:"skills" json:"skills"`
	Interests  pq.StringArray `db:"interests" json:"interests"`
}
