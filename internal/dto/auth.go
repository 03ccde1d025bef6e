package dto

import "github.com/noah-isme/research-match-api/internal/models"

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name       string               `json:"name" validate:"required,min=2,max=100"`
	Email      string               `json:"email" validate:"required,email"`
	Password   string               `json:"password" validate:"required,min=6,max=72"`
	Role       models.UserRole      `json:"role" validate:"required,oneof=professor student"`
	Department string               `json:"department" validate:"required,min=2"`
	Bio        *string              `json:"bio" validate:"omitempty,max=500"`
	Skills     []string             `json:"skills" validate:"omitempty,dive,required"`
	Interests  []string             `json:"interests" validate:"omitempty,dive,required"`
	GPA        *Number              `json:"gpa" validate:"omitempty,min=0,max=4"`
	Year       *models.AcademicYear `json:"year" validate:"omitempty,oneof=Freshman Sophomore Junior Senior Graduate"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest changes the caller's own profile. Email, role and
// department are not editable.
type UpdateProfileRequest struct {
	Name      *string              `json:"name" validate:"omitempty,min=2,max=100"`
	Bio       *string              `json:"bio" validate:"omitempty,max=500"`
	Skills    []string             `json:"skills" validate:"omitempty,dive,required"`
	Interests []string             `json:"interests" validate:"omitempty,dive,required"`
	GPA       *Number              `json:"gpa" validate:"omitempty,min=0,max=4"`
	Year      *models.AcademicYear `json:"year" validate:"omitempty,oneof=Freshman Sophomore Junior Senior Graduate"`
	Avatar    *string              `json:"avatar" validate:"omitempty,url"`
}
