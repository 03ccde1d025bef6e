package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/research-match-api/internal/dto"
	"github.com/noah-isme/research-match-api/internal/models"
	"github.com/noah-isme/research-match-api/internal/repository"
	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
	"github.com/noah-isme/research-match-api/pkg/sanitize"
)

type applicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindByStudentAndProject(ctx context.Context, studentID, projectID string) (*models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	Decide(ctx context.Context, decision models.StatusDecision) (*models.Application, error)
	Withdraw(ctx context.Context, id string, at time.Time) error
}

type applicationProjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type applicationMetrics interface {
	RecordApplication()
	RecordDecision(status models.ApplicationStatus)
	RecordCapacityRejection()
}

// ApplicationService enforces the application state machine and the
// project capacity rule.
type ApplicationService struct {
	applications applicationRepository
	projects     applicationProjectReader
	validator    *validator.Validate
	metrics      applicationMetrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewApplicationService constructs an ApplicationService. metrics may be nil.
func NewApplicationService(applications applicationRepository, projects applicationProjectReader, validate *validator.Validate, metrics applicationMetrics, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ApplicationService{
		applications: applications,
		projects:     projects,
		validator:    validate,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Create submits a pending application for student.
func (s *ApplicationService) Create(ctx context.Context, student *models.User, req dto.CreateApplicationRequest) (*models.Application, error) {
	if !student.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only students can apply to projects")
	}
	req.ProjectID = strings.TrimSpace(req.ProjectID)
	req.CoverLetter = sanitize.Text(req.CoverLetter)
	req.Motivation = sanitize.Text(req.Motivation)
	req.RelevantExperience = sanitize.TextPtr(req.RelevantExperience)
	if err := validate(s.validator, req, "invalid application payload"); err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	now := s.now().UTC()
	if project.Status != models.ProjectStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Project is not accepting applications")
	}
	if project.DeadlinePassed(now) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Application deadline has passed")
	}

	if _, err := s.applications.FindByStudentAndProject(ctx, student.ID, project.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "You have already applied to this project")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing application")
	}

	app := &models.Application{
		StudentID:          student.ID,
		ProjectID:          project.ID,
		ProfessorID:        project.ProfessorID,
		CoverLetter:        req.CoverLetter,
		RelevantExperience: req.RelevantExperience,
		Motivation:         req.Motivation,
		Status:             models.ApplicationPending,
		ApplicationDate:    now,
		UpdatedAt:          now,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "You have already applied to this project")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit application")
	}
	if s.metrics != nil {
		s.metrics.RecordApplication()
	}
	s.logger.Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("project_id", project.ID),
		zap.String("student_id", student.ID),
	)
	return app, nil
}

// UpdateStatus records a professor's accept or reject decision.
func (s *ApplicationService) UpdateStatus(ctx context.Context, professor *models.User, id string, req dto.UpdateApplicationStatusRequest) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !professor.IsProfessor() || app.ProfessorID != professor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not authorized to update this application")
	}
	req.ProfessorNotes = sanitize.TextPtr(req.ProfessorNotes)
	if err := validate(s.validator, req, "invalid status payload"); err != nil {
		return nil, err
	}

	if app.Status.Terminal() && app.Status != req.Status {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Cannot change status of application that has been "+string(app.Status))
	}

	if req.Status == models.ApplicationAccepted && app.Status != models.ApplicationAccepted {
		project, err := s.projects.FindByID(ctx, app.ProjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "Project not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
		}
		if project.IsFull() {
			s.recordCapacityRejection()
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, appErrors.ErrCapacityExceeded.Message)
		}
	}

	updated, err := s.applications.Decide(ctx, models.StatusDecision{
		ApplicationID: app.ID,
		Status:        req.Status,
		Notes:         req.ProfessorNotes,
		DecidedAt:     s.now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityReached):
			s.recordCapacityRejection()
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, appErrors.ErrCapacityExceeded.Message)
		case errors.Is(err, repository.ErrStateChanged):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "Application has already been processed")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application status")
	}

	if s.metrics != nil {
		s.metrics.RecordDecision(updated.Status)
	}
	s.logger.Info("application decided",
		zap.String("application_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("professor_id", professor.ID),
	)
	return updated, nil
}

// Withdraw lets the owning student retract a pending application.
func (s *ApplicationService) Withdraw(ctx context.Context, student *models.User, id string) error {
	app, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !student.IsStudent() || app.StudentID != student.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "Not authorized to withdraw this application")
	}
	if app.Status != models.ApplicationPending {
		return appErrors.Clone(appErrors.ErrInvalidState, "Cannot withdraw application that has been processed")
	}
	if err := s.applications.Withdraw(ctx, app.ID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return appErrors.Clone(appErrors.ErrInvalidState, "Cannot withdraw application that has been processed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw application")
	}
	return nil
}

// ListMine returns the student's applications, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, student *models.User) ([]models.Application, error) {
	if !student.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only students have applications")
	}
	apps, err := s.applications.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

// ListReceived returns applications to the professor's projects.
func (s *ApplicationService) ListReceived(ctx context.Context, professor *models.User, query dto.ReceivedApplicationsQuery) ([]models.Application, error) {
	if !professor.IsProfessor() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only professors receive applications")
	}
	if err := validate(s.validator, query, "invalid filter parameters"); err != nil {
		return nil, err
	}
	apps, err := s.applications.List(ctx, query.ToFilter(professor.ID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

func (s *ApplicationService) load(ctx context.Context, id string) (*models.Application, error) {
	// ids are UUID columns; anything else cannot match a row
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Application not found")
	}
	app, err := s.applications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) recordCapacityRejection() {
	if s.metrics != nil {
		s.metrics.RecordCapacityRejection()
	}
}
