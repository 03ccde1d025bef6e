package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/research-match-api/internal/dto"
	"github.com/noah-isme/research-match-api/internal/models"
	"github.com/noah-isme/research-match-api/internal/repository"
	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
	"github.com/noah-isme/research-match-api/pkg/sanitize"
)

type projectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	Search(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, update repository.ProjectUpdate) error
	Delete(ctx context.Context, id string) error
}

type projectApplicationReader interface {
	ListByProjects(ctx context.Context, projectIDs []string) (map[string][]models.Application, error)
	AppliedProjectIDs(ctx context.Context, studentID string, projectIDs []string) (map[string]bool, error)
}

// ProjectService implements the project lifecycle: publishing, search,
// owner-only edits and cascading deletion.
type ProjectService struct {
	projects     projectRepository
	applications projectApplicationReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewProjectService constructs a ProjectService.
func NewProjectService(projects projectRepository, applications projectApplicationReader, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ProjectService{projects: projects, applications: applications, validator: validate, logger: logger}
}

// Create publishes a project owned by professor.
func (s *ProjectService) Create(ctx context.Context, professor *models.User, req dto.CreateProjectRequest) (*models.Project, error) {
	if !professor.IsProfessor() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only professors can create projects")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = sanitize.Text(req.Description)
	req.Department = strings.TrimSpace(req.Department)
	if err := validate(s.validator, req, "invalid project payload"); err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:              req.Title,
		Description:        req.Description,
		Department:         req.Department,
		Skills:             cleanList(req.Skills),
		Tags:               cleanList(req.Tags),
		Status:             models.ProjectStatusActive,
		Duration:           req.Duration,
		TimeCommitment:     req.TimeCommitment,
		Compensation:       req.Compensation,
		CompensationAmount: req.CompensationAmount,
		MaxStudents:        1,
		ProfessorID:        professor.ID,
		Requirements:       req.Requirements.ToModel(),
		Materials:          materialsFromInput(req.Materials),
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.MaxStudents != nil {
		project.MaxStudents = *req.MaxStudents
	}
	var err error
	if project.ApplicationDeadline, _, err = dto.ParseOptionalDate(req.ApplicationDeadline); err != nil {
		return nil, dateError("applicationDeadline", err)
	}
	if project.StartDate, _, err = dto.ParseOptionalDate(req.StartDate); err != nil {
		return nil, dateError("startDate", err)
	}
	if project.EndDate, _, err = dto.ParseOptionalDate(req.EndDate); err != nil {
		return nil, dateError("endDate", err)
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	project.Professor = summaryOf(professor)
	s.logger.Info("project created", zap.String("project_id", project.ID), zap.String("professor_id", professor.ID))
	return project, nil
}

// Get returns a project with its applications. viewer may be nil.
func (s *ProjectService) Get(ctx context.Context, id string, viewer *models.User) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	byProject, err := s.applications.ListByProjects(ctx, []string{project.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applications")
	}
	project.Applications = byProject[project.ID]

	if viewer != nil {
		owner := viewer.ID == project.ProfessorID
		project.IsOwner = &owner
		if viewer.IsStudent() {
			applied := false
			for _, app := range project.Applications {
				if app.StudentID == viewer.ID {
					applied = true
					break
				}
			}
			project.HasApplied = &applied
		}
	}
	return project, nil
}

// Search runs the public project search. viewer may be nil.
func (s *ProjectService) Search(ctx context.Context, query dto.ProjectQuery, viewer *models.User) (*models.ProjectPage, error) {
	if err := validate(s.validator, query, "invalid search parameters"); err != nil {
		return nil, err
	}
	filter := query.ToFilter()
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Department = strings.TrimSpace(filter.Department)
	filter.Skills = strings.TrimSpace(filter.Skills)

	projects, total, err := s.projects.Search(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search projects")
	}

	if viewer != nil && len(projects) > 0 {
		var applied map[string]bool
		if viewer.IsStudent() {
			ids := make([]string, len(projects))
			for i := range projects {
				ids[i] = projects[i].ID
			}
			if applied, err = s.applications.AppliedProjectIDs(ctx, viewer.ID, ids); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applications")
			}
		}
		for i := range projects {
			owner := projects[i].ProfessorID == viewer.ID
			projects[i].IsOwner = &owner
			if applied != nil {
				hasApplied := applied[projects[i].ID]
				projects[i].HasApplied = &hasApplied
			}
		}
	}

	return &models.ProjectPage{
		Projects:    projects,
		Total:       total,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		CurrentPage: filter.Page,
	}, nil
}

// ListMine returns the professor's projects with their applications.
func (s *ProjectService) ListMine(ctx context.Context, professor *models.User) ([]models.Project, error) {
	if !professor.IsProfessor() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only professors can list their projects")
	}
	projects, err := s.projects.ListByProfessor(ctx, professor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	if len(projects) == 0 {
		return projects, nil
	}

	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}
	byProject, err := s.applications.ListByProjects(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applications")
	}
	for i := range projects {
		projects[i].Applications = byProject[projects[i].ID]
		if projects[i].Applications == nil {
			projects[i].Applications = []models.Application{}
		}
	}
	return projects, nil
}

// Update applies a partial edit. Only the owning professor may edit.
func (s *ProjectService) Update(ctx context.Context, professor *models.User, id string, req dto.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.loadOwned(ctx, professor, id, "Not authorized to update this project")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if req.Description != nil {
		description := sanitize.Text(*req.Description)
		req.Description = &description
	}
	if req.Department != nil {
		department := strings.TrimSpace(*req.Department)
		req.Department = &department
	}
	if err := validate(s.validator, req, "invalid project payload"); err != nil {
		return nil, err
	}

	update, err := applyProjectUpdate(project, req)
	if err != nil {
		return nil, err
	}
	if project.MaxStudents < project.CurrentStudents {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "maxStudents cannot be lower than the number of accepted students")
	}

	if err := s.projects.Update(ctx, update); err != nil {
		if errors.Is(err, repository.ErrCapacityReached) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "maxStudents cannot be lower than the number of accepted students")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return project, nil
}

// Delete removes a project and everything attached to it.
func (s *ProjectService) Delete(ctx context.Context, professor *models.User, id string) error {
	if _, err := s.loadOwned(ctx, professor, id, "Not authorized to delete this project"); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Project not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete project")
	}
	s.logger.Info("project deleted", zap.String("project_id", id), zap.String("professor_id", professor.ID))
	return nil
}

func (s *ProjectService) load(ctx context.Context, id string) (*models.Project, error) {
	// ids are UUID columns; anything else cannot match a row
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Project not found")
	}
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

func (s *ProjectService) loadOwned(ctx context.Context, professor *models.User, id, denied string) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !professor.IsProfessor() || project.ProfessorID != professor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, denied)
	}
	return project, nil
}

// applyProjectUpdate merges the present fields of req into project.
func applyProjectUpdate(project *models.Project, req dto.UpdateProjectRequest) (repository.ProjectUpdate, error) {
	update := repository.ProjectUpdate{Project: project}

	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Department != nil {
		project.Department = *req.Department
	}
	if req.Skills != nil {
		project.Skills = cleanList(req.Skills)
	}
	if req.Tags != nil {
		project.Tags = cleanList(req.Tags)
	}
	if req.Duration != nil {
		project.Duration = *req.Duration
	}
	if req.TimeCommitment != nil {
		project.TimeCommitment = *req.TimeCommitment
	}
	if req.Compensation != nil {
		project.Compensation = *req.Compensation
	}
	if req.CompensationAmount != nil {
		project.CompensationAmount = req.CompensationAmount
	}
	if req.MaxStudents != nil {
		project.MaxStudents = *req.MaxStudents
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	if t, set, err := dto.ParseOptionalDate(req.ApplicationDeadline); err != nil {
		return update, dateError("applicationDeadline", err)
	} else if set {
		project.ApplicationDeadline = t
	}
	if t, set, err := dto.ParseOptionalDate(req.StartDate); err != nil {
		return update, dateError("startDate", err)
	} else if set {
		project.StartDate = t
	}
	if t, set, err := dto.ParseOptionalDate(req.EndDate); err != nil {
		return update, dateError("endDate", err)
	} else if set {
		project.EndDate = t
	}

	if req.Requirements != nil {
		update.ReplaceRequirements = true
		project.Requirements = req.Requirements.ToModel()
	}
	if req.Materials != nil {
		update.ReplaceMaterials = true
		project.Materials = materialsFromInput(*req.Materials)
	}
	return update, nil
}

func materialsFromInput(inputs []dto.MaterialInput) []models.ProjectMaterial {
	materials := make([]models.ProjectMaterial, 0, len(inputs))
	for _, in := range inputs {
		materials = append(materials, models.ProjectMaterial{
			Name:        strings.TrimSpace(in.Name),
			Type:        in.Type,
			URL:         in.URL,
			Description: sanitize.TextPtr(in.Description),
		})
	}
	return materials
}

func summaryOf(user *models.User) *models.UserSummary {
	return &models.UserSummary{ID: user.ID, Name: user.Name, Email: user.Email, Department: user.Department, Bio: user.Bio}
}

func dateError(field string, err error) error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	appErr.Details = []appErrors.FieldError{{Field: field, Message: "must be a valid date"}}
	return appErr
}
