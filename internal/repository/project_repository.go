package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/research-match-api/internal/models"
)

const projectColumns = `p.id, p.title, p.description, p.department, p.skills, p.tags, p.status, p.duration, p.time_commitment,
p.compensation, p.compensation_amount, p.max_students, p.current_students, p.application_deadline, p.start_date, p.end_date,
p.professor_id, p.created_at, p.updated_at,
u.id AS "professor.id", u.name AS "professor.name", u.email AS "professor.email", u.department AS "professor.department", u.bio AS "professor.bio"`

const projectFrom = ` FROM projects p JOIN users u ON u.id = p.professor_id`

type projectRow struct {
	models.Project
	Owner models.UserSummary `db:"professor"`
}

func (row projectRow) toModel() models.Project {
	project := row.Project
	owner := row.Owner
	project.Professor = &owner
	project.Materials = []models.ProjectMaterial{}
	return project
}

// ProjectUpdate tells Update which sub-records the caller supplied.
type ProjectUpdate struct {
	Project             *models.Project
	ReplaceRequirements bool
	ReplaceMaterials    bool
}

// ProjectRepository persists projects with their requirements and materials.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs a project repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByID returns a project with owner summary, requirements and materials.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + projectFrom + ` WHERE p.id = $1`
	var row projectRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	projects := []models.Project{row.toModel()}
	if err := r.attachDetails(ctx, projects); err != nil {
		return nil, err
	}
	return &projects[0], nil
}

// Search returns one page of projects matching filter plus the total count.
func (r *ProjectRepository) Search(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, containsPattern(filter.Department))
		conditions = append(conditions, fmt.Sprintf("p.department ILIKE $%d", len(args)))
	}
	if filter.Skills != "" {
		args = append(args, filter.Skills)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(p.skills)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, containsPattern(filter.Search), filter.Search)
		like, exact := len(args)-1, len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(p.title ILIKE $%[1]d OR p.description ILIKE $%[1]d OR p.department ILIKE $%[1]d OR $%[2]d = ANY(p.skills) OR $%[2]d = ANY(p.tags))",
			like, exact))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM projects p`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	if total == 0 {
		return []models.Project{}, 0, nil
	}

	listQuery := fmt.Sprintf(`SELECT %s%s%s ORDER BY p.created_at DESC, p.id LIMIT %d OFFSET %d`,
		projectColumns, projectFrom, where, filter.Limit, filter.Offset())
	projects, err := r.selectProjects(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search projects: %w", err)
	}
	if err := r.attachDetails(ctx, projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// ListByProfessor returns every project owned by professorID, newest first.
func (r *ProjectRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + projectFrom + ` WHERE p.professor_id = $1 ORDER BY p.created_at DESC, p.id`
	projects, err := r.selectProjects(ctx, query, professorID)
	if err != nil {
		return nil, fmt.Errorf("list professor projects: %w", err)
	}
	if err := r.attachDetails(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) selectProjects(ctx context.Context, query string, args ...interface{}) ([]models.Project, error) {
	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	projects := make([]models.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toModel())
	}
	return projects, nil
}

// attachDetails loads requirements and materials for all projects in two queries.
func (r *ProjectRepository) attachDetails(ctx context.Context, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]string, len(projects))
	index := make(map[string]int, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		index[projects[i].ID] = i
	}

	var requirements []models.ProjectRequirements
	const reqQuery = `SELECT project_id, gpa, year, prerequisites FROM project_requirements WHERE project_id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &requirements, reqQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("load project requirements: %w", err)
	}
	for i := range requirements {
		req := requirements[i]
		if pos, ok := index[req.ProjectID]; ok {
			projects[pos].Requirements = &req
		}
	}

	var materials []models.ProjectMaterial
	const matQuery = `SELECT id, project_id, name, type, url, description, position FROM project_materials WHERE project_id = ANY($1::uuid[]) ORDER BY project_id, position`
	if err := r.db.SelectContext(ctx, &materials, matQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("load project materials: %w", err)
	}
	for _, material := range materials {
		if pos, ok := index[material.ProjectID]; ok {
			projects[pos].Materials = append(projects[pos].Materials, material)
		}
	}
	return nil
}

// Create inserts the project, its requirements when non empty and its
// materials in a single transaction.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	normaliseLists(project)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create project: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO projects (id, title, description, department, skills, tags, status, duration, time_commitment, compensation,
compensation_amount, max_students, current_students, application_deadline, start_date, end_date, professor_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	if _, err = tx.ExecContext(ctx, insert,
		project.ID, project.Title, project.Description, project.Department, project.Skills, project.Tags, project.Status,
		project.Duration, project.TimeCommitment, project.Compensation, project.CompensationAmount, project.MaxStudents,
		project.CurrentStudents, project.ApplicationDeadline, project.StartDate, project.EndDate, project.ProfessorID,
		project.CreatedAt, project.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	if !project.Requirements.Empty() {
		if err = upsertRequirementsTx(ctx, tx, project.ID, project.Requirements); err != nil {
			return err
		}
	} else {
		project.Requirements = nil
	}
	if err = insertMaterialsTx(ctx, tx, project.ID, project.Materials); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create project: %w", err)
	}
	return nil
}

// Update writes the core columns of a project and, when requested, replaces
// its requirements and materials. current_students is never written here;
// a max_students below the accepted count yields ErrCapacityReached.
func (r *ProjectRepository) Update(ctx context.Context, update ProjectUpdate) error {
	project := update.Project
	project.UpdatedAt = time.Now().UTC()
	normaliseLists(project)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update project: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE projects SET title = $2, description = $3, department = $4, skills = $5, tags = $6, status = $7,
duration = $8, time_commitment = $9, compensation = $10, compensation_amount = $11, max_students = $12,
application_deadline = $13, start_date = $14, end_date = $15, updated_at = $16
WHERE id = $1 AND current_students <= $12`
	res, err := tx.ExecContext(ctx, query,
		project.ID, project.Title, project.Description, project.Department, project.Skills, project.Tags, project.Status,
		project.Duration, project.TimeCommitment, project.Compensation, project.CompensationAmount, project.MaxStudents,
		project.ApplicationDeadline, project.StartDate, project.EndDate, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project rows: %w", err)
	}
	if affected == 0 {
		err = ErrCapacityReached
		return err
	}

	if update.ReplaceRequirements {
		if project.Requirements.Empty() {
			if _, err = tx.ExecContext(ctx, `DELETE FROM project_requirements WHERE project_id = $1`, project.ID); err != nil {
				return fmt.Errorf("delete project requirements: %w", err)
			}
			project.Requirements = nil
		} else if err = upsertRequirementsTx(ctx, tx, project.ID, project.Requirements); err != nil {
			return err
		}
	}

	if update.ReplaceMaterials {
		if _, err = tx.ExecContext(ctx, `DELETE FROM project_materials WHERE project_id = $1`, project.ID); err != nil {
			return fmt.Errorf("delete project materials: %w", err)
		}
		if err = insertMaterialsTx(ctx, tx, project.ID, project.Materials); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update project: %w", err)
	}
	return nil
}

// Delete removes a project together with its applications and sub-records.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete project: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	steps := []struct {
		label string
		query string
	}{
		{"delete project applications", `DELETE FROM applications WHERE project_id = $1`},
		{"delete project materials", `DELETE FROM project_materials WHERE project_id = $1`},
		{"delete project requirements", `DELETE FROM project_requirements WHERE project_id = $1`},
	}
	for _, step := range steps {
		if _, err = tx.ExecContext(ctx, step.query, id); err != nil {
			return fmt.Errorf("%s: %w", step.label, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete project: %w", err)
	}
	return nil
}

func upsertRequirementsTx(ctx context.Context, tx *sqlx.Tx, projectID string, req *models.ProjectRequirements) error {
	req.ProjectID = projectID
	if req.Year == nil {
		req.Year = []string{}
	}
	if req.Prerequisites == nil {
		req.Prerequisites = []string{}
	}
	const query = `INSERT INTO project_requirements (project_id, gpa, year, prerequisites) VALUES ($1, $2, $3, $4)
ON CONFLICT (project_id) DO UPDATE SET gpa = EXCLUDED.gpa, year = EXCLUDED.year, prerequisites = EXCLUDED.prerequisites`
	if _, err := tx.ExecContext(ctx, query, projectID, req.GPA, req.Year, req.Prerequisites); err != nil {
		return fmt.Errorf("upsert project requirements: %w", err)
	}
	return nil
}

func insertMaterialsTx(ctx context.Context, tx *sqlx.Tx, projectID string, materials []models.ProjectMaterial) error {
	const query = `INSERT INTO project_materials (id, project_id, name, type, url, description, position) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range materials {
		m := &materials[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.ProjectID = projectID
		m.Position = i
		if _, err := tx.ExecContext(ctx, query, m.ID, projectID, m.Name, m.Type, m.URL, m.Description, m.Position); err != nil {
			return fmt.Errorf("insert project material: %w", err)
		}
	}
	return nil
}

func normaliseLists(project *models.Project) {
	if project.Skills == nil {
		project.Skills = []string{}
	}
	if project.Tags == nil {
		project.Tags = []string{}
	}
	if project.Materials == nil {
		project.Materials = []models.ProjectMaterial{}
	}
}
