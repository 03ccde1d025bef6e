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

const applicationColumns = `a.id, a.student_id, a.project_id, a.professor_id, a.cover_letter, a.relevant_experience, a.motivation,
a.status, a.professor_notes, a.application_date, a.response_date, a.updated_at`

const applicantColumns = `s.id AS "student.id", s.name AS "student.name", s.email AS "student.email", s.department AS "student.department",
s.year AS "student.year", s.gpa AS "student.gpa", s.skills AS "student.skills", s.interests AS "student.interests"`

const projectSummaryColumns = `pr.id AS "project.id", pr.title AS "project.title", pr.description AS "project.description",
pr.department AS "project.department", pr.status AS "project.status"`

const professorSummaryColumns = `pf.id AS "professor.id", pf.name AS "professor.name", pf.email AS "professor.email",
pf.department AS "professor.department", pf.bio AS "professor.bio"`

type applicantRow struct {
	models.Application
	Applicant  models.ApplicantSummary `db:"student"`
	ProjectRef models.ProjectSummary   `db:"project"`
}

type decidedApplicationRow struct {
	models.Application
	Applicant  models.ApplicantSummary `db:"student"`
	ProjectRef models.ProjectSummary   `db:"project"`
	Owner      models.UserSummary      `db:"professor"`
}

type studentApplicationRow struct {
	models.Application
	ProjectRef models.ProjectSummary `db:"project"`
	Owner      models.UserSummary    `db:"professor"`
}

// ApplicationRepository persists applications and their status transitions.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an application repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// FindByID returns the bare application.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications a WHERE a.id = $1`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &app, nil
}

// FindByStudentAndProject returns the application of studentID to projectID.
func (r *ApplicationRepository) FindByStudentAndProject(ctx context.Context, studentID, projectID string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications a WHERE a.student_id = $1 AND a.project_id = $2`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, studentID, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find application by student and project: %w", err)
	}
	return &app, nil
}

// Create inserts a pending application. The (student_id, project_id) unique
// index is authoritative; a violation yields ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.ApplicationDate.IsZero() {
		app.ApplicationDate = time.Now().UTC()
	}
	app.UpdatedAt = app.ApplicationDate

	const query = `INSERT INTO applications (id, student_id, project_id, professor_id, cover_letter, relevant_experience, motivation, status, application_date, updated_at)
VALUES (:id, :student_id, :project_id, :professor_id, :cover_letter, :relevant_experience, :motivation, :status, :application_date, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// ListByStudent returns a student's applications with project and professor
// summaries, newest first.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + `, ` + projectSummaryColumns + `, ` + professorSummaryColumns + `
FROM applications a
JOIN projects pr ON pr.id = a.project_id
JOIN users pf ON pf.id = a.professor_id
WHERE a.student_id = $1
ORDER BY a.application_date DESC, a.id`
	var rows []studentApplicationRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}
	apps := make([]models.Application, 0, len(rows))
	for _, row := range rows {
		app := row.Application
		project, owner := row.ProjectRef, row.Owner
		app.Project = &project
		app.Professor = &owner
		apps = append(apps, app)
	}
	return apps, nil
}

// List returns applications matching filter with applicant and project
// summaries, newest first.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	var conditions []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.ProfessorID != "" {
		add("a.professor_id", filter.ProfessorID)
	}
	if filter.StudentID != "" {
		add("a.student_id", filter.StudentID)
	}
	if filter.ProjectID != "" {
		add("a.project_id", filter.ProjectID)
	}
	if filter.Status != "" {
		add("a.status", filter.Status)
	}

	query := `SELECT ` + applicationColumns + `, ` + applicantColumns + `, ` + projectSummaryColumns + `
FROM applications a
JOIN users s ON s.id = a.student_id
JOIN projects pr ON pr.id = a.project_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.application_date DESC, a.id"

	return r.selectWithApplicants(ctx, "list applications", query, args...)
}

// ListByProjects returns the applications of every given project keyed by
// project id.
func (r *ApplicationRepository) ListByProjects(ctx context.Context, projectIDs []string) (map[string][]models.Application, error) {
	result := make(map[string][]models.Application, len(projectIDs))
	if len(projectIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + applicationColumns + `, ` + applicantColumns + `, ` + projectSummaryColumns + `
FROM applications a
JOIN users s ON s.id = a.student_id
JOIN projects pr ON pr.id = a.project_id
WHERE a.project_id = ANY($1::uuid[])
ORDER BY a.application_date DESC, a.id`
	apps, err := r.selectWithApplicants(ctx, "list project applications", query, pq.Array(projectIDs))
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		result[app.ProjectID] = append(result[app.ProjectID], app)
	}
	return result, nil
}

func (r *ApplicationRepository) selectWithApplicants(ctx context.Context, label, query string, args ...interface{}) ([]models.Application, error) {
	var rows []applicantRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	apps := make([]models.Application, 0, len(rows))
	for _, row := range rows {
		app := row.Application
		applicant, project := row.Applicant, row.ProjectRef
		app.Student = &applicant
		app.Project = &project
		apps = append(apps, app)
	}
	return apps, nil
}

// AppliedProjectIDs reports which of projectIDs studentID has applied to.
func (r *ApplicationRepository) AppliedProjectIDs(ctx context.Context, studentID string, projectIDs []string) (map[string]bool, error) {
	applied := make(map[string]bool)
	if len(projectIDs) == 0 {
		return applied, nil
	}
	var ids []string
	const query = `SELECT project_id FROM applications WHERE student_id = $1 AND project_id = ANY($2::uuid[])`
	if err := r.db.SelectContext(ctx, &ids, query, studentID, pq.Array(projectIDs)); err != nil {
		return nil, fmt.Errorf("list applied projects: %w", err)
	}
	for _, id := range ids {
		applied[id] = true
	}
	return applied, nil
}

// Decide applies a professor decision atomically. The application row is
// locked for the duration of the transaction; accepting a not yet accepted
// application claims a seat with a conditional increment so concurrent
// accepts can never push current_students above max_students. Repeating the
// current decision refreshes notes and response date without touching the
// counter. Any other move out of a terminal state yields ErrStateChanged.
// The returned application carries student, project and professor summaries.
func (r *ApplicationRepository) Decide(ctx context.Context, decision models.StatusDecision) (*models.Application, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin decide application: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.Application
	lockQuery := `SELECT ` + applicationColumns + ` FROM applications a WHERE a.id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &current, lockQuery, decision.ApplicationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock application: %w", err)
	}

	if current.Status != models.ApplicationPending && current.Status != decision.Status {
		err = ErrStateChanged
		return nil, err
	}

	if decision.Status == models.ApplicationAccepted && current.Status != models.ApplicationAccepted {
		const claimSeat = `UPDATE projects SET current_students = current_students + 1, updated_at = $2 WHERE id = $1 AND current_students < max_students`
		res, execErr := tx.ExecContext(ctx, claimSeat, current.ProjectID, decision.DecidedAt)
		if execErr != nil {
			err = fmt.Errorf("claim project seat: %w", execErr)
			return nil, err
		}
		affected, rowsErr := res.RowsAffected()
		if rowsErr != nil {
			err = fmt.Errorf("claim project seat rows: %w", rowsErr)
			return nil, err
		}
		if affected == 0 {
			err = ErrCapacityReached
			return nil, err
		}
	}

	var row decidedApplicationRow
	updateQuery := `WITH updated AS (
UPDATE applications SET status = $2, professor_notes = COALESCE($3, professor_notes), response_date = $4, updated_at = $4
WHERE id = $1 RETURNING *)
SELECT ` + applicationColumns + `, ` + applicantColumns + `, ` + projectSummaryColumns + `, ` + professorSummaryColumns + `
FROM updated a
JOIN users s ON s.id = a.student_id
JOIN projects pr ON pr.id = a.project_id
JOIN users pf ON pf.id = a.professor_id`
	if err = tx.GetContext(ctx, &row, updateQuery, decision.ApplicationID, decision.Status, decision.Notes, decision.DecidedAt); err != nil {
		err = fmt.Errorf("update application status: %w", err)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit decide application: %w", err)
	}
	updated := row.Application
	applicant, project, owner := row.Applicant, row.ProjectRef, row.Owner
	updated.Student = &applicant
	updated.Project = &project
	updated.Professor = &owner
	return &updated, nil
}

// Withdraw moves a pending application to withdrawn. A non pending
// application yields ErrStateChanged and is left unchanged.
func (r *ApplicationRepository) Withdraw(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.ApplicationWithdrawn, at, models.ApplicationPending)
	if err != nil {
		return fmt.Errorf("withdraw application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("withdraw application rows: %w", err)
	}
	if affected == 0 {
		return ErrStateChanged
	}
	return nil
}
