package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/research-match-api/internal/models"
)

var projectColumnNames = []string{
	"id", "title", "description", "department", "skills", "tags", "status", "duration", "time_commitment",
	"compensation", "compensation_amount", "max_students", "current_students", "application_deadline", "start_date", "end_date",
	"professor_id", "created_at", "updated_at",
	"professor.id", "professor.name", "professor.email", "professor.department", "professor.bio",
}

func addProjectRow(rows *sqlmock.Rows, id string, now time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "Protein folding", "Long enough description", "Biology", "{python,ml}", "{ai}", "active", 12, 10,
		"stipend", "$500", 2, 1, nil, nil, nil,
		"prof-1", now, now,
		"prof-1", "Dr. Grace", "grace@uni.edu", "Biology", nil)
}

func TestProjectRepositoryFindByIDLoadsDetails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects p JOIN users u ON u.id = p.professor_id WHERE p.id = $1")).
		WithArgs("p1").
		WillReturnRows(addProjectRow(sqlmock.NewRows(projectColumnNames), "p1", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM project_requirements WHERE project_id = ANY($1::uuid[])")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "gpa", "year", "prerequisites"}).AddRow("p1", 3.0, "{Junior,Senior}", "{}"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM project_materials WHERE project_id = ANY($1::uuid[])")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "name", "type", "url", "description", "position"}).
			AddRow("m1", "p1", "Syllabus", "document", "https://uni.edu/s.pdf", nil, 0).
			AddRow("m2", "p1", "Intro", "video", "https://uni.edu/v", "welcome", 1))

	project, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, project.Professor)
	assert.Equal(t, "Dr. Grace", project.Professor.Name)
	require.NotNil(t, project.Requirements)
	assert.Equal(t, []string{"Junior", "Senior"}, []string(project.Requirements.Year))
	require.Len(t, project.Materials, 2)
	assert.Equal(t, "Syllabus", project.Materials[0].Name)
	assert.Equal(t, 1, project.CurrentStudents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositorySearchBuildsFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	where := "WHERE p.status = $1 AND p.department ILIKE $2 AND $3 = ANY(p.skills) AND " +
		"(p.title ILIKE $4 OR p.description ILIKE $4 OR p.department ILIKE $4 OR $5 = ANY(p.skills) OR $5 = ANY(p.tags))"

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects p "+where)).
		WithArgs(models.ProjectStatusActive, "%bio%", "python", `%50\%%`, "50%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta(where+" ORDER BY p.created_at DESC, p.id LIMIT 5 OFFSET 5")).
		WithArgs(models.ProjectStatusActive, "%bio%", "python", `%50\%%`, "50%").
		WillReturnRows(addProjectRow(sqlmock.NewRows(projectColumnNames), "p1", time.Now()))
	mock.ExpectQuery("FROM project_requirements").WillReturnRows(sqlmock.NewRows([]string{"project_id", "gpa", "year", "prerequisites"}))
	mock.ExpectQuery("FROM project_materials").WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "name", "type", "url", "description", "position"}))

	projects, total, err := repo.Search(context.Background(), models.ProjectFilter{
		Status:     models.ProjectStatusActive,
		Department: "bio",
		Skills:     "python",
		Search:     "50%",
		Page:       2,
		Limit:      5,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, projects, 1)
	assert.Nil(t, projects[0].Requirements)
	assert.NotNil(t, projects[0].Materials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositorySearchEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects p")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	projects, total, err := repo.Search(context.Background(), models.ProjectFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, projects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCreateSkipsEmptyRequirements(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO projects").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO project_materials").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	project := &models.Project{
		Title:        "Protein folding",
		ProfessorID:  "prof-1",
		Status:       models.ProjectStatusActive,
		MaxStudents:  1,
		Requirements: &models.ProjectRequirements{Year: []string{}, Prerequisites: []string{}},
		Materials:    []models.ProjectMaterial{{Name: "Syllabus", Type: models.MaterialDocument, URL: "https://uni.edu"}},
	}
	require.NoError(t, repo.Create(context.Background(), project))
	assert.NotEmpty(t, project.ID)
	assert.Nil(t, project.Requirements)
	assert.Equal(t, project.ID, project.Materials[0].ProjectID)
	assert.NotNil(t, project.Skills)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCreateWithRequirements(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	gpa := 3.2
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO projects").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO project_requirements")).
		WithArgs(sqlmock.AnyArg(), &gpa, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	project := &models.Project{Title: "Protein folding", Requirements: &models.ProjectRequirements{GPA: &gpa}}
	require.NoError(t, repo.Create(context.Background(), project))
	require.NotNil(t, project.Requirements)
	assert.NotNil(t, project.Requirements.Year)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO projects").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO project_materials").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	project := &models.Project{Materials: []models.ProjectMaterial{{Name: "x", Type: models.MaterialLink, URL: "https://x.io"}}}
	err := repo.Create(context.Background(), project)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateReplacesSubRecords(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND current_students <= $12")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_requirements WHERE project_id = $1")).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_materials WHERE project_id = $1")).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO project_materials").
		WithArgs(sqlmock.AnyArg(), "p1", "New guide", models.MaterialLink, "https://new.example", nil, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	project := &models.Project{
		ID:           "p1",
		MaxStudents:  3,
		Requirements: &models.ProjectRequirements{},
		Materials:    []models.ProjectMaterial{{Name: "New guide", Type: models.MaterialLink, URL: "https://new.example"}},
	}
	err := repo.Update(context.Background(), ProjectUpdate{Project: project, ReplaceRequirements: true, ReplaceMaterials: true})
	require.NoError(t, err)
	assert.Nil(t, project.Requirements)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateUpsertsRequirements(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE projects SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (project_id) DO UPDATE")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	project := &models.Project{ID: "p1", MaxStudents: 1, Requirements: &models.ProjectRequirements{Prerequisites: []string{"BIO101"}}}
	err := repo.Update(context.Background(), ProjectUpdate{Project: project, ReplaceRequirements: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateBelowAcceptedCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE projects SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), ProjectUpdate{Project: &models.Project{ID: "p1", MaxStudents: 1}})
	assert.ErrorIs(t, err, ErrCapacityReached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM applications WHERE project_id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_materials WHERE project_id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM project_requirements WHERE project_id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryDeleteRollsBackWhenApplicationsFail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM applications").WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "p1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM applications").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM project_materials").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM project_requirements").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "p1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%a\_b\%c\\%`, containsPattern(`a_b%c\`))
}
