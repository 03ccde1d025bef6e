package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/research-match-api/internal/models"
)

var applicationColumnNames = []string{"id", "student_id", "project_id", "professor_id", "cover_letter", "relevant_experience", "motivation",
	"status", "professor_notes", "application_date", "response_date", "updated_at"}

func applicationRows(status models.ApplicationStatus, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(applicationColumnNames).
		AddRow("a1", "stu-1", "p1", "prof-1", "cover", nil, "motivation", string(status), nil, now, nil, now)
}

var decidedColumnNames = append(append([]string{}, applicationColumnNames...),
	"student.id", "student.name", "student.email", "student.department", "student.year", "student.gpa", "student.skills", "student.interests",
	"project.id", "project.title", "project.description", "project.department", "project.status",
	"professor.id", "professor.name", "professor.email", "professor.department", "professor.bio")

func decidedRows(status models.ApplicationStatus, notes interface{}, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(decidedColumnNames).
		AddRow("a1", "stu-1", "p1", "prof-1", "cover", nil, "motivation", string(status), notes, now, now, now,
			"stu-1", "Ada", "ada@uni.edu", "CS", "Senior", 3.9, "{go}", "{systems}",
			"p1", "Protein folding", "desc", "Biology", "active",
			"prof-1", "Dr. Grace", "grace@uni.edu", "Biology", nil)
}

func TestApplicationRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").WillReturnError(&pq.Error{Code: "23505", Constraint: "applications_student_project_key"})

	err := repo.Create(context.Background(), &models.Application{StudentID: "stu-1", ProjectID: "p1", Status: models.ApplicationPending})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.Application{StudentID: "stu-1", ProjectID: "p1", Status: models.ApplicationPending}
	require.NoError(t, repo.Create(context.Background(), app))
	assert.NotEmpty(t, app.ID)
	assert.False(t, app.ApplicationDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDecideAcceptClaimsSeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM applications a WHERE a.id = $1 FOR UPDATE")).
		WithArgs("a1").
		WillReturnRows(applicationRows(models.ApplicationPending, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET current_students = current_students + 1, updated_at = $2 WHERE id = $1 AND current_students < max_students")).
		WithArgs("p1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE applications SET status = $2")).
		WithArgs("a1", models.ApplicationAccepted, nil, now).
		WillReturnRows(decidedRows(models.ApplicationAccepted, nil, now))
	mock.ExpectCommit()

	app, err := repo.Decide(context.Background(), models.StatusDecision{ApplicationID: "a1", Status: models.ApplicationAccepted, DecidedAt: now})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, app.Status)
	require.NotNil(t, app.Student)
	assert.Equal(t, "Ada", app.Student.Name)
	require.NotNil(t, app.Project)
	assert.Equal(t, "Protein folding", app.Project.Title)
	require.NotNil(t, app.Professor)
	assert.Equal(t, "Dr. Grace", app.Professor.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDecideReacceptDoesNotClaimSeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	notes := "see you monday"
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(applicationRows(models.ApplicationAccepted, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE applications SET status = $2")).
		WithArgs("a1", models.ApplicationAccepted, &notes, now).
		WillReturnRows(decidedRows(models.ApplicationAccepted, notes, now))
	mock.ExpectCommit()

	_, err := repo.Decide(context.Background(), models.StatusDecision{ApplicationID: "a1", Status: models.ApplicationAccepted, Notes: &notes, DecidedAt: now})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDecideCapacityReached(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(applicationRows(models.ApplicationPending, now))
	mock.ExpectExec("UPDATE projects SET current_students").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Decide(context.Background(), models.StatusDecision{ApplicationID: "a1", Status: models.ApplicationAccepted, DecidedAt: now})
	assert.ErrorIs(t, err, ErrCapacityReached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDecideTerminalState(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(applicationRows(models.ApplicationWithdrawn, now))
	mock.ExpectRollback()

	_, err := repo.Decide(context.Background(), models.StatusDecision{ApplicationID: "a1", Status: models.ApplicationAccepted, DecidedAt: now})
	assert.ErrorIs(t, err, ErrStateChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDecideMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Decide(context.Background(), models.StatusDecision{ApplicationID: "a1", Status: models.ApplicationRejected, DecidedAt: time.Now()})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryWithdraw(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4")).
		WithArgs("a1", models.ApplicationWithdrawn, now, models.ApplicationPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE applications SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Withdraw(context.Background(), "a1", now))
	assert.ErrorIs(t, repo.Withdraw(context.Background(), "a1", now), ErrStateChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListReceived(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now()
	columns := append(append([]string{}, applicationColumnNames...),
		"student.id", "student.name", "student.email", "student.department", "student.year", "student.gpa", "student.skills", "student.interests",
		"project.id", "project.title", "project.description", "project.department", "project.status")
	rows := sqlmock.NewRows(columns).
		AddRow("a1", "stu-1", "p1", "prof-1", "cover", nil, "motivation", "pending", nil, now, nil, now,
			"stu-1", "Ada", "ada@uni.edu", "CS", "Senior", 3.9, "{go}", "{systems}",
			"p1", "Protein folding", "desc", "Biology", "active")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.professor_id = $1 AND a.status = $2 ORDER BY a.application_date DESC")).
		WithArgs("prof-1", models.ApplicationPending).
		WillReturnRows(rows)

	apps, err := repo.List(context.Background(), models.ApplicationFilter{ProfessorID: "prof-1", Status: models.ApplicationPending})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.NotNil(t, apps[0].Student)
	assert.Equal(t, "Ada", apps[0].Student.Name)
	assert.Equal(t, []string{"go"}, []string(apps[0].Student.Skills))
	require.NotNil(t, apps[0].Project)
	assert.Equal(t, "Protein folding", apps[0].Project.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now()
	columns := append(append([]string{}, applicationColumnNames...),
		"project.id", "project.title", "project.description", "project.department", "project.status",
		"professor.id", "professor.name", "professor.email", "professor.department", "professor.bio")
	rows := sqlmock.NewRows(columns).
		AddRow("a1", "stu-1", "p1", "prof-1", "cover", nil, "motivation", "accepted", "welcome", now, now, now,
			"p1", "Protein folding", "desc", "Biology", "active",
			"prof-1", "Dr. Grace", "grace@uni.edu", "Biology", nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.student_id = $1")).WithArgs("stu-1").WillReturnRows(rows)

	apps, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Dr. Grace", apps[0].Professor.Name)
	assert.Equal(t, models.ProjectStatusActive, apps[0].Project.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryAppliedProjectIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT project_id FROM applications WHERE student_id = $1 AND project_id = ANY($2::uuid[])")).
		WithArgs("stu-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow("p2"))

	applied, err := repo.AppliedProjectIDs(context.Background(), "stu-1", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.False(t, applied["p1"])
	assert.True(t, applied["p2"])

	empty, err := repo.AppliedProjectIDs(context.Background(), "stu-1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
