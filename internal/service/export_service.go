package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/research-match-api/internal/dto"
	"github.com/noah-isme/research-match-api/internal/models"
	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
	"github.com/noah-isme/research-match-api/pkg/export"
)

type receivedApplicationLister interface {
	ListReceived(ctx context.Context, professor *models.User, query dto.ReceivedApplicationsQuery) ([]models.Application, error)
}

type tableRenderer interface {
	ContentType() string
	Extension() string
	Render(table export.Table) ([]byte, error)
}

// ExportFile is a rendered document ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a professor's received applications for offline
// review.
type ExportService struct {
	applications receivedApplicationLister
	renderers    map[string]tableRenderer
	logger       *zap.Logger
	now          func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(applications receivedApplicationLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		applications: applications,
		renderers: map[string]tableRenderer{
			"csv": export.NewCSVExporter(export.WithBOM()),
			"pdf": export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

var exportColumns = []export.Column{
	{Key: "applied", Title: "Applied", Width: 1.2},
	{Key: "project", Title: "Project", Width: 2.5},
	{Key: "student", Title: "Student", Width: 1.8},
	{Key: "email", Title: "Email", Width: 2.2},
	{Key: "department", Title: "Department", Width: 1.6},
	{Key: "year", Title: "Year", Width: 1},
	{Key: "gpa", Title: "GPA", Width: 0.6},
	{Key: "skills", Title: "Skills", Width: 2.2},
	{Key: "status", Title: "Status", Width: 1},
}

// ExportReceived renders the professor's inbox in the requested format,
// csv when empty.
func (s *ExportService) ExportReceived(ctx context.Context, professor *models.User, query dto.ExportQuery) (*ExportFile, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unsupported export format"),
			[]appErrors.FieldError{{Field: "format", Message: "must be one of: csv pdf"}})
	}

	apps, err := s.applications.ListReceived(ctx, professor, query.ReceivedApplicationsQuery)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	table := export.Table{
		Title:   fmt.Sprintf("Applications received by %s (%s)", professor.Name, now.Format("2006-01-02")),
		Columns: exportColumns,
		Rows:    make([]map[string]string, 0, len(apps)),
	}
	for _, app := range apps {
		table.Rows = append(table.Rows, applicationRow(app))
	}

	data, err := renderer.Render(table)
	if err != nil {
		s.logger.Error("render applications export", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("applications-%s.%s", now.Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func applicationRow(app models.Application) map[string]string {
	row := map[string]string{
		"applied": app.ApplicationDate.UTC().Format("2006-01-02"),
		"status":  string(app.Status),
	}
	if app.Project != nil {
		row["project"] = app.Project.Title
	}
	if st := app.Student; st != nil {
		row["student"] = st.Name
		row["email"] = st.Email
		row["department"] = st.Department
		row["skills"] = strings.Join(st.Skills, ", ")
		if st.Year != nil {
			row["year"] = string(*st.Year)
		}
		if st.GPA != nil {
			row["gpa"] = strconv.FormatFloat(*st.GPA, 'f', 2, 64)
		}
	}
	return row
}
