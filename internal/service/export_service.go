package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uks-adp-api/internal/models"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
	"github.com/noah-isme/uks-adp-api/pkg/export"
)

type exportAggregateRepository interface {
	EventSummary(ctx context.Context, campaignID string) (*models.EventSummary, error)
	ClassSummaries(ctx context.Context, campaignID string) ([]models.ClassSummary, error)
	FindByClassCampaign(ctx context.Context, classCampaignID string) ([]models.CampaignStudentDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered document ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders campaign recaps as downloadable CSV or PDF files.
// Documents are generated on demand from live aggregates and streamed back,
// never stored.
type ExportService struct {
	repo   exportAggregateRepository
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportAggregateRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{repo: repo, csv: csv, pdf: pdf, logger: logger}
}

// EventRecap renders a campaign's per-class breakdown.
func (s *ExportService) EventRecap(ctx context.Context, campaignID string, format ExportFormat) (*ExportFile, error) {
	summary, err := s.repo.EventSummary(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event summary")
	}
	classes, err := s.repo.ClassSummaries(ctx, campaignID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class summaries")
	}

	rows := make([]map[string]string, 0, len(classes)+1)
	for _, class := range classes {
		rows = append(rows, map[string]string{
			"Class":     class.ClassName,
			"Grade":     class.GradeLevel,
			"Students":  fmt.Sprintf("%d", class.TotalStudents),
			"Approved":  fmt.Sprintf("%d", class.ApprovedCount),
			"Pending":   fmt.Sprintf("%d", class.PendingCount),
			"Rejected":  fmt.Sprintf("%d", class.RejectedCount),
			"Completed": fmt.Sprintf("%d", class.CompletedCount),
		})
	}
	rows = append(rows, map[string]string{
		"Class":     "TOTAL",
		"Grade":     "",
		"Students":  fmt.Sprintf("%d", summary.TotalStudents),
		"Approved":  fmt.Sprintf("%d", summary.ApprovedCount),
		"Pending":   fmt.Sprintf("%d", summary.PendingCount),
		"Rejected":  fmt.Sprintf("%d", summary.RejectedCount),
		"Completed": fmt.Sprintf("%d", summary.CompletedCount),
	})

	dataset := export.Dataset{
		Headers: []string{"Class", "Grade", "Students", "Approved", "Pending", "Rejected", "Completed"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Rekap %s %s", summary.Category, summary.Title)
	return s.render(dataset, title, campaignID, format)
}

// ClassRoster renders the student-level roster of one class campaign.
func (s *ExportService) ClassRoster(ctx context.Context, classCampaignID string, format ExportFormat) (*ExportFile, error) {
	students, err := s.repo.FindByClassCampaign(ctx, classCampaignID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class campaign has no students")
	}

	rows := make([]map[string]string, 0, len(students))
	for _, row := range students {
		result := ""
		if row.Result != nil {
			result = *row.Result
		}
		rows = append(rows, map[string]string{
			"NIS":     row.StudentNIS,
			"Name":    row.StudentName,
			"Status":  string(row.Status.Normalize()),
			"Result":  result,
			"Updated": row.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	dataset := export.Dataset{
		Headers: []string{"NIS", "Name", "Status", "Result", "Updated"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Daftar Siswa %s - %s", students[0].ClassName, students[0].CampaignTitle)
	return s.render(dataset, title, classCampaignID, format)
}

func (s *ExportService) render(dataset export.Dataset, title, id string, format ExportFormat) (*ExportFile, error) {
	timestamp := time.Now().UTC().Format("20060102_150405")
	switch format {
	case FormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("recap_%s_%s.csv", sanitizeFilename(id), timestamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case FormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("recap_%s_%s.pdf", sanitizeFilename(id), timestamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
