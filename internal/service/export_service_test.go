package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uks-adp-api/internal/models"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
)

func exportFixture() (*ExportService, *mockScheduleStudentRepo) {
	repo := &mockScheduleStudentRepo{campaignOf: map[string]string{"cc-1": "camp-1"}}
	repo.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", ClassCampaignID: "cc-1", StudentID: "stu-1", Status: models.StatusApproved},
		"cs-2": {ID: "cs-2", ClassCampaignID: "cc-1", StudentID: "stu-2", Status: models.StatusPending},
	}
	return NewExportService(repo, nil, nil, nil), repo
}

func TestEventRecapCSVContainsTotals(t *testing.T) {
	svc, _ := exportFixture()

	file, err := svc.EventRecap(context.Background(), "camp-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "recap_camp-1_"))
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	body := string(file.Payload)
	assert.Contains(t, body, "Class,Grade,Students,Approved,Pending,Rejected,Completed")
	assert.Contains(t, body, "TOTAL")
	assert.Contains(t, body, ",2,1,1,0,0")
}

func TestEventRecapPDFRenders(t *testing.T) {
	svc, _ := exportFixture()

	file, err := svc.EventRecap(context.Background(), "camp-1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.NotEmpty(t, file.Payload)
}

func TestEventRecapUnknownEvent(t *testing.T) {
	svc, _ := exportFixture()

	_, err := svc.EventRecap(context.Background(), "nope", FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEventRecapUnsupportedFormat(t *testing.T) {
	svc, _ := exportFixture()

	_, err := svc.EventRecap(context.Background(), "camp-1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassRosterEmptyClass(t *testing.T) {
	svc, _ := exportFixture()

	_, err := svc.ClassRoster(context.Background(), "cc-empty", FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassRosterCSVNormalizesStatus(t *testing.T) {
	svc, repo := exportFixture()
	repo.rows["cs-3"] = models.CampaignStudent{ID: "cs-3", ClassCampaignID: "cc-1", StudentID: "stu-3", Status: models.StatusAgreed}

	file, err := svc.ClassRoster(context.Background(), "cc-1", FormatCSV)
	require.NoError(t, err)

	body := string(file.Payload)
	assert.Contains(t, body, "APPROVED")
	assert.NotContains(t, body, "AGREED")
}
