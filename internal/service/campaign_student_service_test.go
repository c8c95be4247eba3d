package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uks-adp-api/internal/models"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
)

type mockCampaignStudentRepo struct {
	rows        map[string]models.CampaignStudent
	statusCalls []models.ParticipationStatus
	nextID      int
}

func (m *mockCampaignStudentRepo) key(classCampaignID, studentID string) string {
	return classCampaignID + "|" + studentID
}

func (m *mockCampaignStudentRepo) Exists(ctx context.Context, classCampaignID, studentID string) (bool, error) {
	for _, row := range m.rows {
		if row.ClassCampaignID == classCampaignID && row.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCampaignStudentRepo) Create(ctx context.Context, row *models.CampaignStudent) error {
	if m.rows == nil {
		m.rows = make(map[string]models.CampaignStudent)
	}
	m.nextID++
	row.ID = fmt.Sprintf("cs-%d", m.nextID)
	m.rows[row.ID] = *row
	return nil
}

func (m *mockCampaignStudentRepo) BulkCreate(ctx context.Context, rows []models.CampaignStudent) ([]models.CampaignStudent, error) {
	if m.rows == nil {
		m.rows = make(map[string]models.CampaignStudent)
	}
	seen := make(map[string]bool)
	for _, row := range m.rows {
		seen[m.key(row.ClassCampaignID, row.StudentID)] = true
	}
	var created []models.CampaignStudent
	for _, row := range rows {
		k := m.key(row.ClassCampaignID, row.StudentID)
		if seen[k] {
			continue
		}
		seen[k] = true
		m.nextID++
		row.ID = fmt.Sprintf("cs-%d", m.nextID)
		m.rows[row.ID] = row
		created = append(created, row)
	}
	return created, nil
}

func (m *mockCampaignStudentRepo) FindByID(ctx context.Context, id string) (*models.CampaignStudent, error) {
	if row, ok := m.rows[id]; ok {
		return &row, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCampaignStudentRepo) FindDetailByID(ctx context.Context, id string) (*models.CampaignStudentDetail, error) {
	if row, ok := m.rows[id]; ok {
		return &models.CampaignStudentDetail{CampaignStudent: row}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCampaignStudentRepo) List(ctx context.Context) ([]models.CampaignStudentDetail, error) {
	out := make([]models.CampaignStudentDetail, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, models.CampaignStudentDetail{CampaignStudent: row})
	}
	return out, nil
}

func (m *mockCampaignStudentRepo) FindByClassCampaign(ctx context.Context, classCampaignID string) ([]models.CampaignStudentDetail, error) {
	var out []models.CampaignStudentDetail
	for _, row := range m.rows {
		if row.ClassCampaignID == classCampaignID {
			out = append(out, models.CampaignStudentDetail{CampaignStudent: row})
		}
	}
	return out, nil
}

func (m *mockCampaignStudentRepo) FindByStudent(ctx context.Context, studentID string) ([]models.CampaignStudentDetail, error) {
	var out []models.CampaignStudentDetail
	for _, row := range m.rows {
		if row.StudentID == studentID {
			out = append(out, models.CampaignStudentDetail{CampaignStudent: row})
		}
	}
	return out, nil
}

func (m *mockCampaignStudentRepo) FindByStatus(ctx context.Context, status models.ParticipationStatus) ([]models.CampaignStudentDetail, error) {
	var out []models.CampaignStudentDetail
	for _, row := range m.rows {
		if row.Status.Normalize() == status.Normalize() {
			out = append(out, models.CampaignStudentDetail{CampaignStudent: row})
		}
	}
	return out, nil
}

func (m *mockCampaignStudentRepo) UpdateStatus(ctx context.Context, id string, status models.ParticipationStatus, reason *string) error {
	row, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	row.Status = status
	row.RejectionReason = reason
	m.rows[id] = row
	m.statusCalls = append(m.statusCalls, status)
	return nil
}

func (m *mockCampaignStudentRepo) Update(ctx context.Context, id string, patch models.CampaignStudentPatch) error {
	row, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.ParentNotes != nil {
		row.ParentNotes = patch.ParentNotes
	}
	if patch.Notes != nil {
		row.Notes = patch.Notes
	}
	m.rows[id] = row
	return nil
}

func (m *mockCampaignStudentRepo) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *mockCampaignStudentRepo) DeleteByClassCampaign(ctx context.Context, classCampaignID string) (int64, error) {
	var n int64
	for id, row := range m.rows {
		if row.ClassCampaignID == classCampaignID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *mockCampaignStudentRepo) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	var n int64
	for id, row := range m.rows {
		if row.StudentID == studentID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type mockClassCampaignReader struct {
	known map[string]bool
}

func (m *mockClassCampaignReader) FindByID(ctx context.Context, id string) (*models.ClassCampaign, error) {
	if m.known[id] {
		return &models.ClassCampaign{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

func newCampaignStudentService(repo *mockCampaignStudentRepo, reader *mockClassCampaignReader) *CampaignStudentService {
	return NewCampaignStudentService(repo, reader, nil, nil)
}

func TestCampaignStudentCreateStartsPending(t *testing.T) {
	repo := &mockCampaignStudentRepo{}
	svc := newCampaignStudentService(repo, &mockClassCampaignReader{known: map[string]bool{"cc-1": true}})

	detail, err := svc.Create(context.Background(), CreateCampaignStudentRequest{ClassCampaignID: "cc-1", StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, detail.Status)
}

func TestCampaignStudentCreateDuplicatePair(t *testing.T) {
	repo := &mockCampaignStudentRepo{rows: map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", ClassCampaignID: "cc-1", StudentID: "stu-1", Status: models.StatusPending},
	}}
	svc := newCampaignStudentService(repo, &mockClassCampaignReader{known: map[string]bool{"cc-1": true}})

	_, err := svc.Create(context.Background(), CreateCampaignStudentRequest{ClassCampaignID: "cc-1", StudentID: "stu-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCampaignStudentBatchCreateSkipsDuplicates(t *testing.T) {
	repo := &mockCampaignStudentRepo{rows: map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", ClassCampaignID: "cc-1", StudentID: "stu-1", Status: models.StatusPending},
	}, nextID: 1}
	svc := newCampaignStudentService(repo, &mockClassCampaignReader{known: map[string]bool{"cc-1": true}})

	result, err := svc.BatchCreate(context.Background(), []CreateCampaignStudentRequest{
		{ClassCampaignID: "cc-1", StudentID: "stu-1"},
		{ClassCampaignID: "cc-1", StudentID: "stu-2"},
		{ClassCampaignID: "cc-1", StudentID: "stu-3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Len(t, repo.rows, 3)
}

func TestCampaignStudentUpdateStatusApprove(t *testing.T) {
	repo := &mockCampaignStudentRepo{rows: map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", ClassCampaignID: "cc-1", StudentID: "stu-1", Status: models.StatusPending},
	}}
	svc := newCampaignStudentService(repo, &mockClassCampaignReader{})

	detail, err := svc.UpdateStatus(context.Background(), "cs-1", models.StatusApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, detail.Status)
}

func TestCampaignStudentUpdateStatusNormalizesAgreed(t *testing.T) {
	repo := &mockCampaignStudentRepo{rows: map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", Status: models.StatusPending},
	}}
	svc := newCampaignStudentService(repo, &mockClassCampaignReader{})

	detail, err := svc.UpdateStatus(context.Background(), "cs-1", models.StatusAgreed, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, detail.Status)
}

func TestCampaignStudentUpdateStatusTerminalRowIsFinalized(t *testing.T) {
	repo := &mockCampaignStudentRepo{rows: map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", Status: models.StatusRejected},
		"cs-2": {ID: "cs-2", Status: models.StatusCompleted},
	}}
	svc := newCampaignStudentService(repo, &mockClassCampaignReader{})

	for _, id := range []string{"cs-1", "cs-2"} {
		_, err := svc.UpdateStatus(context.Background(), id, models.StatusApproved, nil)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.statusCalls)
}

func TestCampaignStudentUpdateStatusIllegalTransition(t *testing.T) {
	repo := &mockCampaignStudentRepo{rows: map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", Status: models.StatusPending},
	}}
	svc := newCampaignStudentService(repo, &mockClassCampaignReader{})

	_, err := svc.UpdateStatus(context.Background(), "cs-1", models.StatusCompleted, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCampaignStudentUpdateStatusUnknownValue(t *testing.T) {
	svc := newCampaignStudentService(&mockCampaignStudentRepo{}, &mockClassCampaignReader{})

	_, err := svc.UpdateStatus(context.Background(), "cs-1", models.ParticipationStatus("MAYBE"), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCampaignStudentFindByStatusMatchesLegacyAgreed(t *testing.T) {
	repo := &mockCampaignStudentRepo{rows: map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", Status: models.StatusAgreed, CreatedAt: time.Now()},
		"cs-2": {ID: "cs-2", Status: models.StatusApproved, CreatedAt: time.Now()},
		"cs-3": {ID: "cs-3", Status: models.StatusPending, CreatedAt: time.Now()},
	}}
	svc := newCampaignStudentService(repo, &mockClassCampaignReader{})

	rows, err := svc.FindByStatus(context.Background(), models.StatusApproved)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
