package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uks-adp-api/internal/models"
	"github.com/noah-isme/uks-adp-api/internal/repository"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
)

type mockClassCampaignRepo struct {
	assocs    map[string]models.ClassCampaign
	pairs     map[string]bool
	created   *models.ClassCampaign
	createErr error
	deleted   []string
}

func pairKey(campaignID, classID string) string { return campaignID + "|" + classID }

func (m *mockClassCampaignRepo) Exists(ctx context.Context, campaignID, classID string) (bool, error) {
	return m.pairs[pairKey(campaignID, classID)], nil
}

func (m *mockClassCampaignRepo) Create(ctx context.Context, assoc *models.ClassCampaign) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.assocs == nil {
		m.assocs = make(map[string]models.ClassCampaign)
	}
	if assoc.ID == "" {
		assoc.ID = "cc-new"
	}
	m.assocs[assoc.ID] = *assoc
	m.created = assoc
	return nil
}

func (m *mockClassCampaignRepo) FindByID(ctx context.Context, id string) (*models.ClassCampaign, error) {
	if a, ok := m.assocs[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassCampaignRepo) List(ctx context.Context) ([]models.ClassCampaignDetail, error) {
	out := make([]models.ClassCampaignDetail, 0, len(m.assocs))
	for _, a := range m.assocs {
		out = append(out, models.ClassCampaignDetail{ClassCampaign: a})
	}
	return out, nil
}

func (m *mockClassCampaignRepo) FindByCampaign(ctx context.Context, campaignID string) ([]models.ClassCampaign, error) {
	var out []models.ClassCampaign
	for _, a := range m.assocs {
		if a.CampaignID == campaignID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockClassCampaignRepo) FindByClass(ctx context.Context, classID string) ([]models.ClassCampaignDetail, error) {
	var out []models.ClassCampaignDetail
	for _, a := range m.assocs {
		if a.ClassID == classID {
			out = append(out, models.ClassCampaignDetail{ClassCampaign: a})
		}
	}
	return out, nil
}

func (m *mockClassCampaignRepo) Update(ctx context.Context, id string, patch models.ClassCampaignPatch) error {
	a, ok := m.assocs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.ClassName != nil {
		a.ClassName = *patch.ClassName
	}
	if patch.GradeLevel != nil {
		a.GradeLevel = *patch.GradeLevel
	}
	m.assocs[id] = a
	return nil
}

func (m *mockClassCampaignRepo) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := m.assocs[id]; !ok {
		return 0, nil
	}
	delete(m.assocs, id)
	m.deleted = append(m.deleted, id)
	return 1, nil
}

func (m *mockClassCampaignRepo) DeleteByCampaign(ctx context.Context, campaignID string) (int64, error) {
	var n int64
	for id, a := range m.assocs {
		if a.CampaignID == campaignID {
			delete(m.assocs, id)
			n++
		}
	}
	return n, nil
}

func (m *mockClassCampaignRepo) DeleteByClass(ctx context.Context, classID string) (int64, error) {
	var n int64
	for id, a := range m.assocs {
		if a.ClassID == classID {
			delete(m.assocs, id)
			n++
		}
	}
	return n, nil
}

type mockCampaignReader struct {
	campaigns map[string]*models.Campaign
}

func (m *mockCampaignReader) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	if c, ok := m.campaigns[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type mockClassReader struct {
	classes map[string]*models.Class
}

func (m *mockClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newCampaignClassService(repo *mockClassCampaignRepo, campaigns *mockCampaignReader, classes *mockClassReader) *CampaignClassService {
	return NewCampaignClassService(repo, campaigns, classes, nil, nil)
}

func TestCampaignClassCreateSnapshotsClass(t *testing.T) {
	repo := &mockClassCampaignRepo{}
	campaigns := &mockCampaignReader{campaigns: map[string]*models.Campaign{"camp-1": {ID: "camp-1"}}}
	classes := &mockClassReader{classes: map[string]*models.Class{"class-1": {ID: "class-1", Name: "7A", Grade: "7"}}}
	svc := newCampaignClassService(repo, campaigns, classes)

	assoc, err := svc.Create(context.Background(), CreateClassCampaignRequest{CampaignID: "camp-1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, "7A", assoc.ClassName)
	assert.Equal(t, "7", assoc.GradeLevel)
	require.NotNil(t, repo.created)
}

func TestCampaignClassCreateUnknownCampaign(t *testing.T) {
	svc := newCampaignClassService(&mockClassCampaignRepo{}, &mockCampaignReader{}, &mockClassReader{})

	_, err := svc.Create(context.Background(), CreateClassCampaignRequest{CampaignID: "nope", ClassID: "class-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCampaignClassCreateDuplicatePair(t *testing.T) {
	repo := &mockClassCampaignRepo{pairs: map[string]bool{pairKey("camp-1", "class-1"): true}}
	campaigns := &mockCampaignReader{campaigns: map[string]*models.Campaign{"camp-1": {ID: "camp-1"}}}
	classes := &mockClassReader{classes: map[string]*models.Class{"class-1": {ID: "class-1", Name: "7A"}}}
	svc := newCampaignClassService(repo, campaigns, classes)

	_, err := svc.Create(context.Background(), CreateClassCampaignRequest{CampaignID: "camp-1", ClassID: "class-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCampaignClassCreateRaceLosesToUniqueIndex(t *testing.T) {
	repo := &mockClassCampaignRepo{createErr: repository.ErrDuplicate}
	campaigns := &mockCampaignReader{campaigns: map[string]*models.Campaign{"camp-1": {ID: "camp-1"}}}
	classes := &mockClassReader{classes: map[string]*models.Class{"class-1": {ID: "class-1"}}}
	svc := newCampaignClassService(repo, campaigns, classes)

	_, err := svc.Create(context.Background(), CreateClassCampaignRequest{CampaignID: "camp-1", ClassID: "class-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCampaignClassRemoveMissing(t *testing.T) {
	svc := newCampaignClassService(&mockClassCampaignRepo{}, &mockCampaignReader{}, &mockClassReader{})

	err := svc.Remove(context.Background(), "unknown")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCampaignClassUpdatePatchesDisplayFields(t *testing.T) {
	repo := &mockClassCampaignRepo{assocs: map[string]models.ClassCampaign{
		"cc-1": {ID: "cc-1", CampaignID: "camp-1", ClassID: "class-1", ClassName: "7A"},
	}}
	svc := newCampaignClassService(repo, &mockCampaignReader{}, &mockClassReader{})

	newName := "7B"
	assoc, err := svc.Update(context.Background(), "cc-1", models.ClassCampaignPatch{ClassName: &newName})
	require.NoError(t, err)
	assert.Equal(t, "7B", assoc.ClassName)
}
