package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uks-adp-api/internal/models"
	"github.com/noah-isme/uks-adp-api/internal/repository"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
)

type campaignStudentRepository interface {
	Exists(ctx context.Context, classCampaignID, studentID string) (bool, error)
	Create(ctx context.Context, row *models.CampaignStudent) error
	BulkCreate(ctx context.Context, rows []models.CampaignStudent) ([]models.CampaignStudent, error)
	FindByID(ctx context.Context, id string) (*models.CampaignStudent, error)
	FindDetailByID(ctx context.Context, id string) (*models.CampaignStudentDetail, error)
	List(ctx context.Context) ([]models.CampaignStudentDetail, error)
	FindByClassCampaign(ctx context.Context, classCampaignID string) ([]models.CampaignStudentDetail, error)
	FindByStudent(ctx context.Context, studentID string) ([]models.CampaignStudentDetail, error)
	FindByStatus(ctx context.Context, status models.ParticipationStatus) ([]models.CampaignStudentDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.ParticipationStatus, reason *string) error
	Update(ctx context.Context, id string, patch models.CampaignStudentPatch) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByClassCampaign(ctx context.Context, classCampaignID string) (int64, error)
	DeleteByStudent(ctx context.Context, studentID string) (int64, error)
}

type classCampaignReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassCampaign, error)
}

// CreateCampaignStudentRequest describes a single participation row payload.
type CreateCampaignStudentRequest struct {
	ClassCampaignID string  `json:"class_campaign_id" validate:"required"`
	StudentID       string  `json:"student_id" validate:"required"`
	ParentNotes     *string `json:"parent_notes,omitempty"`
}

// BatchCreateResult reports the fan-out outcome: rows that already existed are
// skipped, not failed.
type BatchCreateResult struct {
	Created int                      `json:"created"`
	Data    []models.CampaignStudent `json:"data"`
}

// CampaignStudentService manages individual participation rows and their
// status lifecycle.
type CampaignStudentService struct {
	repo           campaignStudentRepository
	classCampaigns classCampaignReader
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewCampaignStudentService constructs CampaignStudentService.
func NewCampaignStudentService(repo campaignStudentRepository, classCampaigns classCampaignReader, validate *validator.Validate, logger *zap.Logger) *CampaignStudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignStudentService{repo: repo, classCampaigns: classCampaigns, validator: validate, logger: logger}
}

// Create registers one student into a class campaign in PENDING state.
func (s *CampaignStudentService) Create(ctx context.Context, req CreateCampaignStudentRequest) (*models.CampaignStudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign student payload")
	}
	if _, err := s.classCampaigns.FindByID(ctx, req.ClassCampaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class campaign")
	}
	exists, err := s.repo.Exists(ctx, req.ClassCampaignID, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate campaign student")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered in class campaign")
	}
	row := &models.CampaignStudent{
		ClassCampaignID: req.ClassCampaignID,
		StudentID:       req.StudentID,
		Status:          models.StatusPending,
		ParentNotes:     req.ParentNotes,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered in class campaign")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign student")
	}
	detail, err := s.repo.FindDetailByID(ctx, row.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign student detail")
	}
	return detail, nil
}

// BatchCreate is the fan-out primitive. Duplicate pairs are skipped so the
// batch can be re-applied idempotently; the whole batch runs inside one
// storage transaction.
func (s *CampaignStudentService) BatchCreate(ctx context.Context, reqs []CreateCampaignStudentRequest) (*BatchCreateResult, error) {
	rows := make([]models.CampaignStudent, 0, len(reqs))
	for _, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign student payload")
		}
		rows = append(rows, models.CampaignStudent{
			ClassCampaignID: req.ClassCampaignID,
			StudentID:       req.StudentID,
			Status:          models.StatusPending,
			ParentNotes:     req.ParentNotes,
		})
	}
	created, err := s.repo.BulkCreate(ctx, rows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to batch create campaign students")
	}
	return &BatchCreateResult{Created: len(created), Data: created}, nil
}

// List returns every participation row with joined context.
func (s *CampaignStudentService) List(ctx context.Context) ([]models.CampaignStudentDetail, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaign students")
	}
	return rows, nil
}

// FindByClassCampaign returns the rows of one class campaign.
func (s *CampaignStudentService) FindByClassCampaign(ctx context.Context, classCampaignID string) ([]models.CampaignStudentDetail, error) {
	rows, err := s.repo.FindByClassCampaign(ctx, classCampaignID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class campaign students")
	}
	return rows, nil
}

// FindByStudent returns every participation row of one student.
func (s *CampaignStudentService) FindByStudent(ctx context.Context, studentID string) ([]models.CampaignStudentDetail, error) {
	rows, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student participations")
	}
	return rows, nil
}

// FindByStatus returns rows classified under the given status.
func (s *CampaignStudentService) FindByStatus(ctx context.Context, status models.ParticipationStatus) ([]models.CampaignStudentDetail, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown participation status")
	}
	rows, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaign students by status")
	}
	return rows, nil
}

// Get returns one participation row with joined context.
func (s *CampaignStudentService) Get(ctx context.Context, id string) (*models.CampaignStudentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign student")
	}
	return detail, nil
}

// Update applies a partial update to the free-form fields.
func (s *CampaignStudentService) Update(ctx context.Context, id string, patch models.CampaignStudentPatch) (*models.CampaignStudentDetail, error) {
	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update campaign student")
	}
	return s.Get(ctx, id)
}

// UpdateStatus performs a guarded status transition. The transition table in
// models is the only authority on which moves are legal; terminal rows are
// never silently overwritten.
func (s *CampaignStudentService) UpdateStatus(ctx context.Context, id string, status models.ParticipationStatus, reason *string) (*models.CampaignStudentDetail, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown participation status")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign student")
	}
	if !row.Status.CanTransitionTo(status) {
		if row.Status.Terminal() {
			return nil, appErrors.Clone(appErrors.ErrFinalized, "participation already finalized")
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "illegal status transition")
	}
	if err := s.repo.UpdateStatus(ctx, id, status.Normalize(), reason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update campaign student status")
	}
	return s.Get(ctx, id)
}

// Remove hard-deletes one participation row.
func (s *CampaignStudentService) Remove(ctx context.Context, id string) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete campaign student")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "campaign student not found")
	}
	return nil
}

// RemoveByClassCampaign cascades deletion for one class campaign.
func (s *CampaignStudentService) RemoveByClassCampaign(ctx context.Context, classCampaignID string) (int64, error) {
	count, err := s.repo.DeleteByClassCampaign(ctx, classCampaignID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class campaign students")
	}
	return count, nil
}

// RemoveByStudent cascades deletion for one student.
func (s *CampaignStudentService) RemoveByStudent(ctx context.Context, studentID string) (int64, error) {
	count, err := s.repo.DeleteByStudent(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student participations")
	}
	return count, nil
}
