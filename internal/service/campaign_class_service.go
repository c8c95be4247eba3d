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

type classCampaignRepository interface {
	Exists(ctx context.Context, campaignID, classID string) (bool, error)
	Create(ctx context.Context, assoc *models.ClassCampaign) error
	FindByID(ctx context.Context, id string) (*models.ClassCampaign, error)
	List(ctx context.Context) ([]models.ClassCampaignDetail, error)
	FindByCampaign(ctx context.Context, campaignID string) ([]models.ClassCampaign, error)
	FindByClass(ctx context.Context, classID string) ([]models.ClassCampaignDetail, error)
	Update(ctx context.Context, id string, patch models.ClassCampaignPatch) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByCampaign(ctx context.Context, campaignID string) (int64, error)
	DeleteByClass(ctx context.Context, classID string) (int64, error)
}

type campaignReader interface {
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// CreateClassCampaignRequest describes the association creation payload.
type CreateClassCampaignRequest struct {
	CampaignID string `json:"campaign_id" validate:"required"`
	ClassID    string `json:"class_id" validate:"required"`
}

// CampaignClassService manages which classes participate in a campaign.
type CampaignClassService struct {
	repo      classCampaignRepository
	campaigns campaignReader
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCampaignClassService constructs CampaignClassService.
func NewCampaignClassService(repo classCampaignRepository, campaigns campaignReader, classes classReader, validate *validator.Validate, logger *zap.Logger) *CampaignClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignClassService{repo: repo, campaigns: campaigns, classes: classes, validator: validate, logger: logger}
}

// Create associates a class with a campaign. At most one association may exist
// per (campaign, class) pair.
func (s *CampaignClassService) Create(ctx context.Context, req CreateClassCampaignRequest) (*models.ClassCampaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class campaign payload")
	}
	if _, err := s.campaigns.FindByID(ctx, req.CampaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	exists, err := s.repo.Exists(ctx, req.CampaignID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate class campaign")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class already associated with campaign")
	}
	assoc := &models.ClassCampaign{
		CampaignID: req.CampaignID,
		ClassID:    class.ID,
		ClassName:  class.Name,
		GradeLevel: class.Grade,
	}
	if err := s.repo.Create(ctx, assoc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class already associated with campaign")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class campaign")
	}
	return assoc, nil
}

// List returns every association with campaign context.
func (s *CampaignClassService) List(ctx context.Context) ([]models.ClassCampaignDetail, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class campaigns")
	}
	return rows, nil
}

// FindByCampaign returns the classes participating in one campaign.
func (s *CampaignClassService) FindByCampaign(ctx context.Context, campaignID string) ([]models.ClassCampaign, error) {
	rows, err := s.repo.FindByCampaign(ctx, campaignID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaign classes")
	}
	return rows, nil
}

// FindByClass returns the campaigns one class participates in.
func (s *CampaignClassService) FindByClass(ctx context.Context, classID string) ([]models.ClassCampaignDetail, error) {
	rows, err := s.repo.FindByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class participations")
	}
	return rows, nil
}

// Get returns one association by id.
func (s *CampaignClassService) Get(ctx context.Context, id string) (*models.ClassCampaign, error) {
	assoc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class campaign")
	}
	return assoc, nil
}

// Update applies a partial update to the denormalized display fields.
func (s *CampaignClassService) Update(ctx context.Context, id string, patch models.ClassCampaignPatch) (*models.ClassCampaign, error) {
	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class campaign")
	}
	return s.Get(ctx, id)
}

// Remove hard-deletes one association.
func (s *CampaignClassService) Remove(ctx context.Context, id string) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class campaign")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "class campaign not found")
	}
	return nil
}

// RemoveByCampaign cascades deletion of all associations under a campaign.
func (s *CampaignClassService) RemoveByCampaign(ctx context.Context, campaignID string) (int64, error) {
	count, err := s.repo.DeleteByCampaign(ctx, campaignID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete campaign classes")
	}
	return count, nil
}

// RemoveByClass cascades deletion of all associations of a class.
func (s *CampaignClassService) RemoveByClass(ctx context.Context, classID string) (int64, error) {
	count, err := s.repo.DeleteByClass(ctx, classID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class participations")
	}
	return count, nil
}
