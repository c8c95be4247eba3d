package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uks-adp-api/internal/models"
)

// ClassCampaignRepository persists campaign ↔ class associations.
type ClassCampaignRepository struct {
	db *sqlx.DB
}

// NewClassCampaignRepository constructs the repository.
func NewClassCampaignRepository(db *sqlx.DB) *ClassCampaignRepository {
	return &ClassCampaignRepository{db: db}
}

// Exists reports whether an association for the (campaign, class) pair exists.
func (r *ClassCampaignRepository) Exists(ctx context.Context, campaignID, classID string) (bool, error) {
	const query = `SELECT 1 FROM class_campaigns WHERE campaign_id = $1 AND class_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, campaignID, classID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class campaign: %w", err)
	}
	return true, nil
}

// Create persists a new association. The unique index on (campaign_id, class_id)
// backstops concurrent creates; violations surface as ErrDuplicate.
func (r *ClassCampaignRepository) Create(ctx context.Context, assoc *models.ClassCampaign) error {
	if assoc.ID == "" {
		assoc.ID = uuid.NewString()
	}
	if assoc.CreatedAt.IsZero() {
		assoc.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO class_campaigns (id, campaign_id, class_id, class_name, grade_level, created_at)
        VALUES (:id, :campaign_id, :class_id, :class_name, :grade_level, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assoc); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create class campaign: %w", err)
	}
	return nil
}

// FindByID returns an association by its ID.
func (r *ClassCampaignRepository) FindByID(ctx context.Context, id string) (*models.ClassCampaign, error) {
	const query = `SELECT id, campaign_id, class_id, class_name, grade_level, created_at FROM class_campaigns WHERE id = $1`
	var assoc models.ClassCampaign
	if err := r.db.GetContext(ctx, &assoc, query, id); err != nil {
		return nil, err
	}
	return &assoc, nil
}

// List returns all associations joined with campaign display fields.
func (r *ClassCampaignRepository) List(ctx context.Context) ([]models.ClassCampaignDetail, error) {
	const query = `SELECT cc.id, cc.campaign_id, cc.class_id, cc.class_name, cc.grade_level, cc.created_at,
        cp.title AS campaign_title, cp.category AS campaign_category, cp.scheduled_date
        FROM class_campaigns cc
        JOIN campaigns cp ON cp.id = cc.campaign_id
        ORDER BY cc.created_at DESC`
	var rows []models.ClassCampaignDetail
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list class campaigns: %w", err)
	}
	return rows, nil
}

// FindByCampaign returns the associations belonging to one campaign.
func (r *ClassCampaignRepository) FindByCampaign(ctx context.Context, campaignID string) ([]models.ClassCampaign, error) {
	const query = `SELECT id, campaign_id, class_id, class_name, grade_level, created_at FROM class_campaigns WHERE campaign_id = $1 ORDER BY class_name`
	var rows []models.ClassCampaign
	if err := r.db.SelectContext(ctx, &rows, query, campaignID); err != nil {
		return nil, fmt.Errorf("find class campaigns by campaign: %w", err)
	}
	return rows, nil
}

// FindByClass returns the associations a class participates in.
func (r *ClassCampaignRepository) FindByClass(ctx context.Context, classID string) ([]models.ClassCampaignDetail, error) {
	const query = `SELECT cc.id, cc.campaign_id, cc.class_id, cc.class_name, cc.grade_level, cc.created_at,
        cp.title AS campaign_title, cp.category AS campaign_category, cp.scheduled_date
        FROM class_campaigns cc
        JOIN campaigns cp ON cp.id = cc.campaign_id
        WHERE cc.class_id = $1
        ORDER BY cp.scheduled_date DESC`
	var rows []models.ClassCampaignDetail
	if err := r.db.SelectContext(ctx, &rows, query, classID); err != nil {
		return nil, fmt.Errorf("find class campaigns by class: %w", err)
	}
	return rows, nil
}

// Update applies a partial update to the denormalized display fields.
func (r *ClassCampaignRepository) Update(ctx context.Context, id string, patch models.ClassCampaignPatch) error {
	assoc, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if patch.ClassName != nil {
		assoc.ClassName = *patch.ClassName
	}
	if patch.GradeLevel != nil {
		assoc.GradeLevel = *patch.GradeLevel
	}
	const query = `UPDATE class_campaigns SET class_name = :class_name, grade_level = :grade_level WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assoc); err != nil {
		return fmt.Errorf("update class campaign: %w", err)
	}
	return nil
}

// Delete removes one association; returns the number of rows removed.
func (r *ClassCampaignRepository) Delete(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM class_campaigns WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete class campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete class campaign rows affected: %w", err)
	}
	return affected, nil
}

// DeleteByCampaign removes all associations of a campaign, used for cascades.
func (r *ClassCampaignRepository) DeleteByCampaign(ctx context.Context, campaignID string) (int64, error) {
	const query = `DELETE FROM class_campaigns WHERE campaign_id = $1`
	res, err := r.db.ExecContext(ctx, query, campaignID)
	if err != nil {
		return 0, fmt.Errorf("delete class campaigns by campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete class campaigns rows affected: %w", err)
	}
	return affected, nil
}

// DeleteByClass removes all associations of a class, used for cascades.
func (r *ClassCampaignRepository) DeleteByClass(ctx context.Context, classID string) (int64, error) {
	const query = `DELETE FROM class_campaigns WHERE class_id = $1`
	res, err := r.db.ExecContext(ctx, query, classID)
	if err != nil {
		return 0, fmt.Errorf("delete class campaigns by class: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete class campaigns rows affected: %w", err)
	}
	return affected, nil
}
