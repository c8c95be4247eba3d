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

// CampaignStudentRepository persists per-student participation rows and computes
// the derived status aggregates. Counts are always read live from child rows;
// there is no stored counter anywhere.
type CampaignStudentRepository struct {
	db *sqlx.DB
}

// NewCampaignStudentRepository constructs the repository.
func NewCampaignStudentRepository(db *sqlx.DB) *CampaignStudentRepository {
	return &CampaignStudentRepository{db: db}
}

const campaignStudentColumns = `cs.id, cs.class_campaign_id, cs.student_id, cs.status, cs.parent_notes, cs.rejection_reason,
        cs.result, cs.notes, cs.recommendations, cs.follow_up_required, cs.follow_up_date, cs.created_at, cs.updated_at`

const campaignStudentDetailQuery = `SELECT ` + campaignStudentColumns + `,
        s.full_name AS student_name, s.nis AS student_nis,
        cc.class_id, cc.class_name,
        cc.campaign_id, cp.title AS campaign_title, cp.category, cp.scheduled_date
        FROM campaign_students cs
        JOIN class_campaigns cc ON cc.id = cs.class_campaign_id
        JOIN campaigns cp ON cp.id = cc.campaign_id
        JOIN students s ON s.id = cs.student_id`

// Legacy AGREED rows count as approved wherever status is classified.
const statusCountColumns = `COUNT(cs.id) AS total_students,
        COUNT(cs.id) FILTER (WHERE UPPER(cs.status) IN ('APPROVED', 'AGREED')) AS approved_count,
        COUNT(cs.id) FILTER (WHERE UPPER(cs.status) = 'PENDING') AS pending_count,
        COUNT(cs.id) FILTER (WHERE UPPER(cs.status) = 'REJECTED') AS rejected_count,
        COUNT(cs.id) FILTER (WHERE UPPER(cs.status) = 'COMPLETED') AS completed_count`

// Exists reports whether a participation row exists for the pair.
func (r *CampaignStudentRepository) Exists(ctx context.Context, classCampaignID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM campaign_students WHERE class_campaign_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classCampaignID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check campaign student: %w", err)
	}
	return true, nil
}

// Create persists a single participation row.
func (r *CampaignStudentRepository) Create(ctx context.Context, row *models.CampaignStudent) error {
	prepareCampaignStudent(row)
	const query = `INSERT INTO campaign_students (id, class_campaign_id, student_id, status, parent_notes, rejection_reason,
        result, notes, recommendations, follow_up_required, follow_up_date, created_at, updated_at)
        VALUES (:id, :class_campaign_id, :student_id, :status, :parent_notes, :rejection_reason,
        :result, :notes, :recommendations, :follow_up_required, :follow_up_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create campaign student: %w", err)
	}
	return nil
}

// BulkCreate inserts the fan-out rows inside one transaction using
// insert-if-absent on the (class_campaign_id, student_id) key, so re-applying
// a fan-out is idempotent and never fails on overlap. Returns the rows that
// were actually inserted.
func (r *CampaignStudentRepository) BulkCreate(ctx context.Context, rows []models.CampaignStudent) ([]models.CampaignStudent, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin fan-out tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO campaign_students (id, class_campaign_id, student_id, status, parent_notes, rejection_reason,
        result, notes, recommendations, follow_up_required, follow_up_date, created_at, updated_at)
        VALUES (:id, :class_campaign_id, :student_id, :status, :parent_notes, :rejection_reason,
        :result, :notes, :recommendations, :follow_up_required, :follow_up_date, :created_at, :updated_at)
        ON CONFLICT (class_campaign_id, student_id) DO NOTHING`

	created := make([]models.CampaignStudent, 0, len(rows))
	for i := range rows {
		prepareCampaignStudent(&rows[i])
		res, err := tx.NamedExecContext(ctx, query, rows[i])
		if err != nil {
			return nil, fmt.Errorf("bulk create campaign student: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("bulk create rows affected: %w", err)
		}
		if affected > 0 {
			created = append(created, rows[i])
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit fan-out tx: %w", err)
	}
	return created, nil
}

func prepareCampaignStudent(row *models.CampaignStudent) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.Status == "" {
		row.Status = models.StatusPending
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
}

// FindByID returns a bare participation row.
func (r *CampaignStudentRepository) FindByID(ctx context.Context, id string) (*models.CampaignStudent, error) {
	const query = `SELECT id, class_campaign_id, student_id, status, parent_notes, rejection_reason,
        result, notes, recommendations, follow_up_required, follow_up_date, created_at, updated_at
        FROM campaign_students WHERE id = $1`
	var row models.CampaignStudent
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// FindDetailByID returns a participation row with student and campaign context.
func (r *CampaignStudentRepository) FindDetailByID(ctx context.Context, id string) (*models.CampaignStudentDetail, error) {
	query := campaignStudentDetailQuery + ` WHERE cs.id = $1`
	var detail models.CampaignStudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns every participation row with joined context.
func (r *CampaignStudentRepository) List(ctx context.Context) ([]models.CampaignStudentDetail, error) {
	query := campaignStudentDetailQuery + ` ORDER BY cs.created_at DESC`
	var rows []models.CampaignStudentDetail
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list campaign students: %w", err)
	}
	return rows, nil
}

// FindByClassCampaign returns the rows of one class within one campaign.
func (r *CampaignStudentRepository) FindByClassCampaign(ctx context.Context, classCampaignID string) ([]models.CampaignStudentDetail, error) {
	query := campaignStudentDetailQuery + ` WHERE cs.class_campaign_id = $1 ORDER BY s.full_name`
	var rows []models.CampaignStudentDetail
	if err := r.db.SelectContext(ctx, &rows, query, classCampaignID); err != nil {
		return nil, fmt.Errorf("find campaign students by class campaign: %w", err)
	}
	return rows, nil
}

// FindByStudent returns every participation row of one student.
func (r *CampaignStudentRepository) FindByStudent(ctx context.Context, studentID string) ([]models.CampaignStudentDetail, error) {
	query := campaignStudentDetailQuery + ` WHERE cs.student_id = $1 ORDER BY cp.scheduled_date DESC`
	var rows []models.CampaignStudentDetail
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("find campaign students by student: %w", err)
	}
	return rows, nil
}

// FindByStudentAndStatus filters one student's rows by classified status.
func (r *CampaignStudentRepository) FindByStudentAndStatus(ctx context.Context, studentID string, status models.ParticipationStatus) ([]models.CampaignStudentDetail, error) {
	query := campaignStudentDetailQuery + ` WHERE cs.student_id = $1 AND (UPPER(cs.status) = $2 OR ($2 = 'APPROVED' AND UPPER(cs.status) = 'AGREED')) ORDER BY cp.scheduled_date DESC`
	var rows []models.CampaignStudentDetail
	if err := r.db.SelectContext(ctx, &rows, query, studentID, string(status.Normalize())); err != nil {
		return nil, fmt.Errorf("find campaign students by student and status: %w", err)
	}
	return rows, nil
}

// FindByStatus returns rows classified under the given status.
func (r *CampaignStudentRepository) FindByStatus(ctx context.Context, status models.ParticipationStatus) ([]models.CampaignStudentDetail, error) {
	query := campaignStudentDetailQuery + ` WHERE (UPPER(cs.status) = $1 OR ($1 = 'APPROVED' AND UPPER(cs.status) = 'AGREED')) ORDER BY cs.updated_at DESC`
	var rows []models.CampaignStudentDetail
	if err := r.db.SelectContext(ctx, &rows, query, string(status.Normalize())); err != nil {
		return nil, fmt.Errorf("find campaign students by status: %w", err)
	}
	return rows, nil
}

// UpdateStatus applies a status transition; reason populates rejection_reason.
func (r *CampaignStudentRepository) UpdateStatus(ctx context.Context, id string, status models.ParticipationStatus, reason *string) error {
	const query = `UPDATE campaign_students SET status = $2, rejection_reason = COALESCE($3, rejection_reason), updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("update campaign student status: %w", err)
	}
	return nil
}

// UpdateResult stores the clinical fields and moves the row to COMPLETED.
func (r *CampaignStudentRepository) UpdateResult(ctx context.Context, id string, result, notes, recommendations *string, followUpRequired bool, followUpDate *time.Time) error {
	const query = `UPDATE campaign_students
        SET status = $2, result = $3, notes = $4, recommendations = $5, follow_up_required = $6, follow_up_date = $7, updated_at = $8
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.StatusCompleted, result, notes, recommendations, followUpRequired, followUpDate, time.Now().UTC()); err != nil {
		return fmt.Errorf("update campaign student result: %w", err)
	}
	return nil
}

// Update applies a partial update to the free-form fields.
func (r *CampaignStudentRepository) Update(ctx context.Context, id string, patch models.CampaignStudentPatch) error {
	row, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if patch.ParentNotes != nil {
		row.ParentNotes = patch.ParentNotes
	}
	if patch.RejectionReason != nil {
		row.RejectionReason = patch.RejectionReason
	}
	if patch.Result != nil {
		row.Result = patch.Result
	}
	if patch.Notes != nil {
		row.Notes = patch.Notes
	}
	if patch.Recommendations != nil {
		row.Recommendations = patch.Recommendations
	}
	if patch.FollowUpRequired != nil {
		row.FollowUpRequired = *patch.FollowUpRequired
	}
	if patch.FollowUpDate != nil {
		row.FollowUpDate = patch.FollowUpDate
	}
	row.UpdatedAt = time.Now().UTC()
	const query = `UPDATE campaign_students SET parent_notes = :parent_notes, rejection_reason = :rejection_reason,
        result = :result, notes = :notes, recommendations = :recommendations,
        follow_up_required = :follow_up_required, follow_up_date = :follow_up_date, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update campaign student: %w", err)
	}
	return nil
}

// Delete removes one participation row; returns the number of rows removed.
func (r *CampaignStudentRepository) Delete(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM campaign_students WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete campaign student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete campaign student rows affected: %w", err)
	}
	return affected, nil
}

// DeleteByClassCampaign removes all rows of a class campaign, used for cascades.
func (r *CampaignStudentRepository) DeleteByClassCampaign(ctx context.Context, classCampaignID string) (int64, error) {
	const query = `DELETE FROM campaign_students WHERE class_campaign_id = $1`
	res, err := r.db.ExecContext(ctx, query, classCampaignID)
	if err != nil {
		return 0, fmt.Errorf("delete campaign students by class campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete campaign students rows affected: %w", err)
	}
	return affected, nil
}

// DeleteByStudent removes all rows of a student, used for cascades.
func (r *CampaignStudentRepository) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	const query = `DELETE FROM campaign_students WHERE student_id = $1`
	res, err := r.db.ExecContext(ctx, query, studentID)
	if err != nil {
		return 0, fmt.Errorf("delete campaign students by student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete campaign students rows affected: %w", err)
	}
	return affected, nil
}

// DeleteByCampaign removes every participation row under a campaign.
func (r *CampaignStudentRepository) DeleteByCampaign(ctx context.Context, campaignID string) (int64, error) {
	const query = `DELETE FROM campaign_students cs USING class_campaigns cc
        WHERE cs.class_campaign_id = cc.id AND cc.campaign_id = $1`
	res, err := r.db.ExecContext(ctx, query, campaignID)
	if err != nil {
		return 0, fmt.Errorf("delete campaign students by campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete campaign students rows affected: %w", err)
	}
	return affected, nil
}

// CountNonPending returns the number of rows under a campaign that have left
// PENDING; campaign deletion is refused while this is non-zero.
func (r *CampaignStudentRepository) CountNonPending(ctx context.Context, campaignID string) (int, error) {
	const query = `SELECT COUNT(cs.id) FROM campaign_students cs
        JOIN class_campaigns cc ON cc.id = cs.class_campaign_id
        WHERE cc.campaign_id = $1 AND UPPER(cs.status) <> 'PENDING'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, campaignID); err != nil {
		return 0, fmt.Errorf("count non-pending campaign students: %w", err)
	}
	return count, nil
}

// EventSummaries returns one row per campaign with live aggregated counts.
func (r *CampaignStudentRepository) EventSummaries(ctx context.Context) ([]models.EventSummary, error) {
	query := `SELECT cp.id AS campaign_id, cp.title, cp.description, cp.scheduled_date, cp.scheduled_time,
        cp.location, cp.doctor_name, cp.category,
        ` + statusCountColumns + `
        FROM campaigns cp
        LEFT JOIN class_campaigns cc ON cc.campaign_id = cp.id
        LEFT JOIN campaign_students cs ON cs.class_campaign_id = cc.id
        GROUP BY cp.id, cp.title, cp.description, cp.scheduled_date, cp.scheduled_time, cp.location, cp.doctor_name, cp.category
        ORDER BY cp.scheduled_date DESC`
	var rows []models.EventSummary
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("aggregate event summaries: %w", err)
	}
	return rows, nil
}

// EventSummary returns the aggregated counts of one campaign.
func (r *CampaignStudentRepository) EventSummary(ctx context.Context, campaignID string) (*models.EventSummary, error) {
	query := `SELECT cp.id AS campaign_id, cp.title, cp.description, cp.scheduled_date, cp.scheduled_time,
        cp.location, cp.doctor_name, cp.category,
        ` + statusCountColumns + `
        FROM campaigns cp
        LEFT JOIN class_campaigns cc ON cc.campaign_id = cp.id
        LEFT JOIN campaign_students cs ON cs.class_campaign_id = cc.id
        WHERE cp.id = $1
        GROUP BY cp.id, cp.title, cp.description, cp.scheduled_date, cp.scheduled_time, cp.location, cp.doctor_name, cp.category`
	var summary models.EventSummary
	if err := r.db.GetContext(ctx, &summary, query, campaignID); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ClassSummaries returns the per-class breakdown of one campaign.
func (r *CampaignStudentRepository) ClassSummaries(ctx context.Context, campaignID string) ([]models.ClassSummary, error) {
	query := `SELECT cc.id AS class_campaign_id, cc.class_id, cc.class_name, cc.grade_level,
        ` + statusCountColumns + `
        FROM class_campaigns cc
        LEFT JOIN campaign_students cs ON cs.class_campaign_id = cc.id
        WHERE cc.campaign_id = $1
        GROUP BY cc.id, cc.class_id, cc.class_name, cc.grade_level
        ORDER BY cc.class_name`
	var rows []models.ClassSummary
	if err := r.db.SelectContext(ctx, &rows, query, campaignID); err != nil {
		return nil, fmt.Errorf("aggregate class summaries: %w", err)
	}
	return rows, nil
}
