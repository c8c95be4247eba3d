package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uks-adp-api/internal/models"
)

// StudentRepository reads the student directory to resolve fan-out targets.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailQuery = `SELECT s.id, s.nis, s.full_name, s.class_id, s.guardian_name, s.guardian_phone, s.active, s.created_at,
        c.name AS class_name, c.grade AS grade_level
        FROM students s
        JOIN classes c ON c.id = s.class_id`

// FindByID returns a student with class context.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := studentDetailQuery + ` WHERE s.id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByIDs resolves an explicit target list; unknown ids are silently absent
// from the result.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.StudentDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := studentDetailQuery + fmt.Sprintf(" WHERE s.active AND s.id IN (%s) ORDER BY s.full_name", strings.Join(placeholders, ","))
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	return students, nil
}

// ListByGrade resolves all active students enrolled in classes of one grade.
func (r *StudentRepository) ListByGrade(ctx context.Context, grade string) ([]models.StudentDetail, error) {
	query := studentDetailQuery + ` WHERE s.active AND c.grade = $1 ORDER BY c.name, s.full_name`
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, grade); err != nil {
		return nil, fmt.Errorf("list students by grade: %w", err)
	}
	return students, nil
}
