package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uks-adp-api/internal/models"
	"github.com/noah-isme/uks-adp-api/internal/repository"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
)

type scheduleCampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type scheduleClassRepository interface {
	FindByCampaign(ctx context.Context, campaignID string) ([]models.ClassCampaign, error)
	Create(ctx context.Context, assoc *models.ClassCampaign) error
	DeleteByCampaign(ctx context.Context, campaignID string) (int64, error)
}

type scheduleStudentRepository interface {
	BulkCreate(ctx context.Context, rows []models.CampaignStudent) ([]models.CampaignStudent, error)
	FindByID(ctx context.Context, id string) (*models.CampaignStudent, error)
	FindDetailByID(ctx context.Context, id string) (*models.CampaignStudentDetail, error)
	List(ctx context.Context) ([]models.CampaignStudentDetail, error)
	FindByClassCampaign(ctx context.Context, classCampaignID string) ([]models.CampaignStudentDetail, error)
	FindByStudentAndStatus(ctx context.Context, studentID string, status models.ParticipationStatus) ([]models.CampaignStudentDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.ParticipationStatus, reason *string) error
	UpdateResult(ctx context.Context, id string, result, notes, recommendations *string, followUpRequired bool, followUpDate *time.Time) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByCampaign(ctx context.Context, campaignID string) (int64, error)
	CountNonPending(ctx context.Context, campaignID string) (int, error)
	EventSummaries(ctx context.Context) ([]models.EventSummary, error)
	EventSummary(ctx context.Context, campaignID string) (*models.EventSummary, error)
	ClassSummaries(ctx context.Context, campaignID string) ([]models.ClassSummary, error)
}

type studentDirectory interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.StudentDetail, error)
	ListByGrade(ctx context.Context, grade string) ([]models.StudentDetail, error)
}

type guardianNotifier interface {
	NotifyScheduleCreated(ctx context.Context, campaign *models.Campaign, students []models.StudentDetail)
}

// CreateScheduleRequest describes a campaign creation payload. Targets are
// either an explicit student id list or a grade level.
type CreateScheduleRequest struct {
	Title         string    `json:"title" validate:"required"`
	Description   string    `json:"description"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	ScheduledTime string    `json:"scheduled_time"`
	Location      string    `json:"location"`
	DoctorName    string    `json:"doctor_name" validate:"required"`
	Category      string    `json:"category" validate:"required"`
	StudentIDs    []string  `json:"student_ids,omitempty"`
	GradeLevel    string    `json:"grade_level,omitempty"`
}

// UpdateResultRequest carries the clinical outcome recorded by staff.
type UpdateResultRequest struct {
	Result           string     `json:"result" validate:"required"`
	Notes            string     `json:"notes"`
	Recommendations  string     `json:"recommendations"`
	FollowUpRequired bool       `json:"follow_up_required"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`
}

// CancelScheduleRequest optionally carries the guardian's rejection reason.
type CancelScheduleRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// VaccinationScheduleService orchestrates campaign fan-out, status aggregation
// and the response/result transitions.
type VaccinationScheduleService struct {
	campaigns      scheduleCampaignRepository
	classCampaigns scheduleClassRepository
	participants   scheduleStudentRepository
	students       studentDirectory
	notifier       guardianNotifier
	metrics        *MetricsService
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewVaccinationScheduleService constructs the orchestrator. metrics may be
// nil; every MetricsService method tolerates a nil receiver.
func NewVaccinationScheduleService(
	campaigns scheduleCampaignRepository,
	classCampaigns scheduleClassRepository,
	participants scheduleStudentRepository,
	students studentDirectory,
	notifier guardianNotifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *VaccinationScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VaccinationScheduleService{
		campaigns:      campaigns,
		classCampaigns: classCampaigns,
		participants:   participants,
		students:       students,
		notifier:       notifier,
		metrics:        metrics,
		validator:      validate,
		logger:         logger,
	}
}

// CreateSchedule resolves the target students, creates the campaign and fans
// out one PENDING participation row per student, grouped by class. Guardians
// of targeted students are notified asynchronously.
func (s *VaccinationScheduleService) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*models.EventSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if len(req.StudentIDs) == 0 && req.GradeLevel == "" {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "either student_ids or grade_level is required")
	}

	var (
		targets []models.StudentDetail
		err     error
	)
	if len(req.StudentIDs) > 0 {
		targets, err = s.students.ListByIDs(ctx, req.StudentIDs)
	} else {
		targets, err = s.students.ListByGrade(ctx, req.GradeLevel)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve target students")
	}
	if len(targets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "no students resolved for schedule target")
	}

	campaign := &models.Campaign{
		Title:         req.Title,
		Description:   req.Description,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		Location:      req.Location,
		DoctorName:    req.DoctorName,
		Category:      req.Category,
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}

	byClass := make(map[string][]models.StudentDetail)
	classOrder := make([]string, 0)
	for _, student := range targets {
		if _, seen := byClass[student.ClassID]; !seen {
			classOrder = append(classOrder, student.ClassID)
		}
		byClass[student.ClassID] = append(byClass[student.ClassID], student)
	}

	classCampaignIDs := make(map[string]string, len(classOrder))
	for _, classID := range classOrder {
		members := byClass[classID]
		assoc := &models.ClassCampaign{
			CampaignID: campaign.ID,
			ClassID:    classID,
			ClassName:  members[0].ClassName,
			GradeLevel: members[0].GradeLevel,
		}
		if err := s.classCampaigns.Create(ctx, assoc); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class campaign")
		}
		classCampaignIDs[classID] = assoc.ID
	}

	rows := make([]models.CampaignStudent, 0, len(targets))
	for _, student := range targets {
		rows = append(rows, models.CampaignStudent{
			ClassCampaignID: classCampaignIDs[student.ClassID],
			StudentID:       student.ID,
			Status:          models.StatusPending,
		})
	}
	if _, err := s.participants.BulkCreate(ctx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fan out campaign students")
	}
	s.metrics.ObserveFanOut(len(targets))

	if s.notifier != nil {
		s.notifier.NotifyScheduleCreated(ctx, campaign, targets)
	}

	summary, err := s.participants.EventSummary(ctx, campaign.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event summary")
	}
	s.logger.Info("schedule created",
		zap.String("campaign_id", campaign.ID),
		zap.String("category", campaign.Category),
		zap.Int("students", len(targets)),
		zap.Int("classes", len(classOrder)),
	)
	return summary, nil
}

// ListSchedules returns the raw participation rows for simple list views.
func (s *VaccinationScheduleService) ListSchedules(ctx context.Context) ([]models.CampaignStudentDetail, error) {
	rows, err := s.participants.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return rows, nil
}

// Campaigns returns the bare campaign rows matching the filter, with the total
// match count for pagination.
func (s *VaccinationScheduleService) Campaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error) {
	rows, total, err := s.campaigns.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	return rows, total, nil
}

// Events returns one row per campaign with counts computed from live child rows.
func (s *VaccinationScheduleService) Events(ctx context.Context) ([]models.EventSummary, error) {
	start := time.Now()
	rows, err := s.participants.EventSummaries(ctx)
	s.metrics.ObserveDBQuery("event_summaries", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate events")
	}
	return rows, nil
}

// EventDetail returns one campaign's aggregation broken down per class.
func (s *VaccinationScheduleService) EventDetail(ctx context.Context, eventID string) (*models.EventDetail, error) {
	start := time.Now()
	summary, err := s.participants.EventSummary(ctx, eventID)
	s.metrics.ObserveDBQuery("event_summary", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate event")
	}
	start = time.Now()
	classes, err := s.participants.ClassSummaries(ctx, eventID)
	s.metrics.ObserveDBQuery("class_summaries", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate event classes")
	}
	return &models.EventDetail{EventSummary: *summary, Classes: classes}, nil
}

// ResolveClassCampaign maps an (event, class) pair to the class campaign id
// used by the participation rows.
func (s *VaccinationScheduleService) ResolveClassCampaign(ctx context.Context, eventID, classID string) (string, error) {
	assocs, err := s.classCampaigns.FindByCampaign(ctx, eventID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event classes")
	}
	for _, assoc := range assocs {
		if assoc.ClassID == classID {
			return assoc.ID, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrNotFound, "class not part of event")
}

// ClassDetail returns the participation rows of one class within one campaign.
func (s *VaccinationScheduleService) ClassDetail(ctx context.Context, eventID, classID string) ([]models.CampaignStudentDetail, error) {
	classCampaignID, err := s.ResolveClassCampaign(ctx, eventID, classID)
	if err != nil {
		return nil, err
	}
	rows, err := s.participants.FindByClassCampaign(ctx, classCampaignID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class students")
	}
	return rows, nil
}

// Approve moves a pending row to APPROVED (guardian consent).
func (s *VaccinationScheduleService) Approve(ctx context.Context, id string) (*models.CampaignStudentDetail, error) {
	return s.transition(ctx, id, models.StatusApproved, nil)
}

// Cancel moves a pending row to REJECTED (guardian refusal).
func (s *VaccinationScheduleService) Cancel(ctx context.Context, id string, req CancelScheduleRequest) (*models.CampaignStudentDetail, error) {
	return s.transition(ctx, id, models.StatusRejected, req.Reason)
}

func (s *VaccinationScheduleService) transition(ctx context.Context, id string, status models.ParticipationStatus, reason *string) (*models.CampaignStudentDetail, error) {
	row, err := s.participants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vaccination schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vaccination schedule")
	}
	if !row.Status.CanTransitionTo(status) {
		if row.Status.Terminal() {
			return nil, appErrors.Clone(appErrors.ErrFinalized, "participation already finalized")
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "illegal status transition")
	}
	if err := s.participants.UpdateStatus(ctx, id, status, reason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule status")
	}
	s.metrics.RecordStatusChange(string(status))
	detail, err := s.participants.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule detail")
	}
	return detail, nil
}

// UpdateResult records the clinical outcome and completes the row. Only an
// approved participation can be completed.
func (s *VaccinationScheduleService) UpdateResult(ctx context.Context, id string, req UpdateResultRequest) (*models.CampaignStudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	row, err := s.participants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vaccination schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vaccination schedule")
	}
	if !row.Status.CanTransitionTo(models.StatusCompleted) {
		if row.Status.Terminal() {
			return nil, appErrors.Clone(appErrors.ErrFinalized, "participation already finalized")
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "result requires an approved participation")
	}
	notes := req.Notes
	recommendations := req.Recommendations
	if err := s.participants.UpdateResult(ctx, id, &req.Result, &notes, &recommendations, req.FollowUpRequired, req.FollowUpDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record result")
	}
	s.metrics.RecordStatusChange(string(models.StatusCompleted))
	detail, err := s.participants.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule detail")
	}
	return detail, nil
}

// DeleteSchedule removes one participation row.
func (s *VaccinationScheduleService) DeleteSchedule(ctx context.Context, id string) error {
	affected, err := s.participants.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "failed to delete vaccination schedule")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "vaccination schedule not found")
	}
	return nil
}

// DeleteCampaign removes a whole campaign with its associations. Refused once
// any guardian response or result has been recorded.
func (s *VaccinationScheduleService) DeleteCampaign(ctx context.Context, eventID string) error {
	if _, err := s.campaigns.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	nonPending, err := s.participants.CountNonPending(ctx, eventID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect event responses")
	}
	if nonPending > 0 {
		return appErrors.Clone(appErrors.ErrFinalized, "event has recorded responses and cannot be deleted")
	}
	if _, err := s.participants.DeleteByCampaign(ctx, eventID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event students")
	}
	if _, err := s.classCampaigns.DeleteByCampaign(ctx, eventID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event classes")
	}
	if _, err := s.campaigns.Delete(ctx, eventID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}

// ResultsByStudent returns completed participations for the parent dashboard.
func (s *VaccinationScheduleService) ResultsByStudent(ctx context.Context, studentID string) ([]models.CampaignStudentDetail, error) {
	rows, err := s.participants.FindByStudentAndStatus(ctx, studentID, models.StatusCompleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student results")
	}
	return rows, nil
}

// PendingByStudent returns rows still awaiting a guardian response.
func (s *VaccinationScheduleService) PendingByStudent(ctx context.Context, studentID string) ([]models.CampaignStudentDetail, error) {
	rows, err := s.participants.FindByStudentAndStatus(ctx, studentID, models.StatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending schedules")
	}
	return rows, nil
}
