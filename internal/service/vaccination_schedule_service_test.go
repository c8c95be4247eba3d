package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uks-adp-api/internal/models"
	appErrors "github.com/noah-isme/uks-adp-api/pkg/errors"
)

type mockScheduleCampaignRepo struct {
	campaigns map[string]models.Campaign
	deleted   []string
}

func (m *mockScheduleCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	if m.campaigns == nil {
		m.campaigns = make(map[string]models.Campaign)
	}
	if campaign.ID == "" {
		campaign.ID = fmt.Sprintf("camp-%d", len(m.campaigns)+1)
	}
	m.campaigns[campaign.ID] = *campaign
	return nil
}

func (m *mockScheduleCampaignRepo) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	if c, ok := m.campaigns[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleCampaignRepo) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error) {
	out := make([]models.Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockScheduleCampaignRepo) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := m.campaigns[id]; !ok {
		return 0, nil
	}
	delete(m.campaigns, id)
	m.deleted = append(m.deleted, id)
	return 1, nil
}

type mockScheduleClassRepo struct {
	assocs []models.ClassCampaign
}

func (m *mockScheduleClassRepo) FindByCampaign(ctx context.Context, campaignID string) ([]models.ClassCampaign, error) {
	var out []models.ClassCampaign
	for _, a := range m.assocs {
		if a.CampaignID == campaignID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockScheduleClassRepo) Create(ctx context.Context, assoc *models.ClassCampaign) error {
	if assoc.ID == "" {
		assoc.ID = fmt.Sprintf("cc-%d", len(m.assocs)+1)
	}
	m.assocs = append(m.assocs, *assoc)
	return nil
}

func (m *mockScheduleClassRepo) DeleteByCampaign(ctx context.Context, campaignID string) (int64, error) {
	kept := m.assocs[:0]
	var n int64
	for _, a := range m.assocs {
		if a.CampaignID == campaignID {
			n++
			continue
		}
		kept = append(kept, a)
	}
	m.assocs = kept
	return n, nil
}

type mockScheduleStudentRepo struct {
	rows       map[string]models.CampaignStudent
	campaignOf map[string]string // class campaign id -> campaign id
	nextID     int
}

func (m *mockScheduleStudentRepo) BulkCreate(ctx context.Context, rows []models.CampaignStudent) ([]models.CampaignStudent, error) {
	if m.rows == nil {
		m.rows = make(map[string]models.CampaignStudent)
	}
	seen := make(map[string]bool)
	for _, row := range m.rows {
		seen[row.ClassCampaignID+"|"+row.StudentID] = true
	}
	var created []models.CampaignStudent
	for _, row := range rows {
		k := row.ClassCampaignID + "|" + row.StudentID
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

func (m *mockScheduleStudentRepo) FindByID(ctx context.Context, id string) (*models.CampaignStudent, error) {
	if row, ok := m.rows[id]; ok {
		return &row, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleStudentRepo) FindDetailByID(ctx context.Context, id string) (*models.CampaignStudentDetail, error) {
	if row, ok := m.rows[id]; ok {
		return &models.CampaignStudentDetail{CampaignStudent: row}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleStudentRepo) List(ctx context.Context) ([]models.CampaignStudentDetail, error) {
	out := make([]models.CampaignStudentDetail, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, models.CampaignStudentDetail{CampaignStudent: row})
	}
	return out, nil
}

func (m *mockScheduleStudentRepo) FindByClassCampaign(ctx context.Context, classCampaignID string) ([]models.CampaignStudentDetail, error) {
	var out []models.CampaignStudentDetail
	for _, row := range m.rows {
		if row.ClassCampaignID == classCampaignID {
			out = append(out, models.CampaignStudentDetail{CampaignStudent: row})
		}
	}
	return out, nil
}

func (m *mockScheduleStudentRepo) FindByStudentAndStatus(ctx context.Context, studentID string, status models.ParticipationStatus) ([]models.CampaignStudentDetail, error) {
	var out []models.CampaignStudentDetail
	for _, row := range m.rows {
		if row.StudentID == studentID && row.Status.Normalize() == status.Normalize() {
			out = append(out, models.CampaignStudentDetail{CampaignStudent: row})
		}
	}
	return out, nil
}

func (m *mockScheduleStudentRepo) UpdateStatus(ctx context.Context, id string, status models.ParticipationStatus, reason *string) error {
	row, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	row.Status = status
	row.RejectionReason = reason
	m.rows[id] = row
	return nil
}

func (m *mockScheduleStudentRepo) UpdateResult(ctx context.Context, id string, result, notes, recommendations *string, followUpRequired bool, followUpDate *time.Time) error {
	row, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	row.Status = models.StatusCompleted
	row.Result = result
	row.Notes = notes
	row.Recommendations = recommendations
	row.FollowUpRequired = followUpRequired
	row.FollowUpDate = followUpDate
	m.rows[id] = row
	return nil
}

func (m *mockScheduleStudentRepo) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *mockScheduleStudentRepo) DeleteByCampaign(ctx context.Context, campaignID string) (int64, error) {
	var n int64
	for id, row := range m.rows {
		if m.campaignOf[row.ClassCampaignID] == campaignID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *mockScheduleStudentRepo) CountNonPending(ctx context.Context, campaignID string) (int, error) {
	n := 0
	for _, row := range m.rows {
		if m.campaignOf[row.ClassCampaignID] == campaignID && row.Status.Normalize() != models.StatusPending {
			n++
		}
	}
	return n, nil
}

func (m *mockScheduleStudentRepo) countsFor(campaignID string) models.StatusCounts {
	var counts models.StatusCounts
	for _, row := range m.rows {
		if campaignID != "" && m.campaignOf[row.ClassCampaignID] != campaignID {
			continue
		}
		counts.TotalStudents++
		switch row.Status.Normalize() {
		case models.StatusApproved:
			counts.ApprovedCount++
		case models.StatusPending:
			counts.PendingCount++
		case models.StatusRejected:
			counts.RejectedCount++
		case models.StatusCompleted:
			counts.CompletedCount++
		}
	}
	return counts
}

func (m *mockScheduleStudentRepo) EventSummaries(ctx context.Context) ([]models.EventSummary, error) {
	ids := make(map[string]bool)
	for _, campaignID := range m.campaignOf {
		ids[campaignID] = true
	}
	var out []models.EventSummary
	for id := range ids {
		out = append(out, models.EventSummary{CampaignID: id, StatusCounts: m.countsFor(id)})
	}
	return out, nil
}

func (m *mockScheduleStudentRepo) EventSummary(ctx context.Context, campaignID string) (*models.EventSummary, error) {
	found := false
	for _, cid := range m.campaignOf {
		if cid == campaignID {
			found = true
			break
		}
	}
	if !found {
		return nil, sql.ErrNoRows
	}
	return &models.EventSummary{CampaignID: campaignID, StatusCounts: m.countsFor(campaignID)}, nil
}

func (m *mockScheduleStudentRepo) ClassSummaries(ctx context.Context, campaignID string) ([]models.ClassSummary, error) {
	perClass := make(map[string]*models.ClassSummary)
	for _, row := range m.rows {
		if m.campaignOf[row.ClassCampaignID] != campaignID {
			continue
		}
		summary, ok := perClass[row.ClassCampaignID]
		if !ok {
			summary = &models.ClassSummary{ClassCampaignID: row.ClassCampaignID}
			perClass[row.ClassCampaignID] = summary
		}
		summary.TotalStudents++
		switch row.Status.Normalize() {
		case models.StatusApproved:
			summary.ApprovedCount++
		case models.StatusPending:
			summary.PendingCount++
		case models.StatusRejected:
			summary.RejectedCount++
		case models.StatusCompleted:
			summary.CompletedCount++
		}
	}
	var out []models.ClassSummary
	for _, summary := range perClass {
		out = append(out, *summary)
	}
	return out, nil
}

type mockStudentDirectory struct {
	students []models.StudentDetail
}

func (m *mockStudentDirectory) ListByIDs(ctx context.Context, ids []string) ([]models.StudentDetail, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.StudentDetail
	for _, s := range m.students {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStudentDirectory) ListByGrade(ctx context.Context, grade string) ([]models.StudentDetail, error) {
	var out []models.StudentDetail
	for _, s := range m.students {
		if s.GradeLevel == grade {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockNotifier struct {
	campaigns []string
	students  int
}

func (m *mockNotifier) NotifyScheduleCreated(ctx context.Context, campaign *models.Campaign, students []models.StudentDetail) {
	m.campaigns = append(m.campaigns, campaign.ID)
	m.students += len(students)
}

type scheduleFixture struct {
	campaigns *mockScheduleCampaignRepo
	classes   *mockScheduleClassRepo
	students  *mockScheduleStudentRepo
	directory *mockStudentDirectory
	notifier  *mockNotifier
	svc       *VaccinationScheduleService
}

func newScheduleFixture(students []models.StudentDetail) *scheduleFixture {
	f := &scheduleFixture{
		campaigns: &mockScheduleCampaignRepo{},
		classes:   &mockScheduleClassRepo{},
		students:  &mockScheduleStudentRepo{campaignOf: make(map[string]string)},
		directory: &mockStudentDirectory{students: students},
		notifier:  &mockNotifier{},
	}
	f.svc = NewVaccinationScheduleService(f.campaigns, f.classes, f.students, f.directory, f.notifier, nil, nil, nil)
	return f
}

func studentFixture(id, classID, className, grade string) models.StudentDetail {
	return models.StudentDetail{
		Student:    models.Student{ID: id, FullName: "Student " + id, ClassID: classID, GuardianName: "Guardian " + id, GuardianPhone: "08" + id, Active: true},
		ClassName:  className,
		GradeLevel: grade,
	}
}

func validScheduleRequest() CreateScheduleRequest {
	return CreateScheduleRequest{
		Title:         "Campak Rubella",
		ScheduledDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		DoctorName:    "dr. Sari",
		Category:      "Vaksinasi",
	}
}

func TestCreateScheduleFansOutByClass(t *testing.T) {
	f := newScheduleFixture([]models.StudentDetail{
		studentFixture("stu-1", "class-1", "7A", "7"),
		studentFixture("stu-2", "class-1", "7A", "7"),
		studentFixture("stu-3", "class-2", "7B", "7"),
	})

	req := validScheduleRequest()
	req.GradeLevel = "7"

	// Mock ids are deterministic, so the class->campaign index can be seeded
	// up front for the summary read at the end of CreateSchedule.
	f.students.campaignOf = map[string]string{"cc-1": "camp-1", "cc-2": "camp-1"}

	summary, err := f.svc.CreateSchedule(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, f.classes.assocs, 2)
	assert.Len(t, f.students.rows, 3)
	for _, row := range f.students.rows {
		assert.Equal(t, models.StatusPending, row.Status)
	}
	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, 3, summary.PendingCount)
	assert.Equal(t, 3, f.notifier.students)
}

func TestCreateScheduleSnapshotsClassNames(t *testing.T) {
	f := newScheduleFixture([]models.StudentDetail{
		studentFixture("stu-1", "class-1", "8C", "8"),
	})
	f.students.campaignOf = map[string]string{"cc-1": "camp-1"}

	req := validScheduleRequest()
	req.StudentIDs = []string{"stu-1"}

	_, err := f.svc.CreateSchedule(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, f.classes.assocs, 1)
	assert.Equal(t, "8C", f.classes.assocs[0].ClassName)
	assert.Equal(t, "8", f.classes.assocs[0].GradeLevel)
}

func TestCreateScheduleNoTargets(t *testing.T) {
	f := newScheduleFixture(nil)

	req := validScheduleRequest()
	req.GradeLevel = "12"

	_, err := f.svc.CreateSchedule(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.campaigns.campaigns)
}

func TestCreateScheduleRequiresTargetSelector(t *testing.T) {
	f := newScheduleFixture(nil)

	_, err := f.svc.CreateSchedule(context.Background(), validScheduleRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
}

func TestCreateScheduleObservesFanOutSize(t *testing.T) {
	f := newScheduleFixture([]models.StudentDetail{
		studentFixture("stu-1", "class-1", "7A", "7"),
		studentFixture("stu-2", "class-1", "7A", "7"),
	})
	f.svc.metrics = NewMetricsService(nil)
	f.students.campaignOf = map[string]string{"cc-1": "camp-1"}

	req := validScheduleRequest()
	req.GradeLevel = "7"

	_, err := f.svc.CreateSchedule(context.Background(), req)
	require.NoError(t, err)

	var sample dto.Metric
	require.NoError(t, f.svc.metrics.fanOutSize.Write(&sample))
	assert.Equal(t, uint64(1), sample.GetHistogram().GetSampleCount())
	assert.Equal(t, float64(2), sample.GetHistogram().GetSampleSum())
}

func TestTransitionsCountStatusChanges(t *testing.T) {
	f := newScheduleFixture(nil)
	f.svc.metrics = NewMetricsService(nil)
	f.students.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", Status: models.StatusPending},
	}

	_, err := f.svc.Approve(context.Background(), "cs-1")
	require.NoError(t, err)
	_, err = f.svc.UpdateResult(context.Background(), "cs-1", UpdateResultRequest{Result: "ok"})
	require.NoError(t, err)

	approved := testutil.ToFloat64(f.svc.metrics.statusChanges.WithLabelValues(string(models.StatusApproved)))
	completed := testutil.ToFloat64(f.svc.metrics.statusChanges.WithLabelValues(string(models.StatusCompleted)))
	assert.Equal(t, float64(1), approved)
	assert.Equal(t, float64(1), completed)
}

func TestApproveThenResultCompletes(t *testing.T) {
	f := newScheduleFixture(nil)
	f.students.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", ClassCampaignID: "cc-1", StudentID: "stu-1", Status: models.StatusPending},
	}

	detail, err := f.svc.Approve(context.Background(), "cs-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, detail.Status)

	detail, err = f.svc.UpdateResult(context.Background(), "cs-1", UpdateResultRequest{Result: "Sudah divaksin"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, detail.Status)
	require.NotNil(t, detail.Result)
	assert.Equal(t, "Sudah divaksin", *detail.Result)
}

func TestCancelRecordsReason(t *testing.T) {
	f := newScheduleFixture(nil)
	f.students.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", Status: models.StatusPending},
	}

	reason := "Sedang sakit"
	detail, err := f.svc.Cancel(context.Background(), "cs-1", CancelScheduleRequest{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, detail.Status)
	require.NotNil(t, detail.RejectionReason)
	assert.Equal(t, reason, *detail.RejectionReason)
}

func TestApproveFinalizedRowConflicts(t *testing.T) {
	f := newScheduleFixture(nil)
	f.students.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", Status: models.StatusCompleted},
		"cs-2": {ID: "cs-2", Status: models.StatusRejected},
	}

	for _, id := range []string{"cs-1", "cs-2"} {
		_, err := f.svc.Approve(context.Background(), id)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
	}
}

func TestUpdateResultRequiresApproval(t *testing.T) {
	f := newScheduleFixture(nil)
	f.students.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", Status: models.StatusPending},
	}

	_, err := f.svc.UpdateResult(context.Background(), "cs-1", UpdateResultRequest{Result: "ok"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestUpdateResultAcceptsLegacyAgreed(t *testing.T) {
	f := newScheduleFixture(nil)
	f.students.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", Status: models.StatusAgreed},
	}

	detail, err := f.svc.UpdateResult(context.Background(), "cs-1", UpdateResultRequest{Result: "ok"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, detail.Status)
}

func TestDeleteCampaignRefusedOnceResponded(t *testing.T) {
	f := newScheduleFixture(nil)
	f.campaigns.campaigns = map[string]models.Campaign{"camp-1": {ID: "camp-1"}}
	f.students.campaignOf = map[string]string{"cc-1": "camp-1"}
	f.students.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", ClassCampaignID: "cc-1", Status: models.StatusPending},
		"cs-2": {ID: "cs-2", ClassCampaignID: "cc-1", Status: models.StatusApproved},
	}

	err := f.svc.DeleteCampaign(context.Background(), "camp-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.campaigns.deleted)
}

func TestDeleteCampaignCascadesWhileAllPending(t *testing.T) {
	f := newScheduleFixture(nil)
	f.campaigns.campaigns = map[string]models.Campaign{"camp-1": {ID: "camp-1"}}
	f.classes.assocs = []models.ClassCampaign{{ID: "cc-1", CampaignID: "camp-1", ClassID: "class-1"}}
	f.students.campaignOf = map[string]string{"cc-1": "camp-1"}
	f.students.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", ClassCampaignID: "cc-1", Status: models.StatusPending},
	}

	err := f.svc.DeleteCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Empty(t, f.students.rows)
	assert.Empty(t, f.classes.assocs)
	assert.Contains(t, f.campaigns.deleted, "camp-1")
}

func TestDeleteCampaignUnknownEvent(t *testing.T) {
	f := newScheduleFixture(nil)

	err := f.svc.DeleteCampaign(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassDetailUnknownClass(t *testing.T) {
	f := newScheduleFixture(nil)
	f.classes.assocs = []models.ClassCampaign{{ID: "cc-1", CampaignID: "camp-1", ClassID: "class-1"}}

	_, err := f.svc.ClassDetail(context.Background(), "camp-1", "class-9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPendingAndResultsByStudent(t *testing.T) {
	f := newScheduleFixture(nil)
	f.students.rows = map[string]models.CampaignStudent{
		"cs-1": {ID: "cs-1", StudentID: "stu-1", Status: models.StatusPending},
		"cs-2": {ID: "cs-2", StudentID: "stu-1", Status: models.StatusCompleted},
		"cs-3": {ID: "cs-3", StudentID: "stu-2", Status: models.StatusPending},
	}

	pending, err := f.svc.PendingByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "cs-1", pending[0].ID)

	results, err := f.svc.ResultsByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cs-2", results[0].ID)
}
