package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uks-adp-api/internal/models"
	"github.com/noah-isme/uks-adp-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Notification, error)
}

type dedupeStore interface {
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Gateway hands a notification to the actual delivery channel (SMS, push).
// The default implementation only logs; deployments plug in their provider.
type Gateway interface {
	Send(ctx context.Context, n models.Notification) error
}

type logGateway struct {
	logger *zap.Logger
}

func (g *logGateway) Send(_ context.Context, n models.Notification) error {
	g.logger.Info("notification dispatched",
		zap.String("notification_id", n.ID),
		zap.String("guardian_phone", n.GuardianPhone),
		zap.String("title", n.Title),
	)
	return nil
}

// NotificationService records guardian notifications and dispatches them
// asynchronously through the job queue. A Redis marker per (campaign, student)
// keeps retried fan-outs from notifying the same guardian twice.
type NotificationService struct {
	repo       notificationRepository
	dedupe     dedupeStore
	gateway    Gateway
	queue      *jobs.Queue
	dedupeTTL  time.Duration
	maxRetries int
	logger     *zap.Logger
}

// NotificationConfig tunes the dispatch queue.
type NotificationConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	DedupeTTL  time.Duration
}

// NewNotificationService constructs the service and its dispatch queue. Call
// Start before enqueueing and Stop on shutdown.
func NewNotificationService(repo notificationRepository, dedupe dedupeStore, gateway Gateway, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gateway == nil {
		gateway = &logGateway{logger: logger}
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	s := &NotificationService{
		repo:       repo,
		dedupe:     dedupe,
		gateway:    gateway,
		dedupeTTL:  cfg.DedupeTTL,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
	s.queue = jobs.NewQueue("guardian-notifications", s.handleDispatch, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// QueueDepth reports jobs waiting for a worker.
func (s *NotificationService) QueueDepth() int {
	return s.queue.Len()
}

// NotifyScheduleCreated records and enqueues one notification per targeted
// student. Failures here never fail the fan-out; they are logged and skipped.
func (s *NotificationService) NotifyScheduleCreated(ctx context.Context, campaign *models.Campaign, students []models.StudentDetail) {
	for _, student := range students {
		key := fmt.Sprintf("notify:%s:%s", campaign.ID, student.ID)
		fresh, err := s.dedupe.SetNX(ctx, key, s.dedupeTTL)
		if err != nil {
			// An unreachable dedupe store must not suppress the fan-out;
			// worst case a guardian is notified twice.
			s.logger.Warn("notification dedupe check failed", zap.String("key", key), zap.Error(err))
			fresh = true
		}
		if !fresh {
			continue
		}
		n := models.Notification{
			ID:            uuid.NewString(),
			CampaignID:    campaign.ID,
			StudentID:     student.ID,
			GuardianName:  student.GuardianName,
			GuardianPhone: student.GuardianPhone,
			Title:         fmt.Sprintf("Jadwal %s: %s", campaign.Category, campaign.Title),
			Body: fmt.Sprintf("%s dijadwalkan untuk %s pada %s. Mohon konfirmasi persetujuan Anda.",
				campaign.Title, student.FullName, campaign.ScheduledDate.Format("02-01-2006")),
			Status: models.NotificationPending,
		}
		if err := s.repo.Create(ctx, &n); err != nil {
			s.logger.Error("failed to record notification",
				zap.String("campaign_id", campaign.ID),
				zap.String("student_id", student.ID),
				zap.Error(err),
			)
			continue
		}
		if err := s.queue.Enqueue(jobs.Job{ID: n.ID, Type: "guardian-notification", Payload: n}); err != nil {
			s.logger.Error("failed to enqueue notification", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
}

// ListByStudent returns the notification history for one student.
func (s *NotificationService) ListByStudent(ctx context.Context, studentID string) ([]models.Notification, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *NotificationService) handleDispatch(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.gateway.Send(ctx, n); err != nil {
		if job.Attempt >= s.maxRetries {
			// Retries exhausted: record the failure and release the dedupe
			// marker so a later fan-out may notify again.
			if markErr := s.repo.MarkFailed(ctx, n.ID); markErr != nil {
				s.logger.Error("failed to mark notification failed", zap.String("notification_id", n.ID), zap.Error(markErr))
			}
			key := fmt.Sprintf("notify:%s:%s", n.CampaignID, n.StudentID)
			if delErr := s.dedupe.Delete(ctx, key); delErr != nil {
				s.logger.Warn("failed to release dedupe marker", zap.String("key", key), zap.Error(delErr))
			}
		}
		return fmt.Errorf("send notification %s: %w", n.ID, err)
	}
	if err := s.repo.MarkSent(ctx, n.ID, time.Now().UTC()); err != nil {
		s.logger.Error("failed to mark notification sent", zap.String("notification_id", n.ID), zap.Error(err))
	}
	return nil
}
