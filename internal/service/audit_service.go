package service

import (
	"context"
	"time"

	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/queue"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"github.com/hibiken/asynq"
)

// AuditEnqueuer 审计任务入队接口
type AuditEnqueuer interface {
	EnqueueAuditRecord(payload queue.AuditRecordPayload, opts ...asynq.Option) error
}

// AuditEntry 待记录的审计事件
type AuditEntry struct {
	ActorID    uint
	SubjectID  uint
	Action     string
	MetricName string
	Detail     map[string]interface{}
}

// AuditService 审计日志服务
// 优先异步入队，队列不可用时同步写库
type AuditService struct {
	repo  repository.AuditLogRepository
	queue AuditEnqueuer
	now   func() time.Time
}

// NewAuditService 创建审计服务，queue 可为 nil
func NewAuditService(repo repository.AuditLogRepository, queue AuditEnqueuer) *AuditService {
	return &AuditService{repo: repo, queue: queue, now: time.Now}
}

// Record 记录审计事件
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) error {
	if s == nil {
		return nil
	}
	payload := queue.AuditRecordPayload{
		ActorID:    entry.ActorID,
		SubjectID:  entry.SubjectID,
		Action:     entry.Action,
		MetricName: entry.MetricName,
		RequestID:  RequestIDFrom(ctx),
		Detail:     entry.Detail,
		OccurredAt: s.now(),
	}
	if s.queue != nil {
		err := s.queue.EnqueueAuditRecord(payload)
		if err == nil {
			return nil
		}
		logger.Debugw("audit_enqueue_fallback_sync", "action", entry.Action, "error", err)
	}
	return s.Persist(ctx, payload)
}

// Persist 写入审计日志（异步任务消费与同步回退共用）
func (s *AuditService) Persist(ctx context.Context, payload queue.AuditRecordPayload) error {
	occurredAt := payload.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}
	return s.repo.Create(ctx, &models.AuditLog{
		ActorID:    payload.ActorID,
		SubjectID:  payload.SubjectID,
		Action:     payload.Action,
		MetricName: payload.MetricName,
		RequestID:  payload.RequestID,
		Detail:     models.JSON(payload.Detail),
		CreatedAt:  occurredAt,
	})
}

// List 查询审计日志
func (s *AuditService) List(ctx context.Context, filter repository.AuditLogListFilter) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, filter)
}

// recordAudit 记录审计事件，失败只记日志
func recordAudit(ctx context.Context, audit *AuditService, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Record(ctx, entry); err != nil {
		logger.Warnw("audit_record_failed",
			"action", entry.Action,
			"actor_id", entry.ActorID,
			"subject_id", entry.SubjectID,
			"error", err,
		)
	}
}
