package worker

import (
	"context"
	"strings"

	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/provider"
	"github.com/techphorix/w-store-sub004/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAuditRecord, c.handleAuditRecord)
}

func (c *Consumer) handleAuditRecord(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_audit_record_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.DecodeAuditRecordPayload(task)
	if err != nil {
		logger.Warnw("worker_audit_record_unmarshal_failed", "error", err)
		// 载荷损坏不重试
		return asynq.SkipRetry
	}
	if strings.TrimSpace(payload.Action) == "" {
		logger.Debugw("worker_audit_record_skip_invalid_payload", "actor_id", payload.ActorID, "subject_id", payload.SubjectID)
		return nil
	}
	if c.AuditService == nil {
		logger.Warnw("worker_audit_record_skip_audit_service_nil", "action", payload.Action)
		return nil
	}
	if err := c.AuditService.Persist(ctx, payload); err != nil {
		logger.Warnw("worker_audit_record_persist_failed",
			"action", payload.Action,
			"actor_id", payload.ActorID,
			"subject_id", payload.SubjectID,
			"request_id", payload.RequestID,
			"error", err,
		)
		return err
	}
	return nil
}
