package queue

import (
	"encoding/json"
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAuditRecord 审计日志写入任务
	TaskAuditRecord = constants.TaskAuditRecord
)

// AuditRecordPayload 审计日志任务载荷
type AuditRecordPayload struct {
	ActorID    uint                   `json:"actor_id"`
	SubjectID  uint                   `json:"subject_id"`
	Action     string                 `json:"action"`
	MetricName string                 `json:"metric_name,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewAuditRecordTask 创建审计日志任务
func NewAuditRecordTask(payload AuditRecordPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, body), nil
}

// DecodeAuditRecordPayload 解析审计日志任务载荷
func DecodeAuditRecordPayload(task *asynq.Task) (AuditRecordPayload, error) {
	var payload AuditRecordPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
