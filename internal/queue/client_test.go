package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"
)

func TestDisabledClientRejectsAudit(t *testing.T) {
	client, err := NewClient(nil)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("nil config should produce a disabled client")
	}
	err = client.EnqueueAuditRecord(AuditRecordPayload{ActorID: 1, Action: constants.AuditActionOverridePut})
	if !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("want ErrQueueDisabled, got %v", err)
	}
}

func TestAuditRecordTaskPayload(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task, err := NewAuditRecordTask(AuditRecordPayload{
		ActorID:    1,
		SubjectID:  7,
		Action:     constants.AuditActionOverrideClear,
		MetricName: constants.MetricCreditScore,
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskAuditRecord {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	payload, err := DecodeAuditRecordPayload(task)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.SubjectID != 7 || payload.MetricName != constants.MetricCreditScore || !payload.OccurredAt.Equal(at) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
