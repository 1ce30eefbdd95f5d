package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/kickaider/internal/domain"
)

// AuditHandler appends every consumed change event to the tenant's audit log.
type AuditHandler struct {
	repo domain.AuditRepository
	now  func() time.Time
}

// NewAuditHandler constructs a handler backed by repo.
func NewAuditHandler(repo domain.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Handle stores msg. The entry id is derived from the record position, so
// redelivered records are stored once.
func (h *AuditHandler) Handle(ctx context.Context, msg Message) error {
	if msg.TenantID == "" {
		return errors.New("audit: message has no tenant")
	}

	receivedAt := msg.Timestamp.UTC()
	if msg.Timestamp.IsZero() {
		receivedAt = h.now()
	}

	return h.repo.AppendAudit(ctx, domain.AuditEntry{
		ID:         fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset),
		TenantID:   msg.TenantID,
		EventType:  msg.EventType,
		Topic:      msg.Topic,
		Payload:    msg.Payload,
		ReceivedAt: receivedAt,
	})
}
