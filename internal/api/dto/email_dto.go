package dto

import (
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// EmailRecordResponse audit row for a notification attempt. Body is omitted
// from listings to keep the payload small.
type EmailRecordResponse struct {
	ID          string              `json:"id"`
	Kind        domain.TemplateKind `json:"kind"`
	Recipient   string              `json:"recipient"`
	Subject     string              `json:"subject"`
	Success     bool                `json:"success"`
	ErrorDetail *string             `json:"error_detail,omitempty"`
	SentAt      time.Time           `json:"sent_at"`
}

// NewEmailRecordResponse maps an audit row.
func NewEmailRecordResponse(record *domain.EmailRecord) EmailRecordResponse {
	return EmailRecordResponse{
		ID:          record.ID,
		Kind:        record.Kind,
		Recipient:   record.Recipient,
		Subject:     record.Subject,
		Success:     record.Success,
		ErrorDetail: record.ErrorDetail,
		SentAt:      record.SentAt,
	}
}
