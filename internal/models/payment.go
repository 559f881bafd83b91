package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment status enums. Completed means released to the contractor.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusApproved  = "approved"
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
)

type Payment struct {
	ID             uuid.UUID  `json:"id"`
	JobID          uuid.UUID  `json:"job_id"`
	LandownerID    uuid.UUID  `json:"landowner_id"`
	ContractorID   uuid.UUID  `json:"contractor_id"`
	Amount         int64      `json:"amount"`
	Method         string     `json:"method"`
	Status         string     `json:"status"`
	TransactionRef string     `json:"transaction_ref,omitempty"`
	ReceiptNumber  string     `json:"receipt_number,omitempty"`
	ApprovalNotes  string     `json:"approval_notes,omitempty"`
	ReleaseNotes   string     `json:"release_notes,omitempty"`
	RefundReason   string     `json:"refund_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	ReleasedAt     *time.Time `json:"released_at,omitempty"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
	Version        int        `json:"-"`
}

// IsActive reports whether the payment still blocks a new one for the job.
func (p *Payment) IsActive() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusApproved
}
