package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	NotificationJobSelection    = "job_selection"
	NotificationOfferResponse   = "offer_response"
	NotificationPaymentReleased = "payment_released"
)

// ActionTypeAcceptReject marks an offer awaiting the contractor's decision.
const ActionTypeAcceptReject = "accept_reject"

// Offer status enums. Informational notifications carry an empty status.
const (
	OfferStatusPending   = "pending"
	OfferStatusAccepted  = "accepted"
	OfferStatusRejected  = "rejected"
	OfferStatusWithdrawn = "withdrawn"
)

// Notification doubles as the offer record when Type is job_selection.
type Notification struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	JobID            uuid.UUID  `json:"job_id"`
	ContractorID     uuid.UUID  `json:"contractor_id"`
	Type             string     `json:"type"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	ActionRequired   bool       `json:"action_required"`
	ActionType       string     `json:"action_type,omitempty"`
	IsRead           bool       `json:"is_read"`
	Status           string     `json:"status,omitempty"`
	ShortlistVersion int        `json:"shortlist_version"`
	CreatedAt        time.Time  `json:"created_at"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	Version          int        `json:"-"`
}

// IsOffer reports whether the notification is an accept/reject offer.
func (n *Notification) IsOffer() bool {
	return n.Type == NotificationJobSelection && n.ActionType == ActionTypeAcceptReject
}
