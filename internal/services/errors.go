package services

import (
	"errors"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// Workflow error taxonomy. Callers match with errors.Is.
var (
	ErrNotFound                 = models.ErrNotFound
	ErrStaleState               = models.ErrStaleState
	ErrUnauthorized             = errors.New("unauthorized")
	ErrInvalidInput             = errors.New("invalid input")
	ErrInvalidTransition        = errors.New("invalid transition")
	ErrAlreadyResolved          = errors.New("already resolved")
	ErrJobNoLongerOpen          = errors.New("job no longer open")
	ErrOfferPending             = errors.New("job already has a pending offer")
	ErrDuplicateFeedback        = errors.New("feedback already submitted")
	ErrFeedbackLocked           = errors.New("feedback not allowed until payment is released")
	ErrScoringUnavailable       = errors.New("scoring unavailable")
	ErrPaymentAlreadyInProgress = errors.New("payment already in progress")
	ErrInvalidPaymentState      = errors.New("invalid payment state")
)

// IsAlreadySatisfied reports whether err means the requested outcome already
// holds. Feedback callers present DuplicateFeedback as success.
func IsAlreadySatisfied(err error) bool {
	return errors.Is(err, ErrDuplicateFeedback)
}
