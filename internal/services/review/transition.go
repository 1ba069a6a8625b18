package review

import (
	"strings"
	"time"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/models"
)

// Transition is the exact field set a legal terminal transition writes. The
// state machine produces it; the store applies it under the pending guard.
type Transition struct {
	Status          models.KYCStatus
	ReviewedAt      time.Time
	ReviewedBy      string
	Remarks         string
	RejectionReason string
}

// Apply writes the transition fields onto a record.
func (t Transition) Apply(r *models.KYCRecord) {
	reviewedAt := t.ReviewedAt
	reviewedBy := t.ReviewedBy
	remarks := t.Remarks
	r.Status = t.Status
	r.ReviewedAt = &reviewedAt
	r.ReviewedBy = &reviewedBy
	r.Remarks = &remarks
	if t.Status == models.KYCStatusRejected {
		reason := t.RejectionReason
		r.RejectionReason = &reason
	}
}

// ApproveTransition validates an approval of a record currently in current
// and produces the fields to write. Approval is legal only from pending.
func ApproveTransition(current models.KYCStatus, reviewerID, remarks string, now time.Time) (Transition, error) {
	if current != models.KYCStatusPending {
		return Transition{}, kycerrors.InvalidTransition("cannot approve a %s record", current)
	}
	if strings.TrimSpace(reviewerID) == "" {
		return Transition{}, kycerrors.Validation("reviewer id is required")
	}
	return Transition{
		Status:     models.KYCStatusApproved,
		ReviewedAt: now,
		ReviewedBy: reviewerID,
		Remarks:    remarks,
	}, nil
}

// RejectTransition validates a rejection. Legal only from pending, and the
// rejection reason must be non-empty.
func RejectTransition(current models.KYCStatus, reviewerID, reason, remarks string, now time.Time) (Transition, error) {
	if current != models.KYCStatusPending {
		return Transition{}, kycerrors.InvalidTransition("cannot reject a %s record", current)
	}
	if strings.TrimSpace(reviewerID) == "" {
		return Transition{}, kycerrors.Validation("reviewer id is required")
	}
	if strings.TrimSpace(reason) == "" {
		return Transition{}, kycerrors.Validation("rejection reason is required")
	}
	return Transition{
		Status:          models.KYCStatusRejected,
		ReviewedAt:      now,
		ReviewedBy:      reviewerID,
		Remarks:         remarks,
		RejectionReason: reason,
	}, nil
}
