// Package kycstore persists KYC records. It exposes CRUD primitives only;
// transition rules live in the review service. All status changes funnel
// through ConditionalUpdate, which makes "at most one terminal transition
// wins" a property of the store rather than of caller discipline.
package kycstore

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/models"
)

// Mutator applies in-place changes to a record. It runs only after the
// store has verified the expected-status guard.
type Mutator func(*models.KYCRecord)

// Store is the repository of KYC records and their status history.
type Store interface {
	// Create persists a new pending record after validating its document
	// fields. Fails with a validation_error on a malformed document set.
	Create(ctx context.Context, record *models.KYCRecord) error

	// GetByID returns the record or a not_found error.
	GetByID(ctx context.Context, id uuid.UUID) (*models.KYCRecord, error)

	// LatestBySubject returns the newest record of a subject, or a
	// not_found error when the subject has never submitted.
	LatestBySubject(ctx context.Context, subjectType models.SubjectType, subjectID string) (*models.KYCRecord, error)

	// ConditionalUpdate atomically verifies the record's current status
	// equals expected before applying mutate. Returns a conflict error when
	// the guard fails (another transition won the race), not_found when the
	// record is absent.
	ConditionalUpdate(ctx context.Context, id uuid.UUID, expected models.KYCStatus, mutate Mutator) (*models.KYCRecord, error)

	// ListByStatus returns all records of one subject type in one status,
	// newest submission first. Read-only, lock-free.
	ListByStatus(ctx context.Context, subjectType models.SubjectType, status models.KYCStatus) ([]models.KYCRecord, error)

	// CountByStatus returns the number of records of one subject type in
	// one status.
	CountByStatus(ctx context.Context, subjectType models.SubjectType, status models.KYCStatus) (int64, error)

	// AppendHistory records a status change. Append-only.
	AppendHistory(ctx context.Context, entry *models.KYCStatusHistory) error

	// HistoryByRecord returns a record's status changes, newest first.
	HistoryByRecord(ctx context.Context, recordID uuid.UUID) ([]models.KYCStatusHistory, error)
}

// validateRecord checks the document set of a record about to be created.
func validateRecord(r *models.KYCRecord) error {
	if _, ok := models.ParseSubjectType(string(r.SubjectType)); !ok {
		return kycerrors.Validation("unknown subject type %q", r.SubjectType)
	}
	if strings.TrimSpace(r.SubjectID) == "" {
		return kycerrors.Validation("subject id is required")
	}
	if strings.TrimSpace(r.AadharNumber) == "" {
		return kycerrors.Validation("aadhar number is required")
	}
	if strings.TrimSpace(r.AadharImageRef) == "" {
		return kycerrors.Validation("aadhar image reference is required")
	}
	if !r.SubjectType.AllowsPAN() && (r.PanNumber != nil || r.PanImageRef != nil) {
		return kycerrors.Validation("pan details are not accepted for subject type %q", r.SubjectType)
	}
	if r.PanNumber != nil && strings.TrimSpace(*r.PanNumber) == "" {
		return kycerrors.Validation("pan number must not be empty when supplied")
	}
	if r.PanImageRef != nil && strings.TrimSpace(*r.PanImageRef) == "" {
		return kycerrors.Validation("pan image reference must not be empty when supplied")
	}
	return nil
}
