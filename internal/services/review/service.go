// Package review orchestrates the KYC approval workflow: submissions,
// approvals and rejections, with audit stamping and optimistic concurrency
// through the store's conditional update.
package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/metrics"
	"github.com/verikyc/backend/internal/models"
	"github.com/verikyc/backend/internal/store/kycstore"
)

// Default remarks stamped when the reviewer supplies none.
const (
	DefaultApproveRemarks = "Documents verified successfully"
	DefaultRejectRemarks  = "Please resubmit with correct documents"
)

// Service is the contract administrators act against.
type Service struct {
	store kycstore.Store
	now   func() time.Time
}

// NewService creates a review service on top of a record store.
func NewService(store kycstore.Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Submit creates a pending record for a subject. A subject may resubmit only
// after a rejection; while a pending or approved record exists the submission
// is a conflict.
func (s *Service) Submit(ctx context.Context, subjectType models.SubjectType, subjectID string, docs models.Documents) (*models.KYCRecord, error) {
	latest, err := s.store.LatestBySubject(ctx, subjectType, subjectID)
	if err != nil && !kycerrors.IsKind(err, kycerrors.KindNotFound) {
		return nil, err
	}
	if latest != nil && latest.Status != models.KYCStatusRejected {
		return nil, kycerrors.Conflict("a kyc record for %s %s is already %s", subjectType, subjectID, latest.Status)
	}

	record := &models.KYCRecord{
		SubjectType:    subjectType,
		SubjectID:      subjectID,
		AadharNumber:   docs.AadharNumber,
		AadharImageRef: docs.AadharImageRef,
		PanNumber:      docs.PanNumber,
		PanImageRef:    docs.PanImageRef,
		SubmittedAt:    s.now(),
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}

	s.appendHistory(ctx, record.ID, models.KYCStatusNotSubmitted, models.KYCStatusPending, "", "Documents submitted")
	metrics.SubmissionsTotal.WithLabelValues(string(subjectType)).Inc()
	return record, nil
}

// Approve transitions a pending record to approved, stamping the reviewer
// and review time atomically with the status.
func (s *Service) Approve(ctx context.Context, subjectType models.SubjectType, recordID uuid.UUID, reviewerID, remarks string) (*models.KYCRecord, error) {
	if remarks == "" {
		remarks = DefaultApproveRemarks
	}
	record, err := s.loadScoped(ctx, subjectType, recordID)
	if err != nil {
		return nil, err
	}

	transition, err := ApproveTransition(record.Status, reviewerID, remarks, s.now())
	if err != nil {
		return nil, err
	}

	updated, err := s.store.ConditionalUpdate(ctx, recordID, models.KYCStatusPending, transition.Apply)
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, recordID, models.KYCStatusPending, models.KYCStatusApproved, reviewerID, remarks)
	metrics.TransitionsTotal.WithLabelValues(string(subjectType), string(models.KYCStatusApproved)).Inc()
	return updated, nil
}

// Reject transitions a pending record to rejected. The rejection reason is
// mandatory and validated before the conditional update is attempted.
func (s *Service) Reject(ctx context.Context, subjectType models.SubjectType, recordID uuid.UUID, reviewerID, reason, remarks string) (*models.KYCRecord, error) {
	if remarks == "" {
		remarks = DefaultRejectRemarks
	}
	record, err := s.loadScoped(ctx, subjectType, recordID)
	if err != nil {
		return nil, err
	}

	transition, err := RejectTransition(record.Status, reviewerID, reason, remarks, s.now())
	if err != nil {
		return nil, err
	}

	updated, err := s.store.ConditionalUpdate(ctx, recordID, models.KYCStatusPending, transition.Apply)
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, recordID, models.KYCStatusPending, models.KYCStatusRejected, reviewerID, reason)
	metrics.TransitionsTotal.WithLabelValues(string(subjectType), string(models.KYCStatusRejected)).Inc()
	return updated, nil
}

// Get returns a record together with its status history.
func (s *Service) Get(ctx context.Context, subjectType models.SubjectType, recordID uuid.UUID) (*models.KYCRecord, []models.KYCStatusHistory, error) {
	record, err := s.loadScoped(ctx, subjectType, recordID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.store.HistoryByRecord(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}
	return record, history, nil
}

// StatusForSubject computes the derived KYC status of a subject:
// not_submitted when no record exists, else the status of the subject's
// most recent record.
func (s *Service) StatusForSubject(ctx context.Context, subjectType models.SubjectType, subjectID string) (models.KYCStatus, *models.KYCRecord, error) {
	latest, err := s.store.LatestBySubject(ctx, subjectType, subjectID)
	if err != nil {
		if kycerrors.IsKind(err, kycerrors.KindNotFound) {
			return models.KYCStatusNotSubmitted, nil, nil
		}
		return "", nil, err
	}
	return latest.Status, latest, nil
}

// loadScoped loads a record and hides it behind not_found when it does not
// belong to the requested subject type, so ids cannot leak across routes.
func (s *Service) loadScoped(ctx context.Context, subjectType models.SubjectType, recordID uuid.UUID) (*models.KYCRecord, error) {
	record, err := s.store.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.SubjectType != subjectType {
		return nil, kycerrors.NotFound("kyc record %s not found for %s", recordID, subjectType)
	}
	return record, nil
}

// appendHistory is best-effort: the record itself is the authoritative audit
// log, so a history write failure must not roll back a committed transition.
func (s *Service) appendHistory(ctx context.Context, recordID uuid.UUID, prev, next models.KYCStatus, changedBy, comment string) {
	_ = s.store.AppendHistory(ctx, &models.KYCStatusHistory{
		RecordID:       recordID,
		PreviousStatus: prev,
		NewStatus:      next,
		ChangedBy:      changedBy,
		Comment:        comment,
		CreatedAt:      s.now(),
	})
}
