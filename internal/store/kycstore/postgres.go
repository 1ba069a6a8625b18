package kycstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/models"
)

// Postgres is the gorm-backed store implementation.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres creates a Postgres-backed KYC store.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// Create persists a new pending record.
func (s *Postgres) Create(ctx context.Context, record *models.KYCRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	record.Status = models.KYCStatusPending
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return kycerrors.Internal(err, "creating kyc record")
	}
	return nil
}

// GetByID returns the record or a not_found error.
func (s *Postgres) GetByID(ctx context.Context, id uuid.UUID) (*models.KYCRecord, error) {
	var record models.KYCRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kycerrors.NotFound("kyc record %s not found", id)
		}
		return nil, kycerrors.Internal(err, "finding kyc record")
	}
	return &record, nil
}

// LatestBySubject returns the newest record of a subject.
func (s *Postgres) LatestBySubject(ctx context.Context, subjectType models.SubjectType, subjectID string) (*models.KYCRecord, error) {
	var record models.KYCRecord
	err := s.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("submitted_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kycerrors.NotFound("no kyc record for %s %s", subjectType, subjectID)
		}
		return nil, kycerrors.Internal(err, "finding latest kyc record")
	}
	return &record, nil
}

// ConditionalUpdate performs the compare-on-status write in a single UPDATE
// guarded on both id and status; RowsAffected == 0 distinguishes a lost race
// from a missing record.
func (s *Postgres) ConditionalUpdate(ctx context.Context, id uuid.UUID, expected models.KYCStatus, mutate Mutator) (*models.KYCRecord, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status != expected {
		return nil, kycerrors.Conflict("kyc record %s is %s, expected %s", id, record.Status, expected)
	}

	mutate(record)

	// Only the transition-owned columns are writable; everything else on the
	// record is immutable once created.
	res := s.db.WithContext(ctx).
		Model(&models.KYCRecord{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]interface{}{
			"status":           record.Status,
			"reviewed_at":      record.ReviewedAt,
			"reviewed_by":      record.ReviewedBy,
			"rejection_reason": record.RejectionReason,
			"remarks":          record.Remarks,
		})
	if res.Error != nil {
		return nil, kycerrors.Internal(res.Error, "updating kyc record")
	}
	if res.RowsAffected == 0 {
		return nil, kycerrors.Conflict("kyc record %s left %s concurrently", id, expected)
	}
	return s.GetByID(ctx, id)
}

// ListByStatus returns records of one subject type and status, newest first.
func (s *Postgres) ListByStatus(ctx context.Context, subjectType models.SubjectType, status models.KYCStatus) ([]models.KYCRecord, error) {
	var records []models.KYCRecord
	err := s.db.WithContext(ctx).
		Where("subject_type = ? AND status = ?", subjectType, status).
		Order("submitted_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, kycerrors.Internal(err, "listing kyc records")
	}
	return records, nil
}

// CountByStatus counts records of one subject type and status.
func (s *Postgres) CountByStatus(ctx context.Context, subjectType models.SubjectType, status models.KYCStatus) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.KYCRecord{}).
		Where("subject_type = ? AND status = ?", subjectType, status).
		Count(&count).Error
	if err != nil {
		return 0, kycerrors.Internal(err, "counting kyc records")
	}
	return count, nil
}

// AppendHistory records a status change.
func (s *Postgres) AppendHistory(ctx context.Context, entry *models.KYCStatusHistory) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return kycerrors.Internal(err, "appending kyc history")
	}
	return nil
}

// HistoryByRecord returns a record's status changes, newest first.
func (s *Postgres) HistoryByRecord(ctx context.Context, recordID uuid.UUID) ([]models.KYCStatusHistory, error) {
	var entries []models.KYCStatusHistory
	err := s.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, kycerrors.Internal(err, "loading kyc history")
	}
	return entries, nil
}

var _ Store = (*Postgres)(nil)
