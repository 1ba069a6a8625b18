package kycstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/models"
)

// InMemory is a mutex-guarded map implementation of Store with the same
// semantics as Postgres. Used by unit tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.KYCRecord
	history []models.KYCStatusHistory
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[uuid.UUID]models.KYCRecord)}
}

// Create persists a new pending record.
func (s *InMemory) Create(ctx context.Context, record *models.KYCRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = now
	}
	record.Status = models.KYCStatusPending
	record.CreatedAt = now
	record.UpdatedAt = now
	s.records[record.ID] = *record
	return nil
}

// GetByID returns the record or a not_found error.
func (s *InMemory) GetByID(ctx context.Context, id uuid.UUID) (*models.KYCRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, kycerrors.NotFound("kyc record %s not found", id)
	}
	return &record, nil
}

// LatestBySubject returns the newest record of a subject.
func (s *InMemory) LatestBySubject(ctx context.Context, subjectType models.SubjectType, subjectID string) (*models.KYCRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.KYCRecord
	for id := range s.records {
		record := s.records[id]
		if record.SubjectType != subjectType || record.SubjectID != subjectID {
			continue
		}
		if latest == nil || record.SubmittedAt.After(latest.SubmittedAt) {
			r := record
			latest = &r
		}
	}
	if latest == nil {
		return nil, kycerrors.NotFound("no kyc record for %s %s", subjectType, subjectID)
	}
	return latest, nil
}

// ConditionalUpdate verifies the status guard and applies mutate under the
// store lock, so exactly one of two racing transitions can win.
func (s *InMemory) ConditionalUpdate(ctx context.Context, id uuid.UUID, expected models.KYCStatus, mutate Mutator) (*models.KYCRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil, kycerrors.NotFound("kyc record %s not found", id)
	}
	if record.Status != expected {
		return nil, kycerrors.Conflict("kyc record %s is %s, expected %s", id, record.Status, expected)
	}
	mutate(&record)
	record.UpdatedAt = time.Now().UTC()
	s.records[id] = record
	return &record, nil
}

// ListByStatus returns records of one subject type and status, newest first.
func (s *InMemory) ListByStatus(ctx context.Context, subjectType models.SubjectType, status models.KYCStatus) ([]models.KYCRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []models.KYCRecord
	for id := range s.records {
		record := s.records[id]
		if record.SubjectType == subjectType && record.Status == status {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SubmittedAt.After(records[j].SubmittedAt)
	})
	return records, nil
}

// CountByStatus counts records of one subject type and status.
func (s *InMemory) CountByStatus(ctx context.Context, subjectType models.SubjectType, status models.KYCStatus) (int64, error) {
	records, err := s.ListByStatus(ctx, subjectType, status)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

// AppendHistory records a status change.
func (s *InMemory) AppendHistory(ctx context.Context, entry *models.KYCStatusHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.history = append(s.history, *entry)
	return nil
}

// HistoryByRecord returns a record's status changes, newest first.
func (s *InMemory) HistoryByRecord(ctx context.Context, recordID uuid.UUID) ([]models.KYCStatusHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.KYCStatusHistory
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].RecordID == recordID {
			entries = append(entries, s.history[i])
		}
	}
	return entries, nil
}

var _ Store = (*InMemory)(nil)
