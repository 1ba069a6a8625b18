package kycstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/models"
)

type KYCStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *KYCStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestKYCStoreSuite(t *testing.T) {
	suite.Run(t, new(KYCStoreSuite))
}

func (s *KYCStoreSuite) newRecord(subjectType models.SubjectType, subjectID string) *models.KYCRecord {
	return &models.KYCRecord{
		SubjectType:    subjectType,
		SubjectID:      subjectID,
		AadharNumber:   "1234-5678-9012",
		AadharImageRef: "blob://aadhar/" + subjectID,
	}
}

func (s *KYCStoreSuite) TestCreateAndLookup() {
	s.Run("creates a pending record and finds it by id", func() {
		record := s.newRecord(models.SubjectTypeStudent, "S1")
		s.Require().NoError(s.store.Create(s.ctx, record))
		s.NotEqual(uuid.Nil, record.ID)
		s.False(record.SubmittedAt.IsZero())

		found, err := s.store.GetByID(s.ctx, record.ID)
		s.Require().NoError(err)
		s.Equal(models.KYCStatusPending, found.Status)
		s.Equal("S1", found.SubjectID)
		s.Nil(found.ReviewedAt)
		s.Nil(found.ReviewedBy)
	})

	s.Run("returns not_found for unknown id", func() {
		_, err := s.store.GetByID(s.ctx, uuid.New())
		s.True(kycerrors.IsKind(err, kycerrors.KindNotFound))
	})
}

func (s *KYCStoreSuite) TestCreateValidation() {
	s.Run("rejects missing aadhar number", func() {
		record := s.newRecord(models.SubjectTypeStudent, "S1")
		record.AadharNumber = ""
		err := s.store.Create(s.ctx, record)
		s.True(kycerrors.IsKind(err, kycerrors.KindValidation))
	})

	s.Run("rejects missing aadhar image ref", func() {
		record := s.newRecord(models.SubjectTypeStudent, "S1")
		record.AadharImageRef = "   "
		err := s.store.Create(s.ctx, record)
		s.True(kycerrors.IsKind(err, kycerrors.KindValidation))
	})

	s.Run("rejects pan details for students", func() {
		record := s.newRecord(models.SubjectTypeStudent, "S1")
		pan := "ABCDE1234F"
		record.PanNumber = &pan
		err := s.store.Create(s.ctx, record)
		s.True(kycerrors.IsKind(err, kycerrors.KindValidation))
	})

	s.Run("accepts optional pan details for society members", func() {
		record := s.newRecord(models.SubjectTypeSocietyMember, "M1")
		pan := "ABCDE1234F"
		panRef := "blob://pan/M1"
		record.PanNumber = &pan
		record.PanImageRef = &panRef
		s.Require().NoError(s.store.Create(s.ctx, record))
	})

	s.Run("accepts society members without pan details", func() {
		record := s.newRecord(models.SubjectTypeSocietyMember, "M2")
		s.Require().NoError(s.store.Create(s.ctx, record))
	})
}

func (s *KYCStoreSuite) TestConditionalUpdate() {
	approve := func(reviewer string) Mutator {
		return func(r *models.KYCRecord) {
			now := time.Now().UTC()
			r.Status = models.KYCStatusApproved
			r.ReviewedAt = &now
			r.ReviewedBy = &reviewer
		}
	}

	s.Run("applies the mutation when the guard holds", func() {
		record := s.newRecord(models.SubjectTypeStudent, "S1")
		s.Require().NoError(s.store.Create(s.ctx, record))

		updated, err := s.store.ConditionalUpdate(s.ctx, record.ID, models.KYCStatusPending, approve("admin-1"))
		s.Require().NoError(err)
		s.Equal(models.KYCStatusApproved, updated.Status)
		s.Require().NotNil(updated.ReviewedBy)
		s.Equal("admin-1", *updated.ReviewedBy)
	})

	s.Run("returns conflict once the record is terminal", func() {
		record := s.newRecord(models.SubjectTypeStudent, "S2")
		s.Require().NoError(s.store.Create(s.ctx, record))
		_, err := s.store.ConditionalUpdate(s.ctx, record.ID, models.KYCStatusPending, approve("admin-1"))
		s.Require().NoError(err)

		_, err = s.store.ConditionalUpdate(s.ctx, record.ID, models.KYCStatusPending, approve("admin-2"))
		s.True(kycerrors.IsKind(err, kycerrors.KindConflict))

		// Audit fields remain those of the original transition.
		found, err := s.store.GetByID(s.ctx, record.ID)
		s.Require().NoError(err)
		s.Equal("admin-1", *found.ReviewedBy)
	})

	s.Run("returns not_found for an unknown record", func() {
		_, err := s.store.ConditionalUpdate(s.ctx, uuid.New(), models.KYCStatusPending, approve("admin-1"))
		s.True(kycerrors.IsKind(err, kycerrors.KindNotFound))
	})
}

func (s *KYCStoreSuite) TestLatestBySubject() {
	s.Run("returns the newest record for the subject", func() {
		first := s.newRecord(models.SubjectTypeSocietyMember, "M1")
		first.SubmittedAt = time.Now().UTC().Add(-time.Hour)
		s.Require().NoError(s.store.Create(s.ctx, first))

		second := s.newRecord(models.SubjectTypeSocietyMember, "M1")
		s.Require().NoError(s.store.Create(s.ctx, second))

		latest, err := s.store.LatestBySubject(s.ctx, models.SubjectTypeSocietyMember, "M1")
		s.Require().NoError(err)
		s.Equal(second.ID, latest.ID)
	})

	s.Run("does not cross subject types", func() {
		record := s.newRecord(models.SubjectTypeStudent, "X1")
		s.Require().NoError(s.store.Create(s.ctx, record))

		_, err := s.store.LatestBySubject(s.ctx, models.SubjectTypeSocietyMember, "X1")
		s.True(kycerrors.IsKind(err, kycerrors.KindNotFound))
	})
}

func (s *KYCStoreSuite) TestListAndCount() {
	for _, subjectID := range []string{"S1", "S2", "S3"} {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord(models.SubjectTypeStudent, subjectID)))
	}
	s.Require().NoError(s.store.Create(s.ctx, s.newRecord(models.SubjectTypeSocietyMember, "M1")))

	records, err := s.store.ListByStatus(s.ctx, models.SubjectTypeStudent, models.KYCStatusPending)
	s.Require().NoError(err)
	s.Len(records, 3)

	count, err := s.store.CountByStatus(s.ctx, models.SubjectTypeStudent, models.KYCStatusPending)
	s.Require().NoError(err)
	s.EqualValues(3, count)

	count, err = s.store.CountByStatus(s.ctx, models.SubjectTypeSocietyMember, models.KYCStatusApproved)
	s.Require().NoError(err)
	s.EqualValues(0, count)
}

func (s *KYCStoreSuite) TestHistory() {
	record := s.newRecord(models.SubjectTypeStudent, "S1")
	s.Require().NoError(s.store.Create(s.ctx, record))

	s.Require().NoError(s.store.AppendHistory(s.ctx, &models.KYCStatusHistory{
		RecordID:       record.ID,
		PreviousStatus: models.KYCStatusNotSubmitted,
		NewStatus:      models.KYCStatusPending,
		Comment:        "Documents submitted",
	}))
	s.Require().NoError(s.store.AppendHistory(s.ctx, &models.KYCStatusHistory{
		RecordID:       record.ID,
		PreviousStatus: models.KYCStatusPending,
		NewStatus:      models.KYCStatusApproved,
		ChangedBy:      "admin-1",
	}))

	entries, err := s.store.HistoryByRecord(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(models.KYCStatusApproved, entries[0].NewStatus)

	entries, err = s.store.HistoryByRecord(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(entries)
}
