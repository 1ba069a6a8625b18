// Package query is the read side of the KYC workflow: cross-subject-type
// summaries and filtered, profile-enriched list views for dashboards. It
// never mutates records and may observe a slightly stale snapshot.
package query

import (
	"context"
	"strings"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/metrics"
	"github.com/verikyc/backend/internal/models"
	"github.com/verikyc/backend/internal/services/directory"
	"github.com/verikyc/backend/internal/store/kycstore"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// EnrichedRecord is a KYC record joined with its directory profile. Profile
// is nil when the directory lookup failed or the subject is unknown there.
type EnrichedRecord struct {
	models.KYCRecord
	Profile *directory.Profile `json:"profile"`
}

// PageInfo describes the page of a list response.
type PageInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNextPage bool  `json:"has_next_page"`
}

// PendingSummary is the dashboard view of everything awaiting review.
// TotalPending always equals the sum of the two slices.
type PendingSummary struct {
	StudentPending       []EnrichedRecord `json:"student_pending"`
	SocietyMemberPending []EnrichedRecord `json:"society_member_pending"`
	TotalPending         int              `json:"total_pending"`
}

// Service answers read-only queries over the record store, joining subject
// display data from the directory.
type Service struct {
	store     kycstore.Store
	directory directory.Directory
}

// NewService creates a query service.
func NewService(store kycstore.Store, dir directory.Directory) *Service {
	return &Service{store: store, directory: dir}
}

// PendingSummary returns the pending records of both subject types.
func (s *Service) PendingSummary(ctx context.Context) (*PendingSummary, error) {
	students, err := s.enrichedByStatus(ctx, models.SubjectTypeStudent, models.KYCStatusPending)
	if err != nil {
		return nil, err
	}
	members, err := s.enrichedByStatus(ctx, models.SubjectTypeSocietyMember, models.KYCStatusPending)
	if err != nil {
		return nil, err
	}
	return &PendingSummary{
		StudentPending:       students,
		SocietyMemberPending: members,
		TotalPending:         len(students) + len(members),
	}, nil
}

// List returns one page of records of a subject type and status, each joined
// with its directory profile. A non-empty search narrows the result to
// records whose profile matches BEFORE pagination is applied, so a search
// never loses matches to page boundaries.
func (s *Service) List(ctx context.Context, subjectType models.SubjectType, status models.KYCStatus, search string, page, limit int) ([]EnrichedRecord, PageInfo, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	enriched, err := s.enrichedByStatus(ctx, subjectType, status)
	if err != nil {
		return nil, PageInfo{}, err
	}

	if q := strings.TrimSpace(search); q != "" {
		filtered := enriched[:0]
		for _, record := range enriched {
			if record.matches(q) {
				filtered = append(filtered, record)
			}
		}
		enriched = filtered
	}

	total := len(enriched)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	pageInfo := PageInfo{
		Page:        page,
		Limit:       limit,
		Total:       int64(total),
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
	}
	return enriched[start:end], pageInfo, nil
}

// enrichedByStatus lists records and joins each with its directory profile.
// Directory failures are absorbed: the record comes back with a nil profile.
func (s *Service) enrichedByStatus(ctx context.Context, subjectType models.SubjectType, status models.KYCStatus) ([]EnrichedRecord, error) {
	records, err := s.store.ListByStatus(ctx, subjectType, status)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedRecord, 0, len(records))
	for _, record := range records {
		profile, err := s.directory.GetProfile(ctx, record.SubjectType, record.SubjectID)
		if err != nil {
			if kycerrors.IsKind(err, kycerrors.KindUpstreamUnavailable) {
				metrics.DirectoryLookupFailures.Inc()
			}
			profile = nil
		}
		enriched = append(enriched, EnrichedRecord{KYCRecord: record, Profile: profile})
	}
	return enriched, nil
}

// matches reports whether the record's joined profile matches the search
// term: case-insensitive substring over name, display id, email and society
// name. Records without a profile never match.
func (r EnrichedRecord) matches(q string) bool {
	if r.Profile == nil {
		return false
	}
	q = strings.ToLower(q)
	fields := []string{
		r.Profile.FirstName,
		r.Profile.LastName,
		r.Profile.FirstName + " " + r.Profile.LastName,
		r.Profile.Email,
		r.Profile.DisplayID,
	}
	if r.Profile.SocietyName != nil {
		fields = append(fields, *r.Profile.SocietyName)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
