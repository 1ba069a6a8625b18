// Package directory looks up subject display profiles from the external
// Subject Directory. Lookups are best-effort enrichment: they run with their
// own timeout, never participate in record writes, and a failure degrades to
// a nil profile instead of failing the caller.
package directory

import (
	"context"

	"github.com/verikyc/backend/internal/models"
)

// Profile is the display profile of a subject, owned by the external
// directory.
type Profile struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	DisplayID   string  `json:"display_id"`
	SocietyName *string `json:"society_name,omitempty"`
}

// Directory resolves subject profiles.
type Directory interface {
	// GetProfile returns the profile of a subject, a not_found error when
	// the directory does not know the subject, or an upstream_unavailable
	// error when the directory cannot be reached.
	GetProfile(ctx context.Context, subjectType models.SubjectType, subjectID string) (*Profile, error)
}
