package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KYCStatus represents the status of a KYC record
type KYCStatus string

const (
	// KYCStatusNotSubmitted is the derived status of a subject with no record;
	// it is never stored on a record.
	KYCStatusNotSubmitted KYCStatus = "not_submitted"
	KYCStatusPending      KYCStatus = "pending"
	KYCStatusApproved     KYCStatus = "approved"
	KYCStatusRejected     KYCStatus = "rejected"
)

// Terminal reports whether no further transition is permitted from s.
func (s KYCStatus) Terminal() bool {
	return s == KYCStatusApproved || s == KYCStatusRejected
}

// ParseKYCStatus parses a stored (non-derived) status value.
func ParseKYCStatus(raw string) (KYCStatus, bool) {
	switch KYCStatus(raw) {
	case KYCStatusPending, KYCStatusApproved, KYCStatusRejected:
		return KYCStatus(raw), true
	}
	return "", false
}

// SubjectType discriminates the two subject populations. Every record carries
// an explicit tag; the type is never inferred from which document fields
// happen to be populated.
type SubjectType string

const (
	SubjectTypeStudent       SubjectType = "student"
	SubjectTypeSocietyMember SubjectType = "society-member"
)

// SubjectTypes lists all known subject types in a stable order.
var SubjectTypes = []SubjectType{SubjectTypeStudent, SubjectTypeSocietyMember}

// ParseSubjectType parses a path-parameter subject type.
func ParseSubjectType(raw string) (SubjectType, bool) {
	switch SubjectType(raw) {
	case SubjectTypeStudent, SubjectTypeSocietyMember:
		return SubjectType(raw), true
	}
	return "", false
}

// AllowsPAN reports whether PAN document fields may be populated for this
// subject type.
func (t SubjectType) AllowsPAN() bool {
	return t == SubjectTypeSocietyMember
}

// Documents is the identity-document set attached to a submission. Image
// references are opaque URIs; their content is never fetched here.
type Documents struct {
	AadharNumber   string  `json:"aadhar_number" binding:"required"`
	AadharImageRef string  `json:"aadhar_image_ref" binding:"required"`
	PanNumber      *string `json:"pan_number,omitempty"`
	PanImageRef    *string `json:"pan_image_ref,omitempty"`
}

// KYCRecord is one verification submission. The record itself is the audit
// log: reviewed_at, reviewed_by, remarks and rejection_reason are written
// exactly once, atomically with the terminal status, and never overwritten.
type KYCRecord struct {
	ID              uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	SubjectType     SubjectType `gorm:"type:varchar(20);not null;index:idx_kyc_records_subject" json:"subject_type"`
	SubjectID       string      `gorm:"type:varchar(64);not null;index:idx_kyc_records_subject" json:"subject_id"`
	AadharNumber    string      `gorm:"type:varchar(20);not null" json:"aadhar_number"`
	AadharImageRef  string      `gorm:"type:text;not null" json:"aadhar_image_ref"`
	PanNumber       *string     `gorm:"type:varchar(20)" json:"pan_number,omitempty"`
	PanImageRef     *string     `gorm:"type:text" json:"pan_image_ref,omitempty"`
	Status          KYCStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SubmittedAt     time.Time   `gorm:"not null" json:"submitted_at"`
	ReviewedAt      *time.Time  `json:"reviewed_at,omitempty"`
	ReviewedBy      *string     `gorm:"type:varchar(64)" json:"reviewed_by,omitempty"`
	RejectionReason *string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	Remarks         *string     `gorm:"type:text" json:"remarks,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// BeforeCreate sets the record id and submission timestamp.
func (r *KYCRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	return nil
}

// Documents returns the document set carried by the record.
func (r *KYCRecord) Documents() Documents {
	return Documents{
		AadharNumber:   r.AadharNumber,
		AadharImageRef: r.AadharImageRef,
		PanNumber:      r.PanNumber,
		PanImageRef:    r.PanImageRef,
	}
}

// KYCStatusHistory tracks status changes of a KYC record, one row per
// transition including the initial submission. Append-only.
type KYCStatusHistory struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecordID       uuid.UUID `gorm:"type:uuid;not null;index" json:"record_id"`
	PreviousStatus KYCStatus `gorm:"type:varchar(20);not null" json:"previous_status"`
	NewStatus      KYCStatus `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedBy      string    `gorm:"type:varchar(64)" json:"changed_by"`
	Comment        string    `gorm:"type:text" json:"comment"`
	CreatedAt      time.Time `json:"created_at"`
}

// BeforeCreate sets the history entry id.
func (h *KYCStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
