package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/models"
	"github.com/verikyc/backend/internal/services/query"
	"github.com/verikyc/backend/internal/services/review"
)

// KYCHandler handles KYC verification related requests
type KYCHandler struct {
	Review *review.Service
	Query  *query.Service
}

// NewKYCHandler creates a new KYC handler
func NewKYCHandler(reviewSvc *review.Service, querySvc *query.Service) *KYCHandler {
	return &KYCHandler{Review: reviewSvc, Query: querySvc}
}

// SubmitKYC handles a subject's document submission
func (h *KYCHandler) SubmitKYC(c *gin.Context) {
	subjectType, ok := subjectTypeParam(c)
	if !ok {
		return
	}

	var request struct {
		SubjectID string           `json:"subject_id" binding:"required"`
		Documents models.Documents `json:"documents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, kycerrors.Validation("invalid submission payload: %v", err))
		return
	}

	record, err := h.Review.Submit(c.Request.Context(), subjectType, request.SubjectID, request.Documents)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetPendingSummary returns the pending records of both subject types
func (h *KYCHandler) GetPendingSummary(c *gin.Context) {
	summary, err := h.Query.PendingSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListKYC returns one page of records of a subject type, filtered by status
// and an optional free-text search against the joined directory profile
func (h *KYCHandler) ListKYC(c *gin.Context) {
	subjectType, ok := subjectTypeParam(c)
	if !ok {
		return
	}

	status := models.KYCStatusPending
	if raw := c.Query("status"); raw != "" {
		parsed, ok := models.ParseKYCStatus(raw)
		if !ok {
			respondError(c, kycerrors.Validation("unknown status %q", raw))
			return
		}
		status = parsed
	}

	h.list(c, subjectType, status)
}

// ListApprovedKYC returns one page of approved records of a subject type
func (h *KYCHandler) ListApprovedKYC(c *gin.Context) {
	subjectType, ok := subjectTypeParam(c)
	if !ok {
		return
	}
	h.list(c, subjectType, models.KYCStatusApproved)
}

func (h *KYCHandler) list(c *gin.Context, subjectType models.SubjectType, status models.KYCStatus) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", query.DefaultPageSize)

	records, pageInfo, err := h.Query.List(c.Request.Context(), subjectType, status, c.Query("search"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records":   records,
		"page_info": pageInfo,
	})
}

// ApproveKYC approves a pending record
func (h *KYCHandler) ApproveKYC(c *gin.Context) {
	subjectType, ok := subjectTypeParam(c)
	if !ok {
		return
	}
	reviewerID, ok := reviewerID(c)
	if !ok {
		return
	}

	var request struct {
		RecordID string `json:"record_id" binding:"required"`
		Remarks  string `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, kycerrors.Validation("invalid approval payload: %v", err))
		return
	}
	recordID, err := uuid.Parse(request.RecordID)
	if err != nil {
		respondError(c, kycerrors.Validation("invalid record id"))
		return
	}

	record, err := h.Review.Approve(c.Request.Context(), subjectType, recordID, reviewerID, request.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// RejectKYC rejects a pending record; the rejection reason is mandatory
func (h *KYCHandler) RejectKYC(c *gin.Context) {
	subjectType, ok := subjectTypeParam(c)
	if !ok {
		return
	}
	reviewerID, ok := reviewerID(c)
	if !ok {
		return
	}

	var request struct {
		RecordID        string `json:"record_id" binding:"required"`
		RejectionReason string `json:"rejection_reason"`
		Remarks         string `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, kycerrors.Validation("invalid rejection payload: %v", err))
		return
	}
	recordID, err := uuid.Parse(request.RecordID)
	if err != nil {
		respondError(c, kycerrors.Validation("invalid record id"))
		return
	}

	record, err := h.Review.Reject(c.Request.Context(), subjectType, recordID, reviewerID, request.RejectionReason, request.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetKYCByID returns a record with its status history and directory profile
func (h *KYCHandler) GetKYCByID(c *gin.Context) {
	subjectType, ok := subjectTypeParam(c)
	if !ok {
		return
	}
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, kycerrors.Validation("invalid record id"))
		return
	}

	record, history, err := h.Review.Get(c.Request.Context(), subjectType, recordID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record":  record,
		"history": history,
	})
}

// GetSubjectStatus returns a subject's derived KYC status, including the
// synthetic not_submitted case
func (h *KYCHandler) GetSubjectStatus(c *gin.Context) {
	subjectType, ok := subjectTypeParam(c)
	if !ok {
		return
	}
	subjectID := c.Param("subjectId")

	status, record, err := h.Review.StatusForSubject(c.Request.Context(), subjectType, subjectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_type": subjectType,
		"subject_id":   subjectID,
		"status":       status,
		"record":       record,
	})
}

// subjectTypeParam parses the :subjectType path parameter
func subjectTypeParam(c *gin.Context) (models.SubjectType, bool) {
	subjectType, ok := models.ParseSubjectType(c.Param("subjectType"))
	if !ok {
		respondError(c, kycerrors.Validation("unknown subject type %q", c.Param("subjectType")))
		return "", false
	}
	return subjectType, true
}

// reviewerID reads the reviewer identity set by the auth middleware
func reviewerID(c *gin.Context) (string, bool) {
	id := c.GetString("reviewer_id")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
			"kind":    "unauthorized",
			"message": "reviewer identity not found",
		}})
		return "", false
	}
	return id, true
}

// intQuery parses a positive integer query parameter with a default
func intQuery(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			return value
		}
	}
	return fallback
}

// respondError maps the error taxonomy onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var kerr *kycerrors.Error
	if !errors.As(err, &kerr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"kind":    kycerrors.KindInternal,
			"message": "internal server error",
		}})
		return
	}

	status := http.StatusInternalServerError
	switch kerr.Kind {
	case kycerrors.KindNotFound:
		status = http.StatusNotFound
	case kycerrors.KindValidation:
		status = http.StatusBadRequest
	case kycerrors.KindInvalidTransition:
		status = http.StatusUnprocessableEntity
	case kycerrors.KindConflict:
		status = http.StatusConflict
	case kycerrors.KindUpstreamUnavailable:
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": gin.H{
		"kind":    kerr.Kind,
		"message": kerr.Message,
	}})
}
