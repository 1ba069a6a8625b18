package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/models"
	"github.com/verikyc/backend/internal/services/directory"
	"github.com/verikyc/backend/internal/services/query"
	"github.com/verikyc/backend/internal/services/review"
	"github.com/verikyc/backend/internal/store/kycstore"
)

// stubDirectory resolves nothing; list views degrade to nil profiles.
type stubDirectory struct{}

func (stubDirectory) GetProfile(ctx context.Context, subjectType models.SubjectType, subjectID string) (*directory.Profile, error) {
	return nil, kycerrors.NotFound("no directory profile for %s %s", subjectType, subjectID)
}

// newTestRouter wires the handler behind a fake authenticated reviewer.
func newTestRouter() (*gin.Engine, *review.Service) {
	gin.SetMode(gin.TestMode)

	store := kycstore.NewInMemory()
	reviewSvc := review.NewService(store)
	querySvc := query.NewService(store, stubDirectory{})
	handler := NewKYCHandler(reviewSvc, querySvc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("reviewer_id", "admin-1")
		c.Set("is_admin", true)
	})

	kyc := router.Group("/api/v1/kyc")
	{
		kyc.POST("/:subjectType/submit", handler.SubmitKYC)
		kyc.GET("/pending", handler.GetPendingSummary)
		kyc.GET("/:subjectType", handler.ListKYC)
		kyc.GET("/approved/:subjectType", handler.ListApprovedKYC)
		kyc.POST("/:subjectType/approve", handler.ApproveKYC)
		kyc.POST("/:subjectType/reject", handler.RejectKYC)
		kyc.GET("/:subjectType/records/:id", handler.GetKYCByID)
		kyc.GET("/:subjectType/subjects/:subjectId/status", handler.GetSubjectStatus)
	}
	return router, reviewSvc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload.Error.Kind
}

func submitStudent(t *testing.T, router *gin.Engine, subjectID string) models.KYCRecord {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/student/submit", gin.H{
		"subject_id": subjectID,
		"documents": gin.H{
			"aadhar_number":    "1234-5678-9012",
			"aadhar_image_ref": "blob://a1",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var record models.KYCRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	return record
}

func TestSubmitEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	record := submitStudent(t, router, "S1")
	assert.Equal(t, models.KYCStatusPending, record.Status)
	assert.Equal(t, models.SubjectTypeStudent, record.SubjectType)
	assert.False(t, record.SubmittedAt.IsZero())
	assert.Nil(t, record.PanNumber)

	t.Run("unknown subject type", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/employee/submit", gin.H{
			"subject_id": "E1",
			"documents":  gin.H{"aadhar_number": "1", "aadhar_image_ref": "blob://x"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", errorKind(t, w))
	})

	t.Run("pan details rejected for students", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/student/submit", gin.H{
			"subject_id": "S2",
			"documents": gin.H{
				"aadhar_number":    "1234-5678-9012",
				"aadhar_image_ref": "blob://a2",
				"pan_number":       "ABCDE1234F",
			},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", errorKind(t, w))
	})

	t.Run("duplicate submission conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/student/submit", gin.H{
			"subject_id": "S1",
			"documents":  gin.H{"aadhar_number": "1234-5678-9012", "aadhar_image_ref": "blob://a1"},
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "conflict", errorKind(t, w))
	})
}

func TestApproveEndpoint(t *testing.T) {
	router, _ := newTestRouter()
	record := submitStudent(t, router, "S1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/student/approve", gin.H{
		"record_id": record.ID.String(),
		"remarks":   "ok",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var approved models.KYCRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &approved))
	assert.Equal(t, models.KYCStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, "admin-1", *approved.ReviewedBy)
	require.NotNil(t, approved.Remarks)
	assert.Equal(t, "ok", *approved.Remarks)

	t.Run("second approve is terminal", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/student/approve", gin.H{
			"record_id": record.ID.String(),
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid_transition", errorKind(t, w))
	})

	t.Run("unknown record id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/student/approve", gin.H{
			"record_id": "6f1f64ad-545e-4c2c-8f22-2c3e6f6f0b10",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", errorKind(t, w))
	})

	t.Run("malformed record id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/student/approve", gin.H{
			"record_id": "not-a-uuid",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRejectEndpoint(t *testing.T) {
	router, _ := newTestRouter()
	record := submitStudent(t, router, "S1")

	t.Run("missing rejection reason", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/student/reject", gin.H{
			"record_id": record.ID.String(),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", errorKind(t, w))
	})

	t.Run("reject with reason and default remarks", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/kyc/student/reject", gin.H{
			"record_id":        record.ID.String(),
			"rejection_reason": "blurry image",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var rejected models.KYCRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rejected))
		assert.Equal(t, models.KYCStatusRejected, rejected.Status)
		require.NotNil(t, rejected.RejectionReason)
		assert.Equal(t, "blurry image", *rejected.RejectionReason)
		require.NotNil(t, rejected.Remarks)
		assert.Equal(t, review.DefaultRejectRemarks, *rejected.Remarks)
	})
}

func TestPendingSummaryEndpoint(t *testing.T) {
	router, _ := newTestRouter()
	for i := 1; i <= 2; i++ {
		submitStudent(t, router, fmt.Sprintf("S%d", i))
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/kyc/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary query.PendingSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Len(t, summary.StudentPending, 2)
	assert.Empty(t, summary.SocietyMemberPending)
	assert.Equal(t, 2, summary.TotalPending)
}

func TestListEndpoints(t *testing.T) {
	router, reviewSvc := newTestRouter()
	record := submitStudent(t, router, "S1")
	submitStudent(t, router, "S2")

	_, err := reviewSvc.Approve(context.Background(), models.SubjectTypeStudent, record.ID, "admin-1", "")
	require.NoError(t, err)

	t.Run("pending list", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/kyc/student?status=pending", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var payload struct {
			Records  []query.EnrichedRecord `json:"records"`
			PageInfo query.PageInfo         `json:"page_info"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Len(t, payload.Records, 1)
		assert.EqualValues(t, 1, payload.PageInfo.Total)
	})

	t.Run("approved list shorthand", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/kyc/approved/student", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var payload struct {
			Records []query.EnrichedRecord `json:"records"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		require.Len(t, payload.Records, 1)
		assert.Equal(t, record.ID, payload.Records[0].ID)
	})

	t.Run("unknown status filter", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/kyc/student?status=archived", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecordAndSubjectStatusEndpoints(t *testing.T) {
	router, _ := newTestRouter()
	record := submitStudent(t, router, "S1")

	t.Run("record with history", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/kyc/student/records/"+record.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var payload struct {
			Record  models.KYCRecord          `json:"record"`
			History []models.KYCStatusHistory `json:"history"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, record.ID, payload.Record.ID)
		require.Len(t, payload.History, 1)
		assert.Equal(t, models.KYCStatusPending, payload.History[0].NewStatus)
	})

	t.Run("record hidden across subject types", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/kyc/society-member/records/"+record.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("derived status", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/kyc/student/subjects/S1/status", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var payload struct {
			Status models.KYCStatus `json:"status"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, models.KYCStatusPending, payload.Status)
	})

	t.Run("derived status for unknown subject", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/kyc/student/subjects/ghost/status", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var payload struct {
			Status models.KYCStatus `json:"status"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, models.KYCStatusNotSubmitted, payload.Status)
	})
}
