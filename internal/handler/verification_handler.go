package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/internal/service"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
	"github.com/sanketcencora/squadron-verify-api/pkg/response"
)

// VerificationHandler exposes the admin record and review endpoints.
type VerificationHandler struct {
	records  *service.VerificationService
	evidence *service.EvidenceService
}

// NewVerificationHandler constructs VerificationHandler.
func NewVerificationHandler(records *service.VerificationService, evidence *service.EvidenceService) *VerificationHandler {
	return &VerificationHandler{records: records, evidence: evidence}
}

// List godoc
// @Summary List verification records
// @Tags Verification
// @Produce json
// @Param campaignId query string false "Filter by campaign"
// @Param employeeId query string false "Filter by employee"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /verification-records [get]
func (h *VerificationHandler) List(c *gin.Context) {
	var filter dto.RecordListFilter
	filter.CampaignID = c.Query("campaignId")
	filter.EmployeeID = c.Query("employeeId")
	if status := c.Query("status"); status != "" {
		s := models.VerificationStatus(status)
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	records, total, err := h.records.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get verification record detail
// @Tags Verification
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /verification-records/{id} [get]
func (h *VerificationHandler) Get(c *gin.Context) {
	record, err := h.records.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Review godoc
// @Summary Review a record
// @Description Administrative override of a record's outcome
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body dto.ReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /verification-records/{id}/review [post]
func (h *VerificationHandler) Review(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.records.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// MarkException godoc
// @Summary Flag a record as an exception
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body dto.MarkExceptionRequest true "Exception payload"
// @Success 200 {object} response.Envelope
// @Router /verification-records/{id}/exception [post]
func (h *VerificationHandler) MarkException(c *gin.Context) {
	var req dto.MarkExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.records.MarkException(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// CampaignStats godoc
// @Summary Per-status record partition for a campaign
// @Tags Verification
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaigns/{id}/records/stats [get]
func (h *VerificationHandler) CampaignStats(c *gin.Context) {
	counts, err := h.records.StatsForCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// EvidenceURL godoc
// @Summary Signed evidence download link
// @Tags Verification
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /verification-records/{id}/evidence-url [get]
func (h *VerificationHandler) EvidenceURL(c *gin.Context) {
	record, err := h.records.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	token, expiresAt, err := h.evidence.SignedURL(record.ID, record.EvidenceRef)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        "/api/public/evidence/" + token,
		"expires_at": expiresAt,
	}, nil)
}
