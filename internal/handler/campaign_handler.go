package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/internal/service"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
	"github.com/sanketcencora/squadron-verify-api/pkg/response"
)

// CampaignHandler exposes the admin campaign lifecycle endpoints.
type CampaignHandler struct {
	campaigns *service.CampaignService
	tokens    *service.TokenService
	exports   *service.ExportService
	metrics   *service.MetricsService
}

// NewCampaignHandler constructs CampaignHandler.
func NewCampaignHandler(campaigns *service.CampaignService, tokens *service.TokenService, exports *service.ExportService, metrics *service.MetricsService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, tokens: tokens, exports: exports, metrics: metrics}
}

// List godoc
// @Summary List campaigns
// @Tags Campaigns
// @Produce json
// @Param status query string false "Filter by lifecycle status"
// @Param createdBy query string false "Filter by creator"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	var filter dto.CampaignListFilter
	if status := c.Query("status"); status != "" {
		s := models.CampaignStatus(status)
		filter.Status = &s
	}
	filter.CreatedBy = c.Query("createdBy")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	campaigns, total, err := h.campaigns.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, campaigns, pagination)
}

// Stats godoc
// @Summary Campaign totals per lifecycle status
// @Tags Campaigns
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /campaigns/stats [get]
func (h *CampaignHandler) Stats(c *gin.Context) {
	stats, err := h.campaigns.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Get godoc
// @Summary Get campaign detail
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.campaigns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// Create godoc
// @Summary Create campaign
// @Description Scope a campaign and materialise its verification records
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body dto.CreateCampaignRequest true "Campaign payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	campaign, err := h.campaigns.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, campaign)
}

// Update godoc
// @Summary Update campaign metadata
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.UpdateCampaignRequest true "Campaign payload"
// @Success 200 {object} response.Envelope
// @Router /campaigns/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	var req dto.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	campaign, err := h.campaigns.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// Delete godoc
// @Summary Delete campaign
// @Description Removes the campaign with its records and tokens
// @Tags Campaigns
// @Param id path string true "Campaign ID"
// @Success 204 {object} response.Envelope
// @Router /campaigns/{id} [delete]
func (h *CampaignHandler) Delete(c *gin.Context) {
	if err := h.campaigns.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Launch godoc
// @Summary Launch campaign
// @Description Activates the campaign, mints verification links and queues notifications
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /campaigns/{id}/launch [post]
func (h *CampaignHandler) Launch(c *gin.Context) {
	result, err := h.campaigns.Launch(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.AlreadyActive {
		h.metrics.CampaignLaunched()
		h.metrics.TokensIssued(len(result.Links))
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SendReminders godoc
// @Summary Send reminders
// @Description Notifies employees with pending records, minting fresh links where needed
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaigns/{id}/reminders [post]
func (h *CampaignHandler) SendReminders(c *gin.Context) {
	result, err := h.campaigns.SendReminders(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.MintedCount > 0 {
		h.metrics.TokensIssued(result.MintedCount)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Complete godoc
// @Summary Complete campaign
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaigns/{id}/complete [post]
func (h *CampaignHandler) Complete(c *gin.Context) {
	campaign, err := h.campaigns.Complete(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// RecomputeCounts godoc
// @Summary Recompute campaign counters
// @Description Rebuilds the per-status counters from the records
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /campaigns/{id}/recount [post]
func (h *CampaignHandler) RecomputeCounts(c *gin.Context) {
	counts, err := h.campaigns.RecomputeCounts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// Tokens godoc
// @Summary List campaign tokens
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Param valid query bool false "Only tokens that are still redeemable"
// @Success 200 {object} response.Envelope
// @Router /campaigns/{id}/tokens [get]
func (h *CampaignHandler) Tokens(c *gin.Context) {
	var (
		tokens []models.VerificationToken
		err    error
	)
	if c.Query("valid") == "true" {
		tokens, err = h.tokens.ListValidByCampaign(c.Request.Context(), c.Param("id"))
	} else {
		tokens, err = h.tokens.ListByCampaign(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tokens, nil)
}

// ExportCSV godoc
// @Summary Export campaign records as CSV
// @Tags Campaigns
// @Produce text/csv
// @Param id path string true "Campaign ID"
// @Success 200 {file} file
// @Router /campaigns/{id}/export/csv [get]
func (h *CampaignHandler) ExportCSV(c *gin.Context) {
	data, filename, err := h.exports.CampaignCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportPDF godoc
// @Summary Export campaign records as PDF
// @Tags Campaigns
// @Produce application/pdf
// @Param id path string true "Campaign ID"
// @Success 200 {file} file
// @Router /campaigns/{id}/export/pdf [get]
func (h *CampaignHandler) ExportPDF(c *gin.Context) {
	data, filename, err := h.exports.CampaignPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}
