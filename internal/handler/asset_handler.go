package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/internal/repository"
	"github.com/sanketcencora/squadron-verify-api/internal/service"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
	"github.com/sanketcencora/squadron-verify-api/pkg/response"
)

// AssetHandler exposes hardware asset registry endpoints.
type AssetHandler struct {
	assets *service.AssetService
}

// NewAssetHandler constructs AssetHandler.
func NewAssetHandler(assets *service.AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// List godoc
// @Summary List hardware assets
// @Tags Assets
// @Produce json
// @Param type query string false "Filter by asset type"
// @Param status query string false "Filter by assignment status"
// @Param assignedTo query string false "Filter by employee"
// @Param team query string false "Filter by team"
// @Param search query string false "Search by service tag or model"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	var filter repository.AssetFilter
	if assetType := c.Query("type"); assetType != "" {
		t := models.AssetType(assetType)
		filter.AssetType = &t
	}
	if status := c.Query("status"); status != "" {
		s := models.AssetStatus(status)
		filter.Status = &s
	}
	filter.AssignedTo = c.Query("assignedTo")
	filter.Team = c.Query("team")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	assets, total, err := h.assets.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, assets, pagination)
}

// Get godoc
// @Summary Get asset detail
// @Tags Assets
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Router /assets/{id} [get]
func (h *AssetHandler) Get(c *gin.Context) {
	asset, err := h.assets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, asset, nil)
}

// Create godoc
// @Summary Register a hardware asset
// @Tags Assets
// @Accept json
// @Produce json
// @Param payload body service.CreateAssetRequest true "Asset payload"
// @Success 201 {object} response.Envelope
// @Router /assets [post]
func (h *AssetHandler) Create(c *gin.Context) {
	var req service.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	asset, err := h.assets.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, asset)
}

// Assign godoc
// @Summary Assign an asset to an employee
// @Tags Assets
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param payload body service.AssignAssetRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /assets/{id}/assign [post]
func (h *AssetHandler) Assign(c *gin.Context) {
	var req service.AssignAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	asset, err := h.assets.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, asset, nil)
}

// Unassign godoc
// @Summary Return an asset to stock
// @Tags Assets
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Router /assets/{id}/unassign [post]
func (h *AssetHandler) Unassign(c *gin.Context) {
	asset, err := h.assets.Unassign(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, asset, nil)
}

// Delete godoc
// @Summary Delete an asset
// @Tags Assets
// @Param id path string true "Asset ID"
// @Success 204 {object} response.Envelope
// @Router /assets/{id} [delete]
func (h *AssetHandler) Delete(c *gin.Context) {
	if err := h.assets.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
