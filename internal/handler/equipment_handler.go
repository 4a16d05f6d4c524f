package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/internal/service"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
	"github.com/sanketcencora/squadron-verify-api/pkg/response"
)

// EquipmentHandler exposes office equipment count endpoints.
type EquipmentHandler struct {
	equipment *service.EquipmentService
}

// NewEquipmentHandler constructs EquipmentHandler.
func NewEquipmentHandler(equipment *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment}
}

// List godoc
// @Summary List equipment counts
// @Tags Equipment
// @Produce json
// @Param category query string false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /equipment [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	var category *models.EquipmentCategory
	if raw := c.Query("category"); raw != "" {
		value := models.EquipmentCategory(raw)
		category = &value
	}
	items, err := h.equipment.List(c.Request.Context(), category)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Stats godoc
// @Summary Equipment totals per category
// @Tags Equipment
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /equipment/stats [get]
func (h *EquipmentHandler) Stats(c *gin.Context) {
	stats, err := h.equipment.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Get godoc
// @Summary Get equipment count detail
// @Tags Equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) Get(c *gin.Context) {
	item, err := h.equipment.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Register an equipment count
// @Tags Equipment
// @Accept json
// @Produce json
// @Param payload body service.UpsertEquipmentRequest true "Equipment payload"
// @Success 201 {object} response.Envelope
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req service.UpsertEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.equipment.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update an equipment count
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Param payload body service.UpsertEquipmentRequest true "Equipment payload"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [put]
func (h *EquipmentHandler) Update(c *gin.Context) {
	var req service.UpsertEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.equipment.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete an equipment count
// @Tags Equipment
// @Param id path string true "Equipment ID"
// @Success 204 {object} response.Envelope
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c *gin.Context) {
	if err := h.equipment.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
