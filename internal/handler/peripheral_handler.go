package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanketcencora/squadron-verify-api/internal/service"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
	"github.com/sanketcencora/squadron-verify-api/pkg/response"
)

// PeripheralHandler exposes peripheral registry endpoints.
type PeripheralHandler struct {
	peripherals *service.PeripheralService
}

// NewPeripheralHandler constructs PeripheralHandler.
func NewPeripheralHandler(peripherals *service.PeripheralService) *PeripheralHandler {
	return &PeripheralHandler{peripherals: peripherals}
}

// List godoc
// @Summary List peripherals
// @Tags Peripherals
// @Produce json
// @Param assignedTo query string false "Filter by employee"
// @Success 200 {object} response.Envelope
// @Router /peripherals [get]
func (h *PeripheralHandler) List(c *gin.Context) {
	if employeeID := c.Query("assignedTo"); employeeID != "" {
		peripherals, err := h.peripherals.ListByAssignee(c.Request.Context(), employeeID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, peripherals, nil)
		return
	}
	peripherals, err := h.peripherals.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, peripherals, nil)
}

// Get godoc
// @Summary Get peripheral detail
// @Tags Peripherals
// @Produce json
// @Param id path string true "Peripheral ID"
// @Success 200 {object} response.Envelope
// @Router /peripherals/{id} [get]
func (h *PeripheralHandler) Get(c *gin.Context) {
	peripheral, err := h.peripherals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, peripheral, nil)
}

// Create godoc
// @Summary Register a peripheral
// @Tags Peripherals
// @Accept json
// @Produce json
// @Param payload body service.CreatePeripheralRequest true "Peripheral payload"
// @Success 201 {object} response.Envelope
// @Router /peripherals [post]
func (h *PeripheralHandler) Create(c *gin.Context) {
	var req service.CreatePeripheralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	peripheral, err := h.peripherals.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, peripheral)
}

// Assign godoc
// @Summary Assign a peripheral to an employee
// @Tags Peripherals
// @Accept json
// @Produce json
// @Param id path string true "Peripheral ID"
// @Param payload body service.AssignAssetRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /peripherals/{id}/assign [post]
func (h *PeripheralHandler) Assign(c *gin.Context) {
	var req service.AssignAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	peripheral, err := h.peripherals.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, peripheral, nil)
}

// Delete godoc
// @Summary Delete a peripheral
// @Tags Peripherals
// @Param id path string true "Peripheral ID"
// @Success 204 {object} response.Envelope
// @Router /peripherals/{id} [delete]
func (h *PeripheralHandler) Delete(c *gin.Context) {
	if err := h.peripherals.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
