// File: /controllers/fuelprice_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fuelroute-api/services"
	"fuelroute-api/utils"
)

type FuelPriceController struct {
	planner *services.PlannerService
}

func NewFuelPriceController(planner *services.PlannerService) *FuelPriceController {
	return &FuelPriceController{planner: planner}
}

// The price binds as a pointer so zero is accepted; the planner allows any
// non-negative manual price.
type ManualPriceRequest struct {
	PricePerLiter *float64 `json:"price_per_liter" binding:"required,gte=0"`
}

func (fc *FuelPriceController) GetPrice(c *gin.Context) {
	session := fc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	price := session.Price()
	if price == nil {
		// First refresh still in flight.
		c.JSON(http.StatusOK, gin.H{"fuel_price": nil, "pending": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"fuel_price": price})
}

func (fc *FuelPriceController) RefreshPrice(c *gin.Context) {
	session := fc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	price, err := session.RefreshPrice(c.Request.Context())
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to refresh fuel price")
		return
	}

	c.JSON(http.StatusOK, gin.H{"fuel_price": price})
}

func (fc *FuelPriceController) SetManualPrice(c *gin.Context) {
	session := fc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	var req ManualPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.PricePerLiter > utils.MaxFuelPrice {
		utils.SendValidationError(c, "Fuel price is outside the plausible range")
		return
	}

	price, err := session.SetManualPrice(c.Request.Context(), *req.PricePerLiter)
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"fuel_price": price})
}
