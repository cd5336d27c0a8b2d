// File: /controllers/calculator_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"fuelroute-api/models"
	"fuelroute-api/services"
	"fuelroute-api/utils"
)

// CalculatorController is the stateless calculation surface: it computes an
// estimate from explicit inputs without touching planner state, and keeps a
// per-user history of saved calculations.
type CalculatorController struct {
	db *gorm.DB
}

func NewCalculatorController(db *gorm.DB) *CalculatorController {
	return &CalculatorController{db: db}
}

type CalculateTripRequest struct {
	DistanceKm       float64 `json:"distance_km" binding:"required,gt=0"`
	PricePerLiter    float64 `json:"price_per_liter" binding:"required,gt=0"`
	ConsumptionValue float64 `json:"consumption_value" binding:"required,gt=0"`
	ConsumptionUnit  string  `json:"consumption_unit" binding:"required,oneof=l_per_100km km_per_l"`
}

type SaveCalculationRequest struct {
	RouteName        string  `json:"route_name" binding:"required"`
	DistanceKm       float64 `json:"distance_km" binding:"required,gt=0"`
	PricePerLiter    float64 `json:"price_per_liter" binding:"required,gt=0"`
	ConsumptionValue float64 `json:"consumption_value" binding:"required,gt=0"`
	ConsumptionUnit  string  `json:"consumption_unit" binding:"required,oneof=l_per_100km km_per_l"`
}

func (cc *CalculatorController) CalculateTrip(c *gin.Context) {
	var req CalculateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	normalized, err := services.NormalizeConsumption(req.ConsumptionValue, models.ConsumptionUnit(req.ConsumptionUnit))
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if !utils.IsValidCalculatorInput(req.DistanceKm, req.PricePerLiter, normalized) {
		utils.SendValidationError(c, "Inputs are outside the plausible range")
		return
	}

	c.JSON(http.StatusOK, services.ComputeTrip(normalized, req.DistanceKm, req.PricePerLiter))
}

func (cc *CalculatorController) SaveCalculation(c *gin.Context) {
	userID := c.GetString("user_id")

	var req SaveCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	normalized, err := services.NormalizeConsumption(req.ConsumptionValue, models.ConsumptionUnit(req.ConsumptionUnit))
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	calc := services.ComputeTrip(normalized, req.DistanceKm, req.PricePerLiter)

	record := models.TripRecord{
		ID:                 uuid.New().String(),
		UserID:             userID,
		RouteName:          req.RouteName,
		DistanceKm:         req.DistanceKm,
		PricePerLiter:      req.PricePerLiter,
		ConsumptionLPer100: normalized,
		LitersNeeded:       calc.LitersNeeded,
		TotalCost:          calc.TotalCost,
	}

	if err := cc.db.Create(&record).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to save calculation")
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (cc *CalculatorController) GetHistory(c *gin.Context) {
	userID := c.GetString("user_id")

	var records []models.TripRecord
	if err := cc.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(20).Find(&records).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch calculation history")
		return
	}

	c.JSON(http.StatusOK, records)
}

func (cc *CalculatorController) ClearHistory(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := cc.db.Where("user_id = ?", userID).Delete(&models.TripRecord{}).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to clear calculation history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Calculation history cleared successfully"})
}
