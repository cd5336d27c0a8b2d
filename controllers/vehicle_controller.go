// File: /controllers/vehicle_controller.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fuelroute-api/models"
	"fuelroute-api/services"
	"fuelroute-api/utils"
)

// VehicleController routes vehicle CRUD through the user's planner session
// so the in-memory list, the remote store and the local fallback copy stay
// in sync on every mutation.
type VehicleController struct {
	planner *services.PlannerService
}

func NewVehicleController(planner *services.PlannerService) *VehicleController {
	return &VehicleController{planner: planner}
}

type SaveVehicleRequest struct {
	Name             string  `json:"name" binding:"required"`
	FuelType         string  `json:"fuel_type" binding:"required,oneof=diesel gasoline"`
	ConsumptionValue float64 `json:"consumption_value" binding:"required,gt=0"`
	ConsumptionUnit  string  `json:"consumption_unit" binding:"required,oneof=l_per_100km km_per_l"`
}

func (vc *VehicleController) GetVehicles(c *gin.Context) {
	session := vc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	var selectedID string
	if selected := session.SelectedVehicle(); selected != nil {
		selectedID = selected.ID
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicles":            session.Vehicles(),
		"selected_vehicle_id": selectedID,
	})
}

func (vc *VehicleController) CreateVehicle(c *gin.Context) {
	session := vc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	var req SaveVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !utils.IsValidConsumption(req.ConsumptionValue) {
		utils.SendValidationError(c, "Consumption must be positive and within a plausible range")
		return
	}

	vehicle, err := session.SaveVehicle(c.Request.Context(), models.Vehicle{
		Name:             req.Name,
		FuelType:         models.FuelType(req.FuelType),
		ConsumptionValue: req.ConsumptionValue,
		ConsumptionUnit:  models.ConsumptionUnit(req.ConsumptionUnit),
	})
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to save vehicle")
		return
	}

	c.JSON(http.StatusCreated, vehicle)
}

func (vc *VehicleController) UpdateVehicle(c *gin.Context) {
	session := vc.planner.Session(c.Request.Context(), c.GetString("user_id"))
	vehicleID := c.Param("id")

	var req SaveVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !utils.IsValidConsumption(req.ConsumptionValue) {
		utils.SendValidationError(c, "Consumption must be positive and within a plausible range")
		return
	}

	vehicle, err := session.SaveVehicle(c.Request.Context(), models.Vehicle{
		ID:               vehicleID,
		Name:             req.Name,
		FuelType:         models.FuelType(req.FuelType),
		ConsumptionValue: req.ConsumptionValue,
		ConsumptionUnit:  models.ConsumptionUnit(req.ConsumptionUnit),
	})
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to update vehicle")
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

func (vc *VehicleController) DeleteVehicle(c *gin.Context) {
	session := vc.planner.Session(c.Request.Context(), c.GetString("user_id"))
	vehicleID := c.Param("id")

	if err := session.DeleteVehicle(c.Request.Context(), vehicleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "Failed to delete vehicle")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted successfully"})
}

func (vc *VehicleController) SelectVehicle(c *gin.Context) {
	session := vc.planner.Session(c.Request.Context(), c.GetString("user_id"))
	vehicleID := c.Param("id")

	if err := session.SelectVehicle(c.Request.Context(), vehicleID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vehicle selected", "selected_vehicle_id": vehicleID})
}
