// File: /controllers/trip_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fuelroute-api/models"
	"fuelroute-api/services"
	"fuelroute-api/utils"
)

// TripController exposes the planner session over HTTP: search input,
// suggestion lists, endpoint selection, device location, the trip snapshot
// with the derived estimate, the map snapshot, and sharing by mail.
type TripController struct {
	planner      *services.PlannerService
	emailService *services.EmailService
}

func NewTripController(planner *services.PlannerService, emailService *services.EmailService) *TripController {
	return &TripController{
		planner:      planner,
		emailService: emailService,
	}
}

type SearchRequest struct {
	Field string `json:"field" binding:"required,oneof=origin destination"`
	Query string `json:"query"`
}

// Coordinates bind as pointers: "required" on a plain float64 rejects the
// zero value, which is a legal latitude or longitude.
type SetPointRequest struct {
	Field     string   `json:"field" binding:"required,oneof=origin destination"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Label     string   `json:"label" binding:"required"`
}

type LocateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type ShareRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UpdateSearch records a keystroke; the remote search fires only after the
// debounce window, so replying immediately is correct.
func (tc *TripController) UpdateSearch(c *gin.Context) {
	session := tc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	field, err := services.ParseSearchField(req.Field)
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if err := session.SetSearchQuery(field, req.Query); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Search scheduled"})
}

func (tc *TripController) GetSuggestions(c *gin.Context) {
	session := tc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	field, err := services.ParseSearchField(c.Query("field"))
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": session.Suggestions(field)})
}

func (tc *TripController) SetPoint(c *gin.Context) {
	session := tc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	var req SetPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	field, err := services.ParseSearchField(req.Field)
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	point := models.LocationPoint{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Label:     req.Label,
	}
	if err := session.SetPoint(field, point); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, session.Snapshot())
}

func (tc *TripController) ClearPoint(c *gin.Context) {
	session := tc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	field, err := services.ParseSearchField(c.Query("field"))
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if err := session.ClearPoint(field); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, session.Snapshot())
}

// Locate sets the origin from device coordinates, reverse-geocoded into a
// readable label (or coordinate text when the resolver is unreachable).
func (tc *TripController) Locate(c *gin.Context) {
	session := tc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	var req LocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	point, err := session.UseDeviceLocation(c.Request.Context(), *req.Latitude, *req.Longitude)
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"origin": point})
}

func (tc *TripController) GetTrip(c *gin.Context) {
	session := tc.planner.Session(c.Request.Context(), c.GetString("user_id"))
	c.JSON(http.StatusOK, session.Snapshot())
}

func (tc *TripController) GetMap(c *gin.Context) {
	session := tc.planner.Session(c.Request.Context(), c.GetString("user_id"))
	c.JSON(http.StatusOK, session.MapSnapshot())
}

// Share mails the current estimate. Requires a complete trip: origin,
// destination, route, vehicle and price must all be present.
func (tc *TripController) Share(c *gin.Context) {
	session := tc.planner.Session(c.Request.Context(), c.GetString("user_id"))

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap := session.Snapshot()
	vehicle := session.SelectedVehicle()
	if snap.Estimate == nil || snap.Origin == nil || snap.Destination == nil || snap.Route == nil || vehicle == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "No complete trip estimate to share yet"})
		return
	}

	summary := services.TripSummary{
		OriginLabel:      snap.Origin.Label,
		DestinationLabel: snap.Destination.Label,
		VehicleName:      vehicle.Name,
		DistanceKm:       snap.Route.DistanceKm,
		DurationMin:      snap.Route.DurationMin,
		PricePerLiter:    snap.FuelPrice.PricePerLiter,
		LitersNeeded:     snap.Estimate.LitersNeeded,
		TotalCost:        snap.Estimate.TotalCost,
		CostPer100Km:     snap.Estimate.CostPer100Km,
	}
	if err := tc.emailService.SendTripSummary(req.Email, summary); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to send trip summary")
		return
	}

	utils.SendSuccess(c, "Trip summary sent", nil)
}
