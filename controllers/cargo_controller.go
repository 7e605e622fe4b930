package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/briankorir/cargotracker-api/config"
	"github.com/briankorir/cargotracker-api/middleware"
	"github.com/briankorir/cargotracker-api/models"
	"github.com/briankorir/cargotracker-api/services"
	"github.com/briankorir/cargotracker-api/utils"
)

// CreateCargoRequest represents the request body for booking cargo. The
// recipient is referenced by email, branches by their city.
type CreateCargoRequest struct {
	Title          string          `json:"title" binding:"required"`
	Recipient      string          `json:"recipient" binding:"required,email"`
	Destination    string          `json:"destination" binding:"required"`
	BookingStation string          `json:"booking_station" binding:"required"`
	Weight         decimal.Decimal `json:"weight" binding:"required"`
}

// UpdateCargoRequest represents the request body for updating cargo. Sender,
// recipient, weight, title and the booking side are immutable after creation;
// any such fields in the payload are dropped, not rejected.
type UpdateCargoRequest struct {
	CurrentLocation *string `json:"current_location"`
	Destination     *string `json:"destination"`
}

// CreateCargo handles POST /api/v1/cargo - books new cargo (customers only)
func CreateCargo(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Could not extract user information."},
		})
		return
	}

	// Agents book orders, they do not send parcels through their own counter
	if user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"errors": gin.H{"detail": "Only customers can create cargo."},
		})
		return
	}

	var req CreateCargoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": err.Error()},
		})
		return
	}

	db := config.GetDB()

	recipient, err := models.FindUserByEmail(db, utils.NormalizeEmail(req.Recipient))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"recipient": "There is no user registered with that email."},
		})
		return
	}

	destination, err := models.FindBranchByCity(db, req.Destination)
	if err != nil {
		respondError(c, err)
		return
	}
	if destination == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"destination": "We don't have a branch in that city."},
		})
		return
	}

	bookingStation, err := models.FindBranchByCity(db, req.BookingStation)
	if err != nil {
		respondError(c, err)
		return
	}
	if bookingStation == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"booking_station": "We don't have a branch in that city."},
		})
		return
	}

	cargo, err := models.CreateCargo(db, req.Title, req.Weight, user, recipient, destination, bookingStation)
	if err != nil {
		respondError(c, err)
		return
	}

	subject := "Book new order."
	message := fmt.Sprintf(
		"Hello. A new order was made at the CargoTracker branch in %s. As the admin of the branch, please proceed and record the order for it to be sent to its destination.",
		cargo.BookingStation.City,
	)
	services.SendAsync(subject, message, cargo.Sender.Email, []string{cargo.BookingAgent.Email})

	payload := serializeCargo(cargo)
	payload["message"] = "Succesfully created your cargo. You will be notified when the agent approves your booking."
	c.JSON(http.StatusCreated, gin.H{"data": payload})
}

// ListCargo handles GET /api/v1/cargo - lists the cargo visible to the caller
func ListCargo(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Could not extract user information."},
		})
		return
	}

	var cargo []models.Cargo
	if err := models.CargoVisibleTo(config.GetDB(), user).Find(&cargo).Error; err != nil {
		respondError(c, err)
		return
	}

	payload := make([]gin.H, 0, len(cargo))
	for i := range cargo {
		payload = append(payload, serializeCargo(&cargo[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": payload})
}

// GetCargo handles GET /api/v1/cargo/:id - fetches one cargo record.
// Records outside the caller's visible set read as not found.
func GetCargo(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Could not extract user information."},
		})
		return
	}

	var cargo models.Cargo
	if err := models.CargoVisibleTo(config.GetDB(), user).First(&cargo, "cargo.id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"errors": gin.H{"detail": "Cargo not found."},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": serializeCargo(&cargo)})
}

// UpdateCargo handles PATCH /api/v1/cargo/:id - updates the mutable cargo
// fields (staff only; the role gate is on the route). Changing the
// destination repoints the clearing agent to the new destination's agent.
func UpdateCargo(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Could not extract user information."},
		})
		return
	}

	db := config.GetDB()
	var cargo models.Cargo
	if err := models.CargoVisibleTo(db, user).First(&cargo, "cargo.id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"errors": gin.H{"detail": "Cargo not found."},
		})
		return
	}

	var req UpdateCargoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": err.Error()},
		})
		return
	}

	updates := make(map[string]interface{})
	if req.CurrentLocation != nil && *req.CurrentLocation != "" {
		updates["current_location"] = *req.CurrentLocation
	}
	if req.Destination != nil && *req.Destination != "" {
		destination, err := models.FindBranchByCity(db, *req.Destination)
		if err != nil {
			respondError(c, err)
			return
		}
		if destination == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": gin.H{"destination": "We don't have a branch in that city."},
			})
			return
		}
		if destination.City == cargo.BookingStation.City {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": gin.H{"destination": "You cannot send a parcel to the same origin."},
			})
			return
		}
		updates["destination_id"] = destination.ID
		// the agent at the new destination takes over the final delivery
		updates["clearing_agent_id"] = destination.AgentID
	}

	if len(updates) > 0 {
		if err := db.Model(&cargo).Updates(updates).Error; err != nil {
			respondError(c, err)
			return
		}
	}

	if err := models.CargoQuery(db).First(&cargo, cargo.ID).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": serializeCargo(&cargo)})
}
