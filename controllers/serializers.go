package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/briankorir/cargotracker-api/models"
)

// respondError translates a domain error into the response envelope.
// Validation failures become field-keyed 400s; anything else is a 500.
func respondError(c *gin.Context, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{ve.Field: ve.Message},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"errors": gin.H{"detail": "Something went wrong. Please try again."},
	})
}

// serializeUser renders a user without the password hash
func serializeUser(user *models.User) gin.H {
	return gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	}
}

// serializeBranch resolves the agent id to their email address
func serializeBranch(branch *models.Branch) gin.H {
	return gin.H{
		"id":           branch.ID,
		"city":         branch.City,
		"branch_agent": branch.Agent.Email,
		"main_branch":  branch.MainBranch,
	}
}

// serializeCargo resolves every foreign key to a human-readable email or city
func serializeCargo(cargo *models.Cargo) gin.H {
	return gin.H{
		"id":               cargo.ID,
		"title":            cargo.Title,
		"weight":           cargo.Weight.StringFixed(2),
		"sender":           cargo.Sender.Email,
		"recipient":        cargo.Recipient.Email,
		"destination":      cargo.Destination.City,
		"booking_station":  cargo.BookingStation.City,
		"booking_agent":    cargo.BookingAgent.Email,
		"clearing_agent":   cargo.ClearingAgent.Email,
		"current_location": cargo.CurrentLocation,
		"created_at":       cargo.CreatedAt,
	}
}

// serializeOrder renders an order with its cargo chain resolved. The price
// keeps its three-decimal scale as a string.
func serializeOrder(order *models.Order) gin.H {
	return gin.H{
		"id":                             order.ID,
		"tracking_id":                    order.TrackingID,
		"price":                          order.Price.StringFixed(3),
		"price_per_unit_weight":          order.PricePerUnitWeight.StringFixed(3),
		"status":                         order.StatusDisplay(),
		"past_main_branch":               order.PastMainBranch,
		"cargo_picked_up":                order.CargoPickedUp,
		"estimated_time_to_main_station": order.EstimatedTimeToMainStation,
		"estimated_delivery_time":        order.EstimatedDeliveryTime,
		"actual_delivery_time":           order.ActualDeliveryTime,
		"cargo": gin.H{
			"id":               order.Cargo.ID,
			"title":            order.Cargo.Title,
			"weight":           order.Cargo.Weight.StringFixed(2),
			"sender":           order.Cargo.Sender.Email,
			"recipient":        order.Cargo.Recipient.Email,
			"booking_agent":    order.Cargo.BookingAgent.Email,
			"clearing_agent":   order.Cargo.ClearingAgent.Email,
			"destination":      order.Cargo.Destination.City,
			"current_location": order.Cargo.CurrentLocation,
		},
	}
}
