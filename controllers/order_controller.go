package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/briankorir/cargotracker-api/config"
	"github.com/briankorir/cargotracker-api/middleware"
	"github.com/briankorir/cargotracker-api/models"
	"github.com/briankorir/cargotracker-api/services"
)

// CreateOrderRequest represents the request body for converting cargo into an order
type CreateOrderRequest struct {
	Cargo              uint            `json:"cargo" binding:"required"`
	PricePerUnitWeight decimal.Decimal `json:"price_per_unit_weight" binding:"required"`
	PastMainBranch     bool            `json:"past_main_branch"`
	Status             string          `json:"status" binding:"omitempty,oneof=P T D"`
}

// UpdateOrderRequest represents the request body for updating an order.
// Price, the estimates and the tracking id are fixed at creation; such
// fields in the payload are dropped, not rejected.
type UpdateOrderRequest struct {
	Status          *string `json:"status" binding:"omitempty,oneof=P T D"`
	PastMainBranch  *bool   `json:"past_main_branch"`
	CargoPickedUp   *bool   `json:"cargo_picked_up"`
	CurrentLocation *string `json:"current_location"`
}

// CreateOrder handles POST /api/v1/orders - converts booked cargo into a
// priced order (staff only; the role gate is on the route). Creation is
// idempotent by cargo: an existing order is returned instead of a duplicate.
func CreateOrder(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Could not extract user information."},
		})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if req.Cargo == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": gin.H{"cargo": "You must provide cargo for this order."},
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": err.Error()},
		})
		return
	}

	// Agents may only price cargo that passes through their own branch
	db := config.GetDB()
	var cargo models.Cargo
	if err := models.CargoVisibleTo(db, user).First(&cargo, "cargo.id = ?", req.Cargo).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"errors": gin.H{"cargo": "Provided cargo does not exist."},
		})
		return
	}

	order, created, err := models.GetOrCreateOrder(db, &cargo, req.PricePerUnitWeight, req.PastMainBranch, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	if created {
		subject := "Order Finalized and ready to go."
		message := fmt.Sprintf(
			"Your cargo has been booked and is ready for delivery. You will be notified whenever the status changes. It is currently %s. It cost a total of $%s. Your booking agent is %s",
			order.StatusDisplay(), order.Price.StringFixed(3), order.Cargo.BookingAgent.Email,
		)
		services.SendAsync(subject, message, order.Cargo.BookingAgent.Email,
			[]string{order.Cargo.Sender.Email, order.Cargo.Recipient.Email})
	}

	payload := serializeOrder(order)
	payload["created"] = created
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		payload["message"] = "Succesfully created the order."
	}
	c.JSON(status, gin.H{"data": payload})
}

// ListOrders handles GET /api/v1/orders - lists the orders visible to the caller
func ListOrders(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Could not extract user information."},
		})
		return
	}

	var orders []models.Order
	if err := models.OrdersVisibleTo(config.GetDB(), user).Find(&orders).Error; err != nil {
		respondError(c, err)
		return
	}

	payload := make([]gin.H, 0, len(orders))
	for i := range orders {
		payload = append(payload, serializeOrder(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": payload})
}

// GetOrder handles GET /api/v1/orders/:tracking_id - looks an order up by its
// tracking identifier within the caller's visible set.
func GetOrder(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Could not extract user information."},
		})
		return
	}

	var order models.Order
	err = models.OrdersVisibleTo(config.GetDB(), user).
		Where("orders.tracking_id = ?", c.Param("tracking_id")).
		First(&order).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"errors": gin.H{"detail": "Order not found."},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": serializeOrder(&order)})
}

// UpdateOrder handles PATCH /api/v1/orders/:tracking_id - records shipment
// progress (staff only; the role gate is on the route). Price and the
// estimates are never recomputed.
func UpdateOrder(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Could not extract user information."},
		})
		return
	}

	db := config.GetDB()
	var order models.Order
	err = models.OrdersVisibleTo(db, user).
		Where("orders.tracking_id = ?", c.Param("tracking_id")).
		First(&order).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"errors": gin.H{"detail": "Order not found."},
		})
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": err.Error()},
		})
		return
	}

	updates := make(map[string]interface{})
	if req.Status != nil {
		updates["status"] = *req.Status
		if *req.Status == models.StatusDelivered && order.ActualDeliveryTime == nil {
			updates["actual_delivery_time"] = time.Now()
		}
	}
	if req.PastMainBranch != nil {
		updates["past_main_branch"] = *req.PastMainBranch
	}
	if req.CargoPickedUp != nil {
		updates["cargo_picked_up"] = *req.CargoPickedUp
	}

	if len(updates) > 0 {
		if err := db.Model(&order).Updates(updates).Error; err != nil {
			respondError(c, err)
			return
		}
	}

	if req.CurrentLocation != nil && *req.CurrentLocation != "" {
		if err := db.Model(&models.Cargo{}).Where("id = ?", order.CargoID).
			Update("current_location", *req.CurrentLocation).Error; err != nil {
			respondError(c, err)
			return
		}
	}

	if err := models.OrderQuery(db).First(&order, order.ID).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": serializeOrder(&order)})
}
