package models

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses, stored as single-character codes
const (
	StatusPending   = "P"
	StatusInTransit = "T"
	StatusDelivered = "D"
)

// taxRate is the surcharge applied on top of the untaxed total
var taxRate = decimal.NewFromFloat(0.18)

// Order is the priced, tracked realization of a Cargo. Price, the delivery
// estimates and the tracking identifier are computed once at creation and are
// never recomputed afterwards.
type Order struct {
	ID                         uint            `gorm:"primaryKey" json:"id"`
	CargoID                    uint            `gorm:"not null;uniqueIndex" json:"cargo_id"`
	Cargo                      Cargo           `gorm:"foreignKey:CargoID" json:"-"`
	PricePerUnitWeight         decimal.Decimal `gorm:"type:decimal(7,3);not null" json:"price_per_unit_weight"`
	Price                      decimal.Decimal `gorm:"type:decimal(12,3)" json:"price"`
	Status                     string          `gorm:"size:1;not null;default:'P'" json:"status"`
	PastMainBranch             bool            `gorm:"not null;default:false" json:"past_main_branch"`
	CargoPickedUp              bool            `gorm:"not null;default:false" json:"cargo_picked_up"`
	EstimatedTimeToMainStation *time.Time      `json:"estimated_time_to_main_station"`
	EstimatedDeliveryTime      *time.Time      `json:"estimated_delivery_time"`
	ActualDeliveryTime         *time.Time      `json:"actual_delivery_time"`
	TrackingID                 string          `gorm:"uniqueIndex;not null" json:"tracking_id"`
	CreatedAt                  time.Time       `json:"created_at"`
	UpdatedAt                  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// StatusDisplay returns the human-readable form of the status code
func (o *Order) StatusDisplay() string {
	switch o.Status {
	case StatusInTransit:
		return "In Transit"
	case StatusDelivered:
		return "Delivered"
	default:
		return "Pending"
	}
}

// CalculatePrice computes the total price for the order: the cargo weight
// times the price per unit weight, with the tax added on top of the untaxed
// total. The result carries three decimal places.
func (o *Order) CalculatePrice() decimal.Decimal {
	untaxed := o.Cargo.Weight.Mul(o.PricePerUnitWeight)
	total := untaxed.Mul(taxRate).Add(untaxed)
	return total.Round(3)
}

// approximateDeliveryTime picks a simulated delivery duration. The full
// delivery takes a random whole number of seconds in [300, 600); reaching the
// main station takes exactly half of that.
func approximateDeliveryTime() (delivery, toMainStation time.Duration) {
	delivery = time.Duration(300+rand.IntN(300)) * time.Second
	toMainStation = delivery / 2
	return delivery, toMainStation
}

// setTimeEstimates stamps the two estimated timestamps relative to now
func (o *Order) setTimeEstimates(now time.Time) {
	delivery, toMainStation := approximateDeliveryTime()
	deliveryAt := now.Add(delivery)
	mainStationAt := now.Add(toMainStation)
	o.EstimatedDeliveryTime = &deliveryAt
	o.EstimatedTimeToMainStation = &mainStationAt
}

// orderPreloads resolve the cargo chain for serialization
var orderPreloads = []string{
	"Cargo", "Cargo.Sender", "Cargo.Recipient", "Cargo.Destination",
	"Cargo.BookingStation", "Cargo.BookingAgent", "Cargo.ClearingAgent",
}

// OrderQuery returns a query with the cargo chain preloaded
func OrderQuery(db *gorm.DB) *gorm.DB {
	q := db.Model(&Order{})
	for _, assoc := range orderPreloads {
		q = q.Preload(assoc)
	}
	return q
}

// OrdersVisibleTo narrows an order query to the records the user may see,
// by the same ownership rules as the underlying cargo.
func OrdersVisibleTo(db *gorm.DB, user *User) *gorm.DB {
	q := OrderQuery(db).Joins("JOIN cargo ON cargo.id = orders.cargo_id")
	switch {
	case user.IsAdmin():
		return q
	case user.IsStaff():
		return q.Where("cargo.booking_agent_id = ? OR cargo.clearing_agent_id = ?", user.ID, user.ID)
	default:
		return q.Where("cargo.sender_id = ? OR cargo.recipient_id = ?", user.ID, user.ID)
	}
}

// CheckCargoOrder returns the order already associated with the cargo, or nil
func CheckCargoOrder(db *gorm.DB, cargoID uint) (*Order, error) {
	var order Order
	err := OrderQuery(db).Where("cargo_id = ?", cargoID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrCreateOrder creates the order for a cargo, or returns the existing one.
// The boolean result reports whether a new order was created. On first
// creation the price, both time estimates and the tracking identifier are
// computed and fixed.
func GetOrCreateOrder(db *gorm.DB, cargo *Cargo, pricePerUnitWeight decimal.Decimal, pastMainBranch bool, status string) (*Order, bool, error) {
	if cargo == nil || cargo.ID == 0 {
		return nil, false, NewValidationError("cargo", "Please provide a valid cargo.")
	}

	if existing, err := CheckCargoOrder(db, cargo.ID); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	if pricePerUnitWeight.LessThanOrEqual(decimal.Zero) {
		return nil, false, NewValidationError("price_per_unit_weight", "Please provide the price for this order greater than 0.")
	}
	if status == "" {
		status = StatusPending
	}

	order := Order{
		CargoID:            cargo.ID,
		Cargo:              *cargo,
		PricePerUnitWeight: pricePerUnitWeight,
		PastMainBranch:     pastMainBranch,
		Status:             status,
		TrackingID:         uuid.NewString(),
	}
	order.Price = order.CalculatePrice()
	order.setTimeEstimates(time.Now())

	if err := db.Omit("Cargo").Create(&order).Error; err != nil {
		// Two concurrent creations for the same cargo race past the existence
		// check; the unique index on cargo_id decides the winner.
		if IsUniqueViolation(err) {
			return nil, false, NewValidationError("cargo", "The cargo already has an order associated with it.")
		}
		return nil, false, err
	}

	if err := OrderQuery(db).First(&order, order.ID).Error; err != nil {
		return nil, false, err
	}
	return &order, true, nil
}
