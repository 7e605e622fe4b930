package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cargo records a shipment request between a sender and a recipient, booked
// at one branch for delivery through another. It is never deleted and is
// referenced by at most one Order.
type Cargo struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Title            string          `gorm:"not null" json:"title"`
	Weight           decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"weight"`
	SenderID         uint            `gorm:"not null;index" json:"sender_id"`
	Sender           User            `gorm:"foreignKey:SenderID" json:"-"`
	RecipientID      uint            `gorm:"not null;index" json:"recipient_id"`
	Recipient        User            `gorm:"foreignKey:RecipientID" json:"-"`
	DestinationID    uint            `gorm:"not null" json:"destination_id"`
	Destination      Branch          `gorm:"foreignKey:DestinationID" json:"-"`
	BookingStationID uint            `gorm:"not null" json:"booking_station_id"`
	BookingStation   Branch          `gorm:"foreignKey:BookingStationID" json:"-"`
	BookingAgentID   uint            `gorm:"not null;index" json:"booking_agent_id"`
	BookingAgent     User            `gorm:"foreignKey:BookingAgentID" json:"-"`
	ClearingAgentID  uint            `gorm:"not null;index" json:"clearing_agent_id"`
	ClearingAgent    User            `gorm:"foreignKey:ClearingAgentID" json:"-"`
	CurrentLocation  string          `gorm:"not null;default:'pending'" json:"current_location"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Cargo model
func (Cargo) TableName() string {
	return "cargo"
}

// cargoPreloads are the associations resolved whenever cargo is serialized
// back to email and city strings.
var cargoPreloads = []string{
	"Sender", "Recipient", "Destination", "BookingStation", "BookingAgent", "ClearingAgent",
}

// CargoQuery returns a query with all cargo associations preloaded
func CargoQuery(db *gorm.DB) *gorm.DB {
	q := db.Model(&Cargo{})
	for _, assoc := range cargoPreloads {
		q = q.Preload(assoc)
	}
	return q
}

// CargoVisibleTo narrows a cargo query to the records the user may see:
// admins see everything, agents the cargo they book or clear, customers the
// cargo they send or receive.
func CargoVisibleTo(db *gorm.DB, user *User) *gorm.DB {
	q := CargoQuery(db)
	switch {
	case user.IsAdmin():
		return q
	case user.IsStaff():
		return q.Where("booking_agent_id = ? OR clearing_agent_id = ?", user.ID, user.ID)
	default:
		return q.Where("sender_id = ? OR recipient_id = ?", user.ID, user.ID)
	}
}

// CreateCargo validates and persists a new shipment request. The booking
// agent must be the agent assigned to the booking station, the destination
// must be a different branch, and users cannot send parcels to themselves.
func CreateCargo(db *gorm.DB, title string, weight decimal.Decimal, sender, recipient *User, destination, bookingStation *Branch) (*Cargo, error) {
	switch {
	case sender == nil:
		return nil, NewRequiredFieldError("sender")
	case title == "":
		return nil, NewRequiredFieldError("title")
	case recipient == nil:
		return nil, NewRequiredFieldError("recipient")
	case destination == nil:
		return nil, NewRequiredFieldError("destination")
	case bookingStation == nil:
		return nil, NewRequiredFieldError("booking_station")
	}
	if weight.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("weight", "Weight must be greater than 0.")
	}
	if sender.ID == recipient.ID {
		return nil, NewValidationError("recipient", "Users cannot send themselves parcels.")
	}
	if destination.City == bookingStation.City {
		return nil, NewValidationError("destination", "You cannot send a parcel to the same origin.")
	}

	cargo := Cargo{
		Title:            title,
		Weight:           weight,
		SenderID:         sender.ID,
		RecipientID:      recipient.ID,
		DestinationID:    destination.ID,
		BookingStationID: bookingStation.ID,
		BookingAgentID:   bookingStation.AgentID,
		ClearingAgentID:  destination.AgentID,
		CurrentLocation:  "pending",
	}
	if err := db.Create(&cargo).Error; err != nil {
		return nil, err
	}

	if err := CargoQuery(db).First(&cargo, cargo.ID).Error; err != nil {
		return nil, err
	}
	return &cargo, nil
}
