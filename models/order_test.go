package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newOrderFixture(t *testing.T) (*gorm.DB, *Cargo, cargoFixture) {
	f := newCargoFixture(t)
	cargo := createTestCargo(t, f.db, f.sender, f.recipient, f.destination, f.bookingSide)
	return f.db, cargo, f
}

func TestCalculatePrice(t *testing.T) {
	order := Order{
		Cargo:              Cargo{Weight: decimal.RequireFromString("10.00")},
		PricePerUnitWeight: decimal.RequireFromString("5.000"),
	}

	// 10 * 5 = 50 untaxed; 18% on top gives exactly 59.000
	price := order.CalculatePrice()
	assert.Equal(t, "59.000", price.StringFixed(3))
	assert.True(t, price.Equal(decimal.RequireFromString("59")))
}

func TestCalculatePriceKeepsScale(t *testing.T) {
	order := Order{
		Cargo:              Cargo{Weight: decimal.RequireFromString("2.50")},
		PricePerUnitWeight: decimal.RequireFromString("3.333"),
	}

	// 2.5 * 3.333 = 8.3325; * 1.18 = 9.83235, rounded to scale 3
	assert.Equal(t, "9.832", order.CalculatePrice().StringFixed(3))
}

func TestGetOrCreateOrderComputesPriceAndEstimates(t *testing.T) {
	db, cargo, _ := newOrderFixture(t)

	before := time.Now()
	order, created, err := GetOrCreateOrder(db, cargo, decimal.RequireFromString("5.000"), false, "")
	assert.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, "59.000", order.Price.StringFixed(3))
	assert.Equal(t, StatusPending, order.Status)
	assert.NotEmpty(t, order.TrackingID)

	// both estimates are set, the main-station leg strictly precedes delivery
	assert.NotNil(t, order.EstimatedTimeToMainStation)
	assert.NotNil(t, order.EstimatedDeliveryTime)
	assert.True(t, order.EstimatedTimeToMainStation.Before(*order.EstimatedDeliveryTime))

	// delivery estimate lands in [300, 600) seconds from creation
	gap := order.EstimatedDeliveryTime.Sub(before)
	assert.GreaterOrEqual(t, gap, 300*time.Second)
	assert.Less(t, gap, 601*time.Second)

	// the main-station leg is exactly half the delivery window
	half := order.EstimatedDeliveryTime.Sub(*order.EstimatedTimeToMainStation)
	toStation := order.EstimatedTimeToMainStation.Sub(order.CreatedAt)
	assert.InDelta(t, half.Seconds(), toStation.Seconds(), 1.0)
}

func TestGetOrCreateOrderIsIdempotentByCargo(t *testing.T) {
	db, cargo, _ := newOrderFixture(t)

	first, created, err := GetOrCreateOrder(db, cargo, decimal.RequireFromString("5.000"), false, "")
	assert.NoError(t, err)
	assert.True(t, created)

	// a second call returns the same order without creating another
	second, created, err := GetOrCreateOrder(db, cargo, decimal.RequireFromString("9.000"), true, StatusInTransit)
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TrackingID, second.TrackingID)
	assert.Equal(t, "59.000", second.Price.StringFixed(3))

	var count int64
	db.Model(&Order{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateOrderRejectsNonPositivePrice(t *testing.T) {
	db, cargo, _ := newOrderFixture(t)

	for _, price := range []string{"0", "-1.500"} {
		_, created, err := GetOrCreateOrder(db, cargo, decimal.RequireFromString(price), false, "")
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.False(t, created)
		assert.Equal(t, "price_per_unit_weight", ve.Field)
	}

	// nothing was persisted
	var count int64
	db.Model(&Order{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestGetOrCreateOrderRejectsInvalidCargo(t *testing.T) {
	db, _, _ := newOrderFixture(t)

	_, _, err := GetOrCreateOrder(db, nil, decimal.RequireFromString("5.000"), false, "")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "cargo", ve.Field)

	_, _, err = GetOrCreateOrder(db, &Cargo{}, decimal.RequireFromString("5.000"), false, "")
	assert.ErrorAs(t, err, &ve)
}

func TestGetOrCreateOrderConvertsUniqueViolation(t *testing.T) {
	db, cargo, _ := newOrderFixture(t)

	// simulate a racing insert that slipped past the existence check
	racing := Order{
		CargoID:            cargo.ID,
		PricePerUnitWeight: decimal.RequireFromString("1.000"),
		Price:              decimal.RequireFromString("11.800"),
		Status:             StatusPending,
		TrackingID:         "racing-tracking-id",
	}
	assert.NoError(t, db.Create(&racing).Error)

	duplicate := Order{
		CargoID:            cargo.ID,
		PricePerUnitWeight: decimal.RequireFromString("2.000"),
		Price:              decimal.RequireFromString("23.600"),
		Status:             StatusPending,
		TrackingID:         "other-tracking-id",
	}
	err := db.Create(&duplicate).Error
	assert.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestStatusDisplay(t *testing.T) {
	assert.Equal(t, "Pending", (&Order{Status: StatusPending}).StatusDisplay())
	assert.Equal(t, "In Transit", (&Order{Status: StatusInTransit}).StatusDisplay())
	assert.Equal(t, "Delivered", (&Order{Status: StatusDelivered}).StatusDisplay())
	assert.Equal(t, "Pending", (&Order{Status: ""}).StatusDisplay())
}

func TestOrdersVisibleTo(t *testing.T) {
	db, cargo, f := newOrderFixture(t)
	_, _, err := GetOrCreateOrder(db, cargo, decimal.RequireFromString("5.000"), false, "")
	assert.NoError(t, err)

	otherCustomer := createTestUser(t, db, "other@example.com", RoleCustomer)
	idleAgent := createTestUser(t, db, "idle-agent@example.com", RoleAgent)
	admin := createTestUser(t, db, "admin@example.com", RoleAdmin)
	bookingAgent, _ := FindUserByEmail(db, "booking-agent@example.com")
	clearingAgent, _ := FindUserByEmail(db, "clearing-agent@example.com")

	var visible []Order

	for _, u := range []*User{f.sender, f.recipient, bookingAgent, clearingAgent, admin} {
		assert.NoError(t, OrdersVisibleTo(db, u).Find(&visible).Error)
		assert.Len(t, visible, 1, "user %s should see the order", u.Email)
	}

	for _, u := range []*User{otherCustomer, idleAgent} {
		assert.NoError(t, OrdersVisibleTo(db, u).Find(&visible).Error)
		assert.Empty(t, visible, "user %s should not see the order", u.Email)
	}
}

func TestCheckCargoOrder(t *testing.T) {
	db, cargo, _ := newOrderFixture(t)

	existing, err := CheckCargoOrder(db, cargo.ID)
	assert.NoError(t, err)
	assert.Nil(t, existing)

	order, _, err := GetOrCreateOrder(db, cargo, decimal.RequireFromString("5.000"), false, "")
	assert.NoError(t, err)

	existing, err = CheckCargoOrder(db, cargo.ID)
	assert.NoError(t, err)
	assert.NotNil(t, existing)
	assert.Equal(t, order.ID, existing.ID)
}
