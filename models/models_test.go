package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupModelTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&User{}, &Branch{}, &Cargo{}, &Order{}, &RevokedToken{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, role Role) *User {
	t.Helper()

	user := User{Username: email, Email: email, Role: role}
	if err := user.SetPassword("test-password"); err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return &user
}

func createTestBranch(t *testing.T, db *gorm.DB, city string, agent *User, main bool) *Branch {
	t.Helper()

	branch, err := CreateBranch(db, city, agent, main)
	if err != nil {
		t.Fatalf("Failed to create branch in %s: %v", city, err)
	}
	return branch
}

func createTestCargo(t *testing.T, db *gorm.DB, sender, recipient *User, destination, bookingStation *Branch) *Cargo {
	t.Helper()

	cargo, err := CreateCargo(db, "Test parcel", decimal.RequireFromString("10.00"),
		sender, recipient, destination, bookingStation)
	if err != nil {
		t.Fatalf("Failed to create cargo: %v", err)
	}
	return cargo
}
