package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/briankorir/cargotracker-api/config"
	"github.com/briankorir/cargotracker-api/middleware"
	"github.com/briankorir/cargotracker-api/models"
	"github.com/briankorir/cargotracker-api/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{}, &models.Branch{}, &models.Cargo{},
		&models.Order{}, &models.RevokedToken{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

func setupTestConfig() *config.Config {
	cfg := &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		MailFrom:        "noreply@cargotracker.local",
	}
	config.SetConfig(cfg)
	return cfg
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware stores the user on the context exactly as the real
// EnsureValidToken middleware does
func mockAuthMiddleware(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetCurrentUser(c, user)
		c.Next()
	}
}

func installMockMailer(t *testing.T) *services.MockMailService {
	t.Helper()

	mock := services.NewMockMailService()
	mock.SetAsMockForTesting()
	t.Cleanup(func() { services.SetMailService(nil) })
	return mock
}

func createUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	user := models.User{Username: email, Email: email, Role: role}
	if err := user.SetPassword("test-password"); err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return &user
}

func createBranch(t *testing.T, db *gorm.DB, city string, agent *models.User, main bool) *models.Branch {
	t.Helper()

	branch, err := models.CreateBranch(db, city, agent, main)
	if err != nil {
		t.Fatalf("Failed to create branch in %s: %v", city, err)
	}
	return branch
}

func createCargo(t *testing.T, db *gorm.DB, sender, recipient *models.User, destination, bookingStation *models.Branch) *models.Cargo {
	t.Helper()

	cargo, err := models.CreateCargo(db, "Test parcel", decimal.RequireFromString("10.00"),
		sender, recipient, destination, bookingStation)
	if err != nil {
		t.Fatalf("Failed to create cargo: %v", err)
	}
	return cargo
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return response
}
