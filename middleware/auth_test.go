package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/briankorir/cargotracker-api/config"
	"github.com/briankorir/cargotracker-api/models"
	"github.com/briankorir/cargotracker-api/services"
)

func setupAuthTest(t *testing.T) (*gorm.DB, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	config.SetDB(db)

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
	config.SetConfig(cfg)
	return db, cfg
}

func protectedRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handlers := append([]gin.HandlerFunc{EnsureValidToken()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		user, err := GetCurrentUser(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"errors": gin.H{"detail": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"email": user.Email}})
	})
	router.GET("/protected", handlers...)
	return router
}

func TestEnsureValidToken(t *testing.T) {
	db, cfg := setupAuthTest(t)

	user := models.User{Username: "wanjiku", Email: "wanjiku@example.com", Role: models.RoleCustomer}
	user.SetPassword("test-password")
	db.Create(&user)

	pair, err := services.GenerateTokenPair(&user, cfg)
	assert.NoError(t, err)

	router := protectedRouter()

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"valid token", "Bearer " + pair.Access, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token " + pair.Access, http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		{"refresh token rejected", "Bearer " + pair.Refresh, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response map[string]interface{}
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				data := response["data"].(map[string]interface{})
				assert.Equal(t, user.Email, data["email"])
			}
		})
	}
}

func TestEnsureValidTokenRejectsDeletedUser(t *testing.T) {
	db, cfg := setupAuthTest(t)

	user := models.User{Username: "ghost", Email: "ghost@example.com", Role: models.RoleCustomer}
	user.SetPassword("test-password")
	db.Create(&user)

	pair, err := services.GenerateTokenPair(&user, cfg)
	assert.NoError(t, err)

	db.Delete(&user)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)

	w := httptest.NewRecorder()
	protectedRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	db, cfg := setupAuthTest(t)

	customer := models.User{Username: "customer", Email: "customer@example.com", Role: models.RoleCustomer}
	customer.SetPassword("test-password")
	db.Create(&customer)

	admin := models.User{Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin}
	admin.SetPassword("test-password")
	db.Create(&admin)

	customerTokens, _ := services.GenerateTokenPair(&customer, cfg)
	adminTokens, _ := services.GenerateTokenPair(&admin, cfg)

	router := protectedRouter(RequireRole(models.RoleAdmin))

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{"admin passes", adminTokens.Access, http.StatusOK},
		{"customer forbidden", customerTokens.Access, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetCurrentUserWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetCurrentUser(c)
	assert.Error(t, err)

	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, "MISSING_USER", authErr.Code)
}

func TestExtractBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc123", "abc123", false},
		{"case-insensitive scheme", "bearer abc123", "abc123", false},
		{"empty", "", "", true},
		{"no token", "Bearer ", "", true},
		{"wrong scheme", "Basic abc123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}

			token, err := ExtractBearerToken(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, token)
			}
		})
	}
}
