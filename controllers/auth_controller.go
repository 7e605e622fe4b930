package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/briankorir/cargotracker-api/config"
	"github.com/briankorir/cargotracker-api/models"
	"github.com/briankorir/cargotracker-api/services"
	"github.com/briankorir/cargotracker-api/utils"
)

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// CreateAgentRequest represents the request body for creating a staff account
type CreateAgentRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=agent admin"`
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token for logout and token refresh
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Register handles POST /api/v1/auth/register - creates a customer account
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": err.Error()},
		})
		return
	}

	createAccount(c, req.Username, req.Email, req.Password, models.RoleCustomer,
		"Successfully registered. Welcome to CargoTracker!")
}

// CreateAgent handles POST /api/v1/auth/agent - creates a staff account.
// Only administrators reach this handler; the role gate is on the route.
func CreateAgent(c *gin.Context) {
	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": err.Error()},
		})
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleAgent
	}

	createAccount(c, req.Username, req.Email, req.Password, role,
		"Successfully created the agent account.")
}

func createAccount(c *gin.Context, username, email, password string, role models.Role, message string) {
	user := models.User{
		Username: username,
		Email:    utils.NormalizeEmail(email),
		Role:     role,
	}
	if err := user.SetPassword(password); err != nil {
		respondError(c, err)
		return
	}

	db := config.GetDB()
	if err := db.Create(&user).Error; err != nil {
		if models.IsUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": gin.H{"email": "A user with this email already exists."},
			})
			return
		}
		respondError(c, err)
		return
	}

	payload := serializeUser(&user)
	payload["message"] = message
	c.JSON(http.StatusCreated, gin.H{"data": payload})
}

// Login handles POST /api/v1/auth/login - exchanges credentials for a token pair
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": err.Error()},
		})
		return
	}

	db := config.GetDB()
	user, err := models.FindUserByEmail(db, utils.NormalizeEmail(req.Email))
	if err != nil || !user.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "No active account found with the given credentials."},
		})
		return
	}

	tokens, err := services.GenerateTokenPair(user, config.GetConfig())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access":  tokens.Access,
			"refresh": tokens.Refresh,
			"message": "Succesfully logged you in. Welcome to CargoTracker!",
		},
	})
}

// Logout handles POST /api/v1/auth/logout - revokes the presented refresh token
func Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": "You are already logged out"},
		})
		return
	}

	claims, err := services.ParseRefreshToken(req.Refresh, config.GetConfig())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": "You are already logged out"},
		})
		return
	}

	db := config.GetDB()
	if err := models.RevokeToken(db, claims.ID, claims.ExpiresAt.Time); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message":  "You have been successfully logged out.",
			"next_url": c.Query("next"),
		},
	})
}

// RefreshToken handles POST /api/v1/auth/refresh - issues a new access token
func RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"refresh": "This field is required."},
		})
		return
	}

	cfg := config.GetConfig()
	claims, err := services.ParseRefreshToken(req.Refresh, cfg)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Token is invalid or expired."},
		})
		return
	}

	db := config.GetDB()
	revoked, err := models.IsTokenRevoked(db, claims.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if revoked {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Token is invalid or expired."},
		})
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Token is invalid or expired."},
		})
		return
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"detail": "Token is invalid or expired."},
		})
		return
	}

	tokens, err := services.GenerateTokenPair(&user, cfg)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"access": tokens.Access},
	})
}
