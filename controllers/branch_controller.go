package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/briankorir/cargotracker-api/config"
	"github.com/briankorir/cargotracker-api/models"
	"github.com/briankorir/cargotracker-api/services"
	"github.com/briankorir/cargotracker-api/utils"
)

// CreateBranchRequest represents the request body for creating a branch.
// The agent is referenced by email address.
type CreateBranchRequest struct {
	City        string `json:"city" binding:"required"`
	BranchAgent string `json:"branch_agent" binding:"required,email"`
	MainBranch  bool   `json:"main_branch"`
}

// ListBranches handles GET /api/v1/branches - open to any request.
// With a ?city= query it performs a case-insensitive substring search.
func ListBranches(c *gin.Context) {
	db := config.GetDB()

	if city, present := c.GetQuery("city"); present {
		branches, err := models.SearchBranchesByCity(db, city)
		if err != nil {
			respondError(c, err)
			return
		}
		respondBranchList(c, branches)
		return
	}

	var branches []models.Branch
	if err := db.Preload("Agent").Find(&branches).Error; err != nil {
		respondError(c, err)
		return
	}
	respondBranchList(c, branches)
}

func respondBranchList(c *gin.Context, branches []models.Branch) {
	payload := make([]gin.H, 0, len(branches))
	for i := range branches {
		payload = append(payload, serializeBranch(&branches[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": payload})
}

// CreateBranch handles POST /api/v1/branches - creates a branch with its
// agent (administrators only; the role gate is on the route).
func CreateBranch(c *gin.Context) {
	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"detail": err.Error()},
		})
		return
	}

	db := config.GetDB()
	agent, err := models.FindUserByEmail(db, utils.NormalizeEmail(req.BranchAgent))
	if err != nil || !agent.IsStaff() {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"branch_agent": "There is no agent registered with the provided email address."},
		})
		return
	}

	branch, err := models.CreateBranch(db, req.City, agent, req.MainBranch)
	if err != nil {
		respondError(c, err)
		return
	}

	subject := "You have been assigned a branch."
	message := fmt.Sprintf(
		"Hello %s. You are now the agent in charge of the CargoTracker branch in %s. You will be notified whenever a booking is made at your branch.",
		agent.Username, branch.City,
	)
	services.SendAsync(subject, message, config.GetConfig().MailFrom, []string{agent.Email})

	payload := serializeBranch(branch)
	payload["message"] = "Successfuly created the branch!"
	c.JSON(http.StatusCreated, gin.H{"data": payload})
}
