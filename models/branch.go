package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Branch represents a city office where parcels are received and sent off.
// Each branch is run by exactly one agent; at most one branch is the main branch.
type Branch struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	City       string         `gorm:"uniqueIndex;not null" json:"city"`
	AgentID    uint           `gorm:"uniqueIndex;not null" json:"agent_id"`
	Agent      User           `gorm:"foreignKey:AgentID" json:"agent"`
	MainBranch bool           `gorm:"not null;default:false" json:"main_branch"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Branch model
func (Branch) TableName() string {
	return "branches"
}

// CreateBranch validates and persists a new branch with its agent.
// The agent must be a staff user that does not already run a branch, the city
// must be unique, and only one branch may be flagged as the main branch.
func CreateBranch(db *gorm.DB, city string, agent *User, mainBranch bool) (*Branch, error) {
	if agent == nil {
		return nil, NewValidationError("branch_agent", "Branches must have an agent.")
	}
	if !agent.IsStaff() {
		return nil, NewValidationError("branch_agent", "All agents must be staff users.")
	}
	if strings.TrimSpace(city) == "" {
		return nil, NewValidationError("city", "Branches must have a city.")
	}

	var assigned int64
	if err := db.Model(&Branch{}).Where("agent_id = ?", agent.ID).Count(&assigned).Error; err != nil {
		return nil, err
	}
	if assigned > 0 {
		return nil, NewValidationError("branch_agent", "The agent is already assigned to another branch.")
	}

	if mainBranch {
		var mains int64
		if err := db.Model(&Branch{}).Where("main_branch = ?", true).Count(&mains).Error; err != nil {
			return nil, err
		}
		if mains > 0 {
			return nil, NewValidationError("main_branch", "There can only be one main branch.")
		}
	}

	branch := Branch{City: city, AgentID: agent.ID, MainBranch: mainBranch}
	if err := db.Create(&branch).Error; err != nil {
		// A concurrent insert can slip past the existence checks; the unique
		// indexes on city and agent_id are the backstop.
		if IsUniqueViolation(err) {
			return nil, NewValidationError("city", "There already exists a branch in this city.")
		}
		return nil, err
	}

	branch.Agent = *agent
	return &branch, nil
}

// SearchBranchesByCity performs a case-insensitive substring search over all
// branches. An empty search term yields no results.
func SearchBranchesByCity(db *gorm.DB, city string) ([]Branch, error) {
	var branches []Branch
	if strings.TrimSpace(city) == "" {
		return branches, nil
	}
	pattern := "%" + strings.ToLower(city) + "%"
	err := db.Preload("Agent").Where("LOWER(city) LIKE ?", pattern).Find(&branches).Error
	return branches, err
}

// FindBranchByCity returns the branch in exactly the given city, or nil when
// there is none.
func FindBranchByCity(db *gorm.DB, city string) (*Branch, error) {
	var branch Branch
	err := db.Preload("Agent").Where("city = ?", city).First(&branch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

// IsUniqueViolation reports whether the error comes from a violated unique
// constraint. Matches both the PostgreSQL and SQLite message shapes.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}
