package models

import (
	"time"

	"gorm.io/gorm"
)

// RevokedToken blacklists a refresh token by its JTI claim so that a
// logged-out user cannot keep refreshing their session.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the RevokedToken model
func (RevokedToken) TableName() string {
	return "revoked_tokens"
}

// RevokeToken blacklists the given JTI. Revoking a JTI twice reports that the
// token was already revoked.
func RevokeToken(db *gorm.DB, jti string, expiresAt time.Time) error {
	token := RevokedToken{JTI: jti, ExpiresAt: expiresAt}
	if err := db.Create(&token).Error; err != nil {
		if IsUniqueViolation(err) {
			return NewValidationError("detail", "You are already logged out.")
		}
		return err
	}
	return nil
}

// IsTokenRevoked reports whether the given JTI has been blacklisted
func IsTokenRevoked(db *gorm.DB, jti string) (bool, error) {
	var count int64
	if err := db.Model(&RevokedToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
