package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account bound to a phone number.
// Accounts are created on the first OTP request and are never deleted.
type User struct {
	ID            string `gorm:"primaryKey" json:"id"`
	Phone         string `gorm:"uniqueIndex;not null" json:"phone"`
	PhoneVerified bool   `json:"phoneVerified"`
}

// BeforeCreate is a GORM hook that assigns a UUID if the ID is not set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
