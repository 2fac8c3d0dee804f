package models

import "strings"

type User struct {
	Base
	Email        string  `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"size:255;not null" json:"-"`
	IsVerified   bool    `gorm:"not null;default:false" json:"is_verified"`
	Avatar       *string `gorm:"size:255" json:"avatar"`

	Contacts []Contact `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// NormalizeEmail is the canonical form used as the login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
