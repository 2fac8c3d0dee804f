package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage layout for Contact.Birthday.
const DateLayout = "2006-01-02"

type Contact struct {
	Base
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	FirstName string    `gorm:"size:50;not null" json:"first_name"`
	LastName  string    `gorm:"size:50;not null" json:"last_name"`
	Email     string    `gorm:"size:100;not null" json:"email"`
	Phone     string    `gorm:"size:20;not null" json:"phone"`
	Birthday  time.Time `gorm:"type:date;not null" json:"birthday"`
	Extra     *string   `gorm:"size:255" json:"extra"`
}

func (Contact) TableName() string {
	return "contacts"
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
