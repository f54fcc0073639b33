package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name              string  `json:"name" gorm:"not null"`
	Email             string  `json:"email" gorm:"not null;uniqueIndex"`
	Password          string  `json:"-" gorm:"not null"`
	Verified          bool    `json:"verified" gorm:"not null;default:false"`
	VerificationToken *string `json:"-" gorm:"uniqueIndex"`
}
