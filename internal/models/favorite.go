package models

import (
	"time"
)

// Favorite is a user's saved reference to a tracked market asset.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"userId"`
	Symbol    string    `gorm:"not null" json:"symbol"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
