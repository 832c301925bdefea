package models

import (
	"time"
)

// Scenario is a saved "what-if" investment calculation: how much an amount
// invested in a coin at a past date would be worth today.
//
// InvestmentAmount is kept as an exact decimal string end to end; it never
// passes through a binary floating type, so "1000.50" stays "1000.50".
type Scenario struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           string    `gorm:"index;not null" json:"userId"`
	CoinID           string    `gorm:"not null" json:"coinId"`
	Date             time.Time `gorm:"not null" json:"date"`
	InvestmentAmount string    `gorm:"not null" json:"investmentAmount"`
	Notes            *string   `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
}
