package models

import (
	"time"
)

// Conversation groups the messages of one analyst chat session.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMessage is a single chat turn. Role is "user" or "assistant".
type ChatMessage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversationId"`
	Role           string    `gorm:"not null" json:"role"`
	Content        string    `gorm:"not null" json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Message is a WebSocket broadcast envelope.
type Message struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}
