// Package models defines the persistence models for conversations and
// messages. These types are mapped with GORM and form the data layer of
// the chatbot backend.
package models

import (
	"time"
)

// Conversation represents a persisted thread grouping an ordered sequence
// of messages. A conversation owns its messages: deleting the conversation
// deletes every message in it.
type Conversation struct {
	ID        string    `json:"id" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"createdAt"`

	// Messages are cascade-deleted when their conversation is removed.
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message represents a single persisted utterance within a conversation,
// authored either by the user or by the bot.
//
// CreatedAt is the sort key within a conversation; Seq breaks ties between
// messages persisted at the same instant so history keeps arrival order.
type Message struct {
	ID             string    `json:"id" gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversationId" gorm:"type:char(36);not null;index:idx_conversation_messages,priority:1"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	IsFromUser     bool      `json:"isFromUser"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index:idx_conversation_messages,priority:2"`
	Seq            int64     `json:"-" gorm:"not null"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
