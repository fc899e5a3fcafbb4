package entities

import (
	"fmt"
	"strings"
	"time"
)

// MessageStatus tracks an owner's handling of a contact message
type MessageStatus string

const (
	MessageStatusNew      MessageStatus = "new"
	MessageStatusRead     MessageStatus = "read"
	MessageStatusArchived MessageStatus = "archived"
)

// ParseMessageStatus validates a status coming from the API
func ParseMessageStatus(value string) (MessageStatus, error) {
	switch s := MessageStatus(strings.ToLower(strings.TrimSpace(value))); s {
	case MessageStatusNew, MessageStatusRead, MessageStatusArchived:
		return s, nil
	}
	return "", fmt.Errorf("unknown message status %q", value)
}

// ContactMessage is sent by a student to the owner of a listing
type ContactMessage struct {
	ID           string        `json:"id" db:"id"`
	ListingID    string        `json:"listing_id" db:"property_id"`
	OwnerID      string        `json:"owner_id" db:"owner_id"`
	SenderID     *string       `json:"sender_id,omitempty" db:"sender_id"`
	SenderName   string        `json:"sender_name" db:"sender_name"`
	SenderEmail  string        `json:"sender_email" db:"sender_email"`
	Message      string        `json:"message" db:"message"`
	Status       MessageStatus `json:"status" db:"status"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	ListingTitle string        `json:"listing_title,omitempty" db:"listing_title"`
}

// MessageCounts summarises an owner's inbox
type MessageCounts struct {
	Total        int            `json:"total"`
	New          int            `json:"new"`
	ByListing    map[string]int `json:"by_listing"`
	NewByListing map[string]int `json:"new_by_listing"`
}
