package models

import (
	"strings"
	"time"
)

// UnknownDomain is assigned to messages whose sender cannot be parsed
const UnknownDomain = "unknown"

// Priority is a coarse email priority classification
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority level, lowest first
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority converts free text into a Priority, defaulting to medium
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	case PriorityUrgent:
		return PriorityUrgent
	default:
		return PriorityMedium
	}
}

// EmailMessage is a message fetched from the mail gateway. It is never persisted.
type EmailMessage struct {
	ID         string    `json:"id"` // Remote message id (Gmail id or IMAP UID)
	Subject    string    `json:"subject"`
	Body       string    `json:"body"` // Empty when only headers were fetched
	Sender     string    `json:"sender"`
	Recipient  string    `json:"recipient"`
	ReceivedAt time.Time `json:"received_date"` // Always UTC
	Priority   Priority  `json:"priority"`
	Domain     string    `json:"domain"` // Lower-cased sender domain or "unknown"
}

// UserProfile describes the authenticated mail account
type UserProfile struct {
	Email         string `json:"email"`
	MessagesTotal int64  `json:"messages_total"`
	ThreadsTotal  int64  `json:"threads_total"`
}
