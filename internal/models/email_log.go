package models

import "time"

// EmailLog records every outbound notification attempt for the audit trail.
type EmailLog struct {
	ID        int       `json:"id"`
	ToAddrs   string    `json:"to_addrs"` // comma-separated
	CcAddrs   string    `json:"cc_addrs,omitempty"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"` // sent or failed
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)
