// Package calllog persists a record of every processed call so operators can
// audit what the agent heard, decided, and booked.
package calllog

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound means no call record matches the query.
var ErrNotFound = errors.New("calllog: record not found")

// Record is one processed call.
type Record struct {
	ID         string    `json:"id"`
	CallID     string    `json:"call_id"`
	Phone      string    `json:"phone"`
	CustomerID int64     `json:"customer_id,omitempty"`
	JobID      int64     `json:"job_id,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	IsLead     bool      `json:"is_lead"`
	Booked     bool      `json:"booked"`
	Status     string    `json:"status"` // terminal booking status for the call
	Issue      string    `json:"issue,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository stores call records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByCallID(ctx context.Context, callID string) (*Record, error)
	RecentByPhone(ctx context.Context, phone string, limit int) ([]Record, error)
}
