package models

import (
	"time"

	"github.com/google/uuid"
)

// The view types below are the wire format shared by the read endpoint,
// the notification hub and the reconciliation loop. They carry JSON tags
// so the storage representation stays decoupled from what clients see.

// BusinessSummary is the business slice embedded in a job view.
type BusinessSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ClientSummary is the client slice embedded in a job view.
type ClientSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	NationalID string    `json:"nationalId,omitempty"`
}

// UserSummary identifies the actor on a history entry.
type UserSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// HistoryView is one ledger entry as rendered in an audit trail.
type HistoryView struct {
	ID        uuid.UUID   `json:"id"`
	State     JobState    `json:"state"`
	Note      string      `json:"note,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	User      UserSummary `json:"user"`
}

// JobView is the full projected representation of a job: the job row plus
// the denormalized client/business summaries list rendering needs and the
// ordered history.
type JobView struct {
	ID             uuid.UUID       `json:"id"`
	BusinessID     uuid.UUID       `json:"businessId"`
	ClientID       uuid.UUID       `json:"clientId"`
	Description    string          `json:"description"`
	EstimatedPrice *float64        `json:"estimatedPrice,omitempty"`
	State          JobState        `json:"state"`
	CreatedAt      time.Time       `json:"createdAt"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	FinishedAt     *time.Time      `json:"finishedAt,omitempty"`
	Client         ClientSummary   `json:"client"`
	Business       BusinessSummary `json:"business"`
	History        []HistoryView   `json:"history"`
}

// ClientView is a client as listed by the API, with its job count so the
// UI can warn before attempting a delete.
type ClientView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone,omitempty"`
	Note            string    `json:"note,omitempty"`
	NationalID      string    `json:"nationalId,omitempty"`
	Age             *int      `json:"age,omitempty"`
	SpecialCategory bool      `json:"isSpecialCategory"`
	CreatedAt       time.Time `json:"createdAt"`
	JobCount        int64     `json:"jobCount"`
}

// UserView is a user as listed by the admin surface. Credentials never
// appear on the wire.
type UserView struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Username   string     `json:"username"`
	Role       Role       `json:"role"`
	BusinessID *uuid.UUID `json:"businessId,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// BusinessView is a business as listed by the API.
type BusinessView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Special   bool      `json:"isSpecial"`
	CreatedAt time.Time `json:"createdAt"`
}
