// Package models contains the storage records for the application,
// configured to work using GORM as the ORM. They are deliberately
// separate from the domain models so the schema can evolve without
// leaking into the wire format.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Business is the businesses table.
type Business struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:100;uniqueIndex;not null"`
	Special   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// User is the users table. Deactivated users stay in place so history
// rows keep a valid reference.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"size:100;not null"`
	Username   string    `gorm:"size:50;uniqueIndex;not null"`
	Role       string    `gorm:"size:10;not null"`
	BusinessID *uuid.UUID `gorm:"type:uuid;index"`
	Active     bool       `gorm:"not null;default:true"`
	CreatedAt  time.Time
}

// Client is the clients table.
type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"size:100;not null"`
	Phone           string    `gorm:"size:30"`
	Note            string    `gorm:"size:500"`
	NationalID      string    `gorm:"size:30"`
	Age             *int      `gorm:"check:age >= 0"`
	SpecialCategory bool      `gorm:"not null;default:false;index"`
	CreatedAt       time.Time
}

// Job is the jobs table. BusinessID and ClientID never change after
// insert.
type Job struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ClientID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Description    string    `gorm:"size:1000;not null"`
	EstimatedPrice *float64  `gorm:"check:estimated_price >= 0"`
	State          string    `gorm:"size:15;not null;index"`
	CreatedAt      time.Time `gorm:"index"`
	FinishedAt     *time.Time
}

// HistoryEntry is the append-only job ledger. Seq is the integer primary
// key so both Postgres and SQLite assign it in commit order; it breaks
// timestamp ties when rendering the audit trail. Rows are never updated
// or deleted.
type HistoryEntry struct {
	Seq       int64     `gorm:"primaryKey;autoIncrement"`
	ID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	JobID     uuid.UUID `gorm:"type:uuid;not null;index"`
	State     string    `gorm:"size:15;not null"`
	Note      string    `gorm:"size:500"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Timestamp time.Time `gorm:"not null"`
}
