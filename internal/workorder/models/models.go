// Package models defines the core domain models shared by every
// work-order component: businesses, users, clients, jobs and the
// append-only job history.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of user roles. There are exactly two; any other
// value is rejected at the boundary.
type Role string

const (
	// Owner sees every business and may act on any job.
	Owner Role = "OWNER"
	// Worker is pinned to a single business.
	Worker Role = "WORKER"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == Owner || r == Worker
}

// JobState represents the lifecycle state of a job.
type JobState string

const (
	Pending    JobState = "PENDING"
	InProgress JobState = "IN_PROGRESS"
	Completed  JobState = "COMPLETED"
	Cancelled  JobState = "CANCELLED"
)

// Valid reports whether s is one of the four enumerated states.
func (s JobState) Valid() bool {
	switch s {
	case Pending, InProgress, Completed, Cancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s JobState) Terminal() bool {
	return s == Completed || s == Cancelled
}

// Business is an immutable reference entity. Jobs and workers are scoped
// to exactly one business.
type Business struct {
	ID   uuid.UUID
	Name string
	// Special marks the business type whose workflow only surfaces
	// special-category clients.
	Special   bool
	CreatedAt time.Time
}

// User is an acting person. Workers carry the business they are assigned
// to; owners carry none. Deactivation is a soft delete so history keeps
// pointing at a real user.
type User struct {
	ID       uuid.UUID
	Name     string
	Username string
	Role     Role
	// BusinessID is required for workers and must be nil for owners.
	BusinessID *uuid.UUID
	Active     bool
	CreatedAt  time.Time
}

// Actor is the authenticated identity attached to a request.
type Actor struct {
	ID         uuid.UUID
	Name       string
	Role       Role
	BusinessID *uuid.UUID
}

// Actor projects the fields of u that scope decisions depend on.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role, BusinessID: u.BusinessID}
}

// Client is a customer. Clients are not owned by a business; they
// accumulate jobs across businesses. Special-category clients must carry
// a national ID.
type Client struct {
	ID              uuid.UUID
	Name            string
	Phone           string
	Note            string
	NationalID      string
	Age             *int
	SpecialCategory bool
	CreatedAt       time.Time
}

// Job is a unit of work for one business and one client. Business and
// client are fixed at creation; only state, description and price change
// afterwards.
type Job struct {
	ID             uuid.UUID
	BusinessID     uuid.UUID
	ClientID       uuid.UUID
	Description    string
	EstimatedPrice *float64
	State          JobState
	CreatedAt      time.Time
	// FinishedAt is set on entering a terminal state and cleared again
	// whenever a non-terminal state is entered.
	FinishedAt *time.Time
}

// JobUpdate carries a partial patch of a job's mutable fields. Pointer
// types distinguish "not provided" from zero values. State is not
// patchable here; it only moves through the transition engine.
type JobUpdate struct {
	ID             uuid.UUID
	Description    *string
	EstimatedPrice *float64
}

// HistoryEntry is one immutable row of the job ledger. Seq is assigned by
// the store in commit order and breaks timestamp ties.
type HistoryEntry struct {
	ID        uuid.UUID
	Seq       int64
	JobID     uuid.UUID
	State     JobState
	Note      string
	UserID    uuid.UUID
	Timestamp time.Time
}

// JobFilter narrows a job listing. Nil fields are unconstrained.
// MatchNone short-circuits to an empty result; the scope resolver uses it
// when a worker asks for a business that is not theirs.
type JobFilter struct {
	BusinessID *uuid.UUID
	State      *JobState
	From       *time.Time
	To         *time.Time
	MatchNone  bool
}

// ClientFilter narrows a client listing. Search matches name, phone or
// national ID. SpecialCategory selects one of the two visibility sets.
type ClientFilter struct {
	Search          string
	SpecialCategory *bool
}

// UserUpdate is a partial patch of a user's mutable fields.
type UserUpdate struct {
	ID         uuid.UUID
	Name       *string
	Role       *Role
	BusinessID *uuid.UUID
	Active     *bool
}
