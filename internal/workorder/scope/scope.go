// Package scope computes what an actor may read and write. Owners see
// every business; workers are pinned to the one they are assigned to.
package scope

import (
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/google/uuid"
)

// Resolver turns an actor plus the filters they asked for into the
// effective filter the store may be queried with.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Filter narrows requested down to what actor may see. For owners the
// requested filters pass through untouched. For workers the business is
// forced to their assignment; asking for another business yields a
// match-nothing filter (an empty list, not an error).
func (r *Resolver) Filter(actor models.Actor, requested *models.JobFilter) *models.JobFilter {
	out := &models.JobFilter{}
	if requested != nil {
		*out = *requested
	}
	if actor.Role == models.Owner {
		return out
	}
	if actor.BusinessID == nil {
		// A worker with no assignment sees nothing.
		out.MatchNone = true
		return out
	}
	if out.BusinessID != nil && *out.BusinessID != *actor.BusinessID {
		out.MatchNone = true
		return out
	}
	out.BusinessID = actor.BusinessID
	return out
}

// CanWrite reports whether actor may mutate jobs belonging to businessID.
func (r *Resolver) CanWrite(actor models.Actor, businessID uuid.UUID) bool {
	if actor.Role == models.Owner {
		return true
	}
	return actor.BusinessID != nil && *actor.BusinessID == businessID
}

// CanRead reports whether actor may see a single job of businessID.
func (r *Resolver) CanRead(actor models.Actor, businessID uuid.UUID) bool {
	return r.CanWrite(actor, businessID)
}

// ClientCategory returns the client-category predicate a business surface
// applies when picking a client for a new job: special businesses list
// only special-category clients, every other business the complement.
// This narrows a listing, it never blocks an actor.
func ClientCategory(business *models.Business) models.ClientFilter {
	special := business.Special
	return models.ClientFilter{SpecialCategory: &special}
}
