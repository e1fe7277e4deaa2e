// Package observations implements observation intake and the review workflow:
// the pending queue, the four admin review actions, and their audit trail.
package observations

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status is the review state of an observation. Only pending is non-terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Source records how the photo was captured.
type Source string

const (
	SourceCamera  Source = "camera"
	SourceLibrary Source = "library"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Present reports whether l is a usable coordinate. Nil, non-finite and the
// exact (0,0) sentinel all count as absent.
func (l *Location) Present() bool {
	if l == nil {
		return false
	}
	for _, v := range []float64{l.Lat, l.Lon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return l.Lat != 0 || l.Lon != 0
}

// Observation is a user submission of a plant photo with a proposed species.
type Observation struct {
	ID           uuid.UUID  `json:"id"`
	UserID       string     `json:"user_id"`
	SpeciesID    *uuid.UUID `json:"species_id"`
	Confidence   float64    `json:"confidence"`
	Status       Status     `json:"status"`
	Location     *Location  `json:"location"`
	LocationName string     `json:"location_name"`
	Notes        string     `json:"notes"`
	MaskOverride *bool      `json:"mask_override"`
	Source       Source     `json:"source"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of o.
func (o Observation) Clone() Observation {
	if o.SpeciesID != nil {
		id := *o.SpeciesID
		o.SpeciesID = &id
	}
	if o.Location != nil {
		loc := *o.Location
		o.Location = &loc
	}
	if o.MaskOverride != nil {
		m := *o.MaskOverride
		o.MaskOverride = &m
	}
	return o
}

// Action names a review decision.
type Action string

const (
	ActionApprove          Action = "approve"
	ActionReject           Action = "reject"
	ActionIdentifyExisting Action = "identify_existing"
	ActionIdentifyNew      Action = "identify_new"
)

// Decision is one append-only audit record of a review action.
type Decision struct {
	ID            uuid.UUID  `json:"id"`
	ObservationID uuid.UUID  `json:"observation_id"`
	Action        Action     `json:"action"`
	AdminID       string     `json:"admin_id"`
	DecidedAt     time.Time  `json:"decided_at"`
	SpeciesID     *uuid.UUID `json:"species_id"`
	Notes         string     `json:"notes"`
}

// SubmitCommand carries a new observation from the submission pipeline.
type SubmitCommand struct {
	UserID       string     `json:"-"`
	SpeciesID    *uuid.UUID `json:"species_id"`
	Confidence   float64    `json:"confidence"`
	Location     *Location  `json:"location"`
	LocationName string     `json:"location_name"`
	Notes        string     `json:"notes"`
	Source       Source     `json:"source"`
}

// LocatedFilter narrows ListLocated. A zero Status matches every status.
type LocatedFilter struct {
	Status Status
}
