package observations

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/pkg/query"
	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "observations", "o").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("species_id", "SpeciesID").
	Project("confidence", "Confidence").
	Project("status", "Status").
	Project("lat", "Lat").
	Project("lon", "Lon").
	Project("location_name", "LocationName").
	Project("notes", "Notes").
	Project("mask_override", "MaskOverride").
	Project("source", "Source").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var queueSort = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID"},
}

const returning = `
		RETURNING id, user_id, species_id, confidence, status, lat, lon, location_name, notes, mask_override, source, created_at, updated_at`

func scanObservation(s repository.Scanner) (Observation, error) {
	var (
		o        Observation
		species  uuid.NullUUID
		lat, lon sql.NullFloat64
		mask     sql.NullBool
	)
	err := s.Scan(
		&o.ID,
		&o.UserID,
		&species,
		&o.Confidence,
		&o.Status,
		&lat,
		&lon,
		&o.LocationName,
		&o.Notes,
		&mask,
		&o.Source,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	if species.Valid {
		o.SpeciesID = &species.UUID
	}
	if lat.Valid && lon.Valid {
		o.Location = &Location{Lat: lat.Float64, Lon: lon.Float64}
	}
	if mask.Valid {
		o.MaskOverride = &mask.Bool
	}
	return o, nil
}

var decisionProjection = query.
	NewProjectionMap("public", "review_decisions", "d").
	Project("id", "ID").
	Project("observation_id", "ObservationID").
	Project("action", "Action").
	Project("admin_id", "AdminID").
	Project("decided_at", "DecidedAt").
	Project("species_id", "SpeciesID").
	Project("notes", "Notes")

var decisionSort = []query.SortField{
	{Field: "DecidedAt"},
	{Field: "ID"},
}

func scanDecision(s repository.Scanner) (Decision, error) {
	var (
		d       Decision
		species uuid.NullUUID
	)
	err := s.Scan(
		&d.ID,
		&d.ObservationID,
		&d.Action,
		&d.AdminID,
		&d.DecidedAt,
		&species,
		&d.Notes,
	)
	if species.Valid {
		d.SpeciesID = &species.UUID
	}
	return d, err
}

func locationArgs(l *Location) (lat, lon sql.NullFloat64) {
	if l == nil {
		return
	}
	return sql.NullFloat64{Float64: l.Lat, Valid: true}, sql.NullFloat64{Float64: l.Lon, Valid: true}
}
