// Package geomask decides which observation locations may be exposed and
// aggregates the visible ones into weighted heatmap points.
package geomask

import (
	"log/slog"

	"github.com/ylk14/SmartPlant-sub000/internal/observations"
	"github.com/ylk14/SmartPlant-sub000/internal/species"
)

const (
	weightDefault    = 1
	weightEndangered = 2
)

// HeatmapPoint is a derived, never persisted, heatmap sample.
type HeatmapPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight int     `json:"weight"`
}

// EffectiveVisibility resolves whether a location is shown. An explicit
// override wins (true hides); otherwise endangered species are hidden.
func EffectiveVisibility(maskOverride *bool, endangered bool) bool {
	if maskOverride != nil {
		return !*maskOverride
	}
	return !endangered
}

// Visibility applies EffectiveVisibility to o. A nil species, or one missing
// from the registry, is treated as non-endangered and logged.
func Visibility(logger *slog.Logger, o observations.Observation, s *species.Species) bool {
	endangered := false
	switch {
	case s != nil:
		endangered = s.IsEndangered
	case o.SpeciesID != nil:
		logger.Warn("observation references unknown species",
			"id", o.ID,
			"species_id", *o.SpeciesID,
		)
	}
	return EffectiveVisibility(o.MaskOverride, endangered)
}

// BuildHeatmapPoints drops observations without a usable coordinate, drops
// hidden ones unless includeMasked, and weights endangered species double.
func BuildHeatmapPoints(logger *slog.Logger, items []observations.Observation, lookup species.Lookup, includeMasked bool) []HeatmapPoint {
	points := make([]HeatmapPoint, 0, len(items))

	for _, o := range items {
		if !o.Location.Present() {
			continue
		}

		s := resolve(lookup, o)
		if !includeMasked && !Visibility(logger, o, s) {
			continue
		}

		weight := weightDefault
		if s != nil && s.IsEndangered {
			weight = weightEndangered
		}

		points = append(points, HeatmapPoint{
			Lat:    o.Location.Lat,
			Lon:    o.Location.Lon,
			Weight: weight,
		})
	}

	return points
}

func resolve(lookup species.Lookup, o observations.Observation) *species.Species {
	if o.SpeciesID == nil || lookup == nil {
		return nil
	}
	s, ok := lookup(*o.SpeciesID)
	if !ok {
		return nil
	}
	return &s
}
