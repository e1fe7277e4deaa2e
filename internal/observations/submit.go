package observations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/internal/confidence"
	"github.com/ylk14/SmartPlant-sub000/internal/species"
)

func (r *repo) Submit(ctx context.Context, cmd SubmitCommand) (*Observation, error) {
	if strings.TrimSpace(cmd.UserID) == "" {
		return nil, fmt.Errorf("%w: user id required", ErrValidation)
	}
	if err := confidence.Validate(cmd.Confidence); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	switch cmd.Source {
	case SourceCamera, SourceLibrary:
	default:
		return nil, fmt.Errorf("%w: source must be camera or library", ErrValidation)
	}

	if cmd.SpeciesID != nil {
		if _, err := r.registry.Find(ctx, *cmd.SpeciesID); err != nil {
			if errors.Is(err, species.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown species %s", ErrValidation, *cmd.SpeciesID)
			}
			return nil, err
		}
	}

	loc := cmd.Location
	if !loc.Present() {
		loc = nil
	}

	status := StatusVerified
	if r.gate.ShouldQueueForReview(cmd.Confidence) {
		status = StatusPending
	}

	o, err := r.store.Create(ctx, Observation{
		ID:           uuid.New(),
		UserID:       cmd.UserID,
		SpeciesID:    cmd.SpeciesID,
		Confidence:   cmd.Confidence,
		Status:       status,
		Location:     loc,
		LocationName: strings.TrimSpace(cmd.LocationName),
		Notes:        strings.TrimSpace(cmd.Notes),
		Source:       cmd.Source,
	})
	if err != nil {
		return nil, fmt.Errorf("create observation: %w", err)
	}

	r.logger.Info("observation submitted",
		"id", o.ID,
		"user_id", o.UserID,
		"status", o.Status,
		"confidence", confidence.Percent(o.Confidence),
	)
	return o, nil
}
