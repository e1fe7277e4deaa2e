package observations

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/internal/species"
)

// step describes one review action after species resolution.
type step struct {
	action    Action
	to        Status
	speciesID *uuid.UUID
	adminID   string
	notes     string
	// created is inserted in the same transaction as the transition.
	created *species.Species
}

func (r *repo) Approve(ctx context.Context, id uuid.UUID, adminID, notes string) (*Observation, error) {
	return r.review(ctx, id, step{
		action:  ActionApprove,
		to:      StatusVerified,
		adminID: adminID,
		notes:   notes,
	})
}

func (r *repo) Reject(ctx context.Context, id uuid.UUID, adminID, notes string) (*Observation, error) {
	return r.review(ctx, id, step{
		action:  ActionReject,
		to:      StatusRejected,
		adminID: adminID,
		notes:   notes,
	})
}

func (r *repo) IdentifyExisting(ctx context.Context, id uuid.UUID, ref species.Ref, adminID, notes string) (*Observation, error) {
	if err := requireAdmin(adminID); err != nil {
		return nil, err
	}

	s, err := r.registry.ResolveExisting(ctx, ref)
	if err != nil {
		return nil, err
	}

	return r.review(ctx, id, step{
		action:    ActionIdentifyExisting,
		to:        StatusVerified,
		speciesID: &s.ID,
		adminID:   adminID,
		notes:     notes,
	})
}

// IdentifyNew inserts the new species in the transaction that verifies the
// observation. If the conditional write loses a race, no species is created.
func (r *repo) IdentifyNew(ctx context.Context, id uuid.UUID, cmd species.NewSpecies, adminID, notes string) (*Observation, error) {
	if err := requireAdmin(adminID); err != nil {
		return nil, err
	}

	draft, err := r.registry.PrepareNew(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return r.review(ctx, id, step{
		action:    ActionIdentifyNew,
		to:        StatusVerified,
		speciesID: &draft.ID,
		adminID:   adminID,
		notes:     notes,
		created:   &draft,
	})
}

func (r *repo) review(ctx context.Context, id uuid.UUID, st step) (*Observation, error) {
	if err := requireAdmin(st.adminID); err != nil {
		return nil, err
	}

	notes := strings.TrimSpace(st.notes)

	mutate := func(current Observation) (Observation, error) {
		if current.Status != StatusPending {
			return current, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, current.ID, current.Status)
		}
		current.Status = st.to
		if st.speciesID != nil {
			current.SpeciesID = st.speciesID
		}
		if notes != "" {
			current.Notes = notes
		}
		return current, nil
	}

	decision := Decision{
		ID:            uuid.New(),
		ObservationID: id,
		Action:        st.action,
		AdminID:       st.adminID,
		SpeciesID:     st.speciesID,
		Notes:         notes,
	}

	persist := func(ctx context.Context, next Observation) (*Observation, error) {
		return r.store.Transition(ctx, next, decision, st.created)
	}

	o, err := r.Mutate(ctx, id, mutate, persist)
	if err != nil {
		r.logger.Warn("review action failed",
			"id", id,
			"admin_id", st.adminID,
			"action", st.action,
			"error", err,
		)
		return nil, err
	}

	if st.created != nil {
		r.registry.Adopt(*st.created)
	}
	r.decided(decision)
	r.logger.Info("review decision recorded",
		"id", o.ID,
		"admin_id", st.adminID,
		"action", st.action,
		"status", o.Status,
	)
	return o, nil
}

func requireAdmin(adminID string) error {
	if strings.TrimSpace(adminID) == "" {
		return fmt.Errorf("%w: admin id required", ErrValidation)
	}
	return nil
}
