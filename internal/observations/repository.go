package observations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/internal/species"
	"github.com/ylk14/SmartPlant-sub000/pkg/pagination"
	"github.com/ylk14/SmartPlant-sub000/pkg/query"
	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

type pgStore struct {
	db         *sql.DB
	pagination pagination.Config
}

// NewPostgresStore creates a Store backed by the observations and
// review_decisions tables.
func NewPostgresStore(db *sql.DB, pagination pagination.Config) Store {
	return &pgStore{db: db, pagination: pagination}
}

func (p *pgStore) Create(ctx context.Context, o Observation) (*Observation, error) {
	q := `
		INSERT INTO observations(id, user_id, species_id, confidence, status, lat, lon, location_name, notes, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)` + returning

	lat, lon := locationArgs(o.Location)
	args := []any{
		o.ID,
		o.UserID,
		nullUUID(o.SpeciesID),
		o.Confidence,
		o.Status,
		lat,
		lon,
		o.LocationName,
		o.Notes,
		o.Source,
	}

	created, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (Observation, error) {
		return repository.QueryOne(ctx, tx, q, args, scanObservation)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &created, nil
}

func (p *pgStore) Find(ctx context.Context, id uuid.UUID) (*Observation, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	o, err := repository.QueryOne(ctx, p.db, q, args, scanObservation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &o, nil
}

func (p *pgStore) ListPending(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Observation], error) {
	page.Normalize(p.pagination)

	qb := query.
		NewBuilder(projection, queueSort...).
		WhereEquals("Status", StatusPending).
		WhereSearch(page.Search, "LocationName", "Notes")

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, repository.Transient(fmt.Errorf("count pending observations: %w", err))
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, p.db, pageSQL, pageArgs, scanObservation)
	if err != nil {
		return nil, repository.Transient(fmt.Errorf("query pending observations: %w", err))
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (p *pgStore) ListLocated(ctx context.Context, filter LocatedFilter) ([]Observation, error) {
	qb := query.
		NewBuilder(projection, query.SortField{Field: "CreatedAt"}, query.SortField{Field: "ID"}).
		WhereNotNull("Lat", "Lon")

	if filter.Status != "" {
		qb.WhereEquals("Status", filter.Status)
	}

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, p.db, q, args, scanObservation)
	if err != nil {
		return nil, repository.Transient(fmt.Errorf("query located observations: %w", err))
	}
	return items, nil
}

func (p *pgStore) Transition(ctx context.Context, next Observation, d Decision, created *species.Species) (*Observation, error) {
	update := `
		UPDATE observations
		SET status = $2, species_id = $3, notes = $4, updated_at = $5
		WHERE id = $1 AND status = 'pending'` + returning

	insert := `
		INSERT INTO review_decisions(id, observation_id, action, admin_id, decided_at, species_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now().UTC()

	updated, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (Observation, error) {
		if created != nil {
			if _, err := species.Insert(ctx, tx, *created); err != nil {
				return Observation{}, err
			}
		}

		o, err := repository.QueryGuarded(
			ctx, tx, update,
			[]any{next.ID, next.Status, nullUUID(next.SpeciesID), next.Notes, now},
			scanObservation,
		)
		if err != nil {
			return o, err
		}

		_, err = tx.ExecContext(
			ctx, insert,
			d.ID, d.ObservationID, d.Action, d.AdminID, now, nullUUID(d.SpeciesID), d.Notes,
		)
		return o, err
	})

	switch {
	case err == nil:
		return &updated, nil
	case errors.Is(err, repository.ErrGuardFailed):
		return nil, fmt.Errorf("%w: %s is no longer pending", ErrConflict, next.ID)
	case errors.Is(err, species.ErrDuplicate), errors.Is(err, repository.ErrTransient):
		return nil, err
	default:
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
}

func (p *pgStore) SetMaskOverride(ctx context.Context, id uuid.UUID, override bool) (*Observation, error) {
	q := `
		UPDATE observations
		SET mask_override = $2, updated_at = $3
		WHERE id = $1` + returning

	args := []any{id, override, time.Now().UTC()}

	o, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (Observation, error) {
		return repository.QueryOne(ctx, tx, q, args, scanObservation)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &o, nil
}

func (p *pgStore) Decisions(ctx context.Context, id uuid.UUID) ([]Decision, error) {
	q, args := query.
		NewBuilder(decisionProjection, decisionSort...).
		WhereEquals("ObservationID", id).
		Build()

	items, err := repository.QueryMany(ctx, p.db, q, args, scanDecision)
	if err != nil {
		return nil, repository.Transient(fmt.Errorf("query review decisions: %w", err))
	}
	return items, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
