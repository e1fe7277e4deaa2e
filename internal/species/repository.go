package species

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/pkg/query"
	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

type pgStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by the species table.
func NewPostgresStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (p *pgStore) List(ctx context.Context) ([]Species, error) {
	q, args := query.NewBuilder(projection, defaultSort).Build()

	items, err := repository.QueryMany(ctx, p.db, q, args, scanSpecies)
	if err != nil {
		return nil, repository.Transient(err)
	}
	return items, nil
}

func (p *pgStore) Find(ctx context.Context, id uuid.UUID) (*Species, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, p.db, q, args, scanSpecies)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (p *pgStore) FindByName(ctx context.Context, name string) (*Species, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ScientificName", name)

	s, err := repository.QueryOne(ctx, p.db, q, args, scanSpecies)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (p *pgStore) Create(ctx context.Context, s Species) (*Species, error) {
	return repository.WithTx(ctx, p.db, func(tx *sql.Tx) (*Species, error) {
		return Insert(ctx, tx, s)
	})
}

// Insert writes s using q, so callers can insert a species inside their own
// transaction. A taken scientific name yields ErrDuplicate.
func Insert(ctx context.Context, q repository.Querier, s Species) (*Species, error) {
	stmt := `
		INSERT INTO species(id, scientific_name, common_name, is_endangered, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, scientific_name, common_name, is_endangered, description, created_at`

	args := []any{s.ID, s.ScientificName, s.CommonName, s.IsEndangered, s.Description}

	created, err := repository.QueryOne(ctx, q, stmt, args, scanSpecies)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &created, nil
}
