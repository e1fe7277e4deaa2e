package species

import (
	"github.com/ylk14/SmartPlant-sub000/pkg/query"
	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "species", "s").
	Project("id", "ID").
	Project("scientific_name", "ScientificName").
	Project("common_name", "CommonName").
	Project("is_endangered", "IsEndangered").
	Project("description", "Description").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "ScientificName"}

func scanSpecies(s repository.Scanner) (Species, error) {
	var sp Species
	err := s.Scan(
		&sp.ID,
		&sp.ScientificName,
		&sp.CommonName,
		&sp.IsEndangered,
		&sp.Description,
		&sp.CreatedAt,
	)
	return sp, err
}
