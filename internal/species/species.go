// Package species implements the species registry: the canonical catalog of
// plant species, scientific-name normalization, and the resolver that maps
// reviewer input onto existing or newly created registry entries.
package species

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Species is a canonical registry entry. ScientificName is always normalized.
type Species struct {
	ID             uuid.UUID `json:"id"`
	ScientificName string    `json:"scientific_name"`
	CommonName     string    `json:"common_name"`
	IsEndangered   bool      `json:"is_endangered"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// DisplayName returns the common name, falling back to the scientific name.
func (s Species) DisplayName() string {
	if name := strings.TrimSpace(s.CommonName); name != "" {
		return name
	}
	return s.ScientificName
}

// Ref identifies an existing species by id or by (raw) scientific name.
// At least one field must be set; SpeciesID wins when both are.
type Ref struct {
	SpeciesID *uuid.UUID `json:"species_id,omitempty"`
	Name      string     `json:"name,omitempty"`
}

// NewSpecies carries the reviewer input for minting a registry entry.
type NewSpecies struct {
	ScientificName string `json:"scientific_name"`
	CommonName     string `json:"common_name"`
	IsEndangered   bool   `json:"is_endangered"`
	Description    string `json:"description"`
}

// Lookup resolves a species id to its registry entry.
type Lookup func(id uuid.UUID) (Species, bool)
