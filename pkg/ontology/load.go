package ontology

import (
	"encoding/json"
	"fmt"
	"os"
)

// conceptDTO is the on-disk shape for a concept export. Concept itself
// carries no JSON tags since it isn't meant for direct wire serialization;
// this DTO is the one place that boundary gets crossed, matching the
// ingestion packages' "thin converter at the edge" pattern.
type conceptDTO struct {
	IRI               string            `json:"iri"`
	Label             string            `json:"label"`
	PreferredLabel    string            `json:"preferred_label"`
	AlternativeLabels []string          `json:"alternative_labels,omitempty"`
	Definition        string            `json:"definition,omitempty"`
	Examples          []string          `json:"examples,omitempty"`
	Translations      map[string]string `json:"translations,omitempty"`
	SubClassOf        []string          `json:"sub_class_of,omitempty"`
	ParentClassOf     []string          `json:"parent_class_of,omitempty"`
	SeeAlso           []string          `json:"see_also,omitempty"`
	Branches          []string          `json:"branches,omitempty"`
	DomainIRIs        []string          `json:"domain_iris,omitempty"`
	RangeIRIs         []string          `json:"range_iris,omitempty"`
	InverseOf         string            `json:"inverse_of,omitempty"`
}

// LoadFile reads a JSON-encoded concept export and builds a MemoryStore.
// No OWL/RDF parsing library is present anywhere in this module's
// retrieved dependency corpus, so the ontology is distributed as a flat
// JSON array produced offline from the FOLIO OWL export, rather than
// parsed from RDF/XML at load time.
func LoadFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ontology: failed to read %s: %w", path, err)
	}

	var dtos []conceptDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("ontology: failed to parse %s: %w", path, err)
	}

	concepts := make([]Concept, 0, len(dtos))
	for _, d := range dtos {
		concepts = append(concepts, Concept{
			IRI:               d.IRI,
			Label:             d.Label,
			PreferredLabel:    d.PreferredLabel,
			AlternativeLabels: d.AlternativeLabels,
			Definition:        d.Definition,
			Examples:          d.Examples,
			Translations:      d.Translations,
			SubClassOf:        d.SubClassOf,
			ParentClassOf:     d.ParentClassOf,
			SeeAlso:           d.SeeAlso,
			Branches:          d.Branches,
			DomainIRIs:        d.DomainIRIs,
			RangeIRIs:         d.RangeIRIs,
			InverseOf:         d.InverseOf,
		})
	}
	return NewMemoryStore(concepts), nil
}
