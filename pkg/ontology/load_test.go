package ontology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_BuildsMemoryStoreFromJSONExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ontology.json")
	data := `[
		{"iri": "iri:breach-of-contract", "label": "Breach of Contract", "preferred_label": "Breach of Contract", "branches": ["Contract Law"]},
		{"iri": "iri:has-party", "label": "hasParty", "preferred_label": "hasParty", "domain_iris": ["iri:contract"], "range_iris": ["iri:party"]}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	store, err := LoadFile(path)
	require.NoError(t, err)

	concept, ok := store.GetConcept("iri:breach-of-contract")
	require.True(t, ok)
	assert.Equal(t, "Breach of Contract", concept.Label)

	assert.Len(t, store.Classes(), 1)
	assert.Contains(t, store.AllPropertyLabels(), "hasparty")
}

func TestLoadFile_MissingFileReturnsError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
