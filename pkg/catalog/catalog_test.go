package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfret/lv2go/pkg/catalog"
)

func TestCatalogJSONRoundTripsEntryShape(t *testing.T) {
	min, max, def := float32(0), float32(1), float32(0.5)
	entries := map[string]catalog.Entry{
		"urn:test:gain": {
			Name:   "Test Gain",
			URI:    "urn:test:gain",
			Author: "lv2go",
			Ports:  2,
			Port: []catalog.PortEntry{
				{Index: 0, Name: "in", Type: "audio"},
				{Index: 1, Name: "gain_db", Type: "control", Min: &min, Max: &max, Default: &def},
			},
		},
	}

	b, err := json.Marshal(entries)
	require.NoError(t, err)

	var decoded map[string]catalog.Entry
	require.NoError(t, json.Unmarshal(b, &decoded))

	got := decoded["urn:test:gain"]
	assert.Equal(t, "Test Gain", got.Name)
	assert.Len(t, got.Port, 2)
	assert.Equal(t, "control", got.Port[1].Type)
	require.NotNil(t, got.Port[1].Default)
	assert.InDelta(t, 0.5, *got.Port[1].Default, 1e-6)
}

func TestCatalogLookupMissesUnknownURI(t *testing.T) {
	// Len/Lookup are exercised against the zero-value Catalog that a
	// failed or empty World scan would leave behind: no plugins, no
	// panics.
	var c catalog.Catalog
	_, ok := c.Lookup("urn:does:not:exist")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
