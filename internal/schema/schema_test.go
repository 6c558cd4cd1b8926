package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"invoiceNumber": map[string]interface{}{"type": "string"},
			"lineItems":     map[string]interface{}{"type": "array"},
			"totalAmount":   map[string]interface{}{"type": "number"},
		},
		"required": []interface{}{"invoiceNumber", "lineItems"},
	}
}

func TestSplit_PerPageAndFullDoc(t *testing.T) {
	perPage, fullDoc, err := Split(baseSchema(), []string{"lineItems"})
	require.NoError(t, err)

	require.NotNil(t, perPage)
	props := perPage["properties"].(map[string]interface{})
	assert.Contains(t, props, "lineItems")
	assert.NotContains(t, props, "invoiceNumber")
	assert.Equal(t, []interface{}{"lineItems"}, perPage["required"])

	require.NotNil(t, fullDoc)
	fullProps := fullDoc["properties"].(map[string]interface{})
	assert.Contains(t, fullProps, "invoiceNumber")
	assert.Contains(t, fullProps, "totalAmount")
	assert.NotContains(t, fullProps, "lineItems")
	assert.Equal(t, []interface{}{"invoiceNumber"}, fullDoc["required"])
}

func TestSplit_AllPerPage_NoFullDoc(t *testing.T) {
	perPage, fullDoc, err := Split(baseSchema(), []string{"invoiceNumber", "lineItems", "totalAmount"})
	require.NoError(t, err)
	assert.NotNil(t, perPage)
	assert.Nil(t, fullDoc)
}

func TestSplit_NoneExtractPerPage_NoPerPage(t *testing.T) {
	perPage, fullDoc, err := Split(baseSchema(), nil)
	require.NoError(t, err)
	assert.Nil(t, perPage)
	assert.NotNil(t, fullDoc)
}

func TestSplit_RequiredEntryNotInSubsetIsDropped(t *testing.T) {
	perPage, _, err := Split(baseSchema(), []string{"totalAmount"})
	require.NoError(t, err)
	// "invoiceNumber" and "lineItems" are required on the full schema but
	// absent from this per-page subset, so required must not reference them.
	_, hasRequired := perPage["required"]
	assert.False(t, hasRequired)
}

func TestSplit_NilSchema(t *testing.T) {
	_, _, err := Split(nil, nil)
	assert.Error(t, err)
}

func TestSplit_MissingProperties(t *testing.T) {
	_, _, err := Split(map[string]interface{}{"type": "object"}, nil)
	assert.Error(t, err)
}
