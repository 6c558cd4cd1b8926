package structureddata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStructuredDataExtension(t *testing.T) {
	assert.True(t, IsStructuredDataExtension(".xlsx"))
	assert.True(t, IsStructuredDataExtension(".xlsm"))
	assert.True(t, IsStructuredDataExtension(".xls"))
	assert.False(t, IsStructuredDataExtension(".pdf"))
	assert.False(t, IsStructuredDataExtension(".docx"))
}

func TestRead_LegacyXLSRejected(t *testing.T) {
	_, err := Read("/tmp/whatever.xls", ".xls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legacy .xls")
}

func TestRead_UnsupportedExtensionRejected(t *testing.T) {
	_, err := Read("/tmp/whatever.csv", ".csv")
	require.Error(t, err)
}

func TestRead_XLSXFixture(t *testing.T) {
	path := filepath.Join("testdata", "sample.xlsx")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("test fixture %s not found", path)
	}

	pages, err := Read(path, ".xlsx")
	require.NoError(t, err)
	require.NotEmpty(t, pages)
	assert.NotEmpty(t, pages[0].SheetName)
}
