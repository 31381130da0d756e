package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/ubl-ingest/internal/catalog"
)

func TestNames(t *testing.T) {
	names := catalog.Names()
	assert.Equal(t, []string{
		catalog.AfectacionIGV,
		catalog.Monedas,
		catalog.TipoDocumento,
		catalog.Tributos,
		catalog.Unidades,
	}, names)
}

func TestLookup(t *testing.T) {
	entries, err := catalog.Lookup(catalog.TipoDocumento)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	_, err = catalog.Lookup("inexistente")
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Factura", catalog.Describe(catalog.TipoDocumento, "01"))
	assert.Equal(t, "IGV - Impuesto General a las Ventas", catalog.Describe(catalog.Tributos, "1000"))

	// Unknown codes and catalogs fall back to the code itself
	assert.Equal(t, "ZZ", catalog.Describe(catalog.TipoDocumento, "ZZ"))
	assert.Equal(t, "01", catalog.Describe("inexistente", "01"))
}
