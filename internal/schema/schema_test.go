package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `{
  "tables": [
    {
      "name": "current_top_10",
      "warehouse_name": "CRYPTO.ANALYTICS.CURRENT_TOP_10",
      "description": "Latest snapshot of the top coins.",
      "columns": [
        { "name": "symbol", "type": "VARCHAR", "description": "Ticker symbol" },
        { "name": "price_usd", "type": "DOUBLE", "description": "Current price" }
      ],
      "sample_questions": ["What is the current price of Bitcoin?"]
    },
    {
      "name": "btc_dominance_trend",
      "description": "Daily market-wide metrics.",
      "columns": [
        { "name": "metric_date", "type": "DATE", "description": "Date" }
      ]
    }
  ]
}`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad(t *testing.T) {
	doc, err := Load(writeCatalog(t, testCatalog))

	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "current_top_10", doc.Tables[0].Name)
	assert.Equal(t, "CRYPTO.ANALYTICS.CURRENT_TOP_10", doc.Tables[0].WarehouseName)
	assert.Len(t, doc.Tables[0].Columns, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadRejectsEmptyTables(t *testing.T) {
	_, err := Load(writeCatalog(t, `{"tables": []}`))
	assert.Error(t, err)
}

func TestLoadRejectsTableWithoutColumns(t *testing.T) {
	_, err := Load(writeCatalog(t, `{"tables": [{"name": "t", "description": "d", "columns": []}]}`))
	assert.Error(t, err)
}

func TestChunksOnePerTable(t *testing.T) {
	doc, err := Load(writeCatalog(t, testCatalog))
	require.NoError(t, err)

	chunks := doc.Chunks()
	require.Len(t, chunks, 2)

	assert.Equal(t, "current_top_10", chunks[0].ID)
	assert.Equal(t, "current_top_10", chunks[0].TableName)
	assert.Equal(t, "symbol,price_usd", chunks[0].ColumnNames)
	assert.Contains(t, chunks[0].Text, "Table: current_top_10")
	assert.Contains(t, chunks[0].Text, "Warehouse name: CRYPTO.ANALYTICS.CURRENT_TOP_10")
	assert.Contains(t, chunks[0].Text, "symbol (VARCHAR): Ticker symbol")
	assert.Contains(t, chunks[0].Text, "Example questions:")
}

func TestChunksOmitEmptySections(t *testing.T) {
	doc, err := Load(writeCatalog(t, testCatalog))
	require.NoError(t, err)

	chunk := doc.Chunks()[1]

	assert.Empty(t, chunk.WarehouseName)
	assert.NotContains(t, chunk.Text, "Warehouse name:")
	assert.NotContains(t, chunk.Text, "Example questions:")
}

func TestChunksDeterministic(t *testing.T) {
	doc, err := Load(writeCatalog(t, testCatalog))
	require.NoError(t, err)

	assert.Equal(t, doc.Chunks(), doc.Chunks())
}

func TestTableNames(t *testing.T) {
	doc, err := Load(writeCatalog(t, testCatalog))
	require.NoError(t, err)

	assert.Equal(t, []string{"current_top_10", "btc_dominance_trend"}, doc.TableNames())
}

func TestShippedCatalogParses(t *testing.T) {
	doc, err := Load(filepath.Join("..", "..", "schemas", "crypto_schema.json"))

	require.NoError(t, err)
	assert.Len(t, doc.Tables, 4)
}
