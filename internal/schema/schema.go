package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/coinsight/coinsight/internal/errors"
)

// Column describes one column of a catalog table.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Table is one catalog entry. WarehouseName is the fully qualified name used
// by the production backend; the plain Name is what the mock database uses.
type Table struct {
	Name            string   `json:"name"`
	WarehouseName   string   `json:"warehouse_name,omitempty"`
	Description     string   `json:"description"`
	Columns         []Column `json:"columns"`
	SampleQuestions []string `json:"sample_questions,omitempty"`
}

// Document is the schema catalog loaded once at startup.
type Document struct {
	Tables []Table `json:"tables"`
}

// Chunk is one retrievable unit of schema context. One chunk per table,
// never per column: a question about a price needs the whole table in view,
// not an isolated column.
type Chunk struct {
	ID            string
	Text          string
	TableName     string
	WarehouseName string
	ColumnNames   string
}

// Load reads and parses the schema catalog document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeConfig, "failed to read schema file %s", path)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeConfig, "failed to parse schema file %s", path)
	}

	if len(doc.Tables) == 0 {
		return nil, errors.Newf(errors.ErrTypeConfig, "schema file %s contains no tables", path)
	}

	for _, table := range doc.Tables {
		if table.Name == "" {
			return nil, errors.Newf(errors.ErrTypeConfig, "schema file %s has a table with no name", path)
		}

		if len(table.Columns) == 0 {
			return nil, errors.Newf(errors.ErrTypeConfig, "table %s has no columns", table.Name)
		}
	}

	return &doc, nil
}

// Chunks converts the document into indexable chunks, one per table. The
// text layout is deterministic so the same document always embeds to the
// same index content.
func (d *Document) Chunks() []Chunk {
	chunks := make([]Chunk, 0, len(d.Tables))

	for _, table := range d.Tables {
		var sb strings.Builder

		fmt.Fprintf(&sb, "Table: %s\n", table.Name)

		if table.WarehouseName != "" {
			fmt.Fprintf(&sb, "Warehouse name: %s\n", table.WarehouseName)
		}

		fmt.Fprintf(&sb, "Description: %s\n", table.Description)
		sb.WriteString("Columns:\n")

		columnNames := make([]string, 0, len(table.Columns))
		for _, col := range table.Columns {
			fmt.Fprintf(&sb, "  - %s (%s): %s\n", col.Name, col.Type, col.Description)
			columnNames = append(columnNames, col.Name)
		}

		if len(table.SampleQuestions) > 0 {
			sb.WriteString("Example questions:\n")

			for _, q := range table.SampleQuestions {
				fmt.Fprintf(&sb, "  - %s\n", q)
			}
		}

		chunks = append(chunks, Chunk{
			ID:            table.Name,
			Text:          strings.TrimRight(sb.String(), "\n"),
			TableName:     table.Name,
			WarehouseName: table.WarehouseName,
			ColumnNames:   strings.Join(columnNames, ","),
		})
	}

	return chunks
}

// TableNames returns the catalog's table names in document order.
func (d *Document) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for _, table := range d.Tables {
		names = append(names, table.Name)
	}

	return names
}
