package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo is one column of a live table.
type ColumnInfo struct {
	Field string
	Type  string
}

// TableColumns lists the columns of table. A missing table yields an empty
// result, not an error.
func TableColumns(db *gorm.DB, table string) ([]ColumnInfo, error) {
	if !db.Migrator().HasTable(table) {
		return nil, nil
	}

	types, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}

	columns := make([]ColumnInfo, 0, len(types))
	for _, col := range types {
		columns = append(columns, ColumnInfo{
			Field: strings.ToLower(col.Name()),
			Type:  strings.ToLower(col.DatabaseTypeName()),
		})
	}
	return columns, nil
}

// MissingColumns returns the expected columns absent from table, or all of
// them when the table does not exist.
func MissingColumns(db *gorm.DB, table string, expected []string) ([]string, error) {
	columns, err := TableColumns(db, table)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c.Field] = true
	}
	var missing []string
	for _, name := range expected {
		if !present[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
