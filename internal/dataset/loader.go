package dataset

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/HlisTilen/NiaARM/internal/store"
)

// LoadAll hydrates the registry from the _datasets catalog by re-reading
// each stored CSV. A dataset whose file is missing or unreadable is skipped
// with a warning rather than failing startup.
func LoadAll(ctx context.Context, db store.Querier, reg *Registry) error {
	rows, err := store.QueryRows(ctx, db,
		"SELECT id, name, path, row_count, column_count, created_at FROM _datasets")
	if err != nil {
		return fmt.Errorf("load dataset catalog: %w", err)
	}

	for _, row := range rows {
		info := infoFromRow(row)
		f, err := os.Open(info.Path)
		if err != nil {
			log.Printf("WARN: dataset %s (%s): %v", info.Name, info.ID, err)
			continue
		}
		d, err := LoadCSV(f)
		f.Close()
		if err != nil {
			log.Printf("WARN: dataset %s (%s): %v", info.Name, info.ID, err)
			continue
		}
		reg.Put(&Entry{Info: info, Data: d})
	}

	return nil
}

// SaveInfo inserts a catalog row for a newly registered dataset.
func SaveInfo(ctx context.Context, db store.Querier, info Info) error {
	_, err := store.Exec(ctx, db,
		`INSERT INTO _datasets (id, name, path, row_count, column_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		info.ID, info.Name, info.Path, info.Rows, info.Columns, info.CreatedAt)
	if err != nil {
		return fmt.Errorf("save dataset %s: %w", info.ID, err)
	}
	return nil
}

// DeleteInfo removes a catalog row.
func DeleteInfo(ctx context.Context, db store.Querier, id string) error {
	if _, err := store.Exec(ctx, db, "DELETE FROM _datasets WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	return nil
}

func infoFromRow(row map[string]any) Info {
	info := Info{
		ID:   fmt.Sprintf("%v", row["id"]),
		Name: fmt.Sprintf("%v", row["name"]),
		Path: fmt.Sprintf("%v", row["path"]),
	}
	if v, ok := row["row_count"].(int64); ok {
		info.Rows = int(v)
	}
	if v, ok := row["column_count"].(int64); ok {
		info.Columns = int(v)
	}
	if t, ok := row["created_at"].(time.Time); ok {
		info.CreatedAt = t
	}
	return info
}
