// Package db keeps a DuckDB attribute table of the styled survey features so
// the classification can be inspected with SQL.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joeblew999/forest-map/internal/classify"
	"github.com/joeblew999/forest-map/internal/style"
)

// FeaturesTable holds one row per styled overlay feature.
const FeaturesTable = "features"

const createFeatures = `CREATE TABLE IF NOT EXISTS features (
	layer        VARCHAR NOT NULL,
	feature_id   VARCHAR NOT NULL,
	species      VARCHAR,
	hbr_index    DOUBLE,
	index_source VARCHAR NOT NULL,
	fill         VARCHAR NOT NULL
)`

// Config holds database configuration.
type Config struct {
	// DataDir is the directory holding the duckdb/ subdirectory. Empty opens
	// an in-memory database.
	DataDir string
	DBName  string
	// Extensions are installed and loaded best effort.
	Extensions []string
}

// Open opens a DuckDB database and creates the features table. Once the
// extensions are loaded, access to host files and the network is turned off
// so SQL run against the connection only sees the database itself.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, eris.Wrap(err, "create duckdb directory")
		}
		name := cfg.DBName
		if name == "" {
			name = "forestmap"
		}
		dsn = filepath.Join(duckdbDir, name+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "open duckdb")
	}

	for _, ext := range cfg.Extensions {
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			logger.Warn("duckdb extension unavailable", zap.String("extension", ext), zap.Error(err))
		}
	}

	if _, err := conn.ExecContext(ctx, createFeatures); err != nil {
		conn.Close()
		return nil, eris.Wrap(err, "create features table")
	}

	if _, err := conn.ExecContext(ctx, "SET enable_external_access = false"); err != nil {
		conn.Close()
		return nil, eris.Wrap(err, "disable external access")
	}
	return conn, nil
}

// LoadFeatures replaces the rows of layer with the features of fc. fc is
// expected to be styled already; its fill property is stored as is.
func LoadFeatures(ctx context.Context, conn *sql.DB, layer string, fc *geojson.FeatureCollection) (int, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM features WHERE layer = ?", layer); err != nil {
		return 0, eris.Wrapf(err, "clear layer %q", layer)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO features (layer, feature_id, species, hbr_index, index_source, fill) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, eris.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	n := 0
	if fc != nil {
		for i, f := range fc.Features {
			if _, err := stmt.ExecContext(ctx, row(layer, i, f)...); err != nil {
				return n, eris.Wrapf(err, "insert feature %d of %q", i, layer)
			}
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "commit")
	}
	return n, nil
}

func row(layer string, i int, f *geojson.Feature) []any {
	id := fmt.Sprint(i)
	if f.ID != nil {
		id = fmt.Sprint(f.ID)
	}

	var species sql.NullString
	if s, ok := classify.SpeciesOf(f.Properties); ok {
		species = sql.NullString{String: s, Valid: true}
	}

	v, src := classify.IndexOf(f.Properties)
	index := sql.NullFloat64{Float64: v, Valid: src != classify.IndexMissing}

	fill, _ := f.Properties[style.PropFill].(string)
	return []any{layer, id, species, index, string(src), fill}
}

// Tables lists the tables in the database.
func Tables(ctx context.Context, conn *sql.DB) ([]string, error) {
	rows, err := conn.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, eris.Wrap(err, "show tables")
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "scan table name")
		}
		tables = append(tables, name)
	}
	return tables, eris.Wrap(rows.Err(), "iterate tables")
}
