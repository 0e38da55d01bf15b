// Package db persists the template redirect graph for wikibox.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lbug "github.com/LadybugDB/go-ladybug"
)

// Record represents a single result row from a query.
type Record map[string]any

// GraphDB wraps LadybugDB for graph operations.
type GraphDB struct {
	db       *lbug.Database
	conn     *lbug.Connection
	path     string
	readOnly bool
	logger   *slog.Logger
}

// Config holds database configuration options.
type Config struct {
	// Path is the filesystem path to the database.
	Path string

	// ReadOnly opens the database in read-only mode.
	ReadOnly bool

	// AutoRecover attempts to recover from WAL corruption.
	AutoRecover bool

	// Logger for database operations.
	Logger *slog.Logger
}

// Open opens or creates a LadybugDB database.
func Open(cfg Config) (*GraphDB, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Ensure parent directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	sysCfg := lbug.DefaultSystemConfig()
	sysCfg.ReadOnly = cfg.ReadOnly

	db, err := lbug.OpenDatabase(cfg.Path, sysCfg)
	if err != nil {
		if cfg.AutoRecover {
			logger.Warn("database open failed, attempting recovery", "error", err)
			if recoverErr := removeWALFiles(cfg.Path); recoverErr != nil {
				logger.Warn("WAL removal failed", "error", recoverErr)
			}
			db, err = lbug.OpenDatabase(cfg.Path, sysCfg)
			if err != nil {
				return nil, fmt.Errorf("open database after recovery: %w", err)
			}
			logger.Info("database recovery successful")
		} else {
			return nil, fmt.Errorf("open database: %w", err)
		}
	}

	conn, err := lbug.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open connection: %w", err)
	}

	gdb := &GraphDB{
		db:       db,
		conn:     conn,
		path:     cfg.Path,
		readOnly: cfg.ReadOnly,
		logger:   logger,
	}

	if !cfg.ReadOnly {
		if err := gdb.initSchema(); err != nil {
			gdb.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	return gdb, nil
}

// removeWALFiles removes WAL files for recovery.
func removeWALFiles(dbPath string) error {
	walPath := dbPath + ".wal"
	if _, err := os.Stat(walPath); err == nil {
		if err := os.Remove(walPath); err != nil {
			return fmt.Errorf("remove WAL file: %w", err)
		}
	}
	return nil
}

// initSchema creates the database schema.
func (g *GraphDB) initSchema() error {
	schemas := []string{
		// One node per template page that resolution has visited.
		`CREATE NODE TABLE IF NOT EXISTS Template(
			name STRING,
			infobox BOOL,
			resolved_at STRING,
			PRIMARY KEY(name)
		)`,

		// A template whose body starts with another template redirects to it.
		`CREATE REL TABLE IF NOT EXISTS REDIRECTS_TO(FROM Template TO Template)`,
	}

	for _, schema := range schemas {
		if _, err := g.conn.Query(schema); err != nil {
			// Ignore "already exists" errors
			g.logger.Debug("schema statement", "query", schema, "error", err)
		}
	}

	return nil
}

// Execute runs a Cypher query and returns all results.
func (g *GraphDB) Execute(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	var result *lbug.QueryResult
	var err error

	if len(params) > 0 {
		stmt, prepErr := g.conn.Prepare(query)
		if prepErr != nil {
			return nil, fmt.Errorf("prepare query: %w", prepErr)
		}
		defer stmt.Close()

		result, err = g.conn.Execute(stmt, params)
	} else {
		result, err = g.conn.Query(query)
	}

	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer result.Close()

	// Initialize to empty slice (not nil) to distinguish "no results" from error
	records := make([]Record, 0)
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, fmt.Errorf("fetch row: %w", err)
		}

		row, err := tuple.GetAsMap()
		if err != nil {
			return nil, fmt.Errorf("convert row: %w", err)
		}

		// Convert lbug.Node and lbug.Relationship to maps for easier handling
		convertedRow := make(Record)
		for k, v := range row {
			convertedRow[k] = convertLbugValue(v)
		}

		records = append(records, convertedRow)
	}

	return records, nil
}

// convertLbugValue converts LadybugDB-specific types to standard Go types.
func convertLbugValue(v any) any {
	switch val := v.(type) {
	case lbug.Node:
		m := make(map[string]any)
		for k, propVal := range val.Properties {
			m[k] = convertLbugValue(propVal)
		}
		m["_label"] = val.Label
		return m
	case lbug.Relationship:
		m := make(map[string]any)
		for k, propVal := range val.Properties {
			m[k] = convertLbugValue(propVal)
		}
		m["_label"] = val.Label
		return m
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = convertLbugValue(item)
		}
		return result
	default:
		return v
	}
}

// ExecuteWrite runs a Cypher query that modifies data.
func (g *GraphDB) ExecuteWrite(ctx context.Context, query string, params map[string]any) error {
	_, err := g.Execute(ctx, query, params)
	return err
}

// Close closes the database connection.
func (g *GraphDB) Close() error {
	if g.conn != nil {
		g.conn.Close()
	}
	if g.db != nil {
		g.db.Close()
	}
	return nil
}

// ClearDatabase removes all data from the database.
func (g *GraphDB) ClearDatabase(ctx context.Context) error {
	if err := g.ExecuteWrite(ctx, "MATCH (t:Template) DETACH DELETE t", nil); err != nil {
		g.logger.Debug("clear templates", "error", err)
	}
	g.logger.Info("database cleared")
	return nil
}
