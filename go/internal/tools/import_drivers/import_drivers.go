package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/racedash/go/internal/dbconfig"
	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/race"
	"github.com/mcdev12/racedash/go/internal/store"
)

// execer is the part of pgxpool.Pool the import needs.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type summary struct {
	total    int
	inserted int
	skipped  int
	errs     int
}

func main() {
	path := race.ExportFilename
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the exported roster
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	drivers, err := race.UnmarshalExport(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Insert and count
	s, err := importDrivers(ctx, pool, drivers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}

	// 4) Print summary
	fmt.Printf(
		"Drivers import complete: %d total, %d inserted, %d skipped, %d errors\n",
		s.total, s.inserted, s.skipped, s.errs,
	)
}

// importDrivers inserts every driver not already stored under its id and
// notifies running servers when anything changed.
func importDrivers(ctx context.Context, db execer, drivers models.Drivers) (summary, error) {
	for _, stmt := range store.SchemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return summary{}, fmt.Errorf("ensure schema: %w", err)
		}
	}

	s := summary{total: len(drivers)}
	for _, id := range drivers.IDs() {
		d := drivers[id]
		if strings.TrimSpace(d.Name) == "" {
			fmt.Fprintf(os.Stderr, "error inserting driver %s: %v\n", id, race.ErrDriverNameRequired)
			s.errs++
			continue
		}

		value, err := json.Marshal(d)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error encoding driver %s: %v\n", id, err)
			s.errs++
			continue
		}

		cmdTag, err := db.Exec(ctx, `
            INSERT INTO racedash_nodes (path, key, value)
            VALUES ($1, $2, $3::jsonb)
            ON CONFLICT (path, key) DO NOTHING
        `, models.PathDrivers, id, string(value))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting driver %s: %v\n", id, err)
			s.errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			s.inserted++
		} else {
			s.skipped++
		}
	}

	if s.inserted > 0 {
		// a leaf value at the same path would shadow the children
		if _, err := db.Exec(ctx, `DELETE FROM racedash_nodes WHERE path = $1 AND key = ''`, models.PathDrivers); err != nil {
			return s, fmt.Errorf("delete drivers leaf: %w", err)
		}
		if _, err := db.Exec(ctx, `SELECT pg_notify($1, $2)`, store.DefaultNotifyChannel, models.PathDrivers); err != nil {
			return s, fmt.Errorf("notify: %w", err)
		}
	}
	return s, nil
}
