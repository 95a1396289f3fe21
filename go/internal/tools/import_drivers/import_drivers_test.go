package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/store"
)

type execCall struct {
	sql  string
	args []any
}

// fakeDB records statements and treats keys in existing as already stored.
type fakeDB struct {
	calls    []execCall
	existing map[string]bool
	failKey  string
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if !strings.Contains(sql, "INSERT INTO racedash_nodes") {
		return pgconn.NewCommandTag("OK"), nil
	}

	key := args[1].(string)
	if key == f.failKey {
		return pgconn.CommandTag{}, errors.New("connection reset")
	}
	if f.existing[key] {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	f.existing[key] = true
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) executed(fragment string) []execCall {
	var out []execCall
	for _, c := range f.calls {
		if strings.Contains(c.sql, fragment) {
			out = append(out, c)
		}
	}
	return out
}

func TestImportDriversCounts(t *testing.T) {
	db := &fakeDB{existing: map[string]bool{"b": true}, failKey: "c"}
	drivers := models.Drivers{
		"a": {Name: "Senna", Team: "McLaren", Car: "MP4/4", CreatedAt: 1},
		"b": {Name: "Prost", Team: "McLaren", Car: "MP4/4", CreatedAt: 2},
		"c": {Name: "Piquet", Team: "Williams", Car: "FW11", CreatedAt: 3},
		"d": {Team: "Lotus"},
		"e": {Name: "   ", Team: "Brabham"},
	}

	s, err := importDrivers(context.Background(), db, drivers)
	require.NoError(t, err)
	assert.Equal(t, summary{total: 5, inserted: 1, skipped: 1, errs: 3}, s)

	assert.Len(t, db.executed("CREATE TABLE IF NOT EXISTS"), 1)

	inserts := db.executed("INSERT INTO racedash_nodes")
	require.Len(t, inserts, 3)
	assert.Equal(t, models.PathDrivers, inserts[0].args[0])
	assert.Equal(t, "a", inserts[0].args[1])
	assert.JSONEq(t, `{"name":"Senna","team":"McLaren","car":"MP4/4","createdAt":1}`, inserts[0].args[2].(string))

	notify := db.executed("pg_notify")
	require.Len(t, notify, 1)
	assert.Equal(t, []any{store.DefaultNotifyChannel, models.PathDrivers}, notify[0].args)
}

func TestImportDriversNothingNewSkipsNotify(t *testing.T) {
	db := &fakeDB{existing: map[string]bool{"a": true}}

	s, err := importDrivers(context.Background(), db, models.Drivers{"a": {Name: "Senna"}})
	require.NoError(t, err)
	assert.Equal(t, summary{total: 1, skipped: 1}, s)
	assert.Empty(t, db.executed("pg_notify"))
}
