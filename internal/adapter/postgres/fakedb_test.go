package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

// rule answers every statement whose text contains match.
type rule struct {
	match    string
	scan     func(dest ...any) error
	affected int64
}

type call struct {
	sql  string
	args []any
	inTx bool
}

type fakeDB struct {
	rules      []rule
	calls      []call
	began      int
	committed  bool
	rolledBack bool
}

func (db *fakeDB) on(match string, scan func(dest ...any) error) *fakeDB {
	db.rules = append(db.rules, rule{match: match, scan: scan})
	return db
}

func (db *fakeDB) affects(match string, n int64) *fakeDB {
	db.rules = append(db.rules, rule{match: match, affected: n})
	return db
}

func (db *fakeDB) find(sql string) (rule, bool) {
	for _, r := range db.rules {
		if strings.Contains(sql, r.match) {
			return r, true
		}
	}
	return rule{}, false
}

func (db *fakeDB) record(sql string, args []any, inTx bool) {
	db.calls = append(db.calls, call{sql: sql, args: args, inTx: inTx})
}

// indexOf returns the position of the first recorded statement containing match, or -1.
func (db *fakeDB) indexOf(match string) int {
	for i, c := range db.calls {
		if strings.Contains(c.sql, match) {
			return i
		}
	}
	return -1
}

func (db *fakeDB) callFor(match string) (call, bool) {
	if i := db.indexOf(match); i >= 0 {
		return db.calls[i], true
	}
	return call{}, false
}

func (db *fakeDB) query(sql string, args []any, inTx bool) (Rows, error) {
	db.record(sql, args, inTx)
	return &fakeRows{}, nil
}

func (db *fakeDB) queryRow(sql string, args []any, inTx bool) Row {
	db.record(sql, args, inTx)
	if r, ok := db.find(sql); ok && r.scan != nil {
		return fakeRow{scan: r.scan}
	}
	return fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}
}

func (db *fakeDB) exec(sql string, args []any, inTx bool) (CommandTag, error) {
	db.record(sql, args, inTx)
	r, _ := db.find(sql)
	return fakeTag(r.affected), nil
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (Rows, error) {
	return db.query(sql, args, false)
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) Row {
	return db.queryRow(sql, args, false)
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (CommandTag, error) {
	return db.exec(sql, args, false)
}

func (db *fakeDB) Begin(context.Context) (Tx, error) {
	db.began++
	return &fakeTx{db: db}, nil
}

func (db *fakeDB) Close() {}

type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) Query(_ context.Context, sql string, args ...any) (Rows, error) {
	return t.db.query(sql, args, true)
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, args ...any) Row {
	return t.db.queryRow(sql, args, true)
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (CommandTag, error) {
	return t.db.exec(sql, args, true)
}

func (t *fakeTx) Commit(context.Context) error {
	t.db.committed = true
	return nil
}

// Rollback after Commit is a no-op, as in pgx.
func (t *fakeTx) Rollback(context.Context) error {
	if !t.db.committed {
		t.db.rolledBack = true
	}
	return nil
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeRows struct{}

func (fakeRows) Next() bool        { return false }
func (fakeRows) Scan(...any) error { return nil }
func (fakeRows) Err() error        { return nil }
func (fakeRows) Close()            {}

type fakeTag int64

func (t fakeTag) RowsAffected() int64 { return int64(t) }
