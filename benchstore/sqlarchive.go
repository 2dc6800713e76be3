// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// A SQLArchive is an optional supplementary sink that records a row of
// history (benchmark, timestamp, slope point estimate, p-value) on each
// call to Record; nothing in the store calls Record on its own, Promote
// included. It is not part of the core baseline
// comparison — the filesystem layout in store.go is authoritative — but
// gives operators a queryable long-term trend independent of the
// single-baseline-per-benchmark constraint in spec.md §1.
//
// Adapted from storage/db's *sql.DB handle pattern: one package-level
// schema, opened against whichever of the "mysql" or "sqlite3" drivers
// the caller names explicitly in OpenSQLArchive.
type SQLArchive struct {
	db *sql.DB
}

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS benchmark_history (
	dir_name   TEXT NOT NULL,
	title      TEXT NOT NULL,
	recorded_at INTEGER NOT NULL,
	slope_ns   REAL NOT NULL,
	p_value    REAL
)`

// OpenSQLArchive opens (and migrates) a history archive using driver
// ("mysql" or "sqlite3") against dsn.
func OpenSQLArchive(driver, dsn string) (*SQLArchive, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("benchstore: open %s archive: %w", driver, err)
	}
	if _, err := db.Exec(createHistoryTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("benchstore: migrate archive schema: %w", err)
	}
	return &SQLArchive{db: db}, nil
}

// Close releases the underlying database handle.
func (a *SQLArchive) Close() error { return a.db.Close() }

// Record appends one history row. pValue is omitted (NULL) when no
// baseline comparison was available.
func (a *SQLArchive) Record(dirName, title string, recordedAt time.Time, slopeNs float64, pValue *float64) error {
	_, err := a.db.Exec(
		`INSERT INTO benchmark_history (dir_name, title, recorded_at, slope_ns, p_value) VALUES (?, ?, ?, ?, ?)`,
		dirName, title, recordedAt.Unix(), slopeNs, pValue,
	)
	if err != nil {
		return fmt.Errorf("benchstore: record history for %s: %w", dirName, err)
	}
	return nil
}

// History returns the slope history for dirName ordered oldest-first,
// for trend inspection across more runs than the single retained
// baseline permits.
func (a *SQLArchive) History(dirName string) ([]HistoryPoint, error) {
	rows, err := a.db.Query(
		`SELECT recorded_at, slope_ns, p_value FROM benchmark_history WHERE dir_name = ? ORDER BY recorded_at ASC`,
		dirName,
	)
	if err != nil {
		return nil, fmt.Errorf("benchstore: query history for %s: %w", dirName, err)
	}
	defer rows.Close()

	var out []HistoryPoint
	for rows.Next() {
		var p HistoryPoint
		var unixTime int64
		var pValue sql.NullFloat64
		if err := rows.Scan(&unixTime, &p.SlopeNs, &pValue); err != nil {
			return nil, fmt.Errorf("benchstore: scan history row for %s: %w", dirName, err)
		}
		p.RecordedAt = time.Unix(unixTime, 0)
		if pValue.Valid {
			p.PValue = &pValue.Float64
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// HistoryPoint is one archived observation of a benchmark's slope.
type HistoryPoint struct {
	RecordedAt time.Time
	SlopeNs    float64
	PValue     *float64
}
