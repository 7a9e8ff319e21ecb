package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

// insertBatchSize bounds the rows of a single multi-row INSERT so the
// statement stays under the SQLite variable limit.
const insertBatchSize = 500

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the Sqlite database at dbPath.
// Connections are opened lazily and the schema is created on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateRun(ctx context.Context, field, source string, samples int, spacing float64, config any) (runID string, err error) {
	configData, err := toNullString(config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	id := uuid.NewString()
	if _, err = stmt.ExecContext(ctx, id, field, source, samples, spacing, configData); err != nil {
		err = fmt.Errorf("inserting run: %w", err)
		return
	}

	return id, nil
}

func (s *SqliteStore) Run(ctx context.Context, runID string) (run *Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var r Run
	var config sql.NullString
	if err = stmt.QueryRowContext(ctx, runID).Scan(&r.ID, &r.CreatedAt, &r.Field, &r.Source, &r.Samples, &r.Spacing, &config); err != nil {
		err = fmt.Errorf("scanning run: %w", err)
		return
	}
	r.Config = fromNullString(config)

	return &r, nil
}

func (s *SqliteStore) Runs(ctx context.Context) (runs []*Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectRunsSQL)
	if err != nil {
		err = fmt.Errorf("querying runs: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var r Run
		var config sql.NullString
		if err = rows.Scan(&r.ID, &r.CreatedAt, &r.Field, &r.Source, &r.Samples, &r.Spacing, &config); err != nil {
			err = fmt.Errorf("scanning run: %w", err)
			return
		}
		r.Config = fromNullString(config)
		runs = append(runs, &r)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) StoreAnalysis(ctx context.Context, runID string, a *spectrum.Analysis) (err error) {
	if len(a.Frequencies) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	const valuesPlaceholder = "(?, ?, ?, ?, ?, ?)"

	var sb strings.Builder
	values := make([]any, 0, insertBatchSize*6)
	pending := 0

	flush := func() error {
		if pending == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, sb.String(), values...); err != nil {
			return err
		}
		sb.Reset()
		values = values[:0]
		pending = 0
		return nil
	}

	for _, c := range magnetization.Components {
		for i, f := range a.Frequencies {
			if pending == 0 {
				sb.WriteString(insertSpectrumSQL)
			} else {
				sb.WriteString(", ")
			}
			sb.WriteString(valuesPlaceholder)
			values = append(values, runID, c.String(), i, f, a.Magnitudes[c][i], a.Derivatives[c][i])
			pending++

			if pending == insertBatchSize {
				if err = flush(); err != nil {
					return fmt.Errorf("batch inserting spectrum: %w", err)
				}
			}
		}
	}
	if err = flush(); err != nil {
		return fmt.Errorf("batch inserting spectrum: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) StorePeaks(ctx context.Context, runID string, peaks [3][]spectrum.Peak) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, insertPeakSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, c := range magnetization.Components {
		for _, p := range peaks[c] {
			if _, err = stmt.ExecContext(ctx, runID, c.String(), p.Index, p.Frequency, p.Magnitude); err != nil {
				return fmt.Errorf("inserting %s peak: %w", c, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) ReadSpectrum(ctx context.Context, runID string, opts ...QueryOption) (points []SpectrumPoint, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, args := newQuery(opts).build(selectSpectrumSQL, runID)
	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		err = fmt.Errorf("querying spectrum: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var p SpectrumPoint
		var component string
		if err = rows.Scan(&component, &p.Bin, &p.Frequency, &p.Power, &p.Derivative); err != nil {
			err = fmt.Errorf("scanning spectrum: %w", err)
			return
		}
		if p.Component, err = magnetization.ParseComponent(component); err != nil {
			return
		}
		points = append(points, p)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) ReadPeaks(ctx context.Context, runID string, opts ...QueryOption) (peaks []PeakRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, args := newQuery(opts).build(selectPeaksSQL, runID)
	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		err = fmt.Errorf("querying peaks: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var p PeakRecord
		var component string
		if err = rows.Scan(&component, &p.Index, &p.Frequency, &p.Magnitude); err != nil {
			err = fmt.Errorf("scanning peak: %w", err)
			return
		}
		if p.Component, err = magnetization.ParseComponent(component); err != nil {
			return
		}
		peaks = append(peaks, p)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
