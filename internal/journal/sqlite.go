package journal

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// NewSQLiteStore opens or creates a journal database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL keeps concurrent worker writes from starving readers.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(60000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(10 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS outcomes (
		bucket TEXT NOT NULL,
		key TEXT NOT NULL,
		status TEXT NOT NULL,
		last_error TEXT,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (bucket, key)
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status);
	`

	_, err := s.db.Exec(query)
	return err
}

// Get retrieves one outcome record, or nil when the key was never journaled.
func (s *SQLiteStore) Get(bucket, key string) (*Record, error) {
	var result *Record
	err := s.retryOnBusy(func() error {
		var err error
		result, err = s.getInternal(bucket, key)
		return err
	})
	return result, err
}

func (s *SQLiteStore) getInternal(bucket, key string) (*Record, error) {
	query := `
	SELECT bucket, key, status, last_error, updated_at
	FROM outcomes WHERE bucket = ? AND key = ?
	`

	row := s.db.QueryRow(query, bucket, key)

	var record Record
	var lastError sql.NullString

	err := row.Scan(
		&record.Bucket,
		&record.Key,
		&record.Status,
		&lastError,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastError.Valid {
		record.LastError = lastError.String
	}

	return &record, nil
}

// Save upserts an outcome record
func (s *SQLiteStore) Save(record *Record) error {
	// Serialize writes to avoid SQLITE_BUSY from multiple concurrent workers
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.retryOnBusy(func() error {
		return s.saveWithTransaction(record)
	})
}

func (s *SQLiteStore) saveWithTransaction(record *Record) error {
	record.UpdatedAt = time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
    INSERT INTO outcomes (bucket, key, status, last_error, updated_at)
    VALUES (?, ?, ?, ?, ?)
    ON CONFLICT(bucket, key) DO UPDATE SET
        status = excluded.status,
        last_error = excluded.last_error,
        updated_at = excluded.updated_at
    `

	_, err = tx.Exec(query,
		record.Bucket,
		record.Key,
		record.Status,
		record.LastError,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to execute insert: %w", err)
	}

	return tx.Commit()
}

// ListFailed returns all records journaled as failed
func (s *SQLiteStore) ListFailed() ([]*Record, error) {
	query := `
	SELECT bucket, key, status, last_error, updated_at
	FROM outcomes WHERE status = ?
	ORDER BY updated_at ASC
	`

	rows, err := s.db.Query(query, StatusFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record

	for rows.Next() {
		var record Record
		var lastError sql.NullString

		err := rows.Scan(
			&record.Bucket,
			&record.Key,
			&record.Status,
			&lastError,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if lastError.Valid {
			record.LastError = lastError.String
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

func (s *SQLiteStore) retryOnBusy(operation func() error) error {
	const maxRetries = 10
	baseDelay := 50 * time.Millisecond

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}
		if !isSQLiteBusyError(err) {
			return err
		}
		time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
	}

	return err
}

func isSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}
	errorStr := err.Error()
	return strings.Contains(errorStr, "database is locked") ||
		strings.Contains(errorStr, "SQLITE_BUSY")
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
