// internal/roster/store.go
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("roster: student not found")

// Store is the sqlite-backed student repository.
type Store struct {
	db *sqlx.DB
}

// Open opens (and migrates) the roster database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open roster database: %w", err)
	}

	// single writer; also keeps an in-memory database alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate roster database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		class TEXT NOT NULL CHECK (class IN ('A', 'B')),
		contact TEXT NOT NULL,
		address TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_class ON students(class);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, st Student) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO students (id, full_name, class, contact, address, created_at)
		VALUES (:id, :full_name, :class, :contact, :address, :created_at)
	`, st)
	if err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (Student, error) {
	var st Student
	err := s.db.GetContext(ctx, &st, `
		SELECT id, full_name, class, contact, address, created_at
		FROM students WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	if err != nil {
		return Student{}, fmt.Errorf("failed to get student: %w", err)
	}
	return st, nil
}

// List returns students ordered by class then name. An empty class lists all.
func (s *Store) List(ctx context.Context, class string) ([]Student, error) {
	q := `SELECT id, full_name, class, contact, address, created_at FROM students`
	var args []interface{}
	if class != "" {
		q += ` WHERE class = ?`
		args = append(args, class)
	}
	q += ` ORDER BY class, full_name`

	students := []Student{}
	if err := s.db.SelectContext(ctx, &students, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
