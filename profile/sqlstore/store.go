package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	goAuthBridge "github.com/MrEthical07/goAuthBridge"
)

// ErrDatabaseUnavailable wraps every driver or server error.
var ErrDatabaseUnavailable = errors.New("database unavailable")

// ErrInvalidTable is returned by New for a table name that is not a plain
// SQL identifier.
var ErrInvalidTable = errors.New("invalid table name")

// DefaultTable is the table used when New is given an empty name.
const DefaultTable = "users"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Store reads and writes profile rows through database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string

	selectQuery string
	existsQuery string
}

// New wraps db. The table is created by [Store.Migrate], not here.
func New(db *sql.DB, dialect Dialect, table string) (*Store, error) {
	if db == nil {
		return nil, errors.New("sql db is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	if dialect == nil {
		return nil, errors.New("dialect is required")
	}

	s := &Store{
		db:      db,
		dialect: dialect,
		table:   dialect.QuoteIdentifier(table),
	}
	s.selectQuery = fmt.Sprintf("SELECT %s FROM %s WHERE id = %s",
		strings.Join(goAuthBridge.ProfileColumns, ", "), s.table, dialect.Placeholder(1))
	s.existsQuery = fmt.Sprintf("SELECT 1 FROM %s WHERE id = %s", s.table, dialect.Placeholder(1))
	return s, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the profile table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id               TEXT PRIMARY KEY,
    email            TEXT,
    name             TEXT,
    photo_url        TEXT,
    role             TEXT,
    is_active        BOOLEAN,
    subscription_end TEXT,
    created_at       TEXT,
    last_login       TEXT
);
`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

// GetByID returns the row for id or goAuthBridge.ErrProfileNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*goAuthBridge.ProfileRecord, error) {
	if id == "" {
		return nil, goAuthBridge.ErrInvalidProfileID
	}

	var (
		email, name, photoURL, role           sql.NullString
		isActive                              sql.NullBool
		subscriptionEnd, createdAt, lastLogin sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.selectQuery, id).Scan(
		&email, &name, &photoURL, &role, &isActive, &subscriptionEnd, &createdAt, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goAuthBridge.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}

	cols := make(map[string]string, len(goAuthBridge.ProfileColumns))
	for col, v := range map[string]sql.NullString{
		goAuthBridge.ColumnEmail:           email,
		goAuthBridge.ColumnName:            name,
		goAuthBridge.ColumnPhotoURL:        photoURL,
		goAuthBridge.ColumnRole:            role,
		goAuthBridge.ColumnSubscriptionEnd: subscriptionEnd,
		goAuthBridge.ColumnCreatedAt:       createdAt,
		goAuthBridge.ColumnLastLogin:       lastLogin,
	} {
		if v.Valid {
			cols[col] = v.String
		}
	}
	if isActive.Valid {
		cols[goAuthBridge.ColumnIsActive] = strconv.FormatBool(isActive.Bool)
	}

	return goAuthBridge.DecodeProfileColumns(id, cols)
}

// Upsert inserts the row for id or, on conflict, overwrites only the
// present fields.
func (s *Store) Upsert(ctx context.Context, id string, fields goAuthBridge.ProfileFields) error {
	if id == "" {
		return goAuthBridge.ErrInvalidProfileID
	}

	cols := fields.Columns()
	names := make([]string, 0, len(cols)+1)
	marks := make([]string, 0, len(cols)+1)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)

	names = append(names, goAuthBridge.ColumnID)
	marks = append(marks, s.dialect.Placeholder(1))
	args = append(args, id)
	for i, c := range cols {
		names = append(names, c.Name)
		marks = append(marks, s.dialect.Placeholder(i+2))
		sets = append(sets, c.Name+" = excluded."+c.Name)
		args = append(args, columnArg(c.Value))
	}

	conflict := "DO NOTHING"
	if len(sets) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) %s",
		s.table, strings.Join(names, ", "), strings.Join(marks, ", "), conflict)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

// UpdateByID overwrites the present fields of an existing row. It returns
// goAuthBridge.ErrProfileNotFound when no row has id.
func (s *Store) UpdateByID(ctx context.Context, id string, fields goAuthBridge.ProfileFields) error {
	if id == "" {
		return goAuthBridge.ErrInvalidProfileID
	}

	cols := fields.Columns()
	if len(cols) == 0 {
		return s.exists(ctx, id)
	}

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, c.Name+" = "+s.dialect.Placeholder(i+1))
		args = append(args, columnArg(c.Value))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		s.table, strings.Join(sets, ", "), s.dialect.Placeholder(len(cols)+1))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	if n == 0 {
		return goAuthBridge.ErrProfileNotFound
	}
	return nil
}

// Delete removes the row for id. Deleting a missing row is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", s.table, s.dialect.Placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, s.existsQuery, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return goAuthBridge.ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

// columnArg keeps booleans native and renders everything else as text.
func columnArg(v any) any {
	if b, ok := v.(bool); ok {
		return b
	}
	return goAuthBridge.FormatColumnValue(v)
}
