package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/motorsouq/listings/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time checks: Store implements both persistence ports.
var (
	_ domain.ListingRepository = (*Store)(nil)
	_ domain.UserDirectory     = (*Store)(nil)
)

// Store implements domain.ListingRepository and domain.UserDirectory
// using SQLite. Both live on one connection because the ownership check
// and the listing write always happen in the same request.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and
// returns a ready store. Use this when the *sql.DB has been pre-configured
// (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Store) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *Store) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

// --- Listings ---

func (r *Store) Create(ctx context.Context, l domain.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (id, owner_id, title, make, model, year, price, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.OwnerID, l.Title, l.Make, l.Model, l.Year, l.Price, string(l.Status),
		l.CreatedAt.Format(timeFormat),
		l.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting listing: %w", err)
	}
	return nil
}

func (r *Store) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	return r.scanListing(r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, make, model, year, price, status, created_at, updated_at
		 FROM listings WHERE id = ?`, id,
	))
}

func (r *Store) List(ctx context.Context, filter domain.ListFilter) ([]domain.Listing, error) {
	query := `SELECT id, owner_id, title, make, model, year, price, status, created_at, updated_at FROM listings`
	var where []string
	var args []any

	if filter.Status != nil {
		where = append(where, `status = ?`)
		args = append(args, string(*filter.Status))
	}

	if filter.OwnerID != "" {
		where = append(where, `owner_id = ?`)
		args = append(args, filter.OwnerID)
	}

	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := r.scanListingFromRows(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// Update writes the listing guarded by its expected current status. The
// WHERE clause makes the transition's read-modify-write atomic per row:
// if a concurrent transition already moved the listing out of expected,
// zero rows match and the caller gets ErrStaleListing.
func (r *Store) Update(ctx context.Context, l domain.Listing, expected domain.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE listings SET title = ?, make = ?, model = ?, year = ?, price = ?, status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		l.Title, l.Make, l.Model, l.Year, l.Price, string(l.Status),
		time.Now().UTC().Format(timeFormat),
		l.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a vanished row from a lost race.
		var n int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM listings WHERE id = ?`, l.ID,
		).Scan(&n); err != nil {
			return fmt.Errorf("checking listing existence: %w", err)
		}
		if n == 0 {
			return domain.ErrListingNotFound
		}
		return domain.ErrStaleListing
	}

	return nil
}

// scanListing scans a single row from QueryRow into a domain.Listing.
func (r *Store) scanListing(row *sql.Row) (domain.Listing, error) {
	var l domain.Listing
	var status, createdAt, updatedAt string

	err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Make, &l.Model, &l.Year, &l.Price, &status, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Listing{}, domain.ErrListingNotFound
		}
		return domain.Listing{}, fmt.Errorf("scanning listing: %w", err)
	}

	l.Status = domain.Status(status)
	l.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	l.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return l, nil
}

// scanListingFromRows scans a single row from Rows (used in List).
func (r *Store) scanListingFromRows(rows *sql.Rows) (domain.Listing, error) {
	var l domain.Listing
	var status, createdAt, updatedAt string

	err := rows.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Make, &l.Model, &l.Year, &l.Price, &status, &createdAt, &updatedAt)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("scanning listing row: %w", err)
	}

	l.Status = domain.Status(status)
	l.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	l.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return l, nil
}

// --- Users ---

func (r *Store) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.UsernameConflictError{Username: u.Username}
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *Store) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("scanning user: %w", err)
	}

	u.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return u, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
