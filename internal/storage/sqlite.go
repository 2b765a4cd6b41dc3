package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// User represents a whitelisted user. Users are provisioned out of band;
// the message pipeline never creates them.
type User struct {
	ID         int64
	TelegramID string
	Username   string
	CreatedAt  time.Time
}

// Expense is a single recorded expense row.
type Expense struct {
	ID          int64
	UserID      int64
	Description string
	Amount      decimal.Decimal
	Category    string
	AddedAt     time.Time
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category string
	Count    int64
	Total    decimal.Decimal
}

// SQLiteStorage handles all database operations
type SQLiteStorage struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteStorage creates a new SQLiteStorage instance
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db, logger: log.Default()}
}

// SetLogger replaces the logger used to report best-effort write failures.
func (s *SQLiteStorage) SetLogger(logger *log.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// LookupUserID resolves an external Telegram identity to the internal user
// id. ErrNotFound means the identity is not whitelisted.
func (s *SQLiteStorage) LookupUserID(ctx context.Context, telegramID string) (int64, error) {
	if telegramID == "" {
		return 0, fmt.Errorf("%w: telegram ID cannot be empty", ErrInvalidInput)
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE telegram_id = ?",
		telegramID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: user not found with telegram ID %s", ErrNotFound, telegramID)
		}
		return 0, fmt.Errorf("failed to look up user: %w", err)
	}
	return id, nil
}

// CreateUser adds an identity to the whitelist. Used by provisioning tooling
// and tests, never by the message pipeline.
func (s *SQLiteStorage) CreateUser(ctx context.Context, telegramID, username string) (int64, error) {
	if telegramID == "" {
		return 0, fmt.Errorf("%w: telegram ID cannot be empty", ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (telegram_id, username) VALUES (?, ?)",
		telegramID, username)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted user id: %w", err)
	}
	return id, nil
}

// GetUser retrieves a user by their external Telegram identity.
func (s *SQLiteStorage) GetUser(ctx context.Context, telegramID string) (*User, error) {
	if telegramID == "" {
		return nil, fmt.Errorf("%w: telegram ID cannot be empty", ErrInvalidInput)
	}

	user := &User{}
	var username sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, username, created_at
		FROM users
		WHERE telegram_id = ?`,
		telegramID).Scan(&user.ID, &user.TelegramID, &username, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found with telegram ID %s", ErrNotFound, telegramID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Username = username.String

	return user, nil
}
