package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expensebot-go/internal/money"
)

// Metrics represents system-wide metrics
type Metrics struct {
	TotalUsers    int64     // Total number of whitelisted users
	TotalExpenses int64     // Total number of recorded expenses
	CollectedAt   time.Time // When these metrics were collected
}

// UserMetrics represents user-specific metrics
type UserMetrics struct {
	UserID       int64
	ExpenseCount int64
	TotalSpent   decimal.Decimal
	LastExpense  *time.Time
}

// GetMetrics retrieves system-wide metrics
func (s *SQLiteStorage) GetMetrics(ctx context.Context) (*Metrics, error) {
	metrics := &Metrics{
		CollectedAt: time.Now(),
	}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&metrics.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to get user metrics: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&metrics.TotalExpenses)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense metrics: %w", err)
	}

	return metrics, nil
}

// GetUserMetrics retrieves metrics for a specific user
func (s *SQLiteStorage) GetUserMetrics(ctx context.Context, userID int64) (*UserMetrics, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	metrics := &UserMetrics{UserID: userID}
	var rawTotal any
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CAST(amount AS NUMERIC)), 0), MAX(added_at)
		FROM expenses
		WHERE user_id = ?`,
		userID).Scan(&metrics.ExpenseCount, &rawTotal, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to get user metrics: %w", err)
	}

	metrics.TotalSpent, err = money.Parse(rawTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize total spent: %w", err)
	}
	if last.Valid {
		metrics.LastExpense = &last.Time
	}

	return metrics, nil
}
