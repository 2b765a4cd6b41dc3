package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"expensebot-go/internal/money"
)

// AddExpense inserts a single expense row. It is a best-effort write: the
// cause of any failure is logged and false is returned, so callers can
// degrade gracefully instead of erroring the user-visible flow.
func (s *SQLiteStorage) AddExpense(ctx context.Context, userID int64, description string, amount decimal.Decimal, category string) bool {
	if userID <= 0 || description == "" || category == "" {
		s.logger.Printf("storage: refusing to add expense: %v: user=%d description=%q category=%q",
			ErrInvalidInput, userID, description, category)
		return false
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, description, amount, category)
		VALUES (?, ?, ?, ?)`,
		userID, description, amount.StringFixed(2), category)
	if err != nil {
		s.logger.Printf("storage: failed to add expense for user %d: %v", userID, err)
		return false
	}
	return true
}

// TotalByCategory returns the sum of amounts within the trailing day window,
// optionally filtered by category (empty string means all categories). Zero
// when no rows match.
func (s *SQLiteStorage) TotalByCategory(ctx context.Context, userID int64, category string, days int) (decimal.Decimal, error) {
	if userID <= 0 {
		return decimal.Zero, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if days <= 0 {
		return decimal.Zero, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}

	window := fmt.Sprintf("-%d days", days)

	var raw any
	var err error
	if category != "" {
		err = s.db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(CAST(amount AS NUMERIC)), 0)
			FROM expenses
			WHERE user_id = ?
			  AND category = ?
			  AND added_at >= datetime('now', ?)`,
			userID, category, window).Scan(&raw)
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(CAST(amount AS NUMERIC)), 0)
			FROM expenses
			WHERE user_id = ?
			  AND added_at >= datetime('now', ?)`,
			userID, window).Scan(&raw)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get total: %w", err)
	}

	total, err := money.Parse(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to normalize total: %w", err)
	}
	return total, nil
}

// CategoryBreakdown returns per-category count and total for the trailing
// day window, sorted descending by total.
func (s *SQLiteStorage) CategoryBreakdown(ctx context.Context, userID int64, days int) ([]CategoryTotal, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*), SUM(CAST(amount AS NUMERIC))
		FROM expenses
		WHERE user_id = ?
		  AND added_at >= datetime('now', ?)
		GROUP BY category
		ORDER BY SUM(CAST(amount AS NUMERIC)) DESC`,
		userID, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to query breakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		var rawTotal any
		if err := rows.Scan(&ct.Category, &ct.Count, &rawTotal); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		ct.Total, err = money.Parse(rawTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize total for %s: %w", ct.Category, err)
		}
		breakdown = append(breakdown, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate breakdown: %w", err)
	}

	return breakdown, nil
}

// RecentExpenses returns the newest expenses for a user, newest first.
func (s *SQLiteStorage) RecentExpenses(ctx context.Context, userID int64, limit int) ([]Expense, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, description, amount, category, added_at
		FROM expenses
		WHERE user_id = ?
		ORDER BY added_at DESC, id DESC
		LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// likeEscaper neutralizes LIKE wildcards so keywords match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchExpenses returns expenses whose description contains the keyword,
// case-insensitively, newest first. The keyword is matched literally: LIKE
// wildcards in it are escaped.
func (s *SQLiteStorage) SearchExpenses(ctx context.Context, userID int64, keyword string) ([]Expense, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword cannot be empty", ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, description, amount, category, added_at
		FROM expenses
		WHERE user_id = ?
		  AND LOWER(description) LIKE LOWER(?) ESCAPE '\'
		ORDER BY added_at DESC, id DESC`,
		userID, "%"+likeEscaper.Replace(keyword)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanExpenses(rows rowScanner) ([]Expense, error) {
	var expenses []Expense
	for rows.Next() {
		var e Expense
		var rawAmount any
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description, &rawAmount, &e.Category, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		amount, err := money.Parse(rawAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize amount for expense %d: %w", e.ID, err)
		}
		e.Amount = amount
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}
