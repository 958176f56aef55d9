package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/invoicebox/internal/activity"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateEntry(ctx context.Context, e *activity.Entry) error {
	query := `
		INSERT INTO activity_log (user_id, action, details, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	if err := s.db.QueryRowContext(ctx, query, e.UserID, e.Action, e.Details).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("creating activity entry: %w", err)
	}

	return nil
}

func (s *Store) ListEntries(ctx context.Context, limit int) ([]*activity.Entry, error) {
	query := `
		SELECT a.id, a.user_id, COALESCE(u.name, ''), a.action, a.details, a.created_at
		FROM activity_log a
		LEFT JOIN users u ON a.user_id = u.id
		ORDER BY a.created_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var entries []*activity.Entry

	for rows.Next() {
		var e activity.Entry

		var action string

		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &action, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}

		e.Action = activity.Action(action)
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}

	return entries, nil
}
