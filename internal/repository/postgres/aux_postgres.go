package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"scoutapi/internal/model"
)

// Auxiliary resources that exist only on the hosted backend. Local mode has
// no equivalent; callers return empty results there.

// ListNotifications returns the newest 50 notifications for a user.
func (r *PaperPostgres) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	const q = `
		SELECT id, user_id, title, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// SaveNotification inserts a notification row and returns it.
func (r *PaperPostgres) SaveNotification(ctx context.Context, userID, title, message string) (*model.Notification, error) {
	const q = `
		INSERT INTO notifications (id, user_id, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		RETURNING id, user_id, title, message, read, created_at
	`
	return withRetry(ctx, func() (*model.Notification, error) {
		var n model.Notification
		err := r.db.QueryRowContext(ctx, q,
			uuid.New().String(), userID, title, message, r.now().UTC(),
		).Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("save notification: %w", err)
		}
		return &n, nil
	})
}

// MarkNotificationRead flags one notification as read.
func (r *PaperPostgres) MarkNotificationRead(ctx context.Context, id string) error {
	const q = `UPDATE notifications SET read = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// SaveSimilarPapers stores the related papers found for one search.
func (r *PaperPostgres) SaveSimilarPapers(ctx context.Context, rec model.SimilarPapers) (*model.SimilarPapers, error) {
	papers, err := json.Marshal(rec.Papers)
	if err != nil {
		return nil, fmt.Errorf("encode similar papers: %w", err)
	}

	const q = `
		INSERT INTO similar_papers (id, paper_id, user_id, similar_papers, search_query, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, paper_id, user_id, similar_papers, search_query, created_at
	`
	return withRetry(ctx, func() (*model.SimilarPapers, error) {
		row := r.db.QueryRowContext(ctx, q,
			uuid.New().String(), rec.PaperID, rec.UserID, papers, rec.SearchQuery, r.now().UTC(),
		)
		return scanSimilarPapers(row)
	})
}

// GetSimilarPapers returns the newest similar-papers record for a paper, or
// (nil, nil) when none exists.
func (r *PaperPostgres) GetSimilarPapers(ctx context.Context, paperID string) (*model.SimilarPapers, error) {
	const q = `
		SELECT id, paper_id, user_id, similar_papers, search_query, created_at
		FROM similar_papers
		WHERE paper_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	rec, err := scanSimilarPapers(r.db.QueryRowContext(ctx, q, paperID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func scanSimilarPapers(row rowScanner) (*model.SimilarPapers, error) {
	var (
		rec    model.SimilarPapers
		papers []byte
	)
	if err := row.Scan(&rec.ID, &rec.PaperID, &rec.UserID, &papers, &rec.SearchQuery, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan similar papers: %w", err)
	}
	if len(papers) > 0 {
		if err := json.Unmarshal(papers, &rec.Papers); err != nil {
			return nil, fmt.Errorf("decode similar papers: %w", err)
		}
	}
	return &rec, nil
}
