// Package postgres implements repository.Backend against the hosted
// relational backend. Inserts return the fully materialized row, ids are
// server-side uuids, and transient network failures retry with exponential
// backoff before surfacing.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scoutapi/internal/model"
	"scoutapi/internal/repository"
)

// PaperPostgres is the remote-mode implementation of repository.Backend,
// plus the auxiliary notification and similar-papers resources that only
// exist remotely.
type PaperPostgres struct {
	db    *sql.DB
	cache *ListCache
	now   func() time.Time
}

// NewPaperPostgres creates the remote adapter. cache may be nil to disable
// list caching entirely.
func NewPaperPostgres(db *sql.DB, cache *ListCache) *PaperPostgres {
	return &PaperPostgres{db: db, cache: cache, now: time.Now}
}

var _ repository.Backend = (*PaperPostgres)(nil)

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// ListPapers returns the user's papers newest-first. A fresh read is cached
// per user id; cached entries expire by TTL only, so a recent save may be
// absent from the list for up to one TTL window.
func (r *PaperPostgres) ListPapers(ctx context.Context, userID string) ([]model.Paper, error) {
	if r.cache != nil {
		if papers, ok := r.cache.Get(userID); ok {
			return papers, nil
		}
	}

	const q = `
		SELECT id, user_id, title, content, filename, file_size, analysis, created_at, updated_at
		FROM research_papers
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	papers := make([]model.Paper, 0)
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}

	if r.cache != nil {
		r.cache.Put(userID, papers)
	}
	return papers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (*model.Paper, error) {
	var (
		p        model.Paper
		fileSize sql.NullInt64
		analysis []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Content,
		&p.Filename,
		&fileSize,
		&analysis,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan paper: %w", err)
	}
	p.FileSize = fileSize.Int64
	if len(analysis) > 0 {
		p.Analysis = &model.Analysis{}
		if err := json.Unmarshal(analysis, p.Analysis); err != nil {
			return nil, fmt.Errorf("decode paper analysis: %w", err)
		}
	}
	return &p, nil
}

// SavePaper inserts a new paper row and returns the stored record.
func (r *PaperPostgres) SavePaper(ctx context.Context, p repository.NewPaper) (*model.Paper, error) {
	analysis, err := marshalJSON(p.Analysis)
	if err != nil {
		return nil, fmt.Errorf("encode paper analysis: %w", err)
	}

	const q = `
		INSERT INTO research_papers (id, user_id, title, content, filename, file_size, analysis, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, user_id, title, content, filename, file_size, analysis, created_at, updated_at
	`
	return withRetry(ctx, func() (*model.Paper, error) {
		row := r.db.QueryRowContext(ctx, q,
			uuid.New().String(),
			p.UserID,
			p.Title,
			p.Content,
			p.Filename,
			p.FileSize,
			analysis,
			r.now().UTC(),
		)
		out, err := scanPaper(row)
		if err != nil {
			return nil, fmt.Errorf("save paper: %w", err)
		}
		return out, nil
	})
}

// GetSummary returns the newest summary for (paperID, targetAge), or
// (nil, nil) when none exists. Distinguishing "no summary yet" from "backend
// unreachable" is the caller's responsibility via the availability probe.
func (r *PaperPostgres) GetSummary(ctx context.Context, paperID string, targetAge int) (*model.Summary, error) {
	const q = `
		SELECT id, paper_id, user_id, target_age, content, created_at
		FROM summaries
		WHERE paper_id = $1 AND target_age = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		s       model.Summary
		userID  sql.NullString
		content []byte
	)
	err := r.db.QueryRowContext(ctx, q, paperID, targetAge).Scan(
		&s.ID, &s.PaperID, &userID, &s.TargetAge, &content, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	s.UserID = userID.String
	s.Content = content
	return &s, nil
}

// SaveSummary inserts a summary row. Uniqueness per (paper, target age) is
// not enforced here; callers check-then-create.
func (r *PaperPostgres) SaveSummary(ctx context.Context, in repository.NewSummary) (*model.Summary, error) {
	const q = `
		INSERT INTO summaries (id, paper_id, user_id, target_age, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, paper_id, user_id, target_age, content, created_at
	`
	return withRetry(ctx, func() (*model.Summary, error) {
		var (
			s       model.Summary
			userID  sql.NullString
			content []byte
		)
		err := r.db.QueryRowContext(ctx, q,
			uuid.New().String(),
			in.PaperID,
			in.UserID,
			in.TargetAge,
			[]byte(in.Content),
			r.now().UTC(),
		).Scan(&s.ID, &s.PaperID, &userID, &s.TargetAge, &content, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("save summary: %w", err)
		}
		s.UserID = userID.String
		s.Content = content
		return &s, nil
	})
}

// SaveCode inserts a code-generation row.
func (r *PaperPostgres) SaveCode(ctx context.Context, in repository.NewCodeGeneration) (*model.CodeGeneration, error) {
	const q = `
		INSERT INTO code_generations (id, paper_id, user_id, language, framework, code_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, paper_id, user_id, language, framework, code_content, created_at
	`
	return withRetry(ctx, func() (*model.CodeGeneration, error) {
		var (
			c       model.CodeGeneration
			content []byte
		)
		err := r.db.QueryRowContext(ctx, q,
			uuid.New().String(),
			in.PaperID,
			in.UserID,
			in.Language,
			in.Framework,
			[]byte(in.CodeContent),
			r.now().UTC(),
		).Scan(&c.ID, &c.PaperID, &c.UserID, &c.Language, &c.Framework, &content, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("save code generation: %w", err)
		}
		c.CodeContent = content
		return &c, nil
	})
}

// SaveVisualization inserts a visualization row.
func (r *PaperPostgres) SaveVisualization(ctx context.Context, in repository.NewVisualization) (*model.Visualization, error) {
	const q = `
		INSERT INTO visualizations (id, paper_id, user_id, visualization_type, config, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, paper_id, user_id, visualization_type, config, created_at
	`
	return withRetry(ctx, func() (*model.Visualization, error) {
		var (
			v      model.Visualization
			config []byte
		)
		err := r.db.QueryRowContext(ctx, q,
			uuid.New().String(),
			in.PaperID,
			in.UserID,
			in.VisualizationType,
			[]byte(in.Config),
			r.now().UTC(),
		).Scan(&v.ID, &v.PaperID, &v.UserID, &v.VisualizationType, &config, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("save visualization: %w", err)
		}
		v.Config = config
		return &v, nil
	})
}

// ListVisualizations returns a paper's visualization rows newest-first.
// Note: the unified store never calls this today; it reads visualizations
// from the local store in both modes.
func (r *PaperPostgres) ListVisualizations(ctx context.Context, paperID string) ([]model.Visualization, error) {
	const q = `
		SELECT id, paper_id, user_id, visualization_type, config, created_at
		FROM visualizations
		WHERE paper_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, paperID)
	if err != nil {
		return nil, fmt.Errorf("list visualizations: %w", err)
	}
	defer rows.Close()

	out := make([]model.Visualization, 0)
	for rows.Next() {
		var (
			v      model.Visualization
			config []byte
		)
		if err := rows.Scan(&v.ID, &v.PaperID, &v.UserID, &v.VisualizationType, &config, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan visualization: %w", err)
		}
		v.Config = config
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list visualizations: %w", err)
	}
	return out, nil
}
