// Package local implements repository.Backend over the on-device key/value
// store. One blob holds all papers; summaries, code, and visualizations get
// one blob per paper. Every save rewrites the whole collection for its scope;
// a serialization failure loses that scope. Accepted for a single-device,
// low-volume cache.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"scoutapi/internal/kv"
	"scoutapi/internal/model"
	"scoutapi/internal/repository"
)

// Collection keys in the flat key/value store.
const (
	papersKey       = "research_papers"
	summariesPrefix = "summaries_"
	codePrefix      = "code_"
	visPrefix       = "visualizations_"
)

// localPaper is the on-device wire shape. It differs from model.Paper: no
// owner (the device is the owner) and a single uploadDate timestamp.
type localPaper struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Filename   string          `json:"filename"`
	FileSize   int64           `json:"file_size,omitempty"`
	Analysis   *model.Analysis `json:"analysis,omitempty"`
	UploadDate time.Time       `json:"uploadDate"`
}

type localSummary struct {
	ID        string          `json:"id"`
	PaperID   string          `json:"paperId"`
	TargetAge int             `json:"targetAge"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
}

type localCode struct {
	ID          string          `json:"id"`
	PaperID     string          `json:"paperId"`
	Language    string          `json:"language"`
	Framework   string          `json:"framework"`
	CodeContent json.RawMessage `json:"code_content"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type localVisualization struct {
	ID                string          `json:"id"`
	PaperID           string          `json:"paperId"`
	VisualizationType string          `json:"visualization_type"`
	Config            json.RawMessage `json:"config"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// PaperLocal is the local-mode implementation of repository.Backend.
// Returned records are reshaped into the common model with the owner taken
// from ownerID, so callers see the same field layout in both modes. Local
// records are immutable, so UpdatedAt mirrors CreatedAt.
type PaperLocal struct {
	store kv.Store

	// ownerID supplies the guest id stamped onto reshaped records.
	ownerID func(ctx context.Context) string

	now     func() time.Time
	randInt func(n int) int
}

// NewPaperLocal creates a local backend. ownerID is consulted lazily on each
// read so a freshly generated guest id is picked up without reconstruction.
func NewPaperLocal(store kv.Store, ownerID func(ctx context.Context) string) *PaperLocal {
	return &PaperLocal{
		store:   store,
		ownerID: ownerID,
		now:     time.Now,
		randInt: rand.Intn,
	}
}

var _ repository.Backend = (*PaperLocal)(nil)

// newID builds a local-scheme id. Local ids and server-assigned ids use
// different schemes and are never comparable across stores.
func (r *PaperLocal) newID() string {
	return fmt.Sprintf("%d_%d", r.now().UnixMilli(), r.randInt(10000))
}

func readCollection[T any](ctx context.Context, store kv.Store, key string) ([]T, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode collection %q: %w", key, err)
	}
	return items, nil
}

func writeCollection[T any](ctx context.Context, store kv.Store, key string, items []T) error {
	blob, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode collection %q: %w", key, err)
	}
	return store.Set(ctx, key, string(blob))
}

// prepend puts the newest record first; list order is insertion order, not a
// timestamp sort.
func prepend[T any](items []T, item T) []T {
	return append([]T{item}, items...)
}

func (r *PaperLocal) toPaper(ctx context.Context, p localPaper) model.Paper {
	return model.Paper{
		ID:        p.ID,
		UserID:    r.ownerID(ctx),
		Title:     p.Title,
		Content:   p.Content,
		Filename:  p.Filename,
		FileSize:  p.FileSize,
		Analysis:  p.Analysis,
		CreatedAt: p.UploadDate,
		UpdatedAt: p.UploadDate,
	}
}

// ListPapers ignores userID: the device holds exactly one corpus.
func (r *PaperLocal) ListPapers(ctx context.Context, _ string) ([]model.Paper, error) {
	locals, err := readCollection[localPaper](ctx, r.store, papersKey)
	if err != nil {
		return nil, err
	}
	papers := make([]model.Paper, 0, len(locals))
	for _, p := range locals {
		papers = append(papers, r.toPaper(ctx, p))
	}
	return papers, nil
}

func (r *PaperLocal) SavePaper(ctx context.Context, p repository.NewPaper) (*model.Paper, error) {
	locals, err := readCollection[localPaper](ctx, r.store, papersKey)
	if err != nil {
		return nil, err
	}
	rec := localPaper{
		ID:         r.newID(),
		Title:      p.Title,
		Content:    p.Content,
		Filename:   p.Filename,
		FileSize:   p.FileSize,
		Analysis:   p.Analysis,
		UploadDate: r.now(),
	}
	if err := writeCollection(ctx, r.store, papersKey, prepend(locals, rec)); err != nil {
		return nil, err
	}
	out := r.toPaper(ctx, rec)
	return &out, nil
}

func (r *PaperLocal) GetSummary(ctx context.Context, paperID string, targetAge int) (*model.Summary, error) {
	summaries, err := readCollection[localSummary](ctx, r.store, summariesPrefix+paperID)
	if err != nil {
		return nil, err
	}
	for _, s := range summaries {
		if s.TargetAge == targetAge {
			return r.toSummary(ctx, s), nil
		}
	}
	return nil, nil
}

func (r *PaperLocal) SaveSummary(ctx context.Context, s repository.NewSummary) (*model.Summary, error) {
	key := summariesPrefix + s.PaperID
	summaries, err := readCollection[localSummary](ctx, r.store, key)
	if err != nil {
		return nil, err
	}
	rec := localSummary{
		ID:        r.newID(),
		PaperID:   s.PaperID,
		TargetAge: s.TargetAge,
		Content:   s.Content,
		CreatedAt: r.now(),
	}
	if err := writeCollection(ctx, r.store, key, prepend(summaries, rec)); err != nil {
		return nil, err
	}
	return r.toSummary(ctx, rec), nil
}

func (r *PaperLocal) toSummary(ctx context.Context, s localSummary) *model.Summary {
	return &model.Summary{
		ID:        s.ID,
		PaperID:   s.PaperID,
		UserID:    r.ownerID(ctx),
		TargetAge: s.TargetAge,
		Content:   s.Content,
		CreatedAt: s.CreatedAt,
	}
}

func (r *PaperLocal) SaveCode(ctx context.Context, c repository.NewCodeGeneration) (*model.CodeGeneration, error) {
	key := codePrefix + c.PaperID
	records, err := readCollection[localCode](ctx, r.store, key)
	if err != nil {
		return nil, err
	}
	rec := localCode{
		ID:          r.newID(),
		PaperID:     c.PaperID,
		Language:    c.Language,
		Framework:   c.Framework,
		CodeContent: c.CodeContent,
		CreatedAt:   r.now(),
	}
	if err := writeCollection(ctx, r.store, key, prepend(records, rec)); err != nil {
		return nil, err
	}
	return &model.CodeGeneration{
		ID:          rec.ID,
		PaperID:     rec.PaperID,
		UserID:      r.ownerID(ctx),
		Language:    rec.Language,
		Framework:   rec.Framework,
		CodeContent: rec.CodeContent,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

func (r *PaperLocal) SaveVisualization(ctx context.Context, v repository.NewVisualization) (*model.Visualization, error) {
	key := visPrefix + v.PaperID
	records, err := readCollection[localVisualization](ctx, r.store, key)
	if err != nil {
		return nil, err
	}
	rec := localVisualization{
		ID:                r.newID(),
		PaperID:           v.PaperID,
		VisualizationType: v.VisualizationType,
		Config:            v.Config,
		CreatedAt:         r.now(),
	}
	if err := writeCollection(ctx, r.store, key, prepend(records, rec)); err != nil {
		return nil, err
	}
	out := r.toVisualization(ctx, rec)
	return &out, nil
}

func (r *PaperLocal) ListVisualizations(ctx context.Context, paperID string) ([]model.Visualization, error) {
	records, err := readCollection[localVisualization](ctx, r.store, visPrefix+paperID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Visualization, 0, len(records))
	for _, rec := range records {
		out = append(out, r.toVisualization(ctx, rec))
	}
	return out, nil
}

func (r *PaperLocal) toVisualization(ctx context.Context, v localVisualization) model.Visualization {
	return model.Visualization{
		ID:                v.ID,
		PaperID:           v.PaperID,
		UserID:            r.ownerID(ctx),
		VisualizationType: v.VisualizationType,
		Config:            v.Config,
		CreatedAt:         v.CreatedAt,
	}
}
