// Package repository contains the data access abstractions. The two
// implementations live in subpackages: postgres (hosted backend) and local
// (on-device key/value store).
package repository

import (
	"context"
	"encoding/json"

	"scoutapi/internal/model"
)

// Backend is the capability set both storage backends implement. The unified
// data store selects one implementation per call; ids produced by one backend
// are never valid keys into the other.
type Backend interface {
	// ListPapers returns the user's papers newest-first. The local backend
	// holds a single device-scoped corpus and ignores userID.
	ListPapers(ctx context.Context, userID string) ([]model.Paper, error)

	// SavePaper persists a new paper, assigning its id and timestamps, and
	// returns the fully materialized record.
	SavePaper(ctx context.Context, p NewPaper) (*model.Paper, error)

	// GetSummary returns the summary for (paperID, targetAge), or (nil, nil)
	// when none exists. Absence is not an error.
	GetSummary(ctx context.Context, paperID string, targetAge int) (*model.Summary, error)

	// SaveSummary persists a new summary and returns the stored record.
	SaveSummary(ctx context.Context, s NewSummary) (*model.Summary, error)

	// SaveCode persists a generated-code record.
	SaveCode(ctx context.Context, c NewCodeGeneration) (*model.CodeGeneration, error)

	// SaveVisualization persists a visualization record.
	SaveVisualization(ctx context.Context, v NewVisualization) (*model.Visualization, error)

	// ListVisualizations returns a paper's visualizations newest-first.
	ListVisualizations(ctx context.Context, paperID string) ([]model.Visualization, error)
}

// NewPaper carries the caller-provided fields of a paper save.
type NewPaper struct {
	UserID   string
	Title    string
	Content  string
	Filename string
	FileSize int64
	Analysis *model.Analysis
}

// NewSummary carries the caller-provided fields of a summary save.
type NewSummary struct {
	PaperID   string
	UserID    string
	TargetAge int
	Content   json.RawMessage
}

// NewCodeGeneration carries the caller-provided fields of a code save.
type NewCodeGeneration struct {
	PaperID     string
	UserID      string
	Language    string
	Framework   string
	CodeContent json.RawMessage
}

// NewVisualization carries the caller-provided fields of a visualization save.
type NewVisualization struct {
	PaperID           string
	UserID            string
	VisualizationType string
	Config            json.RawMessage
}
