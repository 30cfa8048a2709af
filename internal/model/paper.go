package model

import (
	"encoding/json"
	"time"
)

// Paper is a stored research paper together with its externally produced
// analysis. This is a pure domain model with no database-specific tags; it is
// the one shape both storage backends normalize into.
type Paper struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Filename  string    `json:"filename"`
	FileSize  int64     `json:"file_size,omitempty"`
	Analysis  *Analysis `json:"analysis,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Analysis is the structured record returned by the text-analysis service.
// The store passes it through without interpreting it; only the ranker reads
// the complexity score and domain fields.
type Analysis struct {
	ComplexityScore    *float64      `json:"complexity_score,omitempty"`
	TechnicalDepth     string        `json:"technical_depth,omitempty"`
	DomainPrimary      string        `json:"domain_primary,omitempty"`
	DomainSecondary    []string      `json:"domain_secondary,omitempty"`
	KeyMethodologies   []string      `json:"key_methodologies,omitempty"`
	AnalysisConfidence float64       `json:"analysis_confidence,omitempty"`
	Metadata           PaperMetadata `json:"paper_metadata,omitempty"`
}

// PaperMetadata is descriptive metadata the analysis service extracts.
type PaperMetadata struct {
	Title              string `json:"title,omitempty"`
	EstimatedPages     int    `json:"estimated_pages,omitempty"`
	EstimatedCitations int    `json:"estimated_citations,omitempty"`
	PublicationYear    int    `json:"publication_year,omitempty"`
	ResearchQuality    string `json:"research_quality,omitempty"`
}

// Summary is an age-targeted summary of a paper. The store does not enforce
// uniqueness per (paper, target age); callers check before creating.
type Summary struct {
	ID        string          `json:"id"`
	PaperID   string          `json:"paper_id"`
	UserID    string          `json:"user_id,omitempty"`
	TargetAge int             `json:"target_age"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

// CodeGeneration is generated code derived from a paper's methodology.
type CodeGeneration struct {
	ID          string          `json:"id"`
	PaperID     string          `json:"paper_id"`
	UserID      string          `json:"user_id"`
	Language    string          `json:"language"`
	Framework   string          `json:"framework"`
	CodeContent json.RawMessage `json:"code_content"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Visualization is a saved visualization configuration for a paper.
type Visualization struct {
	ID                string          `json:"id"`
	PaperID           string          `json:"paper_id"`
	UserID            string          `json:"user_id"`
	VisualizationType string          `json:"visualization_type"`
	Config            json.RawMessage `json:"config"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Notification is a user-facing notification row. Remote backend only.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// SimilarPaper is one externally discovered related paper.
type SimilarPaper struct {
	Title           string  `json:"title"`
	SimilarityScore float64 `json:"similarity_score"`
	URL             string  `json:"url,omitempty"`
	DOI             string  `json:"doi,omitempty"`
}

// SimilarPapers groups the related papers found for one search over a paper.
type SimilarPapers struct {
	ID          string         `json:"id"`
	PaperID     string         `json:"paper_id"`
	UserID      string         `json:"user_id"`
	Papers      []SimilarPaper `json:"similar_papers"`
	SearchQuery string         `json:"search_query"`
	CreatedAt   time.Time      `json:"created_at"`
}

// GuestSession identifies a device-local pseudo-user. It exists only in the
// local store, never expires, and is removed only on explicit sign-out.
type GuestSession struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	Mode        string    `json:"mode"`
}
