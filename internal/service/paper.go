package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scoutapi/internal/ai"
	"scoutapi/internal/datastore"
	"scoutapi/internal/model"
	"scoutapi/internal/ranking"
	"scoutapi/internal/storage"
	"scoutapi/internal/textextract"
)

var (
	ErrPaperNotFound = errors.New("paper not found")
	ErrReaderNil     = errors.New("reader is nil")
)

// DataStore is the unified data store surface the service depends on.
// *datastore.Store is the production implementation.
type DataStore interface {
	CurrentUserID(ctx context.Context) string
	RemoteMode(ctx context.Context) bool
	GetPapers(ctx context.Context) ([]model.Paper, error)
	SavePaper(ctx context.Context, in datastore.SavePaperInput) (*model.Paper, error)
	GetSummary(ctx context.Context, paperID string, targetAge int) (json.RawMessage, error)
	SaveSummary(ctx context.Context, paperID string, targetAge int, content json.RawMessage) (json.RawMessage, error)
	SaveCodeGeneration(ctx context.Context, paperID string, payload datastore.CodePayload) (*model.CodeGeneration, error)
	SaveVisualization(ctx context.Context, paperID string, payload datastore.VisualizationPayload) (*model.Visualization, error)
	GetVisualizations(ctx context.Context, paperID string) ([]model.Visualization, error)
	Notifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	SimilarPapers(ctx context.Context, paperID string) (*model.SimilarPapers, error)
	SaveSimilarPapers(ctx context.Context, paperID, query string, papers []model.SimilarPaper) (*model.SimilarPapers, error)
	SignOut(ctx context.Context) error
}

// Analyzer is the text-analysis collaborator surface. *ai.Gemini is the
// production implementation. Its failures must reach the caller.
type Analyzer interface {
	AnalyzePaper(ctx context.Context, content, filename string) (*model.Analysis, error)
	GenerateAgeSummary(ctx context.Context, content string, targetAge int, analysis *model.Analysis) (json.RawMessage, error)
	FindSimilarPapers(ctx context.Context, content string, analysis *model.Analysis) ([]model.SimilarPaper, error)
	GenerateCode(ctx context.Context, content, language, framework string, analysis *model.Analysis) (json.RawMessage, error)
	GenerateVisualization(ctx context.Context, content, vizType string, analysis *model.Analysis) (json.RawMessage, error)
}

// UserInfo is the resolved identity exposed to the presentation layer.
type UserInfo struct {
	UserID string `json:"user_id"`
	Mode   string `json:"mode"`
}

// PaperService defines the application use cases.
type PaperService interface {
	// CurrentUser reports the resolved user id and routing mode right now.
	CurrentUser(ctx context.Context) UserInfo

	// SignOut clears the guest session in local mode.
	SignOut(ctx context.Context) error

	// Upload extracts text from the uploaded file, runs analysis, and
	// persists the paper. In remote mode the raw bytes are archived first.
	Upload(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64) (*model.Paper, error)

	// List returns the current user's papers newest-first.
	List(ctx context.Context) ([]model.Paper, error)

	// Search ranks the paper corpus against query. An empty or
	// whitespace-only query short-circuits to no results.
	Search(ctx context.Context, query string, f ranking.Filters) ([]ranking.Result, error)

	// GetSummary returns the stored summary content for (paper, age), or
	// nil when none exists yet.
	GetSummary(ctx context.Context, paperID string, targetAge int) (json.RawMessage, error)

	// Summarize returns the stored summary for (paper, age) or generates
	// and persists one.
	Summarize(ctx context.Context, paperID string, targetAge int) (json.RawMessage, error)

	// GenerateCode produces and persists a code rendition of the paper.
	GenerateCode(ctx context.Context, paperID, language, framework string) (*model.CodeGeneration, error)

	// CreateVisualization produces and persists a visualization config.
	CreateVisualization(ctx context.Context, paperID, vizType string) (*model.Visualization, error)

	// Visualizations lists a paper's saved visualizations.
	Visualizations(ctx context.Context, paperID string) ([]model.Visualization, error)

	// SimilarPapers returns related published work, reusing a stored record
	// when one exists.
	SimilarPapers(ctx context.Context, paperID, query string) ([]model.SimilarPaper, error)

	// Notifications lists the user's notifications (remote mode only).
	Notifications(ctx context.Context) ([]model.Notification, error)

	// MarkNotificationRead flags one notification as read.
	MarkNotificationRead(ctx context.Context, id string) error
}

type paperService struct {
	store     DataStore
	analyzer  Analyzer
	extractor textextract.Extractor
	archive   storage.Archive // nil when no object store is configured
	ranker    *ranking.Ranker
	log       *zap.Logger
}

// NewPaperService constructs the service. archive may be nil; log may be nil.
func NewPaperService(store DataStore, analyzer Analyzer, extractor textextract.Extractor, archive storage.Archive, log *zap.Logger) PaperService {
	if log == nil {
		log = zap.NewNop()
	}
	return &paperService{
		store:     store,
		analyzer:  analyzer,
		extractor: extractor,
		archive:   archive,
		ranker:    ranking.New(),
		log:       log,
	}
}

// analyzerReady reports the analyzer as an analysis-service failure when it
// was never configured, so callers see one error class for both cases.
func (s *paperService) analyzerReady() error {
	if s.analyzer == nil {
		return fmt.Errorf("%w: no analyzer configured", ai.ErrServiceFailed)
	}
	return nil
}

func (s *paperService) CurrentUser(ctx context.Context) UserInfo {
	mode := "local"
	if s.store.RemoteMode(ctx) {
		mode = "remote"
	}
	return UserInfo{UserID: s.store.CurrentUserID(ctx), Mode: mode}
}

func (s *paperService) SignOut(ctx context.Context) error {
	return s.store.SignOut(ctx)
}

func (s *paperService) Upload(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64) (*model.Paper, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	// The archive needs the raw bytes again after extraction consumes the
	// reader, so buffer once up front.
	raw, err := io.ReadAll(io.LimitReader(r, textextract.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	text, err := s.extractor.Extract(ctx, strings.NewReader(string(raw)), originalFilename)
	if err != nil {
		return nil, err
	}

	if err := s.analyzerReady(); err != nil {
		return nil, err
	}
	analysis, err := s.analyzer.AnalyzePaper(ctx, text, originalFilename)
	if err != nil {
		return nil, err
	}

	// Archive the original before the metadata save so a failed save can
	// roll the object back, leaving no orphans. Remote mode only.
	archiveKey := ""
	if s.archive != nil && s.store.RemoteMode(ctx) {
		ext := filepath.Ext(originalFilename)
		archiveKey = filepath.ToSlash(filepath.Join("papers", uuid.New().String()+ext))
		if _, err := s.archive.Put(ctx, archiveKey, strings.NewReader(string(raw)), storage.PutOptions{
			Size:        int64(len(raw)),
			ContentType: contentType,
			Metadata:    map[string]string{"original-filename": originalFilename},
		}); err != nil {
			return nil, fmt.Errorf("archive upload: %w", err)
		}
	}

	title := analysis.Metadata.Title
	if title == "" {
		title = strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))
	}

	paper, err := s.store.SavePaper(ctx, datastore.SavePaperInput{
		Title:    title,
		Content:  text,
		Filename: originalFilename,
		FileSize: int64(len(raw)),
		Analysis: analysis,
	})
	if err != nil {
		if archiveKey != "" {
			if delErr := s.archive.Delete(ctx, archiveKey); delErr != nil {
				return nil, fmt.Errorf("save failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("save paper: %w", err)
	}
	return paper, nil
}

func (s *paperService) List(ctx context.Context) ([]model.Paper, error) {
	return s.store.GetPapers(ctx)
}

func (s *paperService) Search(ctx context.Context, query string, f ranking.Filters) ([]ranking.Result, error) {
	if strings.TrimSpace(query) == "" {
		return []ranking.Result{}, nil
	}
	papers, err := s.store.GetPapers(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.Rank(query, papers, f), nil
}

// findPaper locates a paper in the current user's corpus. The store has no
// point lookup; the corpus is small enough that a list scan is fine.
func (s *paperService) findPaper(ctx context.Context, paperID string) (*model.Paper, error) {
	papers, err := s.store.GetPapers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range papers {
		if papers[i].ID == paperID {
			return &papers[i], nil
		}
	}
	return nil, ErrPaperNotFound
}

func (s *paperService) GetSummary(ctx context.Context, paperID string, targetAge int) (json.RawMessage, error) {
	return s.store.GetSummary(ctx, paperID, targetAge)
}

func (s *paperService) Summarize(ctx context.Context, paperID string, targetAge int) (json.RawMessage, error) {
	// Check-then-create: two concurrent calls for the same (paper, age) can
	// both miss and both create. The stores do not enforce uniqueness and
	// the UI serializes user actions, so the duplicate is tolerated.
	existing, err := s.store.GetSummary(ctx, paperID, targetAge)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if err := s.analyzerReady(); err != nil {
		return nil, err
	}
	paper, err := s.findPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	content, err := s.analyzer.GenerateAgeSummary(ctx, paper.Content, targetAge, paper.Analysis)
	if err != nil {
		return nil, err
	}
	return s.store.SaveSummary(ctx, paperID, targetAge, content)
}

func (s *paperService) GenerateCode(ctx context.Context, paperID, language, framework string) (*model.CodeGeneration, error) {
	if err := s.analyzerReady(); err != nil {
		return nil, err
	}
	paper, err := s.findPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	content, err := s.analyzer.GenerateCode(ctx, paper.Content, language, framework, paper.Analysis)
	if err != nil {
		return nil, err
	}
	return s.store.SaveCodeGeneration(ctx, paperID, datastore.CodePayload{
		Language:    language,
		Framework:   framework,
		CodeContent: content,
	})
}

func (s *paperService) CreateVisualization(ctx context.Context, paperID, vizType string) (*model.Visualization, error) {
	if err := s.analyzerReady(); err != nil {
		return nil, err
	}
	paper, err := s.findPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	config, err := s.analyzer.GenerateVisualization(ctx, paper.Content, vizType, paper.Analysis)
	if err != nil {
		return nil, err
	}
	return s.store.SaveVisualization(ctx, paperID, datastore.VisualizationPayload{
		VisualizationType: vizType,
		Config:            config,
	})
}

func (s *paperService) Visualizations(ctx context.Context, paperID string) ([]model.Visualization, error) {
	return s.store.GetVisualizations(ctx, paperID)
}

func (s *paperService) SimilarPapers(ctx context.Context, paperID, query string) ([]model.SimilarPaper, error) {
	if stored, err := s.store.SimilarPapers(ctx, paperID); err == nil && stored != nil {
		return stored.Papers, nil
	} else if err != nil {
		s.log.Warn("similar papers lookup failed, recomputing", zap.Error(err))
	}

	if err := s.analyzerReady(); err != nil {
		return nil, err
	}
	paper, err := s.findPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	papers, err := s.analyzer.FindSimilarPapers(ctx, paper.Content, paper.Analysis)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.SaveSimilarPapers(ctx, paperID, query, papers); err != nil {
		// The computed result is still good; persistence is remote-only
		// convenience.
		s.log.Warn("similar papers save failed", zap.Error(err))
	}
	return papers, nil
}

func (s *paperService) Notifications(ctx context.Context) ([]model.Notification, error) {
	return s.store.Notifications(ctx)
}

func (s *paperService) MarkNotificationRead(ctx context.Context, id string) error {
	return s.store.MarkNotificationRead(ctx, id)
}
