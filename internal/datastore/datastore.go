// Package datastore is the façade all presentation code depends on. Every
// operation probes identity-provider availability and routes to the remote
// or local backend for its whole duration; the probe is re-evaluated per
// call, so a session may oscillate between modes as connectivity changes.
// In-flight local writes are never migrated to remote when the mode flips.
package datastore

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"scoutapi/internal/identity"
	"scoutapi/internal/model"
	"scoutapi/internal/repository"
)

// guestMarker is stamped as the owner when remote-mode resolution
// unexpectedly yields no id mid-operation.
const guestMarker = "guest"

// RemoteAux covers the auxiliary resources that exist only on the hosted
// backend. Local mode has no counterpart; reads return empty results there.
type RemoteAux interface {
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	SaveNotification(ctx context.Context, userID, title, message string) (*model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	SaveSimilarPapers(ctx context.Context, rec model.SimilarPapers) (*model.SimilarPapers, error)
	GetSimilarPapers(ctx context.Context, paperID string) (*model.SimilarPapers, error)
}

// Store routes each call to the remote or local backend. Absence of remote
// configuration is a routing decision, never an error; a remote-mode call
// that fails surfaces its error rather than silently falling back to local,
// so data never drifts between stores unnoticed.
type Store struct {
	resolver *identity.Resolver
	remote   repository.Backend // nil when no hosted backend is configured
	aux      RemoteAux          // nil alongside remote
	local    repository.Backend
	log      *zap.Logger
}

// New builds the unified store. remote and aux may be nil for local-only
// deployments; logger may be nil.
func New(resolver *identity.Resolver, remote repository.Backend, aux RemoteAux, local repository.Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{resolver: resolver, remote: remote, aux: aux, local: local, log: log}
}

// resolveBackend performs the per-call availability probe. The operation is
// remote-mode only when the identity provider yields an authenticated
// principal and a remote backend is configured.
func (s *Store) resolveBackend(ctx context.Context) (repository.Backend, identity.Identity) {
	id := s.resolver.Resolve(ctx)
	if id.Remote && s.remote != nil {
		return s.remote, id
	}
	if id.Remote {
		// Authenticated but no backend configured; route local under the
		// guest identity like any other local-mode call.
		id = identity.Identity{UserID: s.resolver.GuestID(ctx)}
	}
	return s.local, id
}

// CurrentUserID returns the remote principal in remote-mode, else the
// persistent guest id.
func (s *Store) CurrentUserID(ctx context.Context) string {
	_, id := s.resolveBackend(ctx)
	return id.UserID
}

// RemoteMode reports whether a call made now would route remotely.
func (s *Store) RemoteMode(ctx context.Context) bool {
	backend, _ := s.resolveBackend(ctx)
	return backend == s.remote && s.remote != nil
}

// GetPapers lists the current user's papers newest-first, in the common
// paper shape regardless of which backend served them.
func (s *Store) GetPapers(ctx context.Context) ([]model.Paper, error) {
	backend, id := s.resolveBackend(ctx)
	return backend.ListPapers(ctx, id.UserID)
}

// SavePaperInput carries the caller-provided fields of a paper save.
type SavePaperInput struct {
	Title    string
	Content  string
	Filename string
	FileSize int64
	Analysis *model.Analysis
}

// SavePaper persists a paper under the resolved owner and returns the
// materialized record.
func (s *Store) SavePaper(ctx context.Context, in SavePaperInput) (*model.Paper, error) {
	backend, id := s.resolveBackend(ctx)
	return backend.SavePaper(ctx, repository.NewPaper{
		UserID:   ownerOrGuest(id),
		Title:    in.Title,
		Content:  in.Content,
		Filename: in.Filename,
		FileSize: in.FileSize,
		Analysis: in.Analysis,
	})
}

// GetSummary returns only the content payload for (paperID, targetAge), or
// nil when no summary exists yet. The wrapping record's metadata is not
// exposed in either mode.
func (s *Store) GetSummary(ctx context.Context, paperID string, targetAge int) (json.RawMessage, error) {
	backend, _ := s.resolveBackend(ctx)
	summary, err := backend.GetSummary(ctx, paperID, targetAge)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, nil
	}
	return summary.Content, nil
}

// SaveSummary persists a summary and returns its content payload.
func (s *Store) SaveSummary(ctx context.Context, paperID string, targetAge int, content json.RawMessage) (json.RawMessage, error) {
	backend, id := s.resolveBackend(ctx)
	saved, err := backend.SaveSummary(ctx, repository.NewSummary{
		PaperID:   paperID,
		UserID:    ownerOrGuest(id),
		TargetAge: targetAge,
		Content:   content,
	})
	if err != nil {
		return nil, err
	}
	return saved.Content, nil
}

// CodePayload carries the caller-provided fields of a code-generation save.
type CodePayload struct {
	Language    string
	Framework   string
	CodeContent json.RawMessage
}

// SaveCodeGeneration persists a generated-code record.
func (s *Store) SaveCodeGeneration(ctx context.Context, paperID string, payload CodePayload) (*model.CodeGeneration, error) {
	backend, id := s.resolveBackend(ctx)
	return backend.SaveCode(ctx, repository.NewCodeGeneration{
		PaperID:     paperID,
		UserID:      ownerOrGuest(id),
		Language:    payload.Language,
		Framework:   payload.Framework,
		CodeContent: payload.CodeContent,
	})
}

// VisualizationPayload carries the caller-provided fields of a
// visualization save.
type VisualizationPayload struct {
	VisualizationType string
	Config            json.RawMessage
}

// SaveVisualization persists a visualization record.
func (s *Store) SaveVisualization(ctx context.Context, paperID string, payload VisualizationPayload) (*model.Visualization, error) {
	backend, id := s.resolveBackend(ctx)
	return backend.SaveVisualization(ctx, repository.NewVisualization{
		PaperID:           paperID,
		UserID:            ownerOrGuest(id),
		VisualizationType: payload.VisualizationType,
		Config:            payload.Config,
	})
}

// GetVisualizations always reads from the local store, in both modes: the
// remote list path is not implemented. Saves made in remote mode are
// therefore invisible here; a deliberate, documented gap.
func (s *Store) GetVisualizations(ctx context.Context, paperID string) ([]model.Visualization, error) {
	return s.local.ListVisualizations(ctx, paperID)
}

// Notifications lists the user's notifications in remote mode, and returns
// an empty list in local mode.
func (s *Store) Notifications(ctx context.Context) ([]model.Notification, error) {
	backend, id := s.resolveBackend(ctx)
	if backend != s.remote || s.aux == nil {
		return []model.Notification{}, nil
	}
	return s.aux.ListNotifications(ctx, id.UserID)
}

// MarkNotificationRead flags a notification as read; a no-op in local mode.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	backend, _ := s.resolveBackend(ctx)
	if backend != s.remote || s.aux == nil {
		return nil
	}
	return s.aux.MarkNotificationRead(ctx, id)
}

// SimilarPapers returns the stored similar-papers record for a paper, or
// (nil, nil) when absent or in local mode.
func (s *Store) SimilarPapers(ctx context.Context, paperID string) (*model.SimilarPapers, error) {
	backend, _ := s.resolveBackend(ctx)
	if backend != s.remote || s.aux == nil {
		return nil, nil
	}
	return s.aux.GetSimilarPapers(ctx, paperID)
}

// SaveSimilarPapers stores a similar-papers record in remote mode. Local
// mode drops the record silently; the discovery view recomputes on demand.
func (s *Store) SaveSimilarPapers(ctx context.Context, paperID, query string, papers []model.SimilarPaper) (*model.SimilarPapers, error) {
	backend, id := s.resolveBackend(ctx)
	if backend != s.remote || s.aux == nil {
		return nil, nil
	}
	return s.aux.SaveSimilarPapers(ctx, model.SimilarPapers{
		PaperID:     paperID,
		UserID:      ownerOrGuest(id),
		Papers:      papers,
		SearchQuery: query,
	})
}

// SignOut clears the guest session when in local mode. Remote sign-out is
// the identity provider's concern and happens outside this store.
func (s *Store) SignOut(ctx context.Context) error {
	if s.RemoteMode(ctx) {
		return nil
	}
	s.log.Info("clearing guest session")
	return s.resolver.ClearGuest(ctx)
}

func ownerOrGuest(id identity.Identity) string {
	if id.UserID == "" {
		return guestMarker
	}
	return id.UserID
}
