package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	dsMocks "scoutapi/internal/datastore/mocks"
	"scoutapi/internal/identity"
	"scoutapi/internal/kv"
	"scoutapi/internal/model"
	"scoutapi/internal/repository"
	repoMocks "scoutapi/internal/repository/mocks"
)

type stubProvider struct {
	id  string
	err error
}

func (p stubProvider) CurrentUserID(context.Context) (string, error) {
	return p.id, p.err
}

func newStore(provider identity.Provider, remote *repoMocks.MockBackend, aux *dsMocks.MockRemoteAux, local *repoMocks.MockBackend) *Store {
	resolver := identity.NewResolver(provider, kv.NewMemory())
	if remote == nil {
		return New(resolver, nil, nil, local, nil)
	}
	return New(resolver, remote, aux, local, nil)
}

func TestStore_RemoteModeRoutesRemote(t *testing.T) {
	remote := new(repoMocks.MockBackend)
	local := new(repoMocks.MockBackend)
	s := newStore(stubProvider{id: "user-1"}, remote, nil, local)
	ctx := context.Background()

	remote.On("ListPapers", ctx, "user-1").Return([]model.Paper{{ID: "p-1"}}, nil).Once()

	papers, err := s.GetPapers(ctx)

	require.NoError(t, err)
	assert.Len(t, papers, 1)
	assert.True(t, s.RemoteMode(ctx))
	assert.Equal(t, "user-1", s.CurrentUserID(ctx))
	remote.AssertExpectations(t)
	local.AssertNotCalled(t, "ListPapers", mock.Anything, mock.Anything)
}

func TestStore_LocalModeUsesGuestIdentity(t *testing.T) {
	local := new(repoMocks.MockBackend)
	s := newStore(nil, nil, nil, local)
	ctx := context.Background()

	local.On("ListPapers", ctx, mock.MatchedBy(func(id string) bool {
		return len(id) > 6 && id[:6] == "guest_"
	})).Return([]model.Paper{}, nil).Once()

	_, err := s.GetPapers(ctx)

	require.NoError(t, err)
	assert.False(t, s.RemoteMode(ctx))
	assert.Contains(t, s.CurrentUserID(ctx), "guest_")
	local.AssertExpectations(t)
}

func TestStore_ProviderErrorRoutesLocal(t *testing.T) {
	remote := new(repoMocks.MockBackend)
	local := new(repoMocks.MockBackend)
	s := newStore(stubProvider{err: errors.New("auth service down")}, remote, nil, local)
	ctx := context.Background()

	local.On("ListPapers", ctx, mock.Anything).Return([]model.Paper{}, nil).Once()

	_, err := s.GetPapers(ctx)

	require.NoError(t, err)
	local.AssertExpectations(t)
	remote.AssertNotCalled(t, "ListPapers", mock.Anything, mock.Anything)
}

func TestStore_AuthenticatedWithoutRemoteBackendRoutesLocal(t *testing.T) {
	local := new(repoMocks.MockBackend)
	s := newStore(stubProvider{id: "user-1"}, nil, nil, local)
	ctx := context.Background()

	local.On("ListPapers", ctx, mock.MatchedBy(func(id string) bool {
		return len(id) > 6 && id[:6] == "guest_"
	})).Return([]model.Paper{}, nil).Once()

	_, err := s.GetPapers(ctx)

	require.NoError(t, err)
	assert.False(t, s.RemoteMode(ctx))
	local.AssertExpectations(t)
}

func TestStore_RemoteFailureDoesNotFallBack(t *testing.T) {
	remote := new(repoMocks.MockBackend)
	local := new(repoMocks.MockBackend)
	s := newStore(stubProvider{id: "user-1"}, remote, nil, local)
	ctx := context.Background()

	remote.On("ListPapers", ctx, "user-1").Return(nil, errors.New("connection reset")).Once()

	_, err := s.GetPapers(ctx)

	assert.Error(t, err)
	remote.AssertExpectations(t)
	local.AssertNotCalled(t, "ListPapers", mock.Anything, mock.Anything)
}

func TestStore_SavePaperStampsOwner(t *testing.T) {
	remote := new(repoMocks.MockBackend)
	local := new(repoMocks.MockBackend)
	s := newStore(stubProvider{id: "user-1"}, remote, nil, local)
	ctx := context.Background()

	saved := &model.Paper{ID: "p-1", UserID: "user-1", Title: "t"}
	remote.On("SavePaper", ctx, mock.MatchedBy(func(in repository.NewPaper) bool {
		return in.UserID == "user-1" && in.Title == "t"
	})).Return(saved, nil).Once()

	paper, err := s.SavePaper(ctx, SavePaperInput{Title: "t", Content: "c"})

	require.NoError(t, err)
	assert.Equal(t, "user-1", paper.UserID)
	remote.AssertExpectations(t)
}

func TestStore_GetSummaryUnwrapsContent(t *testing.T) {
	local := new(repoMocks.MockBackend)
	s := newStore(nil, nil, nil, local)
	ctx := context.Background()

	t.Run("absent summary is nil without error", func(t *testing.T) {
		local.On("GetSummary", ctx, "p-1", 12).Return(nil, nil).Once()

		content, err := s.GetSummary(ctx, "p-1", 12)

		assert.NoError(t, err)
		assert.Nil(t, content)
	})

	t.Run("present summary yields only the payload", func(t *testing.T) {
		local.On("GetSummary", ctx, "p-1", 25).Return(&model.Summary{
			ID:      "s-1",
			Content: json.RawMessage(`{"text":"adult version"}`),
		}, nil).Once()

		content, err := s.GetSummary(ctx, "p-1", 25)

		require.NoError(t, err)
		assert.JSONEq(t, `{"text":"adult version"}`, string(content))
	})
}

func TestStore_GetVisualizationsAlwaysLocal(t *testing.T) {
	remote := new(repoMocks.MockBackend)
	local := new(repoMocks.MockBackend)
	s := newStore(stubProvider{id: "user-1"}, remote, nil, local)
	ctx := context.Background()

	// Even with a remote principal resolved, visualization reads come from
	// the local store.
	local.On("ListVisualizations", ctx, "p-1").Return([]model.Visualization{{ID: "v-1"}}, nil).Once()

	vis, err := s.GetVisualizations(ctx, "p-1")

	require.NoError(t, err)
	assert.Len(t, vis, 1)
	local.AssertExpectations(t)
	remote.AssertNotCalled(t, "ListVisualizations", mock.Anything, mock.Anything)
}

func TestStore_NotificationsLocalModeIsEmpty(t *testing.T) {
	local := new(repoMocks.MockBackend)
	s := newStore(nil, nil, nil, local)
	ctx := context.Background()

	items, err := s.Notifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.NoError(t, s.MarkNotificationRead(ctx, "n-1"))

	rec, err := s.SimilarPapers(ctx, "p-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	saved, err := s.SaveSimilarPapers(ctx, "p-1", "query", nil)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestStore_NotificationsRemoteMode(t *testing.T) {
	remote := new(repoMocks.MockBackend)
	aux := new(dsMocks.MockRemoteAux)
	local := new(repoMocks.MockBackend)
	s := newStore(stubProvider{id: "user-1"}, remote, aux, local)
	ctx := context.Background()

	aux.On("ListNotifications", ctx, "user-1").Return([]model.Notification{{ID: "n-1"}}, nil).Once()
	aux.On("MarkNotificationRead", ctx, "n-1").Return(nil).Once()

	items, err := s.Notifications(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, s.MarkNotificationRead(ctx, "n-1"))
	aux.AssertExpectations(t)
}

func TestStore_SignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("local mode clears the guest session", func(t *testing.T) {
		guestStore := kv.NewMemory()
		resolver := identity.NewResolver(nil, guestStore)
		local := new(repoMocks.MockBackend)
		s := New(resolver, nil, nil, local, nil)

		first := s.CurrentUserID(ctx)
		require.NoError(t, s.SignOut(ctx))

		_, ok, err := guestStore.Get(ctx, identity.GuestSessionKey)
		require.NoError(t, err)
		assert.False(t, ok)

		// The next resolution mints a new session.
		second := s.CurrentUserID(ctx)
		assert.NotEqual(t, first, second)
	})

	t.Run("remote mode leaves the guest session alone", func(t *testing.T) {
		guestStore := kv.NewMemory()
		resolver := identity.NewResolver(stubProvider{id: "user-1"}, guestStore)
		remote := new(repoMocks.MockBackend)
		s := New(resolver, remote, nil, new(repoMocks.MockBackend), nil)

		require.NoError(t, guestStore.Set(ctx, identity.GuestSessionKey, `{"user_id":"guest_1_1"}`))
		require.NoError(t, s.SignOut(ctx))

		_, ok, err := guestStore.Get(ctx, identity.GuestSessionKey)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
