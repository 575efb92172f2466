package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/community/models"
	id "agora/pkg/domain"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
)

func newBan(t *testing.T, communityID id.CommunityID, memberID id.MemberID, d *time.Duration, now time.Time) *models.Ban {
	t.Helper()
	b, err := models.NewBan(id.NewBanID(), communityID, memberID, id.NewMemberID(), "spam", d, now)
	require.NoError(t, err)
	return b
}

func TestInMemoryCommunities(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryCommunities()
	c, err := models.NewCommunity(id.NewCommunityID(), "golang", "Go", "", id.NewMemberID(), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, c))

	dup, err := models.NewCommunity(id.NewCommunityID(), "golang", "Go again", "", id.NewMemberID(), time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Create(ctx, dup), sentinel.ErrConflict)

	got, err := s.FindByNameKey(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = s.FindByID(ctx, id.NewCommunityID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryModerators(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryModerators()
	communityID := id.NewCommunityID()
	first, second := id.NewMemberID(), id.NewMemberID()
	now := time.Now()

	require.NoError(t, s.Grant(ctx, &models.ModeratorGrant{CommunityID: communityID, MemberID: second, GrantedAt: now.Add(time.Minute)}))
	require.NoError(t, s.Grant(ctx, &models.ModeratorGrant{CommunityID: communityID, MemberID: first, GrantedAt: now}))
	assert.ErrorIs(t, s.Grant(ctx, &models.ModeratorGrant{CommunityID: communityID, MemberID: first, GrantedAt: now}), sentinel.ErrConflict)

	grants, err := s.ListByCommunity(ctx, communityID)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, first, grants[0].MemberID)

	ok, err := s.IsModerator(ctx, id.NewCommunityID(), first)
	require.NoError(t, err)
	assert.False(t, ok, "grants are scoped to one community")

	require.NoError(t, s.Revoke(ctx, communityID, first))
	assert.ErrorIs(t, s.Revoke(ctx, communityID, first), sentinel.ErrNotFound)
}

func TestInMemoryBansFindActive(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryBans()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	communityID, memberID := id.NewCommunityID(), id.NewMemberID()

	_, err := s.FindActive(ctx, communityID, memberID, now)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	short, long := time.Hour, 48*time.Hour
	require.NoError(t, s.Create(ctx, newBan(t, communityID, memberID, &short, now)))
	longBan := newBan(t, communityID, memberID, &long, now)
	require.NoError(t, s.Create(ctx, longBan))

	got, err := s.FindActive(ctx, communityID, memberID, now)
	require.NoError(t, err)
	assert.Equal(t, longBan.ID, got.ID, "latest expiry wins")

	perma := newBan(t, communityID, memberID, nil, now)
	require.NoError(t, s.Create(ctx, perma))
	got, err = s.FindActive(ctx, communityID, memberID, now)
	require.NoError(t, err)
	assert.Equal(t, perma.ID, got.ID, "permanent beats temporary")

	_, err = s.FindActive(ctx, id.NewCommunityID(), memberID, now)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryBansUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryBans()
	now := time.Now()
	b := newBan(t, id.NewCommunityID(), id.NewMemberID(), nil, now)
	require.NoError(t, s.Create(ctx, b))

	stale, err := s.FindByID(ctx, b.ID)
	require.NoError(t, err)

	require.True(t, b.Lift(id.NewMemberID(), now))
	require.NoError(t, s.Update(ctx, b))
	assert.Equal(t, int64(2), b.Version)

	stale.Reason = "edited"
	assert.ErrorIs(t, s.Update(ctx, stale), sentinel.ErrConflict)

	got, err := s.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsLifted())
	got.LiftedAt = nil
	again, _ := s.FindByID(ctx, b.ID)
	assert.True(t, again.IsLifted(), "returned bans are copies")
}

func TestInMemoryBansRollback(t *testing.T) {
	s := NewInMemoryBans()
	runner := txcontext.NewShardedMemory(time.Second)
	now := time.Now()
	b := newBan(t, id.NewCommunityID(), id.NewMemberID(), nil, now)
	require.NoError(t, s.Create(context.Background(), b))

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		b.Lift(id.NewMemberID(), now)
		require.NoError(t, s.Update(ctx, b))
		require.NoError(t, s.Create(ctx, newBan(t, b.CommunityID, b.MemberID, nil, now)))
		return sentinel.ErrUnavailable
	})
	require.Error(t, err)

	bans, err := s.ListByCommunity(context.Background(), b.CommunityID)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.False(t, bans[0].IsLifted())
	assert.Equal(t, int64(1), bans[0].Version)
}
