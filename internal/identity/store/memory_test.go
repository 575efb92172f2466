package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/identity/models"
	id "agora/pkg/domain"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
)

func newMember(t *testing.T, email string) *models.Member {
	t.Helper()
	m, err := models.NewMember(id.NewMemberID(), "h", email, true, nil, time.Now())
	require.NoError(t, err)
	return m
}

func TestInMemoryCreate(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	m := newMember(t, "a@example.com")
	require.NoError(t, s.Create(ctx, m))
	assert.Equal(t, int64(1), m.Version)

	assert.ErrorIs(t, s.Create(ctx, newMember(t, "a@example.com")), sentinel.ErrConflict)

	got, err := s.FindByID(ctx, m.ID)
	require.NoError(t, err)
	got.Roles[0] = models.RoleAdmin
	again, _ := s.FindByID(ctx, m.ID)
	assert.Equal(t, models.RoleUser, again.Roles[0], "returned members are copies")

	_, err = s.FindByID(ctx, id.NewMemberID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryUpdateVersioning(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	m := newMember(t, "b@example.com")
	require.NoError(t, s.Create(ctx, m))

	stale, _ := s.FindByID(ctx, m.ID)
	require.NoError(t, m.Suspend(time.Now()))
	require.NoError(t, s.Update(ctx, m))
	assert.Equal(t, int64(2), m.Version)

	require.NoError(t, stale.MarkDeleted(time.Now()))
	assert.ErrorIs(t, s.Update(ctx, stale), sentinel.ErrConflict)

	assert.ErrorIs(t, s.Update(ctx, newMember(t, "c@example.com")), sentinel.ErrNotFound)
}

func TestInMemoryRollback(t *testing.T) {
	s := NewInMemory()
	runner := txcontext.NewShardedMemory(time.Second)
	m := newMember(t, "d@example.com")

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, s.Create(ctx, m))
		return sentinel.ErrUnavailable
	})
	require.Error(t, err)

	n, _ := s.Count(context.Background())
	assert.Zero(t, n)
	require.NoError(t, s.Create(context.Background(), newMember(t, "d@example.com")), "email index was rolled back too")
}
