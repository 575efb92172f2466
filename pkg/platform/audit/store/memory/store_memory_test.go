package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "agora/pkg/platform/audit"
	txcontext "agora/pkg/platform/tx"
)

func TestAppendAndList(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, audit.Event{Action: "a", Subject: "p1", Timestamp: base}))
	require.NoError(t, store.Append(ctx, audit.Event{Action: "b", Subject: "p2", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, store.Append(ctx, audit.Event{Action: "c", Subject: "p1", Timestamp: base.Add(2 * time.Minute)}))

	bySubject, err := store.ListBySubject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, bySubject, 2)
	assert.Equal(t, "a", bySubject[0].Action)

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Action)
	assert.Equal(t, "b", recent[1].Action)
}

func TestAppendRolledBackWithTransaction(t *testing.T) {
	store := NewInMemoryStore()
	runner := txcontext.NewShardedMemory(time.Second)

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, store.Append(ctx, audit.Event{Action: "post_created"}))
		return errors.New("save failed")
	})
	require.Error(t, err)

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
