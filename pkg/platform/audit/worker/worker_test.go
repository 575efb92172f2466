package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "agora/pkg/platform/audit"
	"agora/pkg/platform/audit/store/postgres"
	txcontext "agora/pkg/platform/tx"
)

type fakeOutbox struct {
	mu        sync.Mutex
	entries   []postgres.OutboxEntry
	published map[uuid.UUID]bool
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, limit int) ([]postgres.OutboxEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []postgres.OutboxEntry
	for _, e := range f.entries {
		if !f.published[e.ID] && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range ids {
		f.published[v] = true
	}
	return nil
}

type fakeProducer struct {
	topics []string
	fail   bool
}

func (p *fakeProducer) Produce(_ context.Context, topic string, _, _ []byte) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.topics = append(p.topics, topic)
	return nil
}

func newOutbox() *fakeOutbox {
	return &fakeOutbox{
		entries: []postgres.OutboxEntry{
			{ID: uuid.New(), Category: audit.CategoryContent, Payload: []byte(`{}`)},
			{ID: uuid.New(), Category: audit.CategoryGovernance, Payload: []byte(`{}`)},
			{ID: uuid.New(), Category: audit.CategoryContent, Payload: []byte(`{}`)},
		},
		published: map[uuid.UUID]bool{},
	}
}

func topicFor(c audit.EventCategory) string { return "audit." + string(c) }

func TestRelayOncePublishesAndMarks(t *testing.T) {
	outbox := newOutbox()
	producer := &fakeProducer{}
	relay := NewRelay(outbox, txcontext.NewShardedMemory(time.Second), producer, topicFor, WithBatchSize(2))

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"audit.content", "audit.governance"}, producer.topics)

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelayOnceLeavesEntriesOnProduceFailure(t *testing.T) {
	outbox := newOutbox()
	relay := NewRelay(outbox, txcontext.NewShardedMemory(time.Second), &fakeProducer{fail: true}, topicFor)

	_, err := relay.RelayOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, outbox.published)
}
