package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/pkg/errors"
)

type stubChecker struct {
	exists bool
}

func (s *stubChecker) Exists(context.Context, string) (bool, error) {
	return s.exists, nil
}

func newTestRelay(exists bool) *Relay {
	return NewRelay(NewMemoryStore(), &stubChecker{exists: exists}, zerolog.Nop())
}

func offer(body string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type":"offer","sdp":%q}`, body))
}

func TestRelaySendValidation(t *testing.T) {
	relay := newTestRelay(true)
	ctx := context.Background()

	cases := []struct {
		name string
		req  *model.SendSignalRequest
	}{
		{"missing from", &model.SendSignalRequest{To: "b", Signal: offer("x")}},
		{"missing to", &model.SendSignalRequest{From: "a", Signal: offer("x")}},
		{"missing signal", &model.SendSignalRequest{From: "a", To: "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := relay.Send(ctx, "session-1", tc.req)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrValidation))
		})
	}
}

func TestRelaySendUnknownSession(t *testing.T) {
	relay := newTestRelay(false)

	_, err := relay.Send(context.Background(), "nope", &model.SendSignalRequest{
		From: "a", To: "b", Signal: offer("x"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestRelayPollValidation(t *testing.T) {
	relay := newTestRelay(true)

	_, err := relay.Poll(context.Background(), "session-1", "", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
}

func TestRelayDeliversInEnqueueOrder(t *testing.T) {
	relay := newTestRelay(true)
	ctx := context.Background()

	var sent []string
	for i := 0; i < 5; i++ {
		msg, err := relay.Send(ctx, "session-1", &model.SendSignalRequest{
			From: "a", To: "b", Signal: offer(fmt.Sprintf("sdp-%d", i)),
		})
		require.NoError(t, err)
		sent = append(sent, msg.ID)
	}

	delivered, err := relay.Poll(ctx, "session-1", "b", "")
	require.NoError(t, err)
	require.Len(t, delivered, 5)
	for i, msg := range delivered {
		assert.Equal(t, sent[i], msg.ID)
		assert.Equal(t, "a", msg.From)
		assert.Equal(t, "offer", msg.SignalType())
	}
}

func TestRelayAtMostOnceDelivery(t *testing.T) {
	relay := newTestRelay(true)
	ctx := context.Background()

	_, err := relay.Send(ctx, "session-1", &model.SendSignalRequest{
		From: "a", To: "b", Signal: offer("x"),
	})
	require.NoError(t, err)

	first, err := relay.Poll(ctx, "session-1", "b", "")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := relay.Poll(ctx, "session-1", "b", "")
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestRelayLastSeenIDSkipsDelivered(t *testing.T) {
	store := NewMemoryStore()
	relay := NewRelay(store, &stubChecker{exists: true}, zerolog.Nop())
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		msg, err := relay.Send(ctx, "session-1", &model.SendSignalRequest{
			From: "a", To: "b", Signal: offer(fmt.Sprintf("sdp-%d", i)),
		})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	delivered, err := relay.Poll(ctx, "session-1", "b", ids[1])
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, ids[2], delivered[0].ID)
}

func TestRelayMailboxIsolation(t *testing.T) {
	relay := newTestRelay(true)
	ctx := context.Background()

	_, err := relay.Send(ctx, "session-1", &model.SendSignalRequest{
		From: "a", To: "b", Signal: offer("for b"),
	})
	require.NoError(t, err)
	_, err = relay.Send(ctx, "session-2", &model.SendSignalRequest{
		From: "a", To: "b", Signal: offer("other session"),
	})
	require.NoError(t, err)

	delivered, err := relay.Poll(ctx, "session-1", "a", "")
	require.NoError(t, err)
	assert.Empty(t, delivered)

	delivered, err = relay.Poll(ctx, "session-1", "b", "")
	require.NoError(t, err)
	assert.Len(t, delivered, 1)

	delivered, err = relay.Poll(ctx, "session-2", "b", "")
	require.NoError(t, err)
	assert.Len(t, delivered, 1)
}

func TestMemoryStoreSweepExpiresOldMessages(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	old := &model.SignalingMessage{
		ID:         "old",
		From:       "a",
		To:         "b",
		Signal:     offer("stale"),
		EnqueuedAt: time.Now().UTC().Add(-10 * time.Minute),
	}
	fresh := &model.SignalingMessage{
		ID:         "fresh",
		From:       "a",
		To:         "b",
		Signal:     offer("fresh"),
		EnqueuedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Append(ctx, "session-1", "b", old))
	require.NoError(t, store.Append(ctx, "session-1", "b", fresh))
	require.NoError(t, store.Append(ctx, "session-2", "c", &model.SignalingMessage{
		ID:         "abandoned",
		EnqueuedAt: time.Now().UTC().Add(-10 * time.Minute),
	}))

	removed, err := store.Sweep(ctx, time.Now().UTC().Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// Emptied mailboxes are pruned, surviving messages stay.
	assert.Equal(t, 1, store.Mailboxes())

	delivered, err := store.Drain(ctx, "session-1", "b", "")
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "fresh", delivered[0].ID)
}

func TestRelaySweeperPrunesAbandonedSignals(t *testing.T) {
	store := NewMemoryStore()
	relay := NewRelay(store, &stubChecker{exists: true}, zerolog.Nop(),
		WithTTL(20*time.Millisecond),
		WithSweepInterval(10*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.StartSweeper(ctx)

	_, err := relay.Send(ctx, "session-1", &model.SendSignalRequest{
		From: "a", To: "b", Signal: offer("abandoned"),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return store.Mailboxes() == 0
	}, time.Second, 5*time.Millisecond)

	delivered, err := relay.Poll(ctx, "session-1", "b", "")
	require.NoError(t, err)
	assert.Empty(t, delivered)
}

func TestMemoryStoreCapsMailboxSize(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < maxMailboxSize+10; i++ {
		require.NoError(t, store.Append(ctx, "session-1", "b", &model.SignalingMessage{
			ID:         fmt.Sprintf("sig-%d", i),
			EnqueuedAt: time.Now().UTC(),
		}))
	}

	delivered, err := store.Drain(ctx, "session-1", "b", "")
	require.NoError(t, err)
	require.Len(t, delivered, maxMailboxSize)

	// The oldest messages are the ones dropped.
	assert.Equal(t, "sig-10", delivered[0].ID)
	assert.Equal(t, fmt.Sprintf("sig-%d", maxMailboxSize+9), delivered[len(delivered)-1].ID)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	relay := newTestRelay(true)
	ctx := context.Background()

	const senders = 8
	const perSender = 25

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				_, err := relay.Send(ctx, "session-1", &model.SendSignalRequest{
					From: fmt.Sprintf("peer-%d", n), To: "b", Signal: offer("x"),
				})
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	delivered, err := relay.Poll(ctx, "session-1", "b", "")
	require.NoError(t, err)
	assert.Len(t, delivered, senders*perSender)
}
