package signaling

import (
	"context"
	"sync"
	"time"

	"github.com/medrelay/telemed-api/internal/model"
)

// MailboxStore holds pending signaling messages keyed by
// (session, recipient). Delivery is at-most-once: Drain removes what it
// returns. Implementations must keep enqueue order within one mailbox;
// no ordering exists across mailboxes.
type MailboxStore interface {
	Append(ctx context.Context, sessionID, recipient string, msg *model.SignalingMessage) error
	// Drain returns the mailbox contents in enqueue order and removes the
	// mailbox. When lastSeenID is set, only messages strictly after it are
	// returned; everything up to and including it is dropped as delivered.
	Drain(ctx context.Context, sessionID, recipient, lastSeenID string) ([]*model.SignalingMessage, error)
	// Sweep removes messages enqueued before cutoff and any mailbox that
	// becomes empty, returning the number of messages dropped.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
	// Mailboxes reports the current number of non-empty mailboxes.
	Mailboxes() int
	Close() error
}

type mailboxKey struct {
	sessionID string
	recipient string
}

// maxMailboxSize bounds one mailbox. The signaling routes are
// unauthenticated, so a mailbox must not grow without limit; a real
// handshake needs a few dozen messages at most. Beyond the cap the oldest
// signals are dropped first.
const maxMailboxSize = 256

// memoryStore is the single-process default: a mutex-guarded nested map.
// Send, drain, and sweep all take the same lock, so a poll can never
// observe a partially swept mailbox.
type memoryStore struct {
	mu    sync.Mutex
	boxes map[mailboxKey][]*model.SignalingMessage
}

func NewMemoryStore() MailboxStore {
	return &memoryStore{
		boxes: make(map[mailboxKey][]*model.SignalingMessage),
	}
}

func (s *memoryStore) Append(_ context.Context, sessionID, recipient string, msg *model.SignalingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := mailboxKey{sessionID: sessionID, recipient: recipient}
	box := append(s.boxes[key], msg)
	if len(box) > maxMailboxSize {
		box = box[len(box)-maxMailboxSize:]
	}
	s.boxes[key] = box
	return nil
}

func (s *memoryStore) Drain(_ context.Context, sessionID, recipient, lastSeenID string) ([]*model.SignalingMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := mailboxKey{sessionID: sessionID, recipient: recipient}
	msgs, ok := s.boxes[key]
	if !ok {
		return nil, nil
	}
	delete(s.boxes, key)

	start := 0
	if lastSeenID != "" {
		for i, msg := range msgs {
			if msg.ID == lastSeenID {
				start = i + 1
				break
			}
		}
	}

	delivered := make([]*model.SignalingMessage, len(msgs)-start)
	copy(delivered, msgs[start:])
	return delivered, nil
}

func (s *memoryStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, msgs := range s.boxes {
		kept := msgs[:0]
		for _, msg := range msgs {
			if msg.EnqueuedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, msg)
		}
		if len(kept) == 0 {
			delete(s.boxes, key)
			continue
		}
		s.boxes[key] = kept
	}
	return removed, nil
}

func (s *memoryStore) Mailboxes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boxes)
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes = make(map[mailboxKey][]*model.SignalingMessage)
	return nil
}
