package signaling

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/pkg/errors"
	"github.com/medrelay/telemed-api/pkg/metrics"
)

const (
	DefaultMessageTTL    = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Relay is the store-and-forward mailbox two browsers use to exchange
// WebRTC offers, answers, and ICE candidates. The server never inspects a
// signal beyond its optional type tag; it only orders, holds, and delivers.
//
// Signaling state is intentionally ephemeral: a lost message means the
// browsers renegotiate, which WebRTC tolerates far better than a stale
// replay confusing either peer's state machine.
type Relay struct {
	store    MailboxStore
	sessions SessionChecker
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	ttl           time.Duration
	sweepInterval time.Duration
}

type RelayOption func(*Relay)

func WithTTL(ttl time.Duration) RelayOption {
	return func(r *Relay) { r.ttl = ttl }
}

func WithSweepInterval(interval time.Duration) RelayOption {
	return func(r *Relay) { r.sweepInterval = interval }
}

func WithMetrics(m *metrics.Metrics) RelayOption {
	return func(r *Relay) { r.metrics = m }
}

func NewRelay(store MailboxStore, sessions SessionChecker, logger zerolog.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		store:         store,
		sessions:      sessions,
		logger:        logger,
		ttl:           DefaultMessageTTL,
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send enqueues one signal for the recipient's mailbox.
func (r *Relay) Send(ctx context.Context, sessionID string, req *model.SendSignalRequest) (*model.SignalingMessage, error) {
	if req.From == "" {
		return nil, errors.NewValidation("from is required")
	}
	if req.To == "" {
		return nil, errors.NewValidation("to is required")
	}
	if len(req.Signal) == 0 {
		return nil, errors.NewValidation("signal is required")
	}

	if err := r.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}

	msg := &model.SignalingMessage{
		ID:         newSignalID(),
		From:       req.From,
		To:         req.To,
		Signal:     req.Signal,
		EnqueuedAt: time.Now().UTC(),
	}

	if err := r.store.Append(ctx, sessionID, req.To, msg); err != nil {
		return nil, errors.NewInternal(err)
	}

	if r.metrics != nil {
		r.metrics.SignalsEnqueued.Inc()
		r.metrics.ActiveMailboxes.Set(float64(r.store.Mailboxes()))
	}

	r.logger.Debug().
		Str("session_id", sessionID).
		Str("signal_type", msg.SignalType()).
		Str("signal_id", msg.ID).
		Msg("signal enqueued")

	return msg, nil
}

// Poll delivers and removes everything pending for (session, user), in
// enqueue order. With lastSeenID set, only messages strictly after that id
// are delivered; a repeat poll with no new send in between returns empty.
func (r *Relay) Poll(ctx context.Context, sessionID, userID, lastSeenID string) ([]*model.SignalingMessage, error) {
	if userID == "" {
		return nil, errors.NewValidation("userId is required")
	}

	if err := r.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}

	msgs, err := r.store.Drain(ctx, sessionID, userID, lastSeenID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if msgs == nil {
		msgs = []*model.SignalingMessage{}
	}

	if r.metrics != nil && len(msgs) > 0 {
		r.metrics.SignalsDelivered.Add(float64(len(msgs)))
		r.metrics.ActiveMailboxes.Set(float64(r.store.Mailboxes()))
	}

	return msgs, nil
}

// StartSweeper runs the TTL sweep until ctx is cancelled. Abandoned
// handshakes must not leak mailbox state indefinitely.
func (r *Relay) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.store.Sweep(ctx, time.Now().UTC().Add(-r.ttl))
			if err != nil {
				r.logger.Error().Err(err).Msg("signaling sweep failed")
				continue
			}
			if removed > 0 {
				if r.metrics != nil {
					r.metrics.SignalsExpired.Add(float64(removed))
					r.metrics.ActiveMailboxes.Set(float64(r.store.Mailboxes()))
				}
				r.logger.Debug().Int("removed", removed).Msg("expired signals swept")
			}
		}
	}
}

func (r *Relay) requireSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.NewValidation("sessionId is required")
	}
	exists, err := r.sessions.Exists(ctx, sessionID)
	if err != nil {
		return errors.NewInternal(err)
	}
	if !exists {
		return errors.NewNotFound("session", nil)
	}
	return nil
}

// newSignalID builds a time-and-random id. Ordering within a mailbox comes
// from list position, not from comparing ids, so same-millisecond ids are
// harmless.
func newSignalID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
