package listener

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

// EventSource is the slice of the ledger gateway the listener uses. The
// source owns the subscription's error channel and closes out when the
// subscription ends, however it ends.
type EventSource interface {
	SubscribeEvents(ctx context.Context, out chan<- domain.LedgerEvent) (ethereum.Subscription, error)
}

// Applier consumes decoded events; the sync service implements it.
type Applier interface {
	Apply(ctx context.Context, ev domain.LedgerEvent) error
}

// Listener subscribes to the live event streams and feeds them to the
// applier through a bounded ordered channel drained by a single consumer
// goroutine.
type Listener struct {
	source  EventSource
	applier Applier
	logger  zerolog.Logger
	buffer  int
	started atomic.Bool
}

func New(source EventSource, applier Applier, buffer int, logger zerolog.Logger) *Listener {
	if buffer <= 0 {
		buffer = 256
	}
	return &Listener{
		source:  source,
		applier: applier,
		logger:  logger,
		buffer:  buffer,
	}
}

// Start subscribes once per process; a second call is a no-op. A subscribe
// failure (missing websocket endpoint, missing contract addresses) leaves
// the listener inactive and the host process running: the backfill engine
// remains the durability backstop.
func (l *Listener) Start(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		l.logger.Debug().Msg("Listener already started")
		return
	}

	events := make(chan domain.LedgerEvent, l.buffer)
	sub, err := l.source.SubscribeEvents(ctx, events)
	if err != nil {
		l.started.Store(false)
		l.logger.Warn().Err(err).Msg("Live listener inactive, relying on backfill only")
		return
	}

	l.logger.Info().Msg("Live event listener started")
	go l.consume(ctx, sub, events)
}

// Running reports whether the subscription is active.
func (l *Listener) Running() bool {
	return l.started.Load()
}

func (l *Listener) consume(ctx context.Context, sub ethereum.Subscription, events <-chan domain.LedgerEvent) {
	defer l.started.Store(false)
	defer sub.Unsubscribe()

	// The source owns sub.Err(); selecting on it here as well would race it
	// for the single error the subscription delivers. The channel close is
	// the sole termination signal.
	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("Live event listener stopped")
			return
		case ev, ok := <-events:
			if !ok {
				l.logger.Warn().Msg("Live subscription lost, next backfill pass will recover missed events")
				return
			}
			if err := l.applier.Apply(ctx, ev); err != nil {
				// The event is dropped here; backfill re-scans by block
				// range and will re-derive it.
				l.logger.Error().Err(err).
					Str("kind", string(ev.Kind)).
					Str("tx_hash", ev.TxHash).
					Msg("Failed to apply live event")
			}
		}
	}
}
