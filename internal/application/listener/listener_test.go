package listener

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type fakeSubscription struct {
	errs         chan error
	once         sync.Once
	unsubscribed atomic.Bool
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{errs: make(chan error, 1)}
}

func (s *fakeSubscription) Err() <-chan error { return s.errs }

func (s *fakeSubscription) Unsubscribe() {
	s.unsubscribed.Store(true)
	s.once.Do(func() { close(s.errs) })
}

// fakeSource follows the gateway's forwarder contract: it owns the
// subscription error channel and closes out when the subscription dies.
type fakeSource struct {
	mu         sync.Mutex
	subscribes int
	failWith   error
	out        chan domain.LedgerEvent
	sub        *fakeSubscription
}

func (s *fakeSource) SubscribeEvents(_ context.Context, out chan<- domain.LedgerEvent) (ethereum.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribes++
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.out = make(chan domain.LedgerEvent)
	s.sub = newFakeSubscription()
	go func(in <-chan domain.LedgerEvent, errs <-chan error) {
		defer close(out)
		for {
			select {
			case <-errs:
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				out <- ev
			}
		}
	}(s.out, s.sub.errs)
	return s.sub, nil
}

// die simulates the subscription failing: the forwarder consumes the single
// delivered error and closes the event channel.
func (s *fakeSource) die(err error) {
	s.sub.errs <- err
}

type countingApplier struct {
	mu      sync.Mutex
	applied []domain.LedgerEvent
	failOn  string
}

func (a *countingApplier) Apply(_ context.Context, ev domain.LedgerEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failOn != "" && ev.TxHash == a.failOn {
		return errors.New("store unavailable")
	}
	a.applied = append(a.applied, ev)
	return nil
}

func (a *countingApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestListenerDeliversInOrder(t *testing.T) {
	source := &fakeSource{}
	applier := &countingApplier{}
	l := New(source, applier, 16, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	require.True(t, l.Running())

	for i := 0; i < 3; i++ {
		source.out <- domain.LedgerEvent{Kind: domain.EventCreditsPurchased, BlockNumber: uint64(i)}
	}
	waitFor(t, func() bool { return applier.count() == 3 })

	applier.mu.Lock()
	defer applier.mu.Unlock()
	for i, ev := range applier.applied {
		assert.Equal(t, uint64(i), ev.BlockNumber, "single consumer preserves arrival order")
	}
}

func TestListenerStartIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	l := New(source, &countingApplier{}, 16, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	l.Start(ctx)
	l.Start(ctx)

	assert.Equal(t, 1, source.subscribes, "one subscription per process")
}

func TestListenerSubscribeFailureDegrades(t *testing.T) {
	source := &fakeSource{failWith: errors.New("websocket endpoint not configured")}
	l := New(source, &countingApplier{}, 16, zerolog.Nop())

	l.Start(context.Background())
	assert.False(t, l.Running(), "a failed subscription leaves the listener inactive, not the process dead")
}

func TestListenerApplyErrorDropsEvent(t *testing.T) {
	source := &fakeSource{}
	applier := &countingApplier{failOn: "0xbad"}
	l := New(source, applier, 16, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	// The failing event must not wedge the consumer.
	source.out <- domain.LedgerEvent{Kind: domain.EventCreditsPurchased, TxHash: "0xbad"}
	source.out <- domain.LedgerEvent{Kind: domain.EventCreditsPurchased, TxHash: "0xgood"}

	waitFor(t, func() bool { return applier.count() == 1 })
	assert.Equal(t, "0xgood", applier.applied[0].TxHash)
}

func TestListenerStopsWhenSourceConsumesSubscriptionError(t *testing.T) {
	source := &fakeSource{}
	applier := &countingApplier{}
	l := New(source, applier, 16, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	require.True(t, l.Running())

	source.out <- domain.LedgerEvent{Kind: domain.EventCreditsPurchased, TxHash: "0x1"}
	waitFor(t, func() bool { return applier.count() == 1 })

	// The subscription delivers exactly one error and the source's forwarder
	// takes it; the consumer must still notice the death via the channel
	// close rather than waiting on an error that will never arrive again.
	source.die(errors.New("connection reset"))
	waitFor(t, func() bool { return !l.Running() })
	assert.True(t, source.sub.unsubscribed.Load(), "a dead stream is unsubscribed, not leaked")
}
