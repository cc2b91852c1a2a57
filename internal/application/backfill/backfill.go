package backfill

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/checkpointrepo"
)

// LogSource is the slice of the ledger gateway the engine scans through.
type LogSource interface {
	Head(ctx context.Context) (uint64, error)
	FilterEvents(ctx context.Context, from, to uint64) ([]domain.LedgerEvent, error)
}

// Applier consumes decoded events; the sync service implements it.
type Applier interface {
	Apply(ctx context.Context, ev domain.LedgerEvent) error
}

// Engine re-scans historical block ranges from the last checkpoint to the
// chain head. It is the sole initial-population path and the recovery path
// for anything the live listener missed. Batches are sequential; the
// checkpoint only moves after a whole batch has been applied, so a failed
// run resumes exactly where the last fully applied batch ended.
type Engine struct {
	source        LogSource
	applier       Applier
	checkpoints   checkpointrepo.ICheckpointRepository
	streamKey     string
	batchSize     uint64
	defaultWindow uint64
	interval      time.Duration
	logger        zerolog.Logger
	running       atomic.Bool
}

func New(
	source LogSource,
	applier Applier,
	checkpoints checkpointrepo.ICheckpointRepository,
	batchSize, defaultWindow uint64,
	interval time.Duration,
	logger zerolog.Logger,
) *Engine {
	if batchSize == 0 {
		batchSize = 500
	}
	return &Engine{
		source:        source,
		applier:       applier,
		checkpoints:   checkpoints,
		streamKey:     domain.StreamMarketplaceSync,
		batchSize:     batchSize,
		defaultWindow: defaultWindow,
		interval:      interval,
		logger:        logger,
	}
}

// RunOnce performs a full catch-up pass. Any failure aborts the run with the
// checkpoint left at the last fully applied batch; events are therefore
// delivered at least once, which the idempotent applier absorbs.
func (e *Engine) RunOnce(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Debug().Msg("Backfill pass already in progress, skipping")
		return nil
	}
	defer e.running.Store(false)

	head, err := e.source.Head(ctx)
	if err != nil {
		return err
	}

	from, err := e.startBlock(ctx, head)
	if err != nil {
		return err
	}
	if from > head {
		return nil
	}

	e.logger.Info().
		Uint64("from", from).
		Uint64("head", head).
		Msg("Starting backfill pass")

	for from <= head {
		to := from + e.batchSize - 1
		if to > head {
			to = head
		}

		events, err := e.source.FilterEvents(ctx, from, to)
		if err != nil {
			return fmt.Errorf("backfill aborted at batch %d-%d: %w", from, to, err)
		}
		for _, ev := range events {
			if err := e.applier.Apply(ctx, ev); err != nil {
				return fmt.Errorf("backfill aborted at batch %d-%d: %w", from, to, err)
			}
		}

		if err := e.checkpoints.Advance(ctx, e.streamKey, to); err != nil {
			return fmt.Errorf("backfill aborted at batch %d-%d: %w", from, to, err)
		}

		e.logger.Debug().
			Uint64("from", from).
			Uint64("to", to).
			Int("events", len(events)).
			Msg("Applied backfill batch")
		from = to + 1
	}

	return nil
}

// startBlock resolves the first block to scan: one past the checkpoint, or
// a bounded window below the head when no checkpoint exists yet (initial
// population scans defaultWindow blocks, not from genesis).
func (e *Engine) startBlock(ctx context.Context, head uint64) (uint64, error) {
	cp, err := e.checkpoints.Get(ctx, e.streamKey)
	if err != nil {
		return 0, err
	}
	if cp != nil {
		return cp.LastBlock + 1, nil
	}
	if head > e.defaultWindow {
		return head - e.defaultWindow, nil
	}
	return 0, nil
}

// Run executes RunOnce on the configured interval until ctx ends. A failed
// pass is logged and retried on the next tick; the checkpoint guarantees it
// resumes where it stopped.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info().
		Dur("interval", e.interval).
		Msg("Starting backfill scheduler")

	if err := e.RunOnce(ctx); err != nil {
		e.logger.Error().Err(err).Msg("Backfill pass failed")
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Backfill scheduler stopped")
			return
		case <-ticker.C:
			if err := e.RunOnce(ctx); err != nil {
				e.logger.Error().Err(err).Msg("Backfill pass failed")
			}
		}
	}
}
