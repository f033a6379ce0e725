package service

import (
	"context"

	"github.com/rs/zerolog"

	"call-insights/pkg/rabbitmq"
	"call-insights/repository"
)

// Sweeper re-enqueues processing jobs for records stuck unprocessed,
// recovering from enqueue failures at ingestion time. It does not
// de-duplicate against jobs already in flight; Processor's idempotency
// makes the redundant deliveries harmless.
type Sweeper interface {
	SweepPending(ctx context.Context) (int, error)
}

type sweeper struct {
	repo  repository.Repository
	queue rabbitmq.Publisher
}

func NewSweeper(repo repository.Repository, queue rabbitmq.Publisher) Sweeper {
	return &sweeper{
		repo:  repo,
		queue: queue,
	}
}

func (s *sweeper) SweepPending(ctx context.Context) (int, error) {
	ids, err := s.repo.ListPendingCallIDs(ctx)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, id := range ids {
		if err := s.queue.PublishCallProcessing(ctx, id); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Uint("call_record_id", id).Msg("failed to re-enqueue pending call")
			continue
		}
		enqueued++
	}

	zerolog.Ctx(ctx).Info().
		Int("pending", len(ids)).
		Int("enqueued", enqueued).
		Msg("sweep finished")
	return enqueued, nil
}
