package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"call-insights/entities"
	"call-insights/repository"
)

// Processor consumes call-processing jobs. Process must tolerate
// redelivery: the queue may hand the same record to two workers, so an
// already-processed record is a no-op and the unique index on the insight's
// call_record_id backstops any race.
type Processor interface {
	Process(ctx context.Context, callRecordID uint) error
}

type processor struct {
	repo     repository.Repository
	analyzer Analyzer
}

func NewProcessor(repo repository.Repository, analyzer Analyzer) Processor {
	return &processor{
		repo:     repo,
		analyzer: analyzer,
	}
}

func (p *processor) Process(ctx context.Context, callRecordID uint) error {
	zerolog.Ctx(ctx).Info().Uint("call_record_id", callRecordID).Msg("processing call record")

	record, err := p.repo.FindCallByID(ctx, callRecordID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		// Terminal: the referenced record will never appear, so the job is
		// dropped instead of retried.
		zerolog.Ctx(ctx).Error().Uint("call_record_id", callRecordID).Msg("call record not found, dropping job")
		return nil
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("call_record_id", callRecordID).Msg("failed to load call record")
		return err
	}

	if record.IsProcessed {
		zerolog.Ctx(ctx).Info().Uint("call_record_id", callRecordID).Msg("call record already processed")
		return nil
	}

	result, err := p.analyzer.Analyze(ctx, record)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("call_record_id", callRecordID).Msg("analysis failed")
		return err
	}

	insight := &entities.CallInsight{
		CallRecordID:  record.ID,
		Transcription: result.Transcription,
		Sentiment:     result.Sentiment,
		Keywords:      result.Keywords,
		Summary:       result.Summary,
	}
	if err := p.repo.SaveInsightMarkProcessed(ctx, insight); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("call_record_id", callRecordID).Msg("failed to persist insight")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Uint("call_record_id", callRecordID).
		Str("call_id", record.CallID).
		Msg("call record processed")
	return nil
}
