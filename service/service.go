package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"call-insights/apperror"
	"call-insights/dto"
	"call-insights/entities"
	"call-insights/pkg/rabbitmq"
	"call-insights/pkg/storage"
	"call-insights/repository"
)

// Service covers the tenant-facing call operations: ingestion, listing and
// insight retrieval.
type Service interface {
	CreateCall(ctx context.Context, tenant *entities.Tenant, meta dto.CallCreate, filename string, recording io.Reader) (*dto.CallCreateResult, error)
	ListCalls(ctx context.Context, tenant *entities.Tenant, filter dto.ListFilter) ([]dto.CallRead, error)
	GetInsight(ctx context.Context, tenant *entities.Tenant, callID string) (*dto.InsightRead, error)
}

type service struct {
	repo  repository.Repository
	media storage.MediaStore
	queue rabbitmq.Publisher
}

func NewService(repo repository.Repository, media storage.MediaStore, queue rabbitmq.Publisher) Service {
	return &service{
		repo:  repo,
		media: media,
		queue: queue,
	}
}

func (s *service) CreateCall(ctx context.Context, tenant *entities.Tenant, meta dto.CallCreate, filename string, recording io.Reader) (*dto.CallCreateResult, error) {
	if meta.CallID == "" {
		return nil, fmt.Errorf("%w: call_id is required", apperror.ErrValidation)
	}

	exists, err := s.repo.CallIDExists(ctx, meta.CallID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("call_id", meta.CallID).Msg("call_id lookup failed")
		return nil, fmt.Errorf("%w: could not verify call_id", apperror.ErrInternal)
	}
	if exists {
		return nil, fmt.Errorf("%w: call_id already registered", apperror.ErrValidation)
	}

	path, err := s.media.SaveRecording(ctx, tenant.ID, filename, recording)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("tenant_id", tenant.ID).Msg("failed to store recording")
		return nil, fmt.Errorf("%w: recording storage failed", apperror.ErrInternal)
	}

	record := &entities.CallRecord{
		TenantID:      tenant.ID,
		CallID:        meta.CallID,
		Caller:        meta.Caller,
		Callee:        meta.Callee,
		StartTime:     meta.StartTime,
		EndTime:       meta.EndTime,
		Duration:      meta.Duration,
		RecordingPath: path,
		IsProcessed:   false,
	}
	if err := s.repo.CreateCallRecord(ctx, record); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("call_id", meta.CallID).Msg("failed to create call record")
		return nil, fmt.Errorf("%w: could not persist call record", apperror.ErrInternal)
	}

	zerolog.Ctx(ctx).Info().
		Uint("call_record_id", record.ID).
		Uint("tenant_id", tenant.ID).
		Str("call_id", record.CallID).
		Msg("call record created")

	result := &dto.CallCreateResult{Record: record}
	if err := s.queue.PublishCallProcessing(ctx, record.ID); err != nil {
		// Non-fatal: the record stays pending until SweepPending
		// re-enqueues it.
		result.QueueErr = err
	}
	return result, nil
}

func (s *service) ListCalls(ctx context.Context, tenant *entities.Tenant, filter dto.ListFilter) ([]dto.CallRead, error) {
	records, err := s.repo.ListCalls(ctx, tenant.ID, clampFilter(filter))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("tenant_id", tenant.ID).Msg("failed to list calls")
		return nil, fmt.Errorf("%w: could not list calls", apperror.ErrInternal)
	}

	out := make([]dto.CallRead, 0, len(records))
	for _, r := range records {
		out = append(out, dto.CallRead{
			ID:            r.ID,
			CallID:        r.CallID,
			Caller:        r.Caller,
			Callee:        r.Callee,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			Duration:      r.Duration,
			IsProcessed:   r.IsProcessed,
			RecordingPath: r.RecordingPath,
		})
	}
	return out, nil
}

func (s *service) GetInsight(ctx context.Context, tenant *entities.Tenant, callID string) (*dto.InsightRead, error) {
	record, err := s.repo.FindCallForTenant(ctx, tenant.ID, callID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: call %s", apperror.ErrNotFound, callID)
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("call_id", callID).Msg("call lookup failed")
		return nil, fmt.Errorf("%w: call lookup failed", apperror.ErrInternal)
	}

	if !record.IsProcessed {
		return nil, fmt.Errorf("%w: insight for call %s", apperror.ErrNotReady, callID)
	}

	insight, err := s.repo.FindInsightByCallRecordID(ctx, record.ID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		// Processed without an insight row violates the pipeline invariant.
		return nil, fmt.Errorf("%w: insight missing for processed call %s", apperror.ErrIntegrity, callID)
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("call_id", callID).Msg("insight lookup failed")
		return nil, fmt.Errorf("%w: insight lookup failed", apperror.ErrInternal)
	}

	return &dto.InsightRead{
		Transcription: insight.Transcription,
		Sentiment:     insight.Sentiment,
		Keywords:      insight.Keywords,
		Summary:       insight.Summary,
		CreatedAt:     insight.CreatedAt,
	}, nil
}

// clampFilter applies the pagination defaults: limit in [1,200], default 20.
func clampFilter(f dto.ListFilter) dto.ListFilter {
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit < 1 {
		f.Limit = 1
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
