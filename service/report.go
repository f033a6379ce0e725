package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"call-insights/apperror"
	"call-insights/constant"
	"call-insights/dto"
	"call-insights/entities"
	"call-insights/pkg/rabbitmq"
	"call-insights/pkg/storage"
	"call-insights/repository"
)

const topKeywordCount = 5

type ReportService interface {
	// ComputeReport aggregates processed calls on demand.
	ComputeReport(ctx context.Context, tenantID uint) (*dto.Report, error)
	// RequestRegeneration enqueues a snapshot job if the tenant is allowed
	// to. queueErr reports a failed enqueue separately so the caller can
	// decide whether to surface it.
	RequestRegeneration(ctx context.Context, tenant *entities.Tenant) (queueErr error, err error)
	// GenerateSnapshot writes the aggregation to a tenant-scoped artifact
	// and returns its path. Invoked by the report worker.
	GenerateSnapshot(ctx context.Context, tenantID uint) (string, error)
}

type reportService struct {
	repo  repository.Repository
	media storage.MediaStore
	queue rabbitmq.Publisher
	now   func() time.Time
}

func NewReportService(repo repository.Repository, media storage.MediaStore, queue rabbitmq.Publisher) ReportService {
	return &reportService{
		repo:  repo,
		media: media,
		queue: queue,
		now:   time.Now,
	}
}

func (s *reportService) ComputeReport(ctx context.Context, tenantID uint) (*dto.Report, error) {
	calls, err := s.repo.ListProcessedCalls(ctx, tenantID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("tenant_id", tenantID).Msg("failed to load processed calls")
		return nil, fmt.Errorf("%w: could not load processed calls", apperror.ErrInternal)
	}

	report := &dto.Report{
		TotalCalls:            len(calls),
		SentimentDistribution: map[string]int{},
		TopKeywords:           []string{},
	}

	var totalDuration int
	keywordCounts := map[string]int{}
	var keywordOrder []string

	for _, c := range calls {
		if c.Duration != nil {
			totalDuration += *c.Duration
		}

		insight, err := s.repo.FindInsightByCallRecordID(ctx, c.ID)
		if errors.Is(err, repository.ErrRecordNotFound) {
			// Processed-without-insight is an integrity anomaly; count it
			// under Unknown rather than failing the whole report.
			zerolog.Ctx(ctx).Error().Uint("call_record_id", c.ID).Msg("processed call has no insight row")
			report.SentimentDistribution[constant.SentimentUnknown]++
			continue
		}
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Uint("call_record_id", c.ID).Msg("insight lookup failed")
			return nil, fmt.Errorf("%w: insight lookup failed", apperror.ErrInternal)
		}

		if insight.Sentiment != nil {
			report.SentimentDistribution[insight.Sentiment.String()]++
		} else {
			report.SentimentDistribution[constant.SentimentUnknown]++
		}

		// Category labels iterate in sorted order so tie-breaking by first
		// encounter stays deterministic.
		categories := make([]string, 0, len(insight.Keywords))
		for category := range insight.Keywords {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			for _, kw := range insight.Keywords[category] {
				if _, seen := keywordCounts[kw]; !seen {
					keywordOrder = append(keywordOrder, kw)
				}
				keywordCounts[kw]++
			}
		}
	}

	if report.TotalCalls > 0 {
		report.AvgDuration = float64(totalDuration) / float64(report.TotalCalls)
	}

	// Stable sort keeps first-encountered order among equal counts.
	sort.SliceStable(keywordOrder, func(i, j int) bool {
		return keywordCounts[keywordOrder[i]] > keywordCounts[keywordOrder[j]]
	})
	if len(keywordOrder) > topKeywordCount {
		keywordOrder = keywordOrder[:topKeywordCount]
	}
	report.TopKeywords = append(report.TopKeywords, keywordOrder...)

	return report, nil
}

func (s *reportService) RequestRegeneration(ctx context.Context, tenant *entities.Tenant) (error, error) {
	if !tenant.CanRegenReports {
		return nil, fmt.Errorf("%w: tenant %d may not regenerate reports", apperror.ErrForbidden, tenant.ID)
	}

	if err := s.queue.PublishReportGeneration(ctx, tenant.ID); err != nil {
		return err, nil
	}
	zerolog.Ctx(ctx).Info().Uint("tenant_id", tenant.ID).Msg("queued report generation")
	return nil, nil
}

func (s *reportService) GenerateSnapshot(ctx context.Context, tenantID uint) (string, error) {
	zerolog.Ctx(ctx).Info().Uint("tenant_id", tenantID).Msg("generating report snapshot")

	report, err := s.ComputeReport(ctx, tenantID)
	if err != nil {
		return "", err
	}

	generatedAt := s.now().UTC()
	snapshot := dto.ReportSnapshot{
		TenantID:              tenantID,
		TotalCalls:            report.TotalCalls,
		AvgDuration:           report.AvgDuration,
		SentimentDistribution: report.SentimentDistribution,
		GeneratedAt:           generatedAt.Format(time.RFC3339),
	}
	document, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}

	path, err := s.media.WriteReportSnapshot(ctx, tenantID, document, generatedAt)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("tenant_id", tenantID).Msg("failed to write report snapshot")
		return "", err
	}

	zerolog.Ctx(ctx).Info().Uint("tenant_id", tenantID).Str("path", path).Msg("report snapshot written")
	return path, nil
}
