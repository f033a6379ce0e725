package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"call-insights/dto"
	"call-insights/service"
)

type ServiceDependencies struct {
	Processor service.Processor
	Reports   service.ReportService
}

func CallProcessHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var job dto.CallProcessMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal call processing message")
		return err
	}

	return deps.Processor.Process(ctx, job.CallRecordID)
}

func ReportGenerateHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var job dto.ReportGenerateMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal report generation message")
		return err
	}

	_, err := deps.Reports.GenerateSnapshot(ctx, job.TenantID)
	return err
}
