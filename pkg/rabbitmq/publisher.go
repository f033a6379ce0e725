package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"call-insights/config"
	"call-insights/constant"
	"call-insights/dto"
)

// Publisher enqueues background jobs. Implementations must be safe for
// concurrent use by request handlers.
type Publisher interface {
	PublishCallProcessing(ctx context.Context, callRecordID uint) error
	PublishReportGeneration(ctx context.Context, tenantID uint) error
}

type publisher struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQ
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) Publisher {
	return &publisher{conn: conn, cfg: cfg}
}

func (p *publisher) PublishCallProcessing(ctx context.Context, callRecordID uint) error {
	return p.publish(ctx, constant.CallProcessingRoutingKey, dto.CallProcessMessage{CallRecordID: callRecordID})
}

func (p *publisher) PublishReportGeneration(ctx context.Context, tenantID uint) error {
	return p.publish(ctx, constant.ReportGenerationRoutingKey, dto.ReportGenerateMessage{TenantID: tenantID})
}

func (p *publisher) publish(ctx context.Context, routingKey string, message any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(constant.ExchangeName, p.cfg.Kind, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, constant.ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
}
