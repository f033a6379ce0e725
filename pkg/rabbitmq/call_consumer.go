package rabbitmq

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"call-insights/config"
	"call-insights/constant"
)

// CallConsumer drives the call-processing lane. Unlike the plain consumer
// it retries each message with exponential backoff and dead-letters it when
// retries are exhausted, so a transient database failure does not drop a
// call permanently.
type CallConsumer[T any] interface {
	Consume(ctx context.Context, dependencies T) error
}

type callConsumer[T any] struct {
	conn       *amqp.Connection
	cfg        *config.RabbitMQ
	handler    func(ctx context.Context, msg amqp.Delivery, dependencies T) error
	numWorkers int
}

func (c callConsumer[T]) Consume(ctx context.Context, dependencies T) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(constant.ExchangeName, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", constant.ExchangeName).Msg("failed to declare exchange")
		return err
	}

	err = ch.ExchangeDeclare(constant.CallProcessingDLX, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", constant.CallProcessingDLX).Msg("failed to declare dlx")
		return err
	}

	dlq, err := ch.QueueDeclare(constant.CallProcessingDLQ, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", constant.CallProcessingDLQ).Msg("failed to declare dlq")
		return err
	}

	err = ch.QueueBind(dlq.Name, constant.CallProcessingDLQKey, constant.CallProcessingDLX, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Msg("failed to bind dlq")
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    constant.CallProcessingDLX,
		"x-dead-letter-routing-key": constant.CallProcessingDLQKey,
	}
	q, err := ch.QueueDeclare(constant.CallProcessingQueue, true, false, false, false, args)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", constant.CallProcessingQueue).Msg("failed to declare queue")
		return err
	}

	err = ch.QueueBind(q.Name, constant.CallProcessingRoutingKey, constant.ExchangeName, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", constant.CallProcessingQueue).Msg("failed to bind queue")
		return err
	}

	err = ch.Qos(c.numWorkers, 0, false)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", constant.CallProcessingQueue).Msg("failed to set QoS")
		return err
	}

	deliveries, err := ch.Consume(constant.CallProcessingQueue, "", false, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", constant.CallProcessingQueue).Msg("failed to consume queue")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("queue", constant.CallProcessingQueue).
		Str("routing_key", constant.CallProcessingRoutingKey).
		Int("workers", c.numWorkers).
		Msg("call processing consumer started")

	jobs := make(chan amqp.Delivery, c.numWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= c.numWorkers; i++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()
			for msg := range jobs {
				operation := func() (string, error) {
					if err := c.handler(ctx, msg, dependencies); err != nil {
						return "", err
					}
					return "", nil
				}

				bo := backoff.NewExponentialBackOff()
				bo.MaxInterval = 10 * time.Second

				_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(5))
				if err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Int("worker_id", workerId).Msg("failed to handle message after all retries")
					if nackErr := msg.Nack(false, false); nackErr != nil {
						zerolog.Ctx(ctx).Error().Err(nackErr).Msg("failed to nack message to send to DLQ")
					}
				} else {
					if ackErr := msg.Ack(false); ackErr != nil {
						zerolog.Ctx(ctx).Error().Err(ackErr).Msg("failed to acknowledge message")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}

			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}

func NewCallConsumer[T any](
	conn *amqp.Connection,
	cfg *config.RabbitMQ,
	numWorkers int,
	handler func(ctx context.Context, msg amqp.Delivery, dependencies T) error,
) CallConsumer[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &callConsumer[T]{
		conn:       conn,
		cfg:        cfg,
		handler:    handler,
		numWorkers: numWorkers,
	}
}
