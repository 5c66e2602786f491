package mq

import (
	"context"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"fuzzrun/config"
)

// RabbitMQ publishes messages to a named queue. The connection is dialed
// lazily and re-dialed when the broker drops it.
type RabbitMQ interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

type rabbitMQImpl struct {
	logger      *zap.Logger
	rabbitmqURL string
	ctx         context.Context

	mu     sync.Mutex
	conn   *amqp.Connection
	closed bool
}

type RabbitMQParams struct {
	fx.In

	Config    *config.AppConfig
	Logger    *zap.Logger
	Lifecycle fx.Lifecycle
}

// NewRabbitMQ builds the crash-message publisher. Without RABBITMQ_URL the
// queue sink is disabled and nil is returned; consumers skip nil publishers.
func NewRabbitMQ(p RabbitMQParams) RabbitMQ {
	if p.Config.RabbitMQURL == "" {
		p.Logger.Debug("no message queue configured, crash messages will not be published")
		return nil
	}

	mqCtx, cancel := context.WithCancel(context.Background())
	svc := &rabbitMQImpl{
		logger:      p.Logger,
		rabbitmqURL: p.Config.RabbitMQURL,
		ctx:         mqCtx,
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			cancel()
			svc.mu.Lock()
			defer svc.mu.Unlock()
			svc.closed = true
			if svc.conn != nil {
				return svc.conn.Close()
			}
			return nil
		},
	})
	return svc
}

func (r *rabbitMQImpl) getConnection() (*amqp.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.New("message queue is shut down")
	}
	if r.conn != nil && !r.conn.IsClosed() {
		return r.conn, nil
	}

	conn, err := amqp.Dial(r.rabbitmqURL)
	if err != nil {
		return nil, err
	}
	r.conn = conn

	closeChan := make(chan *amqp.Error, 1)
	conn.NotifyClose(closeChan)
	go func() {
		select {
		case err := <-closeChan:
			if err != nil {
				r.logger.Error("message queue connection closed", zap.Error(err))
			}
		case <-r.ctx.Done():
		}
	}()

	return conn, nil
}

func (r *rabbitMQImpl) Publish(ctx context.Context, queue string, body []byte) error {
	conn, err := r.getConnection()
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		return err
	}
	defer channel.Close()

	q, err := channel.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	return channel.PublishWithContext(ctx,
		"",     // exchange
		q.Name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
}
