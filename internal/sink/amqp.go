package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/streadway/amqp"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/types"
)

// publisher is the subset of *amqp.Channel the sink needs.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink publishes each result as a persistent JSON message on a durable
// queue through the default exchange.
type AMQPSink struct {
	queue      string
	ch         publisher
	conn       io.Closer
	maxElapsed time.Duration
	log        *logger.Logger
}

// DialAMQP connects, opens a channel and declares the durable queue.
func DialAMQP(url, queue string, log *logger.Logger) (*AMQPSink, error) {
	if url == "" || queue == "" {
		return nil, fmt.Errorf("amqp url and queue are required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP server: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return newAMQPSink(ch, conn, queue, log), nil
}

func newAMQPSink(ch publisher, conn io.Closer, queue string, log *logger.Logger) *AMQPSink {
	if log == nil {
		log = logger.New()
	}
	return &AMQPSink{
		queue:      queue,
		ch:         ch,
		conn:       conn,
		maxElapsed: 10 * time.Second,
		log:        log.Component("sink.amqp"),
	}
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Publish(ctx context.Context, res types.CallResult) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"recording_id": res.RecordingID,
			"job_id":       res.JobID,
		},
	}
	if res.Result != nil {
		msg.MessageId = res.Result.EvaluationID
		msg.Headers["campaign"] = res.Result.Campaign
		msg.Headers["auto_fail"] = res.Result.AutoFailTriggered
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = s.maxElapsed
	attempt := 0
	op := func() error {
		attempt++
		return s.ch.Publish("", s.queue, false, false, msg)
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("publish to %s: %w", s.queue, err)
	}
	s.log.WithCall(res.RecordingID, res.JobID).WithField("attempts", attempt).Debug("result published")
	return nil
}

func (s *AMQPSink) Close() error {
	var first error
	if s.ch != nil {
		first = s.ch.Close()
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
