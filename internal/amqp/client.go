package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"budgettracker/internal/log"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes and consumes report messages on one direct exchange.
// Requests use a durable queue routed by queue name. Results go to the
// requester's reply queue, or to the durable result queue when a request
// names none.
type Client struct {
	url          string
	exchangeName string
	queueName    string
	resultQueue  string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName, resultQueue string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		resultQueue:  resultQueue,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queues: %w", err)
	}
	c.conn, c.channel = conn, channel
	return nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	for _, q := range []string{c.queueName, c.resultQueue} {
		if q == "" {
			continue
		}
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		// Routing key equals the queue name on the direct exchange.
		if err := ch.QueueBind(q, q, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}
	return nil
}

func (c *Client) currentChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c.channel, nil
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) publish(ctx context.Context, exchange, routingKey, correlationID string, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish to %s: %w", routingKey, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ch, err := c.currentChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: correlationID,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()
	return nil
}

func (c *Client) PublishReportRequest(ctx context.Context, msg *ReportRequestMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.exchangeName, c.queueName, msg.ID, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published report request", log.FieldOperation, log.OpPublish,
		"id", msg.ID, "year", msg.Year, "month", msg.Month, "queue", c.queueName, "reply_to", msg.ReplyTo)
	return nil
}

func (c *Client) PublishReportReady(ctx context.Context, msg *ReportReadyMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	exchange, key := c.resultRoute(msg)
	if err := c.publish(ctx, exchange, key, msg.ID, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published report result", log.FieldOperation, log.OpPublish,
		"id", msg.ID, "failed", msg.Error != "", "queue", key)
	return nil
}

// resultRoute sends a result straight to the requester's reply queue through
// the default exchange, falling back to the shared result queue.
func (c *Client) resultRoute(msg *ReportReadyMessage) (exchange, routingKey string) {
	if msg.ReplyTo != "" {
		return "", msg.ReplyTo
	}
	return c.exchangeName, c.resultQueue
}

// ConsumeReportRequests delivers requests to handler until ctx is done,
// reconnecting with backoff when the broker connection drops. A handler
// error requeues the message. Undecodable messages that still carry an id
// are answered with an error result; the rest are dropped.
func (c *Client) ConsumeReportRequests(ctx context.Context, prefetch int, handler func(context.Context, *ReportRequestMessage) error) error {
	return c.consumeWithRetry(ctx, c.queueName, prefetch, func(ctx context.Context, body []byte) (bool, error) {
		msg, err := ReportRequestMessageFromJSON(body)
		if err != nil {
			reply := malformedRequestReply(body, err)
			if reply == nil {
				return false, err
			}
			slog.WarnContext(ctx, "Rejecting malformed report request", "id", reply.ID, "error", err)
			return true, c.PublishReportReady(ctx, reply)
		}
		return true, handler(ctx, msg)
	})
}

// RequestReport publishes req and waits for its result on a private,
// server-named reply queue. The queue is exclusive to this call and is
// deleted by the broker once the call returns.
func (c *Client) RequestReport(ctx context.Context, req *ReportRequestMessage) (*ReportReadyMessage, error) {
	c.mu.Lock()
	if err := c.connectLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	ch, err := c.conn.Channel()
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open reply channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare reply queue: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume reply queue: %w", err)
	}

	req.ReplyTo = q.Name
	if err := c.PublishReportRequest(ctx, req); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return nil, fmt.Errorf("reply queue %s closed", q.Name)
			}
			msg, err := ReportReadyMessageFromJSON(delivery.Body)
			if err != nil {
				slog.WarnContext(ctx, "Skipping undecodable report result", "queue", q.Name, "error", err)
				continue
			}
			if msg.ID != req.ID {
				slog.WarnContext(ctx, "Skipping result for another request", "queue", q.Name, "id", msg.ID)
				continue
			}
			return msg, nil
		}
	}
}

// process handles one delivery body. decoded=false drops the message.
type process func(ctx context.Context, body []byte) (decoded bool, err error)

func (c *Client) consumeWithRetry(ctx context.Context, queue string, prefetch int, fn process) error {
	for attempt := 0; ; attempt++ {
		err := c.consume(ctx, queue, prefetch, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting", "queue", queue, "error", err, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		c.resetConnection()
	}
}

// resetConnection closes the current channel and connection so that the
// next call dials afresh.
func (c *Client) resetConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn, c.channel = nil, nil
}

func (c *Client) consume(ctx context.Context, queue string, prefetch int, fn process) error {
	ch, err := c.currentChannel()
	if err != nil {
		return err
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}
	msgs, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming", log.FieldOperation, log.OpConsume, "queue", queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			decoded, err := fn(ctx, delivery.Body)
			switch {
			case !decoded:
				slog.ErrorContext(ctx, "Failed to unmarshal message", "queue", queue, "error", err)
				delivery.Nack(false, false)
			case err != nil:
				slog.ErrorContext(ctx, "Failed to handle message", "queue", queue, "error", err,
					"correlation_id", delivery.CorrelationId)
				delivery.Nack(false, true)
			default:
				delivery.Ack(false)
			}
		}
	}
}

// exponentialBackoff doubles from one second, capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel closed", "dial"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
