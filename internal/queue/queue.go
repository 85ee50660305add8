// Package queue implements component C9: a durable, priority-aware
// delivery path for is_critical requests, backed by a direct exchange on
// RabbitMQ. Grounded on the original service's
// app/adapters/rabbitmq_adapter.py (lazy connection behind an exclusive
// init lock, exponential reconnect, scoped ack/requeue semantics), adapted
// to github.com/rabbitmq/amqp091-go — the maintained successor to the
// abandoned streadway/amqp client the ecosystem moved to.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/crlsmrls/lixservice/internal/breaker"
	"github.com/crlsmrls/lixservice/internal/domain"
)

const (
	reconnectBase = 200 * time.Millisecond
	reconnectMax  = 10 * time.Second

	defaultExchange   = "readability.persistent"
	defaultRoutingKey = "lix.critical"
	defaultPrefetch   = 10
)

// ConnState mirrors pubsub.ConnState's vocabulary for the queue adapter's
// own connection.
type ConnState string

const (
	ConnUnknown      ConnState = "unknown"
	ConnConnected    ConnState = "connected"
	ConnDisconnected ConnState = "disconnected"
)

// ConsumerState reports whether the background consume loop is running.
type ConsumerState string

const (
	ConsumerStopped ConsumerState = "stopped"
	ConsumerRunning ConsumerState = "running"
)

// LastError records the most recent adapter failure.
type LastError struct {
	Timestamp time.Time
	Type      string
	Message   string
}

// Metrics is a point-in-time snapshot of the adapter's counters.
type Metrics struct {
	Published     uint64
	Consumed      uint64
	Errors        uint64
	LastError     *LastError
	ConnState     ConnState
	ConsumerState ConsumerState
}

// Config configures the AMQP connection and the durable topology this
// adapter declares.
type Config struct {
	Host          string
	Port          string
	User          string
	Password      string
	VHost         string
	QueueName     string
	Exchange      string
	RoutingKey    string
	PrefetchCount int
}

func (c Config) url() string {
	vhost := c.VHost
	if vhost == "" {
		vhost = "/"
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, amqpVHostSegment(vhost))
}

func amqpVHostSegment(vhost string) string {
	if vhost == "/" {
		return ""
	}
	return vhost
}

// Handler processes one delivery's decoded payload. Handlers are invoked
// in registration order for every message; any handler returning an error
// fails the whole delivery (requeued), per spec.md §4.9.
type Handler func(ctx context.Context, payload []byte) error

// Queue wraps a lazily-established AMQP channel with a breaker, exponential
// reconnect, and ack/requeue delivery semantics.
type Queue struct {
	cfg     Config
	breaker *breaker.Breaker

	initMu sync.Mutex // exclusive initialization lock, per spec.md §4.9
	conn   *amqp.Connection
	ch     *amqp.Channel

	handlersMu sync.Mutex
	handlers   []Handler

	statsMu       sync.Mutex
	published     uint64
	consumed      uint64
	errCount      uint64
	lastErr       *LastError
	connState     ConnState
	consumerState ConsumerState

	stopCh  chan struct{}
	stopped bool
}

// New builds a Queue. It does not dial; the connection is established
// lazily on first Publish/Consume.
func New(cfg Config) *Queue {
	if cfg.Exchange == "" {
		cfg.Exchange = defaultExchange
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = defaultRoutingKey
	}
	if cfg.PrefetchCount == 0 {
		cfg.PrefetchCount = defaultPrefetch
	}
	return &Queue{
		cfg:           cfg,
		breaker:       breaker.New(breaker.DefaultConfig("persistent_queue")),
		connState:     ConnUnknown,
		consumerState: ConsumerStopped,
		stopCh:        make(chan struct{}),
	}
}

// Snapshot returns the current adapter metrics.
func (q *Queue) Snapshot() Metrics {
	q.statsMu.Lock()
	defer q.statsMu.Unlock()
	return Metrics{
		Published:     q.published,
		Consumed:      q.consumed,
		Errors:        q.errCount,
		LastError:     q.lastErr,
		ConnState:     q.connState,
		ConsumerState: q.consumerState,
	}
}

// CircuitState reports the queue breaker's current snapshot, for /health.
func (q *Queue) CircuitState() domain.CircuitState { return q.breaker.Snapshot() }

// RegisterHandler appends a handler to the ordered handler list.
func (q *Queue) RegisterHandler(h Handler) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers = append(q.handlers, h)
}

// ensureChannel lazily dials the broker and declares the durable topology,
// re-opening if the previously cached channel/connection has gone away.
// Callers must already hold nothing; the init lock is exclusive.
func (q *Queue) ensureChannel() (*amqp.Channel, error) {
	q.initMu.Lock()
	defer q.initMu.Unlock()

	if q.ch != nil && !q.ch.IsClosed() {
		return q.ch, nil
	}

	conn, err := amqp.Dial(q.cfg.url())
	if err != nil {
		q.setConnState(ConnDisconnected)
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		q.setConnState(ConnDisconnected)
		return nil, err
	}

	if err := ch.ExchangeDeclare(q.cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		q.setConnState(ConnDisconnected)
		return nil, err
	}
	queueName := q.cfg.QueueName
	if queueName == "" {
		queueName = "readability.lix.critical"
	}
	queueArgs := amqp.Table{"x-max-priority": int32(9)}
	qq, err := ch.QueueDeclare(queueName, true, false, false, false, queueArgs)
	if err != nil {
		ch.Close()
		conn.Close()
		q.setConnState(ConnDisconnected)
		return nil, err
	}
	if err := ch.QueueBind(qq.Name, q.cfg.RoutingKey, q.cfg.Exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		q.setConnState(ConnDisconnected)
		return nil, err
	}
	if err := ch.Qos(q.cfg.PrefetchCount, 0, false); err != nil {
		ch.Close()
		conn.Close()
		q.setConnState(ConnDisconnected)
		return nil, err
	}

	q.conn = conn
	q.ch = ch
	q.setConnState(ConnConnected)
	return ch, nil
}

// Publish encodes payload as JSON and publishes it with persistent
// delivery mode and the given priority (clamped to [0,9]).
func (q *Queue) Publish(ctx context.Context, payload any, priority int) error {
	if priority < 0 {
		priority = 0
	}
	if priority > 9 {
		priority = 9
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Wrap(domain.ErrInvalidInput, "encoding queue payload", err)
	}

	_, err = breaker.Do(q.breaker, func() (struct{}, error) {
		ch, err := q.ensureChannel()
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, ch.PublishWithContext(ctx, q.cfg.Exchange, q.cfg.RoutingKey, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Priority:     uint8(priority),
			Body:         body,
			Timestamp:    time.Now(),
		})
	})
	if err != nil {
		q.recordError("publish", err)
		return domain.Wrap(domain.ErrDependencyUnavailable, "persistent queue publish failed", err)
	}
	q.statsMu.Lock()
	q.published++
	q.statsMu.Unlock()
	return nil
}

// Consume starts the background delivery loop, acking on success and
// requeueing (nack with requeue=true) when any handler fails. It returns
// once the initial channel is established; delivery processing continues
// in a goroutine until Stop is called.
func (q *Queue) Consume(ctx context.Context) error {
	ch, err := q.ensureChannel()
	if err != nil {
		q.recordError("consume_init", err)
		return domain.Wrap(domain.ErrDependencyUnavailable, "persistent queue consume init failed", err)
	}

	queueName := q.cfg.QueueName
	if queueName == "" {
		queueName = "readability.lix.critical"
	}
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		q.recordError("consume", err)
		return domain.Wrap(domain.ErrDependencyUnavailable, "persistent queue consume failed", err)
	}

	q.setConsumerState(ConsumerRunning)
	go q.drain(ctx, deliveries)
	return nil
}

func (q *Queue) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	backoff := reconnectBase
	for {
		select {
		case <-q.stopCh:
			q.setConsumerState(ConsumerStopped)
			return
		case d, ok := <-deliveries:
			if !ok {
				select {
				case <-q.stopCh:
					q.setConsumerState(ConsumerStopped)
					return
				default:
				}
				time.Sleep(backoff)
				backoff = nextBackoff(backoff)
				if err := q.Consume(ctx); err != nil {
					continue
				}
				return // a fresh drain goroutine is now running
			}
			backoff = reconnectBase
			q.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery runs every registered handler, in registration order,
// under one scoped transaction: all must succeed for the message to ack.
func (q *Queue) handleDelivery(ctx context.Context, d amqp.Delivery) {
	q.handlersMu.Lock()
	handlers := append([]Handler(nil), q.handlers...)
	q.handlersMu.Unlock()

	var failure error
	for _, h := range handlers {
		if err := h(ctx, d.Body); err != nil {
			failure = err
			break
		}
	}

	q.statsMu.Lock()
	q.consumed++
	q.statsMu.Unlock()

	if failure != nil {
		q.recordError("handler", failure)
		log.Error().Err(failure).Msg("persistent queue handler failed, requeueing")
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// Stop halts the consume loop and closes the channel/connection.
func (q *Queue) Stop() {
	q.initMu.Lock()
	if q.stopped {
		q.initMu.Unlock()
		return
	}
	q.stopped = true
	close(q.stopCh)
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	q.initMu.Unlock()
	q.setConnState(ConnDisconnected)
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > reconnectMax {
		return reconnectMax
	}
	return next
}

func (q *Queue) recordError(kind string, err error) {
	q.statsMu.Lock()
	q.errCount++
	q.lastErr = &LastError{Timestamp: time.Now(), Type: kind, Message: err.Error()}
	q.statsMu.Unlock()
}

func (q *Queue) setConnState(s ConnState) {
	q.statsMu.Lock()
	q.connState = s
	q.statsMu.Unlock()
}

func (q *Queue) setConsumerState(s ConsumerState) {
	q.statsMu.Lock()
	q.consumerState = s
	q.statsMu.Unlock()
}
