package pubsub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/rs/zerolog/log"

	"github.com/crlsmrls/lixservice/internal/breaker"
	"github.com/crlsmrls/lixservice/internal/domain"
	"github.com/crlsmrls/lixservice/metrics"
)

// ConnState is the adapter's lazily-established subscribe connection
// state, surfaced through Metrics for /health.
type ConnState string

const (
	ConnUnknown      ConnState = "unknown"
	ConnConnected    ConnState = "connected"
	ConnDisconnected ConnState = "disconnected"
)

const (
	reconnectBase = 200 * time.Millisecond
	reconnectMax  = 10 * time.Second
	publishRetries = defaultRetries
	defaultRetries = 2
	opTimeout      = 2 * time.Second
)

// LastError records the most recent adapter failure, for /health reporting.
type LastError struct {
	Timestamp time.Time
	Type      string
	Message   string
}

// Metrics is a point-in-time snapshot of the adapter's counters.
type Metrics struct {
	Published      uint64
	Consumed       uint64
	Errors         uint64
	LastError      *LastError
	ConnState      ConnState
	ConsumerActive bool
}

// Handler processes one normalized envelope received on a channel and
// returns the content to reply with, or an error.
type Handler func(ctx context.Context, env Envelope) (any, error)

// Config configures the Redis connection the router publishes and
// subscribes through.
type Config struct {
	Host     string
	Port     string
	DB       int
	Password string
}

// Router subscribes to the fixed channel set, dispatches inbound messages
// to per-channel handlers, answers heartbeats, and publishes lifecycle
// status to `control`, per spec.md §4.8.
type Router struct {
	cfg         Config
	service     string
	domain      string // primary channel this process answers on; recorded only, every Router subscribes to the full fixed set
	breaker     *breaker.Breaker
	metricsFunc func() map[string]any

	pool *redis.Pool

	handlersMu sync.RWMutex
	handlers   map[string]Handler

	connMu   sync.Mutex
	subConn  redis.Conn
	psc      *redis.PubSubConn
	connState ConnState

	statsMu   sync.Mutex
	published uint64
	consumed  uint64
	errCount  uint64
	lastErr   *LastError

	stopCh  chan struct{}
	stopped bool
}

// New builds a Router. service is the name this process identifies as on
// the `control` channel; domainChannel names the primary capability this
// process answers on (e.g. "lix") and is recorded on the Router only. Every
// Router subscribes to the full fixed channel set regardless.
func New(cfg Config, service, domainChannel string) *Router {
	pool := &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			opts := []redis.DialOption{
				redis.DialDatabase(cfg.DB),
				redis.DialConnectTimeout(opTimeout),
			}
			if cfg.Password != "" {
				opts = append(opts, redis.DialPassword(cfg.Password))
			}
			return redis.Dial("tcp", cfg.Host+":"+cfg.Port, opts...)
		},
	}

	return &Router{
		cfg:       cfg,
		service:   service,
		domain:    domainChannel,
		breaker:   breaker.New(breaker.DefaultConfig("pubsub")),
		pool:      pool,
		handlers:  make(map[string]Handler),
		connState: ConnUnknown,
		stopCh:    make(chan struct{}),
	}
}

// WithMetricsFunc installs a callback returning arbitrary metrics to embed
// in heartbeat pong replies (e.g. cache hit ratio).
func (r *Router) WithMetricsFunc(fn func() map[string]any) *Router {
	r.metricsFunc = fn
	return r
}

// RegisterHandler attaches a Handler for a channel. Only names in Channels
// are meaningful; registering any other name is inert.
func (r *Router) RegisterHandler(channel string, h Handler) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	r.handlers[channel] = h
}

// Start subscribes to the full fixed channel set, publishes an online
// status to `control`, and begins dispatching in a background goroutine.
func (r *Router) Start(ctx context.Context) error {
	conn, err := r.ensureSubConn()
	if err != nil {
		return err
	}

	if err := conn.Subscribe(channelArgs()...); err != nil {
		r.recordError("subscribe", err)
		return err
	}

	r.publishStatus(ctx, "online")
	go r.loop(ctx)
	return nil
}

// Stop publishes an offline status, unsubscribes, and drains the
// subscribe connection.
func (r *Router) Stop(ctx context.Context) {
	r.connMu.Lock()
	if r.stopped {
		r.connMu.Unlock()
		return
	}
	r.stopped = true
	r.connMu.Unlock()

	r.publishStatus(ctx, "offline")

	close(r.stopCh)

	r.connMu.Lock()
	if r.psc != nil {
		_ = r.psc.Unsubscribe()
		_ = r.subConn.Close()
		r.connState = ConnDisconnected
	}
	r.connMu.Unlock()
}

func (r *Router) publishStatus(ctx context.Context, status string) {
	r.handlersMu.RLock()
	caps := make([]string, 0, len(r.handlers))
	for ch := range r.handlers {
		caps = append(caps, ch)
	}
	r.handlersMu.RUnlock()

	msg := StatusMessage{
		Action:       "status",
		Service:      r.service,
		Status:       status,
		Capabilities: caps,
		Timestamp:    time.Now(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		r.recordError("marshal", err)
		return
	}
	_ = r.Publish(ctx, "control", payload)
}

// Publish sends a raw payload to a channel through the breaker, with
// bounded retry on a fresh pooled connection.
func (r *Router) Publish(ctx context.Context, channel string, payload []byte) error {
	_, err := breaker.Do(r.breaker, func() (int, error) {
		var lastErr error
		for attempt := 0; attempt <= publishRetries; attempt++ {
			conn := r.pool.Get()
			n, pubErr := redis.Int(conn.Do("PUBLISH", channel, payload))
			conn.Close()
			if pubErr == nil {
				return n, nil
			}
			lastErr = pubErr
		}
		return 0, lastErr
	})
	if err != nil {
		r.recordError("publish", err)
		return err
	}
	r.statsMu.Lock()
	r.published++
	r.statsMu.Unlock()
	metrics.IncPubSubPublished()
	return nil
}

// Reply publishes a correlated reply to a channel.
func (r *Router) Reply(ctx context.Context, channel string, reply Reply) error {
	reply.Timestamp = time.Now()
	payload, err := MarshalReply(reply)
	if err != nil {
		r.recordError("marshal", err)
		return err
	}
	return r.Publish(ctx, channel, payload)
}

func (r *Router) ensureSubConn() (*redis.PubSubConn, error) {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	if r.psc != nil {
		return r.psc, nil
	}

	conn, err := redis.Dial("tcp", r.cfg.Host+":"+r.cfg.Port,
		redis.DialDatabase(r.cfg.DB),
		redis.DialConnectTimeout(opTimeout))
	if err != nil {
		return nil, err
	}
	if r.cfg.Password != "" {
		if _, err := conn.Do("AUTH", r.cfg.Password); err != nil {
			conn.Close()
			return nil, err
		}
	}

	r.subConn = conn
	r.psc = &redis.PubSubConn{Conn: conn}
	r.connState = ConnConnected
	return r.psc, nil
}

// loop drains the subscribe connection, dispatching messages and
// reconnecting with exponential backoff when the connection drops.
func (r *Router) loop(ctx context.Context) {
	backoff := reconnectBase
	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		r.connMu.Lock()
		psc := r.psc
		r.connMu.Unlock()
		if psc == nil {
			time.Sleep(backoff)
			conn, err := r.ensureSubConn()
			if err != nil {
				backoff = nextBackoff(backoff)
				continue
			}
			if err := conn.Subscribe(channelArgs()...); err != nil {
				r.recordError("subscribe_conn", err)
				backoff = nextBackoff(backoff)
				continue
			}
			continue
		}

		switch v := psc.Receive().(type) {
		case redis.Message:
			backoff = reconnectBase
			r.dispatch(ctx, v.Channel, v.Data)
		case redis.Subscription:
			backoff = reconnectBase
		case error:
			r.recordError("subscribe_conn", v)
			r.connMu.Lock()
			if r.subConn != nil {
				r.subConn.Close()
			}
			r.psc = nil
			r.subConn = nil
			r.connState = ConnDisconnected
			r.connMu.Unlock()

			select {
			case <-r.stopCh:
				return
			default:
			}
			time.Sleep(backoff)
			backoff = nextBackoff(backoff)
			if _, err := r.ensureSubConn(); err == nil {
				_ = r.psc.Subscribe(channelArgs()...)
			}
		}
	}
}

// channelArgs adapts the fixed channel set to redigo's variadic Subscribe
// signature; every Router subscribes to the same set regardless of which
// handlers it has registered, per spec.md §4.8.
func channelArgs() []interface{} {
	args := make([]interface{}, len(Channels))
	for i, c := range Channels {
		args[i] = c
	}
	return args
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > reconnectMax {
		return reconnectMax
	}
	return next
}

func (r *Router) dispatch(ctx context.Context, channel string, raw []byte) {
	r.statsMu.Lock()
	r.consumed++
	r.statsMu.Unlock()
	metrics.IncPubSubConsumed()

	if channel == "heartbeat" {
		r.handleHeartbeat(ctx, raw)
		return
	}
	if channel == "control" {
		return // status messages from siblings; nothing to act on here
	}

	env, err := ParseEnvelope(raw)
	if err != nil {
		r.recordError("parse", err)
		return
	}

	r.handlersMu.RLock()
	h, ok := r.handlers[channel]
	r.handlersMu.RUnlock()
	if !ok {
		return
	}

	content, err := h(ctx, env)
	reply := Reply{ClientID: env.ClientID, RequestID: env.RequestID}
	if err != nil {
		reply.Error = err.Error()
		log.Error().Err(err).Str("channel", channel).Str("client_id", env.ClientID).
			Str("request_id", env.RequestID).Msg("pubsub handler failed")
	} else {
		reply.Content = content
	}
	if err := r.Reply(ctx, channel, reply); err != nil {
		r.recordError("reply", err)
	}
}

func (r *Router) handleHeartbeat(ctx context.Context, raw []byte) {
	var ping struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(raw, &ping); err != nil || ping.Action != "ping" {
		return
	}

	var metrics map[string]any
	if r.metricsFunc != nil {
		metrics = r.metricsFunc()
	}

	pong := HeartbeatPong{
		Action:    "pong",
		Service:   r.service,
		Status:    "ok",
		Metrics:   metrics,
		Timestamp: time.Now(),
	}
	payload, err := json.Marshal(pong)
	if err != nil {
		r.recordError("marshal", err)
		return
	}
	_ = r.Publish(ctx, "heartbeat", payload)
}

// CircuitState reports the pub/sub breaker's current snapshot, for /health.
func (r *Router) CircuitState() domain.CircuitState { return r.breaker.Snapshot() }

func (r *Router) recordError(kind string, err error) {
	r.statsMu.Lock()
	r.errCount++
	r.lastErr = &LastError{Timestamp: time.Now(), Type: kind, Message: err.Error()}
	r.statsMu.Unlock()
}

// Snapshot returns the current adapter metrics.
func (r *Router) Snapshot() Metrics {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	r.connMu.Lock()
	state := r.connState
	active := r.psc != nil
	r.connMu.Unlock()

	return Metrics{
		Published:      r.published,
		Consumed:       r.consumed,
		Errors:         r.errCount,
		LastError:      r.lastErr,
		ConnState:      state,
		ConsumerActive: active,
	}
}
