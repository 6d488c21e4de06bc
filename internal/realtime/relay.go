package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"profinder/internal/metrics"
)

var ErrRelayQueueFull = errors.New("realtime relay queue full")

var errSubscriptionClosed = errors.New("realtime relay subscription closed")

type envelope struct {
	Topic string          `json:"topic"`
	Event json.RawMessage `json:"event"`
}

// RedisRelay fans broadcasts out to every API instance. While subscribed,
// Publish only enqueues and Run ships queued events to the redis channel,
// feeding whatever arrives on it into the local hub. While not subscribed,
// Publish delivers to the local hub directly.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	hub        *Hub
	queue      chan envelope
	subscribed atomic.Bool

	retryMin time.Duration
	retryMax time.Duration
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub) *RedisRelay {
	return &RedisRelay{
		client:   client,
		channel:  channel,
		hub:      hub,
		queue:    make(chan envelope, 256),
		retryMin: 500 * time.Millisecond,
		retryMax: 30 * time.Second,
	}
}

func (r *RedisRelay) Publish(topic string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if !r.subscribed.Load() {
		r.hub.deliver(topic, data)
		return nil
	}
	select {
	case r.queue <- envelope{Topic: topic, Event: data}:
		return nil
	default:
		metrics.RealtimeDropped.Inc()
		return ErrRelayQueueFull
	}
}

// Run keeps the relay subscribed, reconnecting with backoff, until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	backoff := r.retryMin
	for {
		wasSubscribed, err := r.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if wasSubscribed {
			backoff = r.retryMin
		}
		log.Printf("realtime_relay_disconnected retry_in=%s error=%q", backoff, err.Error())

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, r.retryMax)
	}
}

// session runs one subscription. It reports whether the subscription was
// established before it ended.
func (r *RedisRelay) session(ctx context.Context) (bool, error) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return false, err
	}
	incoming := sub.Channel()

	r.subscribed.Store(true)
	log.Printf("realtime_relay_subscribed channel=%s", r.channel)
	defer func() {
		r.subscribed.Store(false)
		r.drainLocal()
	}()

	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case env := <-r.queue:
			payload, err := json.Marshal(env)
			if err != nil {
				continue
			}
			if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
				// other instances miss it; at least serve our own sessions
				log.Printf("realtime_relay_publish_failed topic=%s error=%q", env.Topic, err.Error())
				metrics.SecondaryWriteFailures.WithLabelValues(metrics.KindRealtime).Inc()
				r.hub.deliver(env.Topic, env.Event)
			}
		case msg, ok := <-incoming:
			if !ok {
				return true, errSubscriptionClosed
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("realtime_relay_bad_message error=%q", err.Error())
				continue
			}
			r.hub.deliver(env.Topic, env.Event)
		}
	}
}

// drainLocal hands events still queued at disconnect to the local hub.
func (r *RedisRelay) drainLocal() {
	for {
		select {
		case env := <-r.queue:
			r.hub.deliver(env.Topic, env.Event)
		default:
			return
		}
	}
}
