package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis channel used to fan out favorite changes.
const DefaultChannel = "wongnok:favorites"

type envelope struct {
	Origin string          `json:"origin"`
	Event  FavoriteChanged `json:"event"`
}

// Publisher is the part of a Redis client the relay writes through.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisRelay bridges the FavoriteChanged topic across gateway instances.
type RedisRelay struct {
	rdb     *redis.Client
	pub     Publisher
	bus     *Bus
	channel string
	origin  string
	log     *zap.Logger
}

func NewRedisRelay(rdb *redis.Client, bus *Bus, log *zap.Logger) *RedisRelay {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisRelay{
		rdb:     rdb,
		pub:     rdb,
		bus:     bus,
		channel: DefaultChannel,
		origin:  uuid.NewString(),
		log:     log,
	}
}

// Origin identifies this instance in relayed messages.
func (r *RedisRelay) Origin() string { return r.origin }

// Run forwards local events to Redis and remote events to the local bus until
// ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	unsubscribe := r.bus.FavoriteChanged.Subscribe(func(ev FavoriteChanged) {
		if ev.Remote {
			return
		}
		r.forward(ctx, ev)
	})
	defer unsubscribe()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, ok := r.decode(msg.Payload)
			if !ok {
				continue
			}
			ev.Remote = true
			r.bus.FavoriteChanged.Publish(ev)
		}
	}
}

func (r *RedisRelay) forward(ctx context.Context, ev FavoriteChanged) {
	b, err := json.Marshal(envelope{Origin: r.origin, Event: ev})
	if err != nil {
		r.log.Error("encode relay message", zap.Error(err))
		return
	}
	if err := r.pub.Publish(ctx, r.channel, b).Err(); err != nil {
		r.log.Warn("publish favorite change to redis", zap.Error(err), zap.String("id", ev.ID))
	}
}

// decode drops malformed messages and this instance's own echoes.
func (r *RedisRelay) decode(payload string) (FavoriteChanged, bool) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.log.Warn("malformed relay message", zap.Error(err))
		return FavoriteChanged{}, false
	}
	if env.Origin == r.origin {
		return FavoriteChanged{}, false
	}
	return env.Event, true
}
