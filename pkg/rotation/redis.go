package rotation

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	cerrors "github.com/vnykmshr/logflow/pkg/common/errors"
	"github.com/vnykmshr/logflow/pkg/stats"
)

// BroadcastConfig holds construction options for a Broadcast.
type BroadcastConfig struct {
	// Redis is the client used for pub/sub coordination. Required.
	Redis redis.UniversalClient

	// Channel is the pub/sub channel rotation messages travel on.
	// Default: "logflow:rotate".
	Channel string

	// InstanceID uniquely identifies this instance so it can ignore its
	// own broadcasts. Default: hostname plus pid.
	InstanceID string

	// OpTimeout bounds the Publish call inside Trigger.
	// Default: 500 milliseconds.
	OpTimeout time.Duration

	// OnError is invoked when a broadcast-driven reopen fails. Optional.
	OnError func(error)

	// Stats receives the broadcast's counters. Defaults to a no-op scope.
	Stats stats.Scope
}

// Broadcast coordinates log rotation across a fleet of instances through a
// Redis pub/sub channel. Trigger reopens the local file and publishes a
// message; every other subscribed instance reopens its own file in response.
type Broadcast struct {
	target     Reopener
	client     redis.UniversalClient
	channel    string
	instanceID string
	opTimeout  time.Duration
	onError    func(error)
	stats      broadcastStats

	mu      sync.Mutex
	pubsub  *redis.PubSub
	started bool
	wg      sync.WaitGroup
}

type broadcastStats struct {
	published stats.Counter
	received  stats.Counter
	failed    stats.Counter
}

// NewBroadcast creates a Broadcast acting on target. Subscribe starts the
// listener; a Broadcast that only ever calls Trigger need not subscribe.
func NewBroadcast(target Reopener, config BroadcastConfig) (*Broadcast, error) {
	if target == nil {
		return nil, fmt.Errorf("broadcast target: %w", cerrors.ErrInvalidConfiguration)
	}
	if config.Redis == nil {
		return nil, fmt.Errorf("broadcast redis client: %w", cerrors.ErrInvalidConfiguration)
	}
	if config.Channel == "" {
		config.Channel = "logflow:rotate"
	}
	if config.InstanceID == "" {
		config.InstanceID = defaultInstanceID()
	}
	if config.OpTimeout <= 0 {
		config.OpTimeout = 500 * time.Millisecond
	}
	if config.Stats == nil {
		config.Stats = stats.NewNopScope()
	}

	return &Broadcast{
		target:     target,
		client:     config.Redis,
		channel:    config.Channel,
		instanceID: config.InstanceID,
		opTimeout:  config.OpTimeout,
		onError:    config.OnError,
		stats: broadcastStats{
			published: config.Stats.Counter("rotation.broadcast_published"),
			received:  config.Stats.Counter("rotation.broadcast_received"),
			failed:    config.Stats.Counter("rotation.broadcast_failed"),
		},
	}, nil
}

// Subscribe starts listening for rotation messages. The listener runs until
// Close and reopens the local file for every message published by another
// instance.
func (b *Broadcast) Subscribe(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return cerrors.ErrAlreadyStarted
	}
	b.pubsub = b.client.Subscribe(ctx, b.channel)

	// Force the subscription onto the wire before returning, so a Trigger
	// from another instance right after Subscribe is not missed.
	if _, err := b.pubsub.Receive(ctx); err != nil {
		_ = b.pubsub.Close()
		b.pubsub = nil
		return fmt.Errorf("unable to subscribe to %q: %w", b.channel, err)
	}
	b.started = true

	b.wg.Add(1)
	go b.listen(b.pubsub.Channel())
	return nil
}

func (b *Broadcast) listen(messages <-chan *redis.Message) {
	defer b.wg.Done()

	for msg := range messages {
		if msg.Payload == b.instanceID {
			continue
		}
		b.stats.received.Inc()
		if err := b.target.Reopen(); err != nil {
			b.stats.failed.Inc()
			if b.onError != nil {
				b.onError(err)
			}
		}
	}
}

// Trigger reopens the local file and broadcasts the rotation to the rest of
// the fleet. The local reopen happens even when the publish fails.
func (b *Broadcast) Trigger(ctx context.Context) error {
	if err := b.target.Reopen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.opTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, b.instanceID).Err(); err != nil {
		b.stats.failed.Inc()
		return fmt.Errorf("unable to publish rotation to %q: %w", b.channel, err)
	}
	b.stats.published.Inc()
	return nil
}

// Close stops the listener. It does not close the underlying Redis client,
// which the caller owns.
func (b *Broadcast) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}
	b.started = false
	err := b.pubsub.Close()
	b.pubsub = nil
	b.wg.Wait()
	return err
}

func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
