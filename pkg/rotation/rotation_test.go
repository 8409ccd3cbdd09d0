package rotation

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/logflow/internal/testutil"
	cerrors "github.com/vnykmshr/logflow/pkg/common/errors"
	"github.com/vnykmshr/logflow/pkg/stats"
)

type mockReopener struct {
	reopens atomic.Int32
	err     error
}

func (m *mockReopener) Reopen() error {
	m.reopens.Add(1)
	return m.err
}

func waitReopens(t *testing.T, m *mockReopener, n int32) {
	t.Helper()
	deadline := time.Now().Add(testutil.TestTimeout)
	for m.reopens.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d reopens, got %d", n, m.reopens.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerValidation(t *testing.T) {
	_, err := NewScheduler(nil, SchedulerConfig{Schedule: "@daily"})
	testutil.AssertErrorIs(t, err, cerrors.ErrInvalidConfiguration)

	_, err = NewScheduler(&mockReopener{}, SchedulerConfig{})
	testutil.AssertErrorIs(t, err, cerrors.ErrInvalidConfiguration)

	_, err = NewScheduler(&mockReopener{}, SchedulerConfig{Schedule: "not a cron line"})
	testutil.AssertError(t, err)
}

func TestSchedulerFires(t *testing.T) {
	target := &mockReopener{}
	store := stats.NewIsolatedStore()

	sched, err := NewScheduler(target, SchedulerConfig{
		Schedule: "@every 10ms",
		Stats:    store,
	})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, sched.Start())
	defer sched.Stop()

	waitReopens(t, target, 2)
	if store.Value("rotation.triggered") < 2 {
		t.Fatalf("triggered counter lagging: %d", store.Value("rotation.triggered"))
	}
	testutil.AssertEqual(t, store.Value("rotation.failed"), uint64(0))
}

func TestSchedulerReopenFailure(t *testing.T) {
	target := &mockReopener{err: errors.New("rotation window closed")}
	store := stats.NewIsolatedStore()

	var gotErr atomic.Bool
	sched, err := NewScheduler(target, SchedulerConfig{
		Schedule: "@every 10ms",
		Stats:    store,
		OnError:  func(error) { gotErr.Store(true) },
	})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, sched.Start())
	defer sched.Stop()

	waitReopens(t, target, 1)
	deadline := time.Now().Add(testutil.TestTimeout)
	for !gotErr.Load() {
		if time.Now().After(deadline) {
			t.Fatal("OnError was not invoked")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	sched, err := NewScheduler(&mockReopener{}, SchedulerConfig{Schedule: "@daily"})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, sched.Next().IsZero(), true)

	testutil.AssertNoError(t, sched.Start())
	testutil.AssertErrorIs(t, sched.Start(), cerrors.ErrAlreadyStarted)
	testutil.AssertEqual(t, sched.Next().IsZero(), false)

	sched.Stop()
	testutil.AssertEqual(t, sched.Next().IsZero(), true)
	sched.Stop()

	// A stopped scheduler can be rearmed.
	testutil.AssertNoError(t, sched.Start())
	sched.Stop()
}

func TestBroadcastValidation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	_, err := NewBroadcast(nil, BroadcastConfig{Redis: client})
	testutil.AssertErrorIs(t, err, cerrors.ErrInvalidConfiguration)

	_, err = NewBroadcast(&mockReopener{}, BroadcastConfig{})
	testutil.AssertErrorIs(t, err, cerrors.ErrInvalidConfiguration)
}

func TestBroadcastIgnoresOwnMessages(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	target := &mockReopener{}
	store := stats.NewIsolatedStore()

	b, err := NewBroadcast(target, BroadcastConfig{
		Redis:      client,
		InstanceID: "self",
		Stats:      store,
	})
	testutil.AssertNoError(t, err)

	messages := make(chan *redis.Message, 3)
	messages <- &redis.Message{Channel: b.channel, Payload: "self"}
	messages <- &redis.Message{Channel: b.channel, Payload: "peer-1"}
	messages <- &redis.Message{Channel: b.channel, Payload: "peer-2"}
	close(messages)

	b.wg.Add(1)
	b.listen(messages)

	testutil.AssertEqual(t, target.reopens.Load(), int32(2))
	testutil.AssertEqual(t, store.Value("rotation.broadcast_received"), uint64(2))
}

func TestBroadcastListenerReopenFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	target := &mockReopener{err: errors.New("file is gone")}
	store := stats.NewIsolatedStore()

	var gotErr bool
	b, err := NewBroadcast(target, BroadcastConfig{
		Redis:      client,
		InstanceID: "self",
		Stats:      store,
		OnError:    func(error) { gotErr = true },
	})
	testutil.AssertNoError(t, err)

	messages := make(chan *redis.Message, 1)
	messages <- &redis.Message{Channel: b.channel, Payload: "peer"}
	close(messages)

	b.wg.Add(1)
	b.listen(messages)

	testutil.AssertEqual(t, gotErr, true)
	testutil.AssertEqual(t, store.Value("rotation.broadcast_failed"), uint64(1))
}

func TestBroadcastCloseBeforeSubscribe(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	b, err := NewBroadcast(&mockReopener{}, BroadcastConfig{Redis: client})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, b.Close())
}

func TestDefaultInstanceIDStable(t *testing.T) {
	a, b := defaultInstanceID(), defaultInstanceID()
	testutil.AssertEqual(t, a, b)
	if a == "" {
		t.Fatal("instance id is empty")
	}
}
