package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type outcome struct {
	value string
	err   error
}

func newTestDispatcher(t *testing.T, maxWorkers, queueSize int) *Dispatcher {
	t.Helper()
	d := NewDispatcher(DispatcherConfig{MaxWorkers: maxWorkers, QueueSize: queueSize})
	t.Cleanup(d.Close)
	return d
}

// blockWorker occupies one worker until the returned release func is called.
func blockWorker(t *testing.T, d *Dispatcher) (func(), <-chan outcome) {
	t.Helper()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan outcome, 1)
	go func() {
		v, err := d.Do(context.Background(), "blocker", func(context.Context) (string, error) {
			close(started)
			<-release
			return "unblocked", nil
		})
		done <- outcome{v, err}
	}()
	<-started
	require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)
	return func() { close(release) }, done
}

func TestDoReturnsTaskResult(t *testing.T) {
	d := newTestDispatcher(t, 2, 4)

	v, err := d.Do(context.Background(), "client", func(context.Context) (string, error) {
		return "frittata", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "frittata", v)

	boom := errors.New("model offline")
	_, err = d.Do(context.Background(), "client", func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestDoRecoversPanics(t *testing.T) {
	d := newTestDispatcher(t, 1, 1)

	_, err := d.Do(context.Background(), "client", func(context.Context) (string, error) {
		panic("bad prompt")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad prompt")

	v, err := d.Do(context.Background(), "client", func(context.Context) (string, error) {
		return "still alive", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "still alive", v)
}

func TestDoBusyWhenQueueFull(t *testing.T) {
	d := newTestDispatcher(t, 1, 1)
	release, first := blockWorker(t, d)

	queued := make(chan outcome, 1)
	go func() {
		v, err := d.Do(context.Background(), "b", func(context.Context) (string, error) {
			return "queued", nil
		})
		queued <- outcome{v, err}
	}()
	require.Eventually(t, func() bool { return d.Pending() == 1 }, time.Second, 5*time.Millisecond)

	_, err := d.Do(context.Background(), "c", func(context.Context) (string, error) {
		return "rejected", nil
	})
	assert.ErrorIs(t, err, ErrDispatcherBusy)

	release()
	assert.Equal(t, outcome{"unblocked", nil}, <-first)
	assert.Equal(t, outcome{"queued", nil}, <-queued)
}

func TestDoHonorsContextWhileQueued(t *testing.T) {
	d := newTestDispatcher(t, 1, 2)
	release, first := blockWorker(t, d)

	ran := make(chan struct{}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := d.Do(ctx, "b", func(context.Context) (string, error) {
		ran <- struct{}{}
		return "late", nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	<-first
	require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)
	select {
	case <-ran:
		t.Fatalf("task ran after its caller gave up")
	default:
	}
}

func TestCloseRejectsNewWork(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{MinWorkers: 1, MaxWorkers: 2, QueueSize: 2})
	d.Close()
	d.Close()

	_, err := d.Do(context.Background(), "client", func(context.Context) (string, error) {
		return "", nil
	})
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestCloseFailsQueuedWork(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{MaxWorkers: 1, QueueSize: 2})
	release, first := blockWorker(t, d)

	queued := make(chan outcome, 1)
	go func() {
		v, err := d.Do(context.Background(), "b", func(context.Context) (string, error) {
			return "never", nil
		})
		queued <- outcome{v, err}
	}()
	require.Eventually(t, func() bool { return d.Pending() == 1 }, time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	res := <-queued
	assert.ErrorIs(t, res.err, ErrDispatcherClosed)

	release()
	assert.Equal(t, outcome{"unblocked", nil}, <-first)
	<-closed
}

func TestMinWorkersWarmUp(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{MinWorkers: 2, MaxWorkers: 4, QueueSize: 4})
	defer d.Close()
	assert.Equal(t, 2, d.Workers())
}

func TestPoolRetiresIdleWorkersAboveMin(t *testing.T) {
	p := newJobChannelPool(1, 3, time.Hour, zap.NewNop())
	defer p.close()

	a := p.acquire()
	b := p.acquire()
	c := p.acquire()
	require.Equal(t, 3, p.size())
	p.Release(a)
	p.Release(b)
	p.Release(c)

	p.shutdownExpired(time.Now().Add(2 * time.Hour))
	require.Eventually(t, func() bool { return p.size() == 1 }, time.Second, 5*time.Millisecond)
}
