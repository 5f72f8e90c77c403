// Package worker runs slow model calls on an elastic pool of goroutines, handing
// out work round-robin across clients so one busy client cannot starve the rest.
package worker

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrDispatcherBusy is returned when the pending queue is full.
	ErrDispatcherBusy = errors.New("dispatcher busy")
	// ErrDispatcherClosed is returned for work submitted to, or stranded in, a closed dispatcher.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

type DispatcherConfig struct {
	MinWorkers  int
	MaxWorkers  int
	QueueSize   int
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

type keyQueue struct {
	jobs     []Job
	enqueued bool
}

type Dispatcher struct {
	pool     *jobChannelPool
	JobQueue chan Job // entry point for outer jobs
	logger   *zap.Logger

	mu        sync.Mutex
	closed    bool
	pending   int
	capacity  int
	queues    map[string]*keyQueue // job queue for each key
	ready     *list.List           // round-robin order of keys with work
	positions map[string]*list.Element

	quit    chan struct{}
	runDone chan struct{}
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		pool:      newJobChannelPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.IdleTimeout, logger),
		JobQueue:  make(chan Job, queueSize),
		logger:    logger,
		capacity:  queueSize,
		queues:    make(map[string]*keyQueue),
		ready:     list.New(),
		positions: make(map[string]*list.Element),
		quit:      make(chan struct{}),
		runDone:   make(chan struct{}),
	}

	for i := 0; i < cfg.MinWorkers; i++ {
		d.pool.spawnWorker()
	}

	go d.run()
	return d
}

// Do queues task under key and waits for its result. It fails fast with
// ErrDispatcherBusy when the queue is full and returns ctx.Err() if ctx ends first.
func (d *Dispatcher) Do(ctx context.Context, key string, task Task) (string, error) {
	job := Job{Type: Run, Key: key, ctx: ctx, task: task, resultCh: make(chan result, 1)}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return "", ErrDispatcherClosed
	}
	if d.pending >= d.capacity {
		d.mu.Unlock()
		return "", ErrDispatcherBusy
	}
	d.pending++
	d.JobQueue <- job // never blocks, pending <= cap(JobQueue)
	d.mu.Unlock()

	select {
	case res := <-job.resultCh:
		return res.value, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pending reports jobs accepted but not yet handed to a worker.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Workers reports the number of live workers.
func (d *Dispatcher) Workers() int {
	return d.pool.size()
}

// Close stops accepting work, waits for running tasks and fails anything still queued.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.quit)
	d.pool.close()
	<-d.runDone
	d.drain()
}

func (d *Dispatcher) run() {
	defer close(d.runDone)
	for {
		select {
		case <-d.quit:
			return
		default:
		}
		if !d.dispatchOne() {
			select {
			case job := <-d.JobQueue:
				d.enqueueJob(job)
			case <-d.quit:
				return
			}
			continue
		}
		select {
		case job := <-d.JobQueue:
			d.enqueueJob(job)
		default:
		}
	}
}

func (d *Dispatcher) enqueueJob(job Job) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.queues[job.Key]
	if q == nil {
		q = &keyQueue{}
		d.queues[job.Key] = q
	}
	q.jobs = append(q.jobs, job)
	if q.enqueued {
		return
	}
	q.enqueued = true
	d.positions[job.Key] = d.ready.PushBack(job.Key)
}

// dispatchOne hands the next job of the front key to a worker.
func (d *Dispatcher) dispatchOne() bool {
	d.mu.Lock()
	elem := d.ready.Front()
	if elem == nil {
		d.mu.Unlock()
		return false
	}
	key := elem.Value.(string)
	q := d.queues[key]
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	if len(q.jobs) == 0 {
		q.enqueued = false
		d.ready.Remove(elem)
		delete(d.positions, key)
		delete(d.queues, key)
	} else {
		d.ready.MoveToBack(elem)
	}
	d.mu.Unlock()

	workerChan := d.pool.acquire()
	if workerChan == nil {
		d.fail(job)
		return true
	}
	select {
	case workerChan <- job:
		d.logger.Debug("job assigned", zap.String("key", key), zap.Int("worker", d.pool.workerID(workerChan)))
		d.mu.Lock()
		d.pending--
		d.mu.Unlock()
	case <-d.quit:
		d.fail(job)
	}
	return true
}

func (d *Dispatcher) fail(job Job) {
	job.finish("", ErrDispatcherClosed)
	d.mu.Lock()
	d.pending--
	d.mu.Unlock()
}

// drain fails every job left behind once the run loop has exited.
func (d *Dispatcher) drain() {
	d.mu.Lock()
	var stranded []Job
	for _, q := range d.queues {
		stranded = append(stranded, q.jobs...)
	}
	d.queues = make(map[string]*keyQueue)
	d.ready.Init()
	d.positions = make(map[string]*list.Element)
	d.mu.Unlock()

	for {
		select {
		case job := <-d.JobQueue:
			stranded = append(stranded, job)
			continue
		default:
		}
		break
	}
	for _, job := range stranded {
		d.fail(job)
	}
}
