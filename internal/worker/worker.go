package worker

import (
	"fmt"

	"go.uber.org/zap"
)

type Worker struct {
	id         int
	pool       *jobChannelPool
	jobChannel chan Job
}

func NewWorker(id int, pool *jobChannelPool) *Worker {
	return &Worker{
		id:         id,
		pool:       pool,
		jobChannel: make(chan Job),
	}
}

func (w *Worker) Start() {
	go func() {
		defer w.pool.wg.Done()
		for {
			select {
			case job := <-w.jobChannel:
				if job.Type == Stop {
					w.pool.retire(w.jobChannel)
					return
				}
				w.run(job)
				w.pool.Release(w.jobChannel)
			case <-w.pool.done:
				w.pool.retire(w.jobChannel)
				return
			}
		}
	}()
}

func (w *Worker) run(job Job) {
	// the caller may have given up while the job was queued
	if err := job.ctx.Err(); err != nil {
		job.finish("", err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.pool.logger.Error("task panicked", zap.Int("worker", w.id), zap.Any("panic", r))
			job.finish("", fmt.Errorf("worker %d: task panicked: %v", w.id, r))
		}
	}()
	value, err := job.task(job.ctx)
	job.finish(value, err)
}
