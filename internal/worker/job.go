package worker

import "context"

// Task is a unit of work run on a pooled worker. It returns the reply text.
type Task func(ctx context.Context) (string, error)

type JobType int

const (
	Run JobType = iota
	Stop
)

func (t JobType) String() string {
	switch t {
	case Run:
		return "run"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

type result struct {
	value string
	err   error
}

// Job travels from the dispatcher to a worker channel.
type Job struct {
	Type JobType
	Key  string // fairness key, usually the client address

	ctx      context.Context
	task     Task
	resultCh chan result // buffered, never blocks the worker
}

func (j Job) finish(value string, err error) {
	if j.resultCh != nil {
		j.resultCh <- result{value: value, err: err}
	}
}
