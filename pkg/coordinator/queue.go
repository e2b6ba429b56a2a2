package coordinator

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/observability"
)

// maxRecordedErrors bounds the error history kept in queue status.
const maxRecordedErrors = 100

// Job is one unit of queued work. The context carries the per-attempt
// timeout when one is configured.
type Job func(ctx context.Context) (any, error)

// Options configures a single queued operation.
type Options struct {
	// MaxRetries is the number of additional attempts after a failure.
	MaxRetries int

	// Timeout bounds each attempt. Zero means no limit.
	Timeout time.Duration
}

// OpError is one recorded operation failure.
type OpError struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Status is a point-in-time view of the queue.
type Status struct {
	Pending    int       `json:"pending"`
	Processing int       `json:"processing"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	Errors     []OpError `json:"errors,omitempty"`
}

// Result is how a settled operation reaches its waiter.
type Result struct {
	Value any
	Err   error
}

type operation struct {
	id   string
	typ  string
	job  Job
	opts Options
}

// Queue is the single serialized operation queue. One worker goroutine
// processes entries in submission order; nothing else touches the shared
// store while an operation runs.
type Queue struct {
	logger *log.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	items     []*operation
	resolvers map[string]chan Result
	closed    bool

	processing int
	completed  int
	failed     int
	errs       []OpError

	done chan struct{}
}

// NewQueue creates the queue and starts its worker. A nil logger discards
// output.
func NewQueue(logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	q := &Queue{
		logger:    logger,
		resolvers: make(map[string]chan Result),
		done:      make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.worker()
	return q
}

// Enqueue submits a fire-and-forget operation and returns its generated ID.
func (q *Queue) Enqueue(typ string, job Job, opts Options) (string, error) {
	op := &operation{id: uuid.NewString(), typ: typ, job: job, opts: opts}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", errors.New(errors.ErrCodeQueueClosed, "queue is closed")
	}
	q.items = append(q.items, op)
	q.cond.Broadcast()
	observability.Operation().OnEnqueue(context.Background(), op.typ, op.id)
	return op.id, nil
}

// EnqueueAndWait submits an operation and blocks until it settles, returning
// its value or terminal error. Cancelling ctx abandons the wait (and
// releases the waiter registration) but does not cancel the operation.
func (q *Queue) EnqueueAndWait(ctx context.Context, typ string, job Job, opts Options) (any, error) {
	op := &operation{id: uuid.NewString(), typ: typ, job: job, opts: opts}
	ch := make(chan Result, 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, errors.New(errors.ErrCodeQueueClosed, "queue is closed")
	}
	q.items = append(q.items, op)
	q.resolvers[op.id] = ch
	q.cond.Broadcast()
	q.mu.Unlock()
	observability.Operation().OnEnqueue(context.Background(), op.typ, op.id)

	select {
	case res := <-ch:
		return res.Value, res.Err
	case <-ctx.Done():
		q.mu.Lock()
		delete(q.resolvers, op.id)
		q.mu.Unlock()
		return nil, errors.Wrap(errors.ErrCodeCancelled, ctx.Err(), "wait for operation %s abandoned", typ)
	}
}

// ClearQueue drops every not-yet-started operation. Their waiters are
// rejected with a cancellation error; the in-flight operation, if any, runs
// to completion. Returns the number of dropped entries.
func (q *Queue) ClearQueue() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := len(q.items)
	for _, op := range q.items {
		if ch, ok := q.resolvers[op.id]; ok {
			delete(q.resolvers, op.id)
			ch <- Result{Err: errors.New(errors.ErrCodeCancelled, "operation %s dropped by clearQueue", op.typ)}
		}
	}
	q.items = nil
	if dropped > 0 {
		q.logger.Debug("queue cleared", "dropped", dropped)
	}
	return dropped
}

// Status reports queue counters and the recorded failure history.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{
		Pending:    len(q.items),
		Processing: q.processing,
		Completed:  q.completed,
		Failed:     q.failed,
		Errors:     append([]OpError(nil), q.errs...),
	}
}

// Wait blocks until the queue is idle: no pending entries and nothing
// processing.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) > 0 || q.processing > 0 {
		q.cond.Wait()
	}
}

// ResolverCount returns the number of registered waiters. After every
// submitted operation has settled this must be zero.
func (q *Queue) ResolverCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.resolvers)
}

// Close stops accepting new operations, drains the remaining queue, and
// waits for the worker to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) worker() {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			close(q.done)
			return
		}
		op := q.items[0]
		q.items = q.items[1:]
		q.processing = 1
		q.mu.Unlock()

		ctx := context.Background()
		observability.Operation().OnStart(ctx, op.typ, op.id)
		started := time.Now()

		var attempts atomic.Int32
		counted := func(ctx context.Context) (any, error) {
			attempts.Add(1)
			return op.job(ctx)
		}
		run := withRetry(op.opts.MaxRetries, withTimeout(op.opts.Timeout, counted))
		value, err := run(ctx)
		observability.Operation().OnComplete(ctx, op.typ, op.id, int(attempts.Load()), time.Since(started), err)

		q.mu.Lock()
		q.processing = 0
		if err != nil {
			q.failed++
			q.errs = append(q.errs, OpError{ID: op.id, Type: op.typ, Message: err.Error(), Time: time.Now()})
			if len(q.errs) > maxRecordedErrors {
				q.errs = q.errs[len(q.errs)-maxRecordedErrors:]
			}
			q.logger.Error("operation failed", "type", op.typ, "id", op.id, "err", err)
		} else {
			q.completed++
		}
		if ch, ok := q.resolvers[op.id]; ok {
			delete(q.resolvers, op.id)
			ch <- Result{Value: value, Err: err}
		}
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}
