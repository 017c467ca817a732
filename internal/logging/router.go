package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Sink consumes entries. Write is called from a single worker goroutine per
// sink; Close flushes whatever the sink buffers.
type Sink interface {
	Write(Entry) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router queues published entries and forwards them to sink workers. Entries
// below the minimum severity are discarded; a full queue drops the entry and
// emits a rate-limited warning on the fallback logger instead of blocking the
// publisher.
type Router struct {
	cfg          Config
	queue        chan Entry
	sinks        []*sinkWorker
	fields       map[string]any
	clock        Clock
	fallback     *log.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	closed       atomic.Bool
	minSeverity  Severity
	wg           sync.WaitGroup
	dispatchOnce sync.Once

	entriesTotal atomic.Uint64
	droppedTotal atomic.Uint64
	lastDropLog  atomic.Int64
}

type RouterStats struct {
	EntriesTotal uint64
	DroppedTotal uint64
}

func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) *Router {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 512
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		cfg:         cfg,
		queue:       make(chan Entry, bufferSize),
		clock:       clock,
		fallback:    log.New(os.Stderr, "[logging] ", log.LstdFlags),
		ctx:         ctx,
		cancel:      cancel,
		minSeverity: cfg.MinimumSeverity,
		fields:      cfg.CloneFields(),
	}

	sinkBuffer := bufferSize
	if sinkBuffer > 1024 {
		sinkBuffer = 1024
	}
	if sinkBuffer < 32 {
		sinkBuffer = 32
	}

	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.sinks = append(r.sinks, newSinkWorker(named.Name, named.Sink, sinkBuffer, r.fallback))
	}

	r.start()
	return r
}

func (r *Router) start() {
	r.dispatchOnce.Do(func() {
		r.wg.Add(1)
		go func() {
			defer func() {
				for _, worker := range r.sinks {
					close(worker.entries)
				}
				r.wg.Done()
			}()
			for {
				select {
				case <-r.ctx.Done():
					r.drain()
					return
				case entry := <-r.queue:
					r.forward(entry)
				}
			}
		}()

		for _, worker := range r.sinks {
			r.wg.Add(1)
			go func(w *sinkWorker) {
				defer r.wg.Done()
				w.run()
			}(worker)
		}
	})
}

func (r *Router) drain() {
	for {
		select {
		case entry := <-r.queue:
			r.forward(entry)
		default:
			return
		}
	}
}

func (r *Router) forward(entry Entry) {
	if entry.Severity < r.minSeverity {
		return
	}
	if entry.Time.IsZero() {
		entry.Time = r.clock.Now()
	}
	if len(r.fields) > 0 {
		entry = cloneEntry(entry)
		if entry.Extra == nil {
			entry.Extra = make(map[string]any, len(r.fields))
		}
		for k, v := range r.fields {
			if _, exists := entry.Extra[k]; !exists {
				entry.Extra[k] = v
			}
		}
	}
	r.entriesTotal.Add(1)
	for _, worker := range r.sinks {
		worker.enqueue(entry)
	}
}

func (r *Router) Publish(ctx context.Context, entry Entry) {
	if entry.Kind == "" {
		return
	}
	if r.closed.Load() {
		return
	}
	select {
	case r.queue <- entry:
	default:
		r.handleDrop(entry)
	}
}

func (r *Router) handleDrop(entry Entry) {
	r.droppedTotal.Add(1)
	interval := r.cfg.DropWarnInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	now := time.Now().UnixNano()
	next := r.lastDropLog.Load()
	if next == 0 || now >= next {
		if r.lastDropLog.CompareAndSwap(next, now+interval.Nanoseconds()) {
			r.fallback.Printf("dropping entry kind=%s seq=%d", entry.Kind, entry.Sequence)
		}
	}
}

func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		<-ctx.Done()
		return ctx.Err()
	}
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, worker := range r.sinks {
		if err := worker.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	return RouterStats{
		EntriesTotal: r.entriesTotal.Load(),
		DroppedTotal: r.droppedTotal.Load(),
	}
}

func (r *Router) Sink(name string) Sink {
	for _, worker := range r.sinks {
		if worker.name == name {
			return worker.sink
		}
	}
	return nil
}

type sinkWorker struct {
	name      string
	sink      Sink
	entries   chan Entry
	fallback  *log.Logger
	failures  int
	nextRetry time.Time
}

func newSinkWorker(name string, sink Sink, buffer int, fallback *log.Logger) *sinkWorker {
	if buffer <= 0 {
		buffer = 32
	}
	return &sinkWorker{
		name:     name,
		sink:     sink,
		entries:  make(chan Entry, buffer),
		fallback: fallback,
	}
}

func (w *sinkWorker) enqueue(entry Entry) {
	cloned := cloneEntry(entry)
	select {
	case w.entries <- cloned:
	default:
		w.fallback.Printf("sink %s backlog full dropping entry kind=%s", w.name, entry.Kind)
	}
}

func (w *sinkWorker) run() {
	for entry := range w.entries {
		w.waitUntilReady()
		if err := w.sink.Write(entry); err != nil {
			w.fail(err)
		} else {
			w.failures = 0
			w.nextRetry = time.Time{}
		}
	}
}

func (w *sinkWorker) waitUntilReady() {
	if w.failures == 0 {
		return
	}
	if until := time.Until(w.nextRetry); until > 0 {
		time.Sleep(until)
	}
}

func (w *sinkWorker) fail(err error) {
	if err == nil {
		return
	}
	w.failures++
	delay := time.Duration(1<<min(w.failures, 5)) * time.Second
	w.nextRetry = time.Now().Add(delay)
	w.fallback.Printf("sink %s failed: %v (retry in %s)", w.name, err, delay)
}
