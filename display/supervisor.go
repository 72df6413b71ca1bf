package meter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	Mo "github.com/maroda/meter/obvy"
	Mt "github.com/maroda/meter/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultQueueSize is how many events may wait for the consumer
const DefaultQueueSize = 64

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrUnknownKind = errors.New("unknown event kind")
)

var kindNames = map[Mt.EventKind]string{
	Mt.EventMove:  "move",
	Mt.EventClick: "click",
	Mt.EventReset: "reset",
	Mt.EventBack:  "back",
}

// KindName is the lower case name of an event kind
func KindName(k Mt.EventKind) string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind is the inverse of KindName
func ParseKind(name string) (Mt.EventKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownKind)
}

// EventQueue serializes input from any number of producers
// (terminal, websocket clients, http) onto one consumer goroutine.
// Moves and clicks go to the registered callbacks in registration order,
// reset and back go to the control callbacks.
type EventQueue struct {
	MU       sync.Mutex
	Events   chan Mt.Event
	Stats    *Mo.StatsInternal
	StopChan chan struct{}
	WG       sync.WaitGroup
	moves    []func(x, y float64)
	clicks   []func(x, y float64)
	control  []func(ev Mt.Event) error
}

func NewEventQueue(size int, stats *Mo.StatsInternal) *EventQueue {
	if size < 1 {
		size = DefaultQueueSize
	}
	return &EventQueue{
		Events: make(chan Mt.Event, size),
		Stats:  stats,
	}
}

func (q *EventQueue) RegisterMove(fn func(x, y float64)) {
	q.MU.Lock()
	defer q.MU.Unlock()
	q.moves = append(q.moves, fn)
}

func (q *EventQueue) RegisterClick(fn func(x, y float64)) {
	q.MU.Lock()
	defer q.MU.Unlock()
	q.clicks = append(q.clicks, fn)
}

// OnControl registers fn for reset and back events
func (q *EventQueue) OnControl(fn func(ev Mt.Event) error) {
	q.MU.Lock()
	defer q.MU.Unlock()
	q.control = append(q.control, fn)
}

// Submit queues ev without blocking, a full queue drops it
func (q *EventQueue) Submit(ev Mt.Event) error {
	select {
	case q.Events <- ev:
		return nil
	default:
		if q.Stats != nil {
			q.Stats.RecDropped()
		}
		return fmt.Errorf("%s at %v: %w", KindName(ev.Kind), ev.X, ErrQueueFull)
	}
}

// Start the consumer
func (q *EventQueue) Start() {
	q.StopChan = make(chan struct{})

	q.WG.Add(1)
	go func() {
		defer q.WG.Done()

		for {
			select {
			case ev := <-q.Events:
				q.dispatch(ev)
			case <-q.StopChan:
				return
			}
		}
	}()
}

// Stop the consumer, events still queued wait for the next Start
func (q *EventQueue) Stop() {
	if q.StopChan != nil {
		close(q.StopChan)
		q.WG.Wait()
		q.StopChan = nil
	}
}

// Restart the consumer
func (q *EventQueue) Restart() {
	q.Stop()
	q.Start()
}

func (q *EventQueue) dispatch(ev Mt.Event) {
	kind := KindName(ev.Kind)
	_, span := Mo.Tracer().Start(context.Background(), "event."+kind,
		trace.WithAttributes(
			attribute.String("event.kind", kind),
			attribute.Float64("event.x", ev.X),
		))
	defer span.End()

	if q.Stats != nil {
		q.Stats.RecEvent(kind)
	}

	// callbacks may register more, don't hold the lock while calling them
	q.MU.Lock()
	moves, clicks, control := q.moves, q.clicks, q.control
	q.MU.Unlock()

	switch ev.Kind {
	case Mt.EventMove:
		for _, fn := range moves {
			fn(ev.X, ev.Y)
		}
	case Mt.EventClick:
		for _, fn := range clicks {
			fn(ev.X, ev.Y)
		}
	default:
		for _, fn := range control {
			if err := fn(ev); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				slog.Error("Control event failed", slog.String("kind", kind), slog.Any("Error", err))
			}
		}
	}
}
