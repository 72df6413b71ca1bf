package meter

import (
	"errors"
	"fmt"
	"log/slog"

	Mt "github.com/maroda/meter/types"
)

var (
	ErrHalted       = errors.New("driver halted, reset to continue")
	ErrInvalidState = errors.New("guard returned an unknown state")
)

// Input delivers probe positions to every registered callback,
// in registration order, synchronously.
type Input interface {
	RegisterMove(fn func(x, y float64))
	RegisterClick(fn func(x, y float64))
}

// Output receives every recomputed Snapshot
type Output interface {
	Draw(snap Mt.Snapshot)
}

// TransitionHook is told about every state change after it happens
type TransitionHook func(from, to State, p *Points)

type Option func(*Driver)

// WithTransitionHook registers fn to see each state change
func WithTransitionHook(fn TransitionHook) Option {
	return func(d *Driver) { d.hooks = append(d.hooks, fn) }
}

// WithErrorHook registers fn to see the error that halts the Driver.
// Errors from registered Input callbacks have no other way out.
func WithErrorHook(fn func(error)) Option {
	return func(d *Driver) { d.onErr = append(d.onErr, fn) }
}

// Driver binds input events to the state table and redraws the output.
// It is not safe for concurrent use: feed it from a single goroutine.
//
// Every handled call ends in exactly one Draw. An event whose handling fails
// leaves the state and boundaries as they were, draws nothing, and halts
// the Driver until Reset.
type Driver struct {
	cfg    Config
	table  *Table
	out    Output
	state  State
	points *Points
	cur    Cursor
	last   Mt.Snapshot
	err    error
	hooks  []TransitionHook
	onErr  []func(error)
}

// New builds a Driver in the start state and draws it once.
// A nil table is the standard one, a nil in means events are fed by hand.
func New(cfg Config, table *Table, in Input, out Output, opts ...Option) *Driver {
	if table == nil {
		table = NewStates(cfg.ZoneTable())
	}
	if cfg.ShortLen <= 0 {
		cfg.ShortLen = DefaultShortSoundLen
	}
	d := &Driver{
		cfg:    cfg,
		table:  table,
		out:    out,
		state:  Start,
		points: &Points{maxLen: cfg.MaxLen, pts: make([]float64, 0, MaxPointCount)},
	}
	for _, opt := range opts {
		opt(d)
	}

	if in != nil {
		in.RegisterMove(func(x, _ float64) { _ = d.HandleMove(x) })
		in.RegisterClick(func(x, _ float64) { _ = d.HandleClick(x) })
	}

	d.draw()
	return d
}

// HandleMove probes position x. Boundaries are never touched by a move.
func (d *Driver) HandleMove(x float64) error {
	if d.err != nil {
		return fmt.Errorf("move to %v: %w: %w", x, ErrHalted, d.err)
	}

	next := d.state
	if guard := d.table.Entry(d.state).OnMove; guard != nil {
		next = guard(d.points, x)
	}
	if !next.Valid() {
		return d.fail(fmt.Errorf("move to %v from %s: %w", x, d.state, ErrInvalidState))
	}

	d.cur = At(x)
	d.transition(next)
	d.draw()
	return nil
}

// HandleClick places a boundary at x when the state table allows it.
// A guard that keeps the current state is an ignored click, and a
// click that leads into start is a restart.
func (d *Driver) HandleClick(x float64) error {
	if d.err != nil {
		return fmt.Errorf("click at %v: %w: %w", x, ErrHalted, d.err)
	}

	e := d.table.Entry(d.state)
	next := d.state
	if e.OnClick != nil {
		next = e.OnClick(d.points, x)
	}
	if !next.Valid() {
		return d.fail(fmt.Errorf("click at %v from %s: %w", x, d.state, ErrInvalidState))
	}

	switch {
	case next == d.state:
		// ignored
	case next == Start:
		d.points.Clear()
	case !e.SkipPointCreation:
		if err := d.points.Push(x); err != nil {
			return d.fail(fmt.Errorf("click at %v from %s: %w", x, d.state, err))
		}
	}

	d.cur = At(x)
	d.transition(next)
	d.draw()
	return nil
}

// StepBack removes the last boundary and returns to the state before it.
// States with nowhere to step back to only redraw.
func (d *Driver) StepBack() error {
	if d.err != nil {
		return fmt.Errorf("step back: %w: %w", ErrHalted, d.err)
	}

	back := d.table.Entry(d.state).Back
	if back != NoState {
		if _, err := d.points.Pop(); err != nil {
			return d.fail(fmt.Errorf("step back from %s: %w", d.state, err))
		}
		d.transition(back)
	}
	d.draw()
	return nil
}

// Reset returns to start with no boundaries and clears any halt
func (d *Driver) Reset() {
	d.points.Clear()
	d.cur = NoCursor
	d.err = nil
	d.transition(Start)
	d.draw()
}

func (d *Driver) State() State { return d.state }
func (d *Driver) Points() []float64 { return d.points.Values() }
func (d *Driver) Snapshot() Mt.Snapshot { return d.last }
func (d *Driver) Table() *Table { return d.table }

// Err is the error that halted the Driver, if any
func (d *Driver) Err() error { return d.err }

func (d *Driver) transition(next State) {
	from := d.state
	d.state = next
	if from == next {
		return
	}
	for _, hook := range d.hooks {
		hook(from, next, d.points)
	}
}

func (d *Driver) fail(err error) error {
	slog.Error("Driver halted", slog.String("state", d.state.String()), slog.Any("Error", err))
	d.err = err
	for _, fn := range d.onErr {
		fn(err)
	}
	return err
}

func (d *Driver) draw() {
	d.last = ComputeSnapshot(d.points, d.table, d.state, d.cur, d.cfg.ShortLen)
	if d.out != nil {
		d.out.Draw(d.last)
	}
}
