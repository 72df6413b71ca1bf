package plugin

import (
	"errors"
	"log/slog"
	"sync"

	Mt "github.com/maroda/meter/types"
)

// Drawer is anything that renders a Snapshot directly, like a screen
type Drawer interface {
	Draw(snap Mt.Snapshot)
}

// Fanout hands every Snapshot to a set of Drawers and OutputAdapters.
// It is the single output a Driver draws to.
type Fanout struct {
	MU       sync.Mutex
	Drawers  []Drawer
	Adapters []OutputAdapter
	OnError  func(adapter string, err error) // optional, called for each failed write
}

func NewFanout(drawers ...Drawer) *Fanout {
	return &Fanout{Drawers: drawers}
}

// AddDrawer attaches another renderer
func (f *Fanout) AddDrawer(d Drawer) {
	f.MU.Lock()
	defer f.MU.Unlock()
	f.Drawers = append(f.Drawers, d)
}

// AddAdapter attaches another output adapter
func (f *Fanout) AddAdapter(a OutputAdapter) {
	f.MU.Lock()
	defer f.MU.Unlock()
	f.Adapters = append(f.Adapters, a)
}

// Draw renders to every Drawer, then writes to every adapter.
// A failing adapter is logged and does not stop the others.
func (f *Fanout) Draw(snap Mt.Snapshot) {
	f.MU.Lock()
	defer f.MU.Unlock()

	for _, d := range f.Drawers {
		d.Draw(snap)
	}
	for _, a := range f.Adapters {
		if err := a.WriteSnapshot(snap); err != nil {
			slog.Error("Output adapter failed",
				slog.String("output", a.Type()),
				slog.String("state", snap.State),
				slog.Any("Error", err))
			if f.OnError != nil {
				f.OnError(a.Type(), err)
			}
		}
	}
}

// Close flushes and closes every adapter, returning all of their errors
func (f *Fanout) Close() error {
	f.MU.Lock()
	defer f.MU.Unlock()

	var errs []error
	for _, a := range f.Adapters {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.Adapters = nil
	return errors.Join(errs...)
}
