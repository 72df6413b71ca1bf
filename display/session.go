package meter

import (
	"time"

	Me "github.com/maroda/meter/engine"
	Mo "github.com/maroda/meter/obvy"
	Mp "github.com/maroda/meter/plugin"
	Mt "github.com/maroda/meter/types"
)

// Session is one Driver with the queue that feeds it
// and the outputs it draws to.
type Session struct {
	Config  Me.Config
	Driver  *Me.Driver
	Queue   *EventQueue
	Fanout  *Mp.Fanout
	Hub     *Hub
	Journal Mp.Journal // nil unless configured
	Stats   *Mo.StatsInternal
}

// NewSession builds a Session in the start state.
// The queue is not consuming until Start.
func NewSession(cfg Me.Config, stats *Mo.StatsInternal) (*Session, error) {
	if stats == nil {
		stats = Mo.NewStatsInternal()
	}
	zones, err := Me.ZonesByName(cfg.Zones)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Config: cfg,
		Stats:  stats,
		Queue:  NewEventQueue(DefaultQueueSize, stats),
		Hub:    NewHub(),
	}
	s.Hub.Queue = s.Queue
	s.Fanout = Mp.NewFanout(s.Hub)

	if cfg.Journal != "" {
		journal, err := InitJournal(cfg.Journal)
		if err != nil {
			return nil, err
		}
		s.Journal = journal
		s.Fanout.AddAdapter(journal)
	}

	s.Driver = Me.New(cfg, Me.NewStates(zones), s.Queue,
		&timedOutput{out: s.Fanout, stats: stats},
		Me.WithTransitionHook(func(from, to Me.State, _ *Me.Points) {
			stats.RecTransition(from.String(), to.String())
		}),
		Me.WithErrorHook(func(error) { stats.RecError() }),
	)
	s.Queue.OnControl(func(ev Mt.Event) error {
		return Me.Dispatch(s.Driver, ev)
	})

	return s, nil
}

// AddDrawer attaches a renderer and draws the latest snapshot to it
func (s *Session) AddDrawer(d Mp.Drawer) {
	s.Fanout.AddDrawer(d)
	d.Draw(s.Hub.Last())
}

func (s *Session) Start() { s.Queue.Start() }

// Close stops consuming events and closes every output
func (s *Session) Close() error {
	s.Queue.Stop()
	return s.Fanout.Close()
}

// timedOutput records how long each draw takes
type timedOutput struct {
	out   Me.Output
	stats *Mo.StatsInternal
}

func (t *timedOutput) Draw(snap Mt.Snapshot) {
	start := time.Now()
	t.out.Draw(snap)
	t.stats.RecDrawTimer(time.Since(start).Seconds())
}
