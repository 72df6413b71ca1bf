package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	Me "github.com/maroda/meter/engine"
	Mp "github.com/maroda/meter/plugin"
	Mt "github.com/maroda/meter/types"
	"github.com/spf13/pflag"
)

var ErrUsage = errors.New("usage: classify [flags] limit end1 [start2 [end2 [start3 [end3]]]]")

type options struct {
	cur       bool
	zones     string
	dump      bool
	graph     bool
	script    string
	json      bool
	transform string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("classify failed", slog.Any("Error", err))
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet("classify", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.BoolVar(&opts.cur, "cur", false, "the last value is the probe position, not a boundary")
	fs.StringVarP(&opts.zones, "zones", "z", Me.StandardZones{}.Name(), "third onset zones (standard or extended)")
	fs.BoolVarP(&opts.dump, "dump", "d", false, "dump the full analysis")
	fs.BoolVarP(&opts.graph, "graph", "g", false, "print the state table as GraphViz and exit")
	fs.StringVarP(&opts.script, "script", "s", "", "replay an event script (file or URL) instead of boundaries")
	fs.BoolVar(&opts.json, "json", false, "print each drawn snapshot as a JSON line")
	fs.StringVarP(&opts.transform, "transform", "t", "", "reduce the final snapshot, e.g. calc_ratio or json_key:lines.third.start")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := Me.DefaultConfig().FromEnv()
	cfg.Zones = opts.zones

	values, err := parseValues(fs.Args())
	if err != nil {
		return err
	}
	if len(values) > 0 {
		cfg.MaxLen, values = values[0], values[1:]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if opts.graph {
		fmt.Fprint(stdout, Me.Digraph(Me.NewStates(cfg.ZoneTable()).Graph()))
		return nil
	}

	var snap Mt.Snapshot
	if opts.script != "" {
		snap, err = replayScript(cfg, opts, stdout)
	} else {
		snap, err = analyze(cfg, opts, values, stdout)
	}
	if err != nil {
		return err
	}

	if opts.transform != "" {
		tr, err := Mp.TransformerLookup(opts.transform)
		if err != nil {
			return err
		}
		v, err := tr.Transform(snap)
		if err != nil {
			return fmt.Errorf("%s: %w", tr.Type(), err)
		}
		fmt.Fprintf(stdout, "%s: %s\n", tr.Type(), Me.FormatPos(v))
	}
	return nil
}

func parseValues(args []string) ([]float64, error) {
	values := make([]float64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number: %w", a, ErrUsage)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%q: %w: %w", a, ErrUsage, Me.ErrNotFinite)
		}
		values = append(values, v)
	}
	return values, nil
}

func analyze(cfg Me.Config, opts options, values []float64, stdout io.Writer) (Mt.Snapshot, error) {
	if len(values) == 0 {
		return Mt.Snapshot{}, ErrUsage
	}
	a, err := Me.Analyze(cfg, values, opts.cur)
	if err != nil {
		return Mt.Snapshot{}, err
	}

	if opts.json {
		text := Mp.NewTextOutput(stdout)
		if err := text.WriteSnapshot(a.Snapshot); err != nil {
			return Mt.Snapshot{}, err
		}
		if err := text.Close(); err != nil {
			return Mt.Snapshot{}, err
		}
	} else {
		printAnalysis(stdout, cfg, a)
	}
	if opts.dump {
		spew.Fdump(stdout, a)
	}
	return a.Snapshot, nil
}

func replayScript(cfg Me.Config, opts options, stdout io.Writer) (Mt.Snapshot, error) {
	events, err := Me.LoadScript(opts.script)
	if err != nil {
		return Mt.Snapshot{}, err
	}

	fan := Mp.NewFanout()
	if opts.json {
		fan.AddAdapter(Mp.NewTextOutput(stdout))
	}
	d := Me.New(cfg, nil, nil, fan)
	replayErr := Me.Replay(d, events)
	if err := fan.Close(); err != nil {
		return Mt.Snapshot{}, err
	}
	if replayErr != nil {
		return Mt.Snapshot{}, replayErr
	}

	snap := d.Snapshot()
	if !opts.json {
		fmt.Fprintf(stdout, "state: %s\n", snap.State)
		fmt.Fprintf(stdout, "points: %s\n", joinPos(snap.Points))
		printText(stdout, snap)
	}
	if opts.dump {
		spew.Fdump(stdout, snap)
	}
	return snap, nil
}

func printAnalysis(w io.Writer, cfg Me.Config, a *Me.Analysis) {
	fmt.Fprintf(w, "limit: %s  zones: %s\n", Me.FormatPos(cfg.MaxLen), cfg.Zones)
	fmt.Fprintf(w, "boundaries: %s\n", joinPos(a.Boundaries))
	if a.Cursor.Valid {
		fmt.Fprintf(w, "cursor: %s\n", Me.FormatPos(a.Cursor.X))
	}
	fmt.Fprintf(w, "state: %s\n", a.State)
	if len(a.Refused) > 0 {
		fmt.Fprintf(w, "refused: %s\n", joinPos(a.Refused))
	}
	if a.Third != Me.ZoneNone {
		fmt.Fprintf(w, "third onset: %s\n", a.Third)
	}
	for i, s := range a.Sounds {
		fmt.Fprintf(w, "sound %d: %s", i+1, span(s.Duration))
		if s.HasProjectivePotential() {
			fmt.Fprintf(w, "  projective %s", span(s.Projective.Duration))
		}
		if s.HasProjectedPotential() {
			fmt.Fprintf(w, "  projected %s realized=%t", span(s.Projected.Duration), s.Projected.Realized)
		}
		fmt.Fprintf(w, "  [%s %s %s]\n", s.Before(), s.Around(), s.After())
	}
	printText(w, a.Snapshot)
}

func printText(w io.Writer, snap Mt.Snapshot) {
	if snap.Comment != "" {
		fmt.Fprintln(w, snap.Comment)
	}
	if snap.Message != "" {
		fmt.Fprintln(w, snap.Message)
	}
}

// span prints a duration as start..end, or start.. while still open
func span(d Me.Duration) string {
	start, ok := d.Start()
	if !ok {
		return "-"
	}
	if end, ok := d.End(); ok {
		return Me.FormatPos(start) + ".." + Me.FormatPos(end)
	}
	if cur, ok := d.Cur(); ok {
		return Me.FormatPos(start) + ".." + Me.FormatPos(cur) + "?"
	}
	return Me.FormatPos(start) + ".."
}

func joinPos(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = Me.FormatPos(x)
	}
	return strings.Join(parts, " ")
}
