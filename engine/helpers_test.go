package meter_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	Me "github.com/maroda/meter/engine"
	Mt "github.com/maroda/meter/types"
)

const maxLen = 10

// mockInput delivers events to registered callbacks, in order
type mockInput struct {
	moves  []func(x, y float64)
	clicks []func(x, y float64)
}

func (m *mockInput) RegisterMove(fn func(x, y float64)) { m.moves = append(m.moves, fn) }
func (m *mockInput) RegisterClick(fn func(x, y float64)) { m.clicks = append(m.clicks, fn) }

func (m *mockInput) move(x float64) {
	for _, fn := range m.moves {
		fn(x, 0)
	}
}

func (m *mockInput) click(x float64) {
	for _, fn := range m.clicks {
		fn(x, 0)
	}
}

// recordOutput keeps every Snapshot it is handed
type recordOutput struct {
	draws []Mt.Snapshot
}

func (r *recordOutput) Draw(s Mt.Snapshot) { r.draws = append(r.draws, s) }

func (r *recordOutput) last() Mt.Snapshot { return r.draws[len(r.draws)-1] }

// op is one step of user input
type op struct {
	move, click, moveClick *float64
}

func move(x float64) op { return op{move: &x} }
func click(x float64) op { return op{click: &x} }
func moveClick(x float64) op { return op{moveClick: &x} }

func setup(t *testing.T, zones Me.ZoneTable) (*Me.Driver, *mockInput, *recordOutput) {
	t.Helper()
	cfg := Me.DefaultConfig()
	cfg.MaxLen = maxLen
	cfg.ShortLen = 4
	input := &mockInput{}
	output := &recordOutput{}
	d := Me.New(cfg, Me.NewStates(zones), input, output)
	return d, input, output
}

func sendInput(input *mockInput, ops ...op) {
	for _, o := range ops {
		switch {
		case o.move != nil:
			input.move(*o.move)
		case o.click != nil:
			input.click(*o.click)
		case o.moveClick != nil:
			input.move(*o.moveClick)
			input.click(*o.moveClick)
		}
	}
}

func fp(x float64) *float64 { return &x }

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertGotError(t testing.TB, got error) {
	t.Helper()
	if got == nil {
		t.Errorf("Expected an error but got %q", got)
	}
}

func assertBool(t testing.TB, got, want bool) {
	t.Helper()
	if got != want {
		t.Errorf("got %t, want %t", got, want)
	}
}

func assertInt(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertFloat(t testing.TB, got, want float64) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %v, want %v", got, want)
	}
}

func assertString(t testing.TB, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func assertStringContains(t testing.TB, full, want string) {
	t.Helper()
	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}

func assertState(t testing.TB, got, want Me.State) {
	t.Helper()
	if got != want {
		t.Errorf("wrong state, got %s, want %s", got, want)
	}
}

func assertPoints(t testing.TB, got, want []float64) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wrong points, got %v, want %v", got, want)
	}
}

func assertMarker(t testing.TB, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s marker missing, want %v", name, want)
		return
	}
	if *got != want {
		t.Errorf("%s marker at %v, want %v", name, *got, want)
	}
}

func assertNoMarker(t testing.TB, name string, got *float64) {
	t.Helper()
	if got != nil {
		t.Errorf("unexpected %s marker at %v", name, *got)
	}
}

// line builds an expected Line, end < 0 means no end
func line(start, end float64) Mt.Line {
	if end < 0 {
		return Mt.Line{Start: start}
	}
	return Mt.Line{Start: start, End: fp(end)}
}

func assertLines(t testing.TB, got, want map[string]Mt.Line) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got %d lines %v, want %d lines %v", len(got), got, len(want), want)
		return
	}
	for name, w := range want {
		g, ok := got[name]
		if !ok {
			t.Errorf("missing %s line", name)
			continue
		}
		if g.Start != w.Start || (g.End == nil) != (w.End == nil) || (g.End != nil && *g.End != *w.End) {
			t.Errorf("%s line = %s, want %s", name, fmtLine(g), fmtLine(w))
		}
	}
}

func fmtLine(l Mt.Line) string {
	if l.End == nil {
		return "{" + Me.FormatPos(l.Start) + "}"
	}
	return "{" + Me.FormatPos(l.Start) + "," + Me.FormatPos(*l.End) + "}"
}

func assertProjs(t testing.TB, got, want map[string]map[string]Mt.Interval) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("projections = %v, want %v", got, want)
	}
}
