package meter_test

import (
	"testing"

	Me "github.com/maroda/meter/engine"
	Mt "github.com/maroda/meter/types"
)

func TestDriver(t *testing.T) {
	t.Run("Construction draws the start state once", func(t *testing.T) {
		d, _, out := setup(t, nil)
		assertInt(t, len(out.draws), 1)
		assertState(t, d.State(), Me.Start)
		assertString(t, out.last().State, "start")
		assertStringContains(t, out.last().Comment, "Meter as Rhythm")
		assertStringContains(t, out.last().Message, "Click but don't move.")
		assertInt(t, len(out.last().Lines), 0)
	})

	t.Run("Moves from start to sound1Starts on a click", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0))
		assertState(t, d.State(), Me.Sound1Starts)
		assertPoints(t, d.Points(), []float64{0})
		assertLines(t, out.last().Lines, map[string]Mt.Line{Mt.SoundFirst: line(0, -1)})
	})

	t.Run("Any initial click is stored at 0", func(t *testing.T) {
		d, in, _ := setup(t, nil)
		sendInput(in, click(4))
		assertState(t, d.State(), Me.Sound1Starts)
		assertPoints(t, d.Points(), []float64{0})
	})

	t.Run("Stays in sound1Continues when the duration goes back to 0", func(t *testing.T) {
		d, in, _ := setup(t, nil)
		sendInput(in, click(0), move(1), move(0))
		assertState(t, d.State(), Me.Sound1Continues)
	})

	t.Run("Does not accept two clicks without a move", func(t *testing.T) {
		d, in, _ := setup(t, nil)
		sendInput(in, click(0), click(4))
		assertState(t, d.State(), Me.Sound1Starts)
		assertPoints(t, d.Points(), []float64{0})
	})

	t.Run("Draws a sound and a projection for three clicks", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(8))
		assertState(t, d.State(), Me.Sound2Starts)
		assertPoints(t, d.Points(), []float64{0, 4, 8})
		assertLines(t, out.last().Lines, map[string]Mt.Line{
			Mt.SoundFirst:  line(0, 4),
			Mt.SoundSecond: line(8, -1),
		})
		assertProjs(t, out.last().Projs, map[string]map[string]Mt.Interval{
			Mt.SoundFirst: {
				Mt.ProjNormal:   {Start: 0, End: 8},
				Mt.ProjExpected: {Start: 8, End: 16},
			},
		})
	})

	t.Run("Projects a sound of max length", func(t *testing.T) {
		_, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(maxLen))
		assertLines(t, out.last().Lines, map[string]Mt.Line{Mt.SoundFirst: line(0, maxLen)})
		assertProjs(t, out.last().Projs, map[string]map[string]Mt.Interval{
			Mt.SoundFirst: {Mt.ProjNormal: {Start: 0, End: maxLen}},
		})
	})

	t.Run("Projects to the second onset", func(t *testing.T) {
		_, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(10))
		assertProjs(t, out.last().Projs, map[string]map[string]Mt.Interval{
			Mt.SoundFirst: {
				Mt.ProjNormal:   {Start: 0, End: 10},
				Mt.ProjExpected: {Start: 10, End: 20},
			},
		})
	})

	t.Run("No projection for an indeterminate first sound", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), move(1), move(20))
		assertState(t, d.State(), Me.Sound1ContinuesTooLong)
		assertInt(t, len(out.last().Projs), 0)
	})

	t.Run("No projection shorter than its first sound", func(t *testing.T) {
		_, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), move(3))
		assertProjs(t, out.last().Projs, map[string]map[string]Mt.Interval{
			Mt.SoundFirst: {Mt.ProjNormal: {Start: 0, End: 4}},
		})
	})

	t.Run("Clicks are inert while the first pause is negative", func(t *testing.T) {
		d, in, _ := setup(t, nil)
		sendInput(in, click(0), moveClick(4), move(3))
		assertState(t, d.State(), Me.Pause1Negative)
		sendInput(in, click(3))
		assertState(t, d.State(), Me.Pause1Negative)
		assertPoints(t, d.Points(), []float64{0, 4})
	})

	t.Run("A long first pause is flagged and the second sound starts too late", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(6), move(8))
		assertState(t, d.State(), Me.Pause1)
		sendInput(in, move(12))
		assertState(t, d.State(), Me.Pause1TooLong)
		assertInt(t, len(out.last().Projs), 0)
		sendInput(in, click(12))
		assertState(t, d.State(), Me.Sound2StartsTooLong)
		assertPoints(t, d.Points(), []float64{0, 6, 12})
	})

	t.Run("A weak projection for a late but determinate second sound", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(8), move(17))
		assertState(t, d.State(), Me.Sound2ContinuesWithoutProjection)
		assertLines(t, out.last().Lines, map[string]Mt.Line{
			Mt.SoundFirst:  line(0, 4),
			Mt.SoundSecond: line(8, 17),
		})
		assertProjs(t, out.last().Projs, map[string]map[string]Mt.Interval{
			Mt.SoundFirst: {
				Mt.ProjNormal:   {Start: 0, End: 8},
				Mt.ProjExpected: {Start: 8, End: 16},
			},
			Mt.SoundSecond: {Mt.ProjWeak: {Start: 8, End: 17}},
		})
	})

	t.Run("No second projection when the second sound is too long", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(8), move(19))
		assertState(t, d.State(), Me.Sound2ContinuesTooLong)
		assertLines(t, out.last().Lines, map[string]Mt.Line{
			Mt.SoundFirst:  line(0, 4),
			Mt.SoundSecond: line(8, 19),
		})
		if _, ok := out.last().Projs[Mt.SoundSecond]; ok {
			t.Errorf("second projection drawn for an indeterminate sound")
		}
		sendInput(in, click(19))
		assertState(t, d.State(), Me.Sound2EndsTooLong)
		if _, ok := out.last().Projs[Mt.SoundSecond]; ok {
			t.Errorf("second projection drawn for an indeterminate sound")
		}
	})

	t.Run("No projection for a negative second sound", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(5), moveClick(10), move(11), move(9))
		assertState(t, d.State(), Me.Sound2ContinuesNegative)
		if out.last().Lines[Mt.SoundSecond].End != nil {
			t.Errorf("negative second sound has an end")
		}
		if _, ok := out.last().Projs[Mt.SoundSecond]; ok {
			t.Errorf("second projection drawn for a negative sound")
		}
	})

	t.Run("Two sounds and three projections after a determinate move", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(8), moveClick(12), move(16))
		assertState(t, d.State(), Me.Pause2)
		assertInt(t, len(d.Points()), 4)
		assertLines(t, out.last().Lines, map[string]Mt.Line{
			Mt.SoundFirst:  line(0, 4),
			Mt.SoundSecond: line(8, 12),
		})
		assertProjs(t, out.last().Projs, map[string]map[string]Mt.Interval{
			Mt.SoundFirst: {
				Mt.ProjNormal:   {Start: 0, End: 8},
				Mt.ProjExpected: {Start: 8, End: 16},
			},
			Mt.SoundSecond: {Mt.ProjNormal: {Start: 8, End: 16}},
		})
	})

	t.Run("Clicks are inert while the second pause is negative", func(t *testing.T) {
		d, in, _ := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(8), moveClick(12))
		assertState(t, d.State(), Me.Sound2Ends)
		sendInput(in, move(10))
		assertState(t, d.State(), Me.Pause2Negative)
		sendInput(in, click(14))
		assertState(t, d.State(), Me.Pause2Negative)
		assertInt(t, len(d.Points()), 4)
	})

	t.Run("Three sounds for an exact third onset", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(8), moveClick(12), moveClick(16))
		assertState(t, d.State(), Me.Sound3StartsExactly)
		assertLines(t, out.last().Lines, map[string]Mt.Line{
			Mt.SoundFirst:  line(0, 4),
			Mt.SoundSecond: line(8, 12),
			Mt.SoundThird:  line(16, 20),
		})
		assertProjs(t, out.last().Projs, map[string]map[string]Mt.Interval{
			Mt.SoundFirst: {
				Mt.ProjNormal:   {Start: 0, End: 8},
				Mt.ProjExpected: {Start: 8, End: 16},
			},
		})
		// the drawn end of the third sound is not a boundary
		assertInt(t, len(d.Points()), 5)
	})

	t.Run("An early third onset accelerates", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(8), moveClick(12), moveClick(13))
		assertState(t, d.State(), Me.Sound3StartsAccel)
		assertMarker(t, "accel", out.last().Accel, 13)
		assertLines(t, map[string]Mt.Line{Mt.SoundThird: out.last().Lines[Mt.SoundThird]},
			map[string]Mt.Line{Mt.SoundThird: line(13, 16)})
	})

	t.Run("A slightly late third onset decelerates", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(8), moveClick(12), moveClick(17))
		assertState(t, d.State(), Me.Sound3StartsSlightlyLate)
		assertMarker(t, "decel", out.last().Decel, 17)
		assertNoMarker(t, "accel", out.last().Accel)
	})

	t.Run("A late enough third onset starts a new projection", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(6), moveClick(10), moveClick(15.5))
		assertState(t, d.State(), Me.Sound3StartsSlightlyLateNewProjection)
		assertProjs(t, map[string]map[string]Mt.Interval{Mt.SoundThird: out.last().Projs[Mt.SoundThird]},
			map[string]map[string]Mt.Interval{Mt.SoundThird: {Mt.ProjNormal: {Start: 15.5, End: 19.5}}})
	})

	t.Run("A long second pause gives a hiatus", func(t *testing.T) {
		d, in, out := setup(t, nil)
		sendInput(in, click(0), moveClick(2), moveClick(4), moveClick(6), move(7), moveClick(20))
		assertState(t, d.State(), Me.Sound3StartsTooLate)
		assertMarker(t, "hiatus", out.last().Hiatus, 20)
		assertProjs(t, map[string]map[string]Mt.Interval{Mt.SoundThird: out.last().Projs[Mt.SoundThird]},
			map[string]map[string]Mt.Interval{Mt.SoundThird: {Mt.ProjNormal: {Start: 20, End: 28}}})
	})
}

func TestDriverRealized(t *testing.T) {
	d, in, out := setup(t, nil)
	sendInput(in, click(0), moveClick(4), moveClick(8), moveClick(12), moveClick(15))
	assertState(t, d.State(), Me.Sound3StartsRealized)
	assertMarker(t, "parens", out.last().Parens, 15)
	assertProjs(t, map[string]map[string]Mt.Interval{Mt.SoundThird: out.last().Projs[Mt.SoundThird]},
		map[string]map[string]Mt.Interval{Mt.SoundThird: {Mt.ProjExpected: {Start: 15, End: 16}}})

	t.Run("The alternate interpretation adds no boundary", func(t *testing.T) {
		sendInput(in, click(30))
		assertState(t, d.State(), Me.Sound3StartsAltInterpretation)
		assertPoints(t, d.Points(), []float64{0, 4, 8, 12, 15})
		assertMarker(t, "accent", out.last().Accent, 15)
		assertNoMarker(t, "parens", out.last().Parens)
		assertProjs(t, map[string]map[string]Mt.Interval{Mt.SoundThird: out.last().Projs[Mt.SoundThird]},
			map[string]map[string]Mt.Interval{Mt.SoundThird: {Mt.ProjNormal: {Start: 15, End: 17}}})
	})

	t.Run("A click after the interpretation restarts", func(t *testing.T) {
		sendInput(in, click(40))
		assertState(t, d.State(), Me.Start)
		assertPoints(t, d.Points(), nil)
		sendInput(in, click(3))
		assertState(t, d.State(), Me.Sound1Starts)
		assertPoints(t, d.Points(), []float64{0})
	})
}

func TestDriverPause2Fallback(t *testing.T) {
	d, in, _ := setup(t, nil)
	sendInput(in, click(0), moveClick(4), moveClick(8), moveClick(12), move(14))
	assertState(t, d.State(), Me.Pause2)
	sendInput(in, click(14))
	assertState(t, d.State(), Me.Pause2)
	assertInt(t, len(d.Points()), 4)
}

func TestDriverExtendedZones(t *testing.T) {
	d, in, out := setup(t, Me.ExtendedZones{})
	sendInput(in, click(0), moveClick(4), moveClick(8), moveClick(12), moveClick(17))
	assertState(t, d.State(), Me.Sound3StartsRealized)
	assertLines(t, map[string]Mt.Line{Mt.SoundThird: out.last().Lines[Mt.SoundThird]},
		map[string]Mt.Line{Mt.SoundThird: line(17, 21)})
}

func TestDriverRedraws(t *testing.T) {
	d, in, out := setup(t, nil)

	t.Run("Every handled call draws exactly once", func(t *testing.T) {
		before := len(out.draws)
		sendInput(in, click(0))
		assertInt(t, len(out.draws), before+1)
		sendInput(in, move(2))
		assertInt(t, len(out.draws), before+2)
		sendInput(in, click(-1)) // ignored, still drawn
		assertInt(t, len(out.draws), before+3)
		d.Reset()
		assertInt(t, len(out.draws), before+4)
		assertError(t, d.StepBack(), nil)
		assertInt(t, len(out.draws), before+5)
	})

	t.Run("Moves never touch the boundaries", func(t *testing.T) {
		d.Reset()
		sendInput(in, click(0), moveClick(4))
		for _, x := range []float64{-3, 0, 2, 4, 9, 30} {
			sendInput(in, move(x))
			assertPoints(t, d.Points(), []float64{0, 4})
		}
	})

	t.Run("The cursor is carried in the snapshot", func(t *testing.T) {
		sendInput(in, move(6))
		assertMarker(t, "cursor", out.last().Cursor, 6)
		d.Reset()
		assertNoMarker(t, "cursor", out.last().Cursor)
	})
}

func TestDriverStepBack(t *testing.T) {
	tests := []struct {
		name   string
		ops    []op
		from   Me.State
		to     Me.State
		points []float64
	}{
		{"first sound too long", []op{click(0), move(1), moveClick(12)},
			Me.Sound1EndsTooLong, Me.Sound1ContinuesTooLong, []float64{0}},
		{"second onset too late", []op{click(0), moveClick(4), moveClick(11)},
			Me.Sound2StartsTooLong, Me.Pause1, []float64{0, 4}},
		{"second sound without projection", []op{click(0), moveClick(4), moveClick(8), moveClick(17)},
			Me.Sound2EndsWithoutProjection, Me.Sound2ContinuesWithoutProjection, []float64{0, 4, 8}},
		{"third onset", []op{click(0), moveClick(4), moveClick(8), moveClick(12), moveClick(16)},
			Me.Sound3StartsExactly, Me.Pause2, []float64{0, 4, 8, 12}},
		{"alternate interpretation", []op{click(0), moveClick(4), moveClick(8), moveClick(12), moveClick(15), click(1)},
			Me.Sound3StartsAltInterpretation, Me.Pause2, []float64{0, 4, 8, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, in, _ := setup(t, nil)
			sendInput(in, tt.ops...)
			assertState(t, d.State(), tt.from)
			assertError(t, d.StepBack(), nil)
			assertState(t, d.State(), tt.to)
			assertPoints(t, d.Points(), tt.points)
		})
	}

	t.Run("States without a back target ignore it", func(t *testing.T) {
		d, in, _ := setup(t, nil)
		sendInput(in, click(0), moveClick(4))
		assertError(t, d.StepBack(), nil)
		assertState(t, d.State(), Me.Sound1Ends)
		assertPoints(t, d.Points(), []float64{0, 4})
	})

	t.Run("A different third onset after stepping back", func(t *testing.T) {
		d, in, _ := setup(t, nil)
		sendInput(in, click(0), moveClick(4), moveClick(8), moveClick(12), moveClick(13))
		assertState(t, d.State(), Me.Sound3StartsAccel)
		assertError(t, d.StepBack(), nil)
		sendInput(in, moveClick(17))
		assertState(t, d.State(), Me.Sound3StartsSlightlyLate)
		assertPoints(t, d.Points(), []float64{0, 4, 8, 12, 17})
	})
}

func TestDriverTransitionHook(t *testing.T) {
	type edge struct{ from, to Me.State }
	var seen []edge
	cfg := Me.DefaultConfig()
	in := &mockInput{}
	d := Me.New(cfg, nil, in, nil, Me.WithTransitionHook(func(from, to Me.State, _ *Me.Points) {
		seen = append(seen, edge{from, to})
	}))

	sendInput(in, click(0), move(2), move(3), click(3))
	want := []edge{
		{Me.Start, Me.Sound1Starts},
		{Me.Sound1Starts, Me.Sound1Continues},
		{Me.Sound1Continues, Me.Sound1Ends},
	}
	assertInt(t, len(seen), len(want))
	for i := range want {
		if i < len(seen) && seen[i] != want[i] {
			t.Errorf("transition %d: got %s -> %s, want %s -> %s", i, seen[i].from, seen[i].to, want[i].from, want[i].to)
		}
	}
	assertState(t, d.State(), Me.Sound1Ends)
}

func TestDriverInputOrder(t *testing.T) {
	in := &mockInput{}
	var order []string
	in.RegisterClick(func(x, y float64) { order = append(order, "before") })
	d := Me.New(Me.DefaultConfig(), nil, in, nil)
	in.RegisterClick(func(x, y float64) { order = append(order, "after:"+d.State().String()) })

	in.click(0)
	assertInt(t, len(order), 2)
	assertString(t, order[0], "before")
	assertString(t, order[1], "after:sound1Starts")
}
