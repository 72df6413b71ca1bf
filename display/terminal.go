package meter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	Me "github.com/maroda/meter/engine"
	Mo "github.com/maroda/meter/obvy"
	Mt "github.com/maroda/meter/types"
)

const (
	screenGutter = 2 // column of position 0

	rowTitle   = 1
	rowSounds  = 3 // each sound takes a line row and a projection row
	rowMarkers = 12
	rowCursor  = 13
	rowRuler   = 14
	rowLabels  = 15
	rowBox     = 16

	helpText = "mouse/arrows move | click/space place | b back | r reset | ESC quit"
)

var (
	titleStyle  = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	soundStyle  = tcell.StyleDefault.Foreground(tcell.ColorLightSteelBlue)
	rulerStyle  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	cursorStyle = tcell.StyleDefault.Foreground(tcell.ColorPink)
	markerStyle = tcell.StyleDefault.Foreground(tcell.ColorDarkOrange).Bold(true)

	projGlyph = map[string]rune{
		Mt.ProjNormal:   '─',
		Mt.ProjWeak:     '┈',
		Mt.ProjExpected: '╌',
	}
	projStyle = map[string]tcell.Style{
		Mt.ProjNormal:   tcell.StyleDefault.Foreground(tcell.ColorMediumSeaGreen),
		Mt.ProjWeak:     tcell.StyleDefault.Foreground(tcell.ColorSeaGreen).Dim(true),
		Mt.ProjExpected: tcell.StyleDefault.Foreground(tcell.ColorGoldenrod),
	}

	// drawn in this order, later kinds overwrite earlier ones
	projOrder  = []string{Mt.ProjNormal, Mt.ProjWeak, Mt.ProjExpected}
	soundOrder = []string{Mt.SoundFirst, Mt.SoundSecond, Mt.SoundThird}
)

// View renders snapshots to a terminal and turns terminal input into events
type View struct {
	MU      sync.Mutex
	Screen  tcell.Screen
	Queue   *EventQueue
	Scale   int         // columns per unit of time
	col     int         // keyboard cursor column
	pressed bool        // Button1 is held
	last    Mt.Snapshot // redrawn on resize
}

// NewView draws on screen and submits input to q
func NewView(screen tcell.Screen, q *EventQueue, scale int) (*View, error) {
	if screen == nil {
		slog.Error("Could not get a screen for display")
		return nil, errors.New("screen not found")
	}
	if scale < 1 {
		scale = Me.DefaultCellsPerUnit
	}

	return &View{
		Screen: screen,
		Queue:  q,
		Scale:  scale,
		col:    screenGutter,
	}, nil
}

// ColumnPos is the timeline position under column c
func (v *View) ColumnPos(c int) float64 {
	if c < screenGutter {
		c = screenGutter
	}
	return float64(c-screenGutter) / float64(v.Scale)
}

// PosColumn is the column where position x is drawn
func (v *View) PosColumn(x float64) int {
	return screenGutter + int(math.Round(x*float64(v.Scale)))
}

// Draw renders snap, it is the View's side of the Driver's Output
func (v *View) Draw(snap Mt.Snapshot) {
	v.MU.Lock()
	defer v.MU.Unlock()
	v.last = snap
	v.render()
}

func (v *View) render() {
	snap := v.last
	width, height := v.GetScreenSize()

	v.Screen.Clear()
	v.DrawViewBorder(width-1, height-1)

	WriteBar(v.Screen, 1, rowTitle, width-1, rowTitle+1, titleStyle)
	v.drawString(2, rowTitle, width-2, "METER  "+snap.State, titleStyle)

	for i, sound := range soundOrder {
		row := rowSounds + i*3
		if l, ok := snap.Lines[sound]; ok {
			v.drawLine(row, l)
		}
		for _, kind := range projOrder {
			if iv, ok := snap.Projs[sound][kind]; ok {
				v.drawSpan(row+1, iv.Start, iv.End, projGlyph[kind], projStyle[kind])
			}
		}
	}

	v.drawMarkers(snap)
	if snap.Cursor != nil {
		v.setCell(v.PosColumn(*snap.Cursor), rowCursor, '▼', cursorStyle)
	}
	v.drawRuler(width)
	v.drawBox(width, height, snap)

	v.DrawText(1, height-1, width-1, height-1, helpText)
	v.Screen.Show()
}

// drawLine draws a sound, or just its onset while the end is unknown
func (v *View) drawLine(row int, l Mt.Line) {
	if l.End != nil {
		v.drawSpan(row, l.Start, *l.End, '━', soundStyle)
		v.setCell(v.PosColumn(*l.End), row, '┫', soundStyle)
	}
	v.setCell(v.PosColumn(l.Start), row, '┣', soundStyle)
}

func (v *View) drawSpan(row int, start, end float64, glyph rune, style tcell.Style) {
	for c := v.PosColumn(start); c <= v.PosColumn(end); c++ {
		v.setCell(c, row, glyph, style)
	}
}

func (v *View) drawMarkers(snap Mt.Snapshot) {
	for _, m := range []struct {
		at    *float64
		glyph rune
	}{
		{snap.Hiatus, '‖'},
		{snap.Accel, '«'},
		{snap.Decel, '»'},
		{snap.Parens, '('},
		{snap.Accent, '>'},
	} {
		if m.at != nil {
			v.setCell(v.PosColumn(*m.at), rowMarkers, m.glyph, markerStyle)
		}
	}
}

// drawRuler ticks every unit and labels every fifth
func (v *View) drawRuler(width int) {
	for c := screenGutter; c < width-1; c++ {
		off := c - screenGutter
		if off%v.Scale != 0 {
			v.setCell(c, rowRuler, '─', rulerStyle)
			continue
		}
		unit := off / v.Scale
		if unit%5 == 0 {
			v.setCell(c, rowRuler, '┼', rulerStyle)
			v.drawString(c, rowLabels, width-1, strconv.Itoa(unit), rulerStyle)
		} else {
			v.setCell(c, rowRuler, '┬', rulerStyle)
		}
	}
}

// drawBox writes the comment and the message inside a frame
func (v *View) drawBox(width, height int, snap Mt.Snapshot) {
	top, bottom := rowBox, height-2
	if bottom-top < 2 {
		return
	}
	frame := tcell.StyleDefault.Foreground(tcell.ColorPink)
	for c := 2; c < width-2; c++ {
		v.setCell(c, top, tcell.RuneHLine, frame)
		v.setCell(c, bottom, tcell.RuneHLine, frame)
	}

	inner := width - 6
	lines := WrapWords(snap.Comment, inner)
	if snap.Message != "" {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, WrapWords(snap.Message, inner)...)
	}
	for i, line := range lines {
		row := top + 1 + i
		if row >= bottom {
			break
		}
		v.DrawText(3, row, width-3, row, line)
	}
}

// setCell draws inside the border only
func (v *View) setCell(x, y int, r rune, style tcell.Style) {
	width, height := v.GetScreenSize()
	if x < 1 || x >= width-1 || y < 1 || y >= height-1 {
		return
	}
	v.Screen.SetContent(x, y, r, nil, style)
}

func (v *View) drawString(x, y, x2 int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= x2 {
			return
		}
		v.Screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// DrawText displays the text string at the given (x1, y1) with box size (x2, y2)
func (v *View) DrawText(x1, y1, x2, y2 int, text string) {
	row := y1
	col := x1
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue)
	for _, r := range text {
		v.Screen.SetContent(col, row, r, nil, style)
		col++
		if col >= x2 {
			row++
			col = x1
		}
		if row > y2 {
			break
		}
	}
}

// DrawViewBorder displays the outline of the View
func (v *View) DrawViewBorder(width, height int) {
	hvStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
	v.Screen.SetContent(0, 0, tcell.RuneULCorner, nil, hvStyle)
	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, 0, tcell.RuneHLine, nil, hvStyle)
		v.Screen.SetContent(i, height, tcell.RuneHLine, nil, hvStyle)
	}
	v.Screen.SetContent(width, 0, tcell.RuneURCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(0, i, tcell.RuneVLine, nil, hvStyle)
		v.Screen.SetContent(width, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(0, height, tcell.RuneLLCorner, nil, hvStyle)
	v.Screen.SetContent(width, height, tcell.RuneLRCorner, nil, hvStyle)
}

// HandleEvent turns one terminal event into queued input.
// It reports whether the user asked to quit.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.MU.Lock()
		v.Screen.Sync()
		v.render()
		v.MU.Unlock()

	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyLeft:
			v.step(-1)
		case tcell.KeyRight:
			v.step(1)
		case tcell.KeyEnter:
			v.submitAt(Mt.EventClick)
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			v.submit(Mt.Event{Kind: Mt.EventBack})
		case tcell.KeyRune:
			switch ev.Rune() {
			case ' ':
				v.submitAt(Mt.EventClick)
			case 'b', 'B':
				v.submit(Mt.Event{Kind: Mt.EventBack})
			case 'r', 'R':
				v.submit(Mt.Event{Kind: Mt.EventReset})
			case 'q':
				return true
			}
		}

	case *tcell.EventMouse:
		x, _ := ev.Position()
		down := ev.Buttons()&tcell.Button1 != 0

		v.MU.Lock()
		v.col = max(x, screenGutter)
		press := down && !v.pressed
		v.pressed = down
		v.MU.Unlock()

		// a held button only clicks once
		if press {
			v.submitAt(Mt.EventClick)
		} else {
			v.submitAt(Mt.EventMove)
		}
	}
	return false
}

// step moves the keyboard cursor by d columns
func (v *View) step(d int) {
	width, _ := v.GetScreenSize()
	v.MU.Lock()
	v.col = min(max(v.col+d, screenGutter), width-2)
	v.MU.Unlock()
	v.submitAt(Mt.EventMove)
}

// submitAt queues an event at the keyboard cursor
func (v *View) submitAt(kind Mt.EventKind) {
	v.MU.Lock()
	x := v.ColumnPos(v.col)
	v.MU.Unlock()
	v.submit(Mt.Event{Kind: kind, X: x})
}

func (v *View) submit(ev Mt.Event) {
	if v.Queue == nil {
		return
	}
	if err := v.Queue.Submit(ev); err != nil {
		slog.Warn("Terminal event dropped", slog.Any("Error", err))
	}
}

// Run handles terminal events until the user quits or the screen is finalized
func (v *View) Run() {
	for {
		ev := v.Screen.PollEvent()
		if ev == nil {
			return
		}
		if v.HandleEvent(ev) {
			return
		}
	}
}

// GetScreenSize provides the terminal size for drawing
func (v *View) GetScreenSize() (int, int) {
	width, height := v.Screen.Size()
	return width, height
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

// Hijack lets the websocket upgrade through the wrapper
func (w *RespWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer cannot hijack")
	}
	w.Status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *RespWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (s *Session) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		s.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

// Serve runs the web surface on addr in the background.
// The channel reports why the server stopped, if it failed.
func (s *Session) Serve(addr string) (*http.Server, <-chan error) {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	failed := make(chan error, 1)
	go func() {
		slog.Info("Starting meter web endpoint...", slog.String("Port", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start web endpoint", slog.Any("Error", err))
			failed <- err
		}
	}()

	return server, failed
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Web endpoint did not shut down cleanly", slog.Any("Error", err))
	}
}

// StartTUI is called by main to run the terminal surface.
// The web surface runs alongside it on cfg.Listen.
func StartTUI(cfg Me.Config) error {
	sess, err := NewSession(cfg, Mo.NewStatsInternal())
	if err != nil {
		slog.Error("Could not start session", slog.Any("Error", err))
		return err
	}

	screen, err := GetTTY()
	if err != nil {
		sess.Close()
		return err
	}

	view, err := NewView(screen, sess.Queue, cfg.CellsPerUnit)
	if err != nil {
		screen.Fini()
		sess.Close()
		return err
	}
	sess.AddDrawer(view)

	// the terminal keeps running without the web surface
	server, _ := sess.Serve(cfg.Listen)
	sess.Start()

	view.Run()

	// stop drawing before the screen goes away
	sess.Queue.Stop()
	screen.Fini()
	shutdown(server)
	return sess.Close()
}

// StartWebNoTUI serves the browser surface until interrupted
func StartWebNoTUI(cfg Me.Config) error {
	sess, err := NewSession(cfg, Mo.NewStatsInternal())
	if err != nil {
		slog.Error("Could not start session", slog.Any("Error", err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, failed := sess.Serve(cfg.Listen)
	sess.Start()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down", slog.String("cause", fmt.Sprint(context.Cause(ctx))))
		shutdown(server)
		return sess.Close()
	case err := <-failed:
		sess.Close()
		return err
	}
}
