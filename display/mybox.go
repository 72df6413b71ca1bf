package meter

import (
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// GetTTY opens the terminal with mouse reporting on
func GetTTY() (tcell.Screen, error) {
	defStyle := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset)

	// New screen
	s, err := tcell.NewScreen()
	if err != nil {
		slog.Error("Could not get new screen", slog.Any("Error", err))
		return nil, err
	}

	// Initialize screen
	if err := s.Init(); err != nil {
		slog.Error("Could not initialize screen", slog.Any("Error", err))
		return nil, err
	}
	s.SetStyle(defStyle)
	s.EnableMouse(tcell.MouseMotionEvents)
	s.Clear()

	return s, nil
}

// WriteBar fills a rectangle with blanks in style
// x1 = starting X axis (from left), x2 = ending X axis (from left)
// y1 = starting Y axis (from top), y2 = ending Y axis (from top)
func WriteBar(s tcell.Screen, x1, y1, x2, y2 int, style tcell.Style) {
	for row := y1; row < y2; row++ {
		for col := x1; col < x2; col++ {
			s.SetContent(col, row, ' ', nil, style)
		}
	}
}

// WrapWords breaks text into lines of at most width runes,
// splitting words only when one is longer than a line
func WrapWords(text string, width int) []string {
	if width < 1 {
		return nil
	}
	var lines []string
	var line []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > width {
			if len(line) > 0 {
				lines = append(lines, string(line))
				line = nil
			}
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		if len(w) == 0 {
			continue
		}
		switch {
		case len(line) == 0:
			line = append(line, w...)
		case len(line)+1+len(w) <= width:
			line = append(append(line, ' '), w...)
		default:
			lines = append(lines, string(line))
			line = append([]rune(nil), w...)
		}
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}
