package meter

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	Mt "github.com/maroda/meter/types"
)

const (
	webTimeout = 10 * time.Second
)

var ErrScript = errors.New("invalid script line")

type HTTPClient interface {
	Get(string) (*http.Response, error)
}

// Shared HTTP Client
var sharedHTTPClient = &http.Client{
	Timeout: webTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	},
}

// SingleFetchWithClient handles the messy business of the HTTP connection
// and is testable with dependency injection, called by SingleFetch
func SingleFetchWithClient(url string, c HTTPClient) (int, []byte, error) {
	resp, err := c.Get(url)
	if err != nil {
		slog.Error("Fetch Error", slog.Any("Error", err))
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Close Error", slog.Any("Error", err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Could not read body", slog.Any("Error", err))
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

// SingleFetch returns the Response Code, raw byte stream body, and error
// using the shared client so connections are reused
func SingleFetch(url string) (int, []byte, error) {
	return SingleFetchWithClient(url, sharedHTTPClient)
}

// LoadScript reads an event script from a local file or an http(s) URL
func LoadScript(src string) ([]Mt.Event, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		code, body, err := SingleFetch(src)
		if err != nil {
			return nil, err
		}
		if code != http.StatusOK {
			return nil, fmt.Errorf("fetching script %s: status %d", src, code)
		}
		return ParseScript(bytes.NewReader(body))
	}

	file, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseScript(file)
}

// ParseScript streams an event script, one event per line:
//
//	click=0
//	move=4
//	moveclick=8   # a move and a click at the same place
//	back
//	reset
//
// Blank lines and comments are skipped. Unlike metric bodies,
// a bad line is an error: a script with a missing step means something else.
func ParseScript(reader io.Reader) ([]Mt.Event, error) {
	var events []Mt.Event
	scanner := bufio.NewScanner(reader)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Take care of trailing comments
		if pos := strings.Index(line, "#"); pos != -1 {
			line = strings.TrimSpace(line[:pos])
		}
		// ignore whitespace and comments
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		verb := strings.ToLower(strings.TrimSpace(parts[0]))

		switch verb {
		case "reset":
			events = append(events, Mt.Event{Kind: Mt.EventReset})
			continue
		case "back":
			events = append(events, Mt.Event{Kind: Mt.EventBack})
			continue
		}

		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d %q: %w", lineNo, line, ErrScript)
		}
		x, err := strconv.ParseFloat(strings.Trim(strings.TrimSpace(parts[1]), `"'`), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d %q: %w: %w", lineNo, line, ErrScript, err)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("line %d %q: %w: %w", lineNo, line, ErrScript, ErrNotFinite)
		}

		switch verb {
		case "move":
			events = append(events, Mt.Event{Kind: Mt.EventMove, X: x})
		case "click":
			events = append(events, Mt.Event{Kind: Mt.EventClick, X: x})
		case "moveclick":
			events = append(events,
				Mt.Event{Kind: Mt.EventMove, X: x},
				Mt.Event{Kind: Mt.EventClick, X: x})
		default:
			return nil, fmt.Errorf("line %d %q: %w", lineNo, line, ErrScript)
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Error("Problem scanning input", slog.Any("Error", err))
		return nil, fmt.Errorf("scanning error: %w", err)
	}

	return events, nil
}

// Dispatch hands one event to the Driver
func Dispatch(d *Driver, ev Mt.Event) error {
	switch ev.Kind {
	case Mt.EventMove:
		return d.HandleMove(ev.X)
	case Mt.EventClick:
		return d.HandleClick(ev.X)
	case Mt.EventBack:
		return d.StepBack()
	case Mt.EventReset:
		d.Reset()
		return nil
	default:
		return fmt.Errorf("event kind %d: %w", ev.Kind, ErrScript)
	}
}

// Replay dispatches events in order and stops at the first error
func Replay(d *Driver, events []Mt.Event) error {
	for i, ev := range events {
		if err := Dispatch(d, ev); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}
