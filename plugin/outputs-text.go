package plugin

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	Mt "github.com/maroda/meter/types"
)

// TextOutput writes each Snapshot as one line of JSON
type TextOutput struct {
	MU  sync.Mutex
	buf *bufio.Writer
	enc *json.Encoder
	c   io.Closer // set when the output owns the file it writes
}

// NewTextOutput writes to w, which stays open after Close
func NewTextOutput(w io.Writer) *TextOutput {
	buf := bufio.NewWriter(w)
	return &TextOutput{buf: buf, enc: json.NewEncoder(buf)}
}

// NewTextFileOutput appends to the file at path, "-" is stdout
func NewTextFileOutput(path string) (*TextOutput, error) {
	if path == "" || path == "-" {
		return NewTextOutput(os.Stdout), nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Error("TextOutput failed to open file", slog.String("path", path), slog.Any("Error", err))
		return nil, err
	}
	to := NewTextOutput(file)
	to.c = file
	return to, nil
}

func (to *TextOutput) WriteSnapshot(snap Mt.Snapshot) error {
	to.MU.Lock()
	defer to.MU.Unlock()

	if err := to.enc.Encode(snap); err != nil {
		return fmt.Errorf("text output encode error: %w", err)
	}
	return nil
}

func (to *TextOutput) Flush() error {
	to.MU.Lock()
	defer to.MU.Unlock()
	return to.buf.Flush()
}

func (to *TextOutput) Close() error {
	flushErr := to.Flush()
	if to.c != nil {
		if err := to.c.Close(); err != nil {
			return fmt.Errorf("close failed: %w", err)
		}
	}
	return flushErr
}

func (to *TextOutput) Type() string { return "Text" }
