package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	Me "github.com/maroda/meter/engine"
)

func TestRun(t *testing.T) {
	t.Run("Classifies a full timeline", func(t *testing.T) {
		out, err := runArgs("10", "4", "8", "12", "16")
		assertError(t, err, nil)
		assertStringContains(t, out, "boundaries: 0 4 8 12 16")
		assertStringContains(t, out, "state: sound3StartsExactly")
		assertStringContains(t, out, "third onset: exact")
	})

	t.Run("The last value can be the cursor", func(t *testing.T) {
		out, err := runArgs("--cur", "10", "4", "6")
		assertError(t, err, nil)
		assertStringContains(t, out, "boundaries: 0 4")
		assertStringContains(t, out, "cursor: 6")
	})

	t.Run("Reports boundaries the session refuses", func(t *testing.T) {
		out, err := runArgs("10", "4", "8", "19", "20")
		assertError(t, err, nil)
		assertStringContains(t, out, "boundaries: 0 4 8 19\n")
		assertStringContains(t, out, "state: sound2EndsTooLong")
		assertStringContains(t, out, "refused: 20")
	})

	t.Run("Prints the state graph", func(t *testing.T) {
		out, err := runArgs("--graph")
		assertError(t, err, nil)
		assertStringContains(t, out, "strict digraph Meter {")
	})

	t.Run("Reduces the final snapshot", func(t *testing.T) {
		out, err := runArgs("-t", "calc_ratio", "10", "4", "8", "12", "16")
		assertError(t, err, nil)
		assertStringContains(t, out, "calc_ratio: 1")
	})

	t.Run("Prints JSON lines", func(t *testing.T) {
		out, err := runArgs("--json", "10", "4")
		assertError(t, err, nil)
		if !strings.HasPrefix(out, "{") {
			t.Errorf("expected a JSON line, got %q", out)
		}
		assertStringContains(t, out, `"state":"sound1Ends"`)
	})

	t.Run("Dumps the analysis", func(t *testing.T) {
		out, err := runArgs("--dump", "10", "4")
		assertError(t, err, nil)
		assertStringContains(t, out, "Analysis")
	})
}

func TestRun_Script(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tap.txt")
	err := os.WriteFile(path, []byte("click=0\nmove=2\nmoveclick=4\n"), 0o644)
	assertError(t, err, nil)

	out, err := runArgs("--script", path)
	assertError(t, err, nil)
	assertStringContains(t, out, "state: sound1Ends")
	assertStringContains(t, out, "points: 0 4")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no boundaries", []string{"10"}, ErrUsage},
		{"not a number", []string{"10", "four"}, ErrUsage},
		{"decreasing", []string{"10", "4", "3"}, Me.ErrDecreasing},
		{"too many", []string{"10", "1", "2", "3", "4", "5", "6"}, Me.ErrTooMany},
		{"bad zones", []string{"--zones", "pentatonic", "10", "4"}, Me.ErrConfig},
		{"bad limit", []string{"0", "4"}, Me.ErrConfig},
		{"NaN boundary", []string{"10", "4", "NaN", "12"}, Me.ErrNotFinite},
		{"infinite boundary", []string{"10", "4", "+Inf"}, Me.ErrNotFinite},
		{"NaN limit", []string{"NaN", "4"}, Me.ErrNotFinite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runArgs(tt.args...)
			assertError(t, err, tt.want)
		})
	}
}

func runArgs(args ...string) (string, error) {
	var buf bytes.Buffer
	err := run(args, &buf)
	return buf.String(), err
}

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()
	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}
