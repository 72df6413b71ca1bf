package meter

import (
	"fmt"
	"log/slog"

	Me "github.com/maroda/meter/engine"
	Mp "github.com/maroda/meter/plugin"
)

// InitJournal opens the outcome journal at path, ":memory:" keeps it in memory
func InitJournal(path string) (Mp.Journal, error) {
	batch := Me.FillEnvVarInt("METER_JOURNAL_BATCH", 1)

	output, err := Mp.OutputLookup("badger", Mp.OutputOptions{Path: path, BatchSize: batch})
	if err != nil {
		slog.Error("Failed to create adapter",
			slog.String("output", path),
			slog.Any("error", err))
		return nil, err
	}

	journal, ok := output.(Mp.Journal)
	if !ok {
		output.Close()
		return nil, fmt.Errorf("output %s cannot be queried", output.Type())
	}

	slog.Info("Journal Enabled", slog.String("output", path), slog.Int("batch", batch))
	return journal, nil
}
