package meter

import (
	"log/slog"
	"os"
	"strconv"
)

// FillEnvVar returns the value of a runtime Environment Variable
func FillEnvVar(ev string) string {
	// If the EnvVar doesn't exist return a default string
	value := os.Getenv(ev)
	if value == "" {
		value = "ENOENT"
	}
	return value
}

// FillEnvVarInt returns an Environment Variable as an int, or def when unset or invalid
func FillEnvVarInt(ev string, def int) int {
	raw := FillEnvVar(ev)
	if raw == "ENOENT" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Error("Invalid integer in environment", slog.String("var", ev), slog.Any("Error", err))
		return def
	}
	return value
}

// FillEnvVarFloat returns an Environment Variable as a float64, or def when unset or invalid
func FillEnvVarFloat(ev string, def float64) float64 {
	raw := FillEnvVar(ev)
	if raw == "ENOENT" {
		return def
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Error("Invalid number in environment", slog.String("var", ev), slog.Any("Error", err))
		return def
	}
	return value
}

// FormatPos prints a timeline position as briefly as possible
func FormatPos(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
