package meter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

// Defaults used when neither a config file nor the environment says otherwise
const (
	DefaultMaxLen       = 10
	DefaultListen       = ":8090"
	DefaultCellsPerUnit = 3
	DefaultUI           = "tui"
	DefaultOTel         = "off"
)

// InMemoryJournal keeps the outcome journal in memory only
const InMemoryJournal = ":memory:"

var ErrConfig = errors.New("invalid configuration")

type Config struct {
	MaxLen       float64 `json:"max_len"`        // longest mensurally determinate duration
	ShortLen     float64 `json:"short_len"`      // drawn length of an open third sound
	Zones        string  `json:"zones"`          // standard or extended
	UI           string  `json:"ui"`             // tui or web
	Listen       string  `json:"listen"`         // address of the web surface
	CellsPerUnit int     `json:"cells_per_unit"` // terminal columns per unit of time
	Journal      string  `json:"journal"`        // badger directory, empty is off
	OTel         string  `json:"otel"`           // off, hny or grf
}

// DefaultConfig is a working configuration with no file and no environment
func DefaultConfig() Config {
	return Config{
		MaxLen:       DefaultMaxLen,
		ShortLen:     DefaultShortSoundLen,
		Zones:        StandardZones{}.Name(),
		UI:           DefaultUI,
		Listen:       DefaultListen,
		CellsPerUnit: DefaultCellsPerUnit,
		OTel:         DefaultOTel,
	}
}

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) (Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("Error", err))
		return Config{}, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

// LoadConfig decodes JSON over the defaults, keys left out keep their default
func LoadConfig(r io.Reader) (Config, error) {
	config := DefaultConfig()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		slog.Error("could not decode config", slog.Any("Error", err))
		return Config{}, err
	}
	return config, config.Validate()
}

// FromEnv overrides c with any METER_ variables that are set
func (c Config) FromEnv() Config {
	c.MaxLen = FillEnvVarFloat("METER_MAX_LEN", c.MaxLen)
	c.ShortLen = FillEnvVarFloat("METER_SHORT_LEN", c.ShortLen)
	c.CellsPerUnit = FillEnvVarInt("METER_CELLS_PER_UNIT", c.CellsPerUnit)
	if v := FillEnvVar("METER_ZONES"); v != "ENOENT" {
		c.Zones = v
	}
	if v := FillEnvVar("METER_UI"); v != "ENOENT" {
		c.UI = v
	}
	if v := FillEnvVar("METER_LISTEN"); v != "ENOENT" {
		c.Listen = v
	}
	if v := FillEnvVar("METER_JOURNAL"); v != "ENOENT" {
		c.Journal = v
	}
	if v := FillEnvVar("METER_OTEL"); v != "ENOENT" {
		c.OTel = v
	}
	return c
}

// Validate reports the first setting that can't be used
func (c Config) Validate() error {
	switch {
	case !(c.MaxLen > 0) || math.IsInf(c.MaxLen, 1):
		return fmt.Errorf("%w: max_len %v must be positive and finite", ErrConfig, c.MaxLen)
	case !(c.ShortLen > 0) || math.IsInf(c.ShortLen, 1):
		return fmt.Errorf("%w: short_len %v must be positive and finite", ErrConfig, c.ShortLen)
	case c.CellsPerUnit <= 0:
		return fmt.Errorf("%w: cells_per_unit %d must be positive", ErrConfig, c.CellsPerUnit)
	}
	if _, err := ZonesByName(c.Zones); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	switch strings.ToLower(c.UI) {
	case "tui", "web":
	default:
		return fmt.Errorf("%w: ui %q is not tui or web", ErrConfig, c.UI)
	}
	switch strings.ToLower(c.OTel) {
	case "off", "hny", "grf":
	default:
		return fmt.Errorf("%w: otel %q is not off, hny or grf", ErrConfig, c.OTel)
	}
	return nil
}

// ZoneTable resolves the configured zone table
func (c Config) ZoneTable() ZoneTable {
	z, err := ZonesByName(c.Zones)
	if err != nil {
		return StandardZones{}
	}
	return z
}

// LoadRuntimeConfig reads METER_CONFIG if it is set, then applies the environment
func LoadRuntimeConfig() (Config, error) {
	config := DefaultConfig()
	if name := FillEnvVar("METER_CONFIG"); name != "ENOENT" {
		var err error
		config, err = LoadConfigFileName(name)
		if err != nil {
			return Config{}, err
		}
	}
	config = config.FromEnv()
	return config, config.Validate()
}
