package plugin

import (
	"fmt"
	"strings"
)

// Transformers is a global map of SnapshotTransformer plugins.
var Transformers = map[string]func(arg string) SnapshotTransformer{
	"calc_ratio": func(string) SnapshotTransformer {
		return &CalcRatioPlugin{}
	},
	"json_key": func(arg string) SnapshotTransformer {
		return NewJSONTransformer(arg)
	},
}

// TransformerLookup finds a transformer by name, with an optional
// argument after a colon: "json_key:lines.third.end"
func TransformerLookup(name string) (SnapshotTransformer, error) {
	name, arg, _ := strings.Cut(name, ":")
	factory, ok := Transformers[name]
	if !ok {
		return nil, fmt.Errorf("unknown transformer: %s", name)
	}
	return factory(arg), nil
}

// OutputOptions configures an output built by name
type OutputOptions struct {
	Path      string // file or database location
	BatchSize int    // for outputs that batch their writes
}

// Outputs is a global map of OutputAdapter factories.
var Outputs = map[string]func(OutputOptions) (OutputAdapter, error){
	"text": func(o OutputOptions) (OutputAdapter, error) {
		to, err := NewTextFileOutput(o.Path)
		if err != nil {
			return nil, err
		}
		return to, nil
	},
	"badger": func(o OutputOptions) (OutputAdapter, error) {
		bj, err := NewBadgerJournal(o.Path, o.BatchSize)
		if err != nil {
			return nil, err
		}
		return bj, nil
	},
}

func OutputLookup(name string, opts OutputOptions) (OutputAdapter, error) {
	factory, ok := Outputs[name]
	if !ok {
		return nil, fmt.Errorf("unknown output: %s", name)
	}
	return factory(opts)
}
