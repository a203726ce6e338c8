package pokeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrMalformed marks data that lacks the fields a Record needs.
var ErrMalformed = errors.New("malformed pokemon data")

// Record is the summary view of a Pokemon.
type Record struct {
	Name string `json:"name"`
	// Height in decimetres.
	Height int `json:"height"`
	// Weight in hectograms.
	Weight int      `json:"weight"`
	Types  []string `json:"types"`
}

// RecordFromData extracts a Record from a decoded PokeAPI document.
// Types keep the order of the document's "types" list.
func RecordFromData(data map[string]any) (Record, error) {
	var rec Record
	if data == nil {
		return rec, fmt.Errorf("%w: no data", ErrMalformed)
	}

	name, ok := data["name"].(string)
	if !ok {
		return rec, fmt.Errorf("%w: name missing or not a string", ErrMalformed)
	}
	rec.Name = name

	var err error
	if rec.Height, err = intField(data, "height"); err != nil {
		return rec, err
	}
	if rec.Weight, err = intField(data, "weight"); err != nil {
		return rec, err
	}

	types, ok := data["types"].([]any)
	if !ok {
		return rec, fmt.Errorf("%w: types missing or not a list", ErrMalformed)
	}
	rec.Types = make([]string, 0, len(types))
	for i, raw := range types {
		slot, _ := raw.(map[string]any)
		typ, _ := slot["type"].(map[string]any)
		typeName, ok := typ["name"].(string)
		if !ok {
			return rec, fmt.Errorf("%w: types[%d].type.name missing", ErrMalformed, i)
		}
		rec.Types = append(rec.Types, typeName)
	}

	return rec, nil
}

func intField(data map[string]any, key string) (int, error) {
	switch v := data[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %s is not an integer (%v)", ErrMalformed, key, v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
		}
		return int(n), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: %s missing or not a number", ErrMalformed, key)
	}
}
