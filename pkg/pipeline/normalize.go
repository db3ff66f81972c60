package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"turfgame/exporter/pkg/cache"
	"turfgame/exporter/pkg/schema"
)

// RawEntityRecord is one user object from the API, field by field.
type RawEntityRecord map[string]json.RawMessage

// ParseError reports a user object that cannot be normalized. The whole
// user is rejected for the cycle.
type ParseError struct {
	// Entity is the user name if it could be read.
	Entity string

	// Field is the offending field, empty when the record itself is bad.
	Field string

	Reason string
}

func (e *ParseError) Error() string {
	switch {
	case e.Field != "" && e.Entity != "":
		return fmt.Sprintf("user %q: field %q: %s", e.Entity, e.Field, e.Reason)
	case e.Entity != "":
		return fmt.Sprintf("user %q: %s", e.Entity, e.Reason)
	default:
		return fmt.Sprintf("user record: %s", e.Reason)
	}
}

// ParseRecord decodes one element of the API response.
func ParseRecord(raw json.RawMessage) (RawEntityRecord, error) {
	var rec RawEntityRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &ParseError{Reason: "not a json object"}
	}
	if rec == nil {
		return nil, &ParseError{Reason: "null record"}
	}
	return rec, nil
}

// Name returns the "name" field.
func (r RawEntityRecord) Name() (string, error) {
	raw, ok := r["name"]
	if !ok {
		return "", &ParseError{Field: "name", Reason: "missing"}
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil || name == "" {
		return "", &ParseError{Field: "name", Reason: "not a non-empty string"}
	}
	return name, nil
}

// Normalize maps the tracked fields of rec to exposed metric names. Fields
// not in the registry are dropped. Collection fields become their element
// count. Any tracked field with an unexpected value rejects the record.
func Normalize(rec RawEntityRecord, registry *schema.Registry) (cache.Snapshot, error) {
	name, _ := rec.Name()

	snap := make(cache.Snapshot)
	for _, def := range registry.Definitions() {
		field := def.UpstreamField
		raw, ok := rec[field]
		if !ok {
			continue
		}

		var (
			value float64
			err   error
		)
		if def.Collection {
			value, err = collectionSize(raw)
		} else {
			value, err = number(raw)
		}
		if err != nil {
			return nil, &ParseError{Entity: name, Field: field, Reason: err.Error()}
		}

		snap[def.ExposedName] = value
	}

	return snap, nil
}

func collectionSize(raw json.RawMessage) (float64, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return 0, fmt.Errorf("expected an array, got %s", describe(raw))
	}
	return float64(len(items)), nil
}

func number(raw json.RawMessage) (float64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("invalid json value")
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %s", describe(raw))
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, fmt.Errorf("number %s out of range", n.String())
	}
	return f, nil
}

// describe names the JSON type of raw for error messages.
func describe(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '"':
		return "a string"
	case '{':
		return "an object"
	case '[':
		return "an array"
	case 't', 'f':
		return "a boolean"
	case 'n':
		return "null"
	default:
		return "a number"
	}
}
