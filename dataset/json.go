package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// parseJSON decodes [{"City": name, "Data": {label: value}}]. Values keep the
// order a browser reports for the Data object: array-index keys ascending,
// then the remaining keys as they appear in the document.
func parseJSON(raw []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var records []Record
	for dec.More() {
		rec, err := decodeCity(dec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}

	return records, nil
}

func decodeCity(dec *json.Decoder) (Record, error) {
	var rec Record
	if err := expectDelim(dec, '{'); err != nil {
		return rec, err
	}

	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return rec, err
		}

		switch key {
		case "City":
			if err := dec.Decode(&rec.Name); err != nil {
				return rec, fmt.Errorf("City: %w", err)
			}
		case "Data":
			labels, values, err := decodeData(dec)
			if err != nil {
				return rec, fmt.Errorf("city %q: %w", rec.Name, err)
			}
			rec.Labels, rec.Values = labels, values
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return rec, err
			}
		}
	}

	return rec, expectDelim(dec, '}')
}

type entry struct {
	label string
	value float64
	index uint32
	isIdx bool
}

func decodeData(dec *json.Decoder) ([]string, []float64, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}

	var entries []entry
	seen := make(map[string]int)
	for dec.More() {
		label, err := stringToken(dec)
		if err != nil {
			return nil, nil, err
		}

		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return nil, nil, fmt.Errorf("value for %q: %w", label, err)
		}
		v, err := num.Float64()
		if err != nil {
			return nil, nil, fmt.Errorf("value for %q: %w", label, err)
		}

		// A repeated key keeps its first position and takes the last value.
		if i, ok := seen[label]; ok {
			entries[i].value = v
			continue
		}
		idx, isIdx := arrayIndex(label)
		seen[label] = len(entries)
		entries = append(entries, entry{label: label, value: v, index: idx, isIdx: isIdx})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.isIdx && b.isIdx:
			if a.index < b.index {
				return -1
			}
			if a.index > b.index {
				return 1
			}
			return 0
		case a.isIdx:
			return -1
		case b.isIdx:
			return 1
		default:
			return 0
		}
	})

	labels := make([]string, len(entries))
	values := make([]float64, len(entries))
	for i, e := range entries {
		labels[i] = e.label
		values[i] = e.value
	}

	return labels, values, nil
}

// arrayIndex reports whether key is a canonical array index: a decimal
// integer below 2^32-1 without leading zeros.
func arrayIndex(key string) (uint32, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}

	return uint32(n), true
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}

	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}

	return s, nil
}
