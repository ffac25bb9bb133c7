// Package dataset loads per-city historical e-waste records from a static
// resource and answers selection queries against them.
package dataset

import (
	"fmt"
	"slices"
)

// Record holds one city's measurements in resource order.
type Record struct {
	Name   string
	Labels []string
	Values []float64
}

// Dataset is an immutable, loaded collection of records. It is safe for
// concurrent use.
type Dataset struct {
	source      string
	format      Format
	records     []Record
	fingerprint uint64
}

// New builds a dataset from records already in memory.
func New(records []Record) *Dataset {
	return &Dataset{
		source:  "memory",
		records: cloneRecords(records),
	}
}

// Source returns the path or URL the dataset was loaded from.
func (d *Dataset) Source() string {
	return d.source
}

// Format returns the format the dataset was decoded with.
func (d *Dataset) Format() Format {
	return d.format
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Fingerprint is the xxhash of the raw resource bytes, zero for in-memory
// datasets.
func (d *Dataset) Fingerprint() uint64 {
	return d.fingerprint
}

// Cities returns one name per record in input order. Duplicates are kept.
func (d *Dataset) Cities() []string {
	names := make([]string, len(d.records))
	for i, r := range d.records {
		names[i] = r.Name
	}

	return names
}

// Lookup returns the first record named city. An empty name or a name with
// no record yields *InvalidSelectionError.
func (d *Dataset) Lookup(city string) (Record, error) {
	if city == "" {
		return Record{}, &InvalidSelectionError{City: city}
	}
	for _, r := range d.records {
		if r.Name == city {
			return cloneRecord(r), nil
		}
	}

	return Record{}, &InvalidSelectionError{City: city}
}

// InvalidSelectionError is returned for an empty or unknown city name.
type InvalidSelectionError struct {
	City string
}

func (e *InvalidSelectionError) Error() string {
	if e.City == "" {
		return "dataset: no city selected"
	}

	return fmt.Sprintf("dataset: unknown city %q", e.City)
}

// LoadError wraps any failure to fetch or decode the resource.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("dataset: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func cloneRecord(r Record) Record {
	return Record{
		Name:   r.Name,
		Labels: slices.Clone(r.Labels),
		Values: slices.Clone(r.Values),
	}
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = cloneRecord(r)
	}

	return out
}
