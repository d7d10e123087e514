package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ID is a record identifier that may appear in source files as either a JSON
// string or a JSON number. The original representation is preserved on
// round-trip so rewrites stay diff-minimal.
type ID struct {
	value   string
	numeric bool
}

// NewID returns a string-form identifier.
func NewID(value string) ID {
	return ID{value: value}
}

func (id ID) String() string { return id.value }

func (id ID) IsZero() bool { return id.value == "" }

// Normalized returns the comparison form used for duplicate detection.
func (id ID) Normalized() string {
	return strings.ToLower(strings.TrimSpace(id.value))
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty id value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("parse id: %w", err)
		}
		*id = ID{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parse id: %w", err)
	}
	*id = ID{value: n.String(), numeric: true}
	return nil
}

// Record is one catalog entry. Known fields are typed; everything else in the
// source document is carried through Extra untouched.
type Record struct {
	ID             ID
	Name           string
	ScientificName string
	CommonNames    []string
	Description    string
	ImageURL       string
	Images         []string
	Extra          map[string]json.RawMessage

	// Filename is the basename of the backing file. Not serialized.
	Filename string
}

var knownFields = map[string]struct{}{
	"id":             {},
	"name":           {},
	"scientificName": {},
	"commonNames":    {},
	"description":    {},
	"imageUrl":       {},
	"images":         {},
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decode := func(key string, dst any) error {
		value, ok := raw[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		return nil
	}

	if err := decode("id", &r.ID); err != nil {
		return err
	}
	if err := decode("name", &r.Name); err != nil {
		return err
	}
	if err := decode("scientificName", &r.ScientificName); err != nil {
		return err
	}
	if err := decode("commonNames", &r.CommonNames); err != nil {
		return err
	}
	if err := decode("description", &r.Description); err != nil {
		return err
	}
	if err := decode("imageUrl", &r.ImageURL); err != nil {
		return err
	}
	if err := decode("images", &r.Images); err != nil {
		return err
	}

	r.Extra = nil
	for key, value := range raw {
		if _, known := knownFields[key]; known {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[key] = value
	}
	return nil
}

// MarshalJSON emits known fields in a fixed order followed by passthrough
// fields sorted by key, so repeated saves produce identical bytes.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeField := func(key string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		keyBytes, _ := json.Marshal(key)
		buf.Write(keyBytes)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	if err := writeField("id", r.ID); err != nil {
		return nil, err
	}
	if err := writeField("name", r.Name); err != nil {
		return nil, err
	}
	if err := writeField("scientificName", r.ScientificName); err != nil {
		return nil, err
	}
	if len(r.CommonNames) > 0 {
		if err := writeField("commonNames", r.CommonNames); err != nil {
			return nil, err
		}
	}
	if r.Description != "" {
		if err := writeField("description", r.Description); err != nil {
			return nil, err
		}
	}
	if r.ImageURL != "" {
		if err := writeField("imageUrl", r.ImageURL); err != nil {
			return nil, err
		}
	}
	if len(r.Images) > 0 {
		if err := writeField("images", r.Images); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(r.Extra))
	for key := range r.Extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		keyBytes, _ := json.Marshal(key)
		buf.Write(keyBytes)
		buf.WriteByte(':')
		buf.Write(r.Extra[key])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NormalizedScientificName returns the lower-cased, trimmed comparison key
// for the scientific name.
func (r *Record) NormalizedScientificName() string {
	return strings.ToLower(strings.TrimSpace(r.ScientificName))
}

// HasCommonNames reports whether the record carries a usable alias list. A
// single entry equal to the display name degenerates to "missing".
func (r *Record) HasCommonNames() bool {
	if len(r.CommonNames) == 0 {
		return false
	}
	if len(r.CommonNames) == 1 && strings.EqualFold(strings.TrimSpace(r.CommonNames[0]), strings.TrimSpace(r.Name)) {
		return false
	}
	return true
}
