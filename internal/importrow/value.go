// Package importrow turns raw spreadsheet-derived rows into typed,
// validated drafts. Cells arrive already tagged by the upstream parser as
// numbers or text, so the normalizer never sniffs types itself.
package importrow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags a raw cell.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
)

// Value is one raw cell. A numeric date cell is a spreadsheet serial date.
type Value struct {
	Kind   Kind
	Number float64
	Text   string
}

// Number returns a numeric cell.
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Text returns a text cell.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// IsEmpty reports whether the cell is absent or blank text.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNumber:
		return false
	case KindText:
		return strings.TrimSpace(v.Text) == ""
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindText:
		return strings.TrimSpace(v.Text)
	default:
		return ""
	}
}

type taggedValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON accepts bare JSON scalars (number ⇒ KindNumber,
// string ⇒ KindText, null ⇒ KindEmpty) and the explicit tagged form
// {"kind":"serial"|"number"|"text","value":...}.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case '{':
		var tv taggedValue
		if err := json.Unmarshal(data, &tv); err != nil {
			return err
		}
		switch strings.ToLower(tv.Kind) {
		case "serial", "number":
			var f float64
			if err := json.Unmarshal(tv.Value, &f); err != nil {
				return fmt.Errorf("cell kind %q: %w", tv.Kind, err)
			}
			*v = Number(f)
		case "text":
			var s string
			if err := json.Unmarshal(tv.Value, &s); err != nil {
				return fmt.Errorf("cell kind %q: %w", tv.Kind, err)
			}
			*v = Text(s)
		default:
			return fmt.Errorf("unknown cell kind %q", tv.Kind)
		}
		return nil
	case 't', 'f':
		return fmt.Errorf("boolean cells are not supported: %s", data)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid numeric cell %s: %w", data, err)
		}
		*v = Number(f)
		return nil
	}
}

// MarshalJSON writes the bare scalar form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Number)
	case KindText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// Row maps column labels to raw cells.
type Row map[string]Value

// Get returns the first non-empty cell among labels. Labels match exactly
// first, then ignoring case and surrounding spaces.
func (r Row) Get(labels ...string) Value {
	for _, l := range labels {
		if v, ok := r[l]; ok && !v.IsEmpty() {
			return v
		}
	}
	for _, l := range labels {
		for k, v := range r {
			if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(l)) && !v.IsEmpty() {
				return v
			}
		}
	}
	return Value{}
}
