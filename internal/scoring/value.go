package scoring

import (
	"encoding/json"
)

type valueKind uint8

const (
	kindInvalid valueKind = iota
	kindNumber
	kindText
	kindSet
)

// Value is one raw questionnaire answer: a number (scale), a string (select
// or free text) or a set of strings (multiselect). The zero Value is invalid
// and never scores.
type Value struct {
	kind valueKind
	num  float64
	text string
	set  []string
}

// Responses maps question id to raw answer.
type Responses map[string]Value

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: kindNumber, num: n} }

// Text returns a string Value.
func Text(s string) Value { return Value{kind: kindText, text: s} }

// Set returns a multiselect Value. Order is kept for round-tripping but has
// no effect on scoring.
func Set(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: kindSet, set: cp}
}

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == kindNumber }

// AsText returns the string payload.
func (v Value) AsText() (string, bool) { return v.text, v.kind == kindText }

// AsSet returns the multiselect payload.
func (v Value) AsSet() ([]string, bool) { return v.set, v.kind == kindSet }

// Valid reports whether the Value holds any payload.
func (v Value) Valid() bool { return v.kind != kindInvalid }

// UnmarshalJSON accepts a number, a string or an array of strings. Any other
// well-formed JSON (objects, booleans, null, mixed arrays) decodes to an
// invalid Value rather than an error, so a single odd answer never rejects a
// whole batch.
func (v *Value) UnmarshalJSON(b []byte) error {
	*v = Value{}

	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch t := raw.(type) {
	case float64:
		*v = Number(t)
	case string:
		*v = Text(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := it.(string)
			if !ok {
				return nil
			}
			items = append(items, s)
		}
		*v = Value{kind: kindSet, set: items}
	}
	return nil
}

// MarshalJSON writes the payload back in its original JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNumber:
		return json.Marshal(v.num)
	case kindText:
		return json.Marshal(v.text)
	case kindSet:
		if v.set == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.set)
	default:
		return []byte("null"), nil
	}
}

// Merge returns a copy of r with patch applied on top. Invalid values in
// patch are still stored: they are answers, just unscoreable ones.
func (r Responses) Merge(patch Responses) Responses {
	out := make(Responses, len(r)+len(patch))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
