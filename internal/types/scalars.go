package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// Vector is a nullable embedding column backed by pgvector. A zero-length
// Vector is persisted as SQL NULL, matching the spec §3 invariant that every
// embedding column is exactly d components or null.
type Vector []float32

// Scan implements sql.Scanner.
func (v *Vector) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}
	inner := pgvector.Vector{}
	if err := inner.Scan(src); err != nil {
		return err
	}
	*v = Vector(inner.Slice())
	return nil
}

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return pgvector.NewVector(v).Value()
}

// Literal renders v as the '[v1,v2,...]'::vector SQL literal the spec §4.1
// mandates for queries the driver cannot parameter-bind a vector into.
// Callers MUST only use this on vectors they produced themselves (embedding
// output), never on raw user input, since it is interpolated into SQL text.
func (v Vector) Literal() string {
	s := "["
	for i, f := range v {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%g", f)
	}
	return s + "]"
}

// IsZero reports whether the vector is unset (null column).
func (v Vector) IsZero() bool { return len(v) == 0 }

// StringSet is a JSON-encoded set of strings (used for Issue.Labels).
type StringSet []string

func (s StringSet) Value() (driver.Value, error) {
	return json.Marshal([]string(s))
}

func (s *StringSet) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		if str, ok2 := src.(string); ok2 {
			b = []byte(str)
		} else {
			return fmt.Errorf("unsupported Scan type for StringSet: %T", src)
		}
	}
	return json.Unmarshal(b, (*[]string)(s))
}

// Contains reports whether the set contains label, case-sensitively.
func (s StringSet) Contains(label string) bool {
	for _, v := range s {
		if v == label {
			return true
		}
	}
	return false
}

// JSON is a raw JSON column, used for ChatSession.Sources and similar
// free-form audit payloads.
type JSON json.RawMessage

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

func (j *JSON) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*j = JSON(append([]byte(nil), v...))
	case string:
		*j = JSON(v)
	default:
		return fmt.Errorf("unsupported Scan type for JSON: %T", src)
	}
	return nil
}

// MarshalJSON/UnmarshalJSON let JSON participate directly in the
// application's own JSON encoding (e.g. chat session API responses).
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = append((*j)[0:0], data...)
	return nil
}
