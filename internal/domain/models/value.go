package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// NotAvailable is the display text for a missing value.
const NotAvailable = "N/A"

// Value is either a number or the Unavailable marker. The zero value is Unavailable.
type Value struct {
	n  float64
	ok bool
}

// Unavailable is the marker for a metric that could not be derived.
var Unavailable = Value{}

// Num wraps a number. NaN and infinities are treated as unavailable.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Unavailable
	}
	return Value{n: f, ok: true}
}

// Ratio returns num/den, or Unavailable when den is exactly zero.
func Ratio(num, den float64) Value {
	if den == 0 {
		return Unavailable
	}
	return Num(num / den)
}

// Available reports whether v holds a number.
func (v Value) Available() bool { return v.ok }

// Float64 returns the number and whether it is available.
func (v Value) Float64() (float64, bool) { return v.n, v.ok }

// Or returns the number or def when unavailable.
func (v Value) Or(def float64) float64 {
	if !v.ok {
		return def
	}
	return v.n
}

func (v Value) String() string {
	if !v.ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v.n, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.n)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`"`+NotAvailable+`"`)) {
		*v = Unavailable
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Num(f)
	return nil
}
