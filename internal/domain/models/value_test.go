package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatioZeroDenominator(t *testing.T) {
	assert.False(t, Ratio(10, 0).Available())
	assert.False(t, Ratio(0, 0).Available())

	v := Ratio(10, 4)
	f, ok := v.Float64()
	require.True(t, ok)
	assert.Equal(t, 2.5, f)
}

func TestNumRejectsNonFinite(t *testing.T) {
	assert.False(t, Num(math.NaN()).Available())
	assert.False(t, Num(math.Inf(1)).Available())
	assert.True(t, Num(0).Available())
}

func TestValueJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{A: Num(1.5), B: Unavailable})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(b))

	var out struct {
		A Value `json:"a"`
		B Value `json:"b"`
		C Value `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":2,"b":null,"c":"N/A"}`), &out))
	assert.Equal(t, 2.0, out.A.Or(-1))
	assert.False(t, out.B.Available())
	assert.False(t, out.C.Available())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "N/A", Unavailable.String())
	assert.Equal(t, "0.25", Num(0.25).String())
}

func TestProfileAccessors(t *testing.T) {
	p := Profile{
		"name":  "Acme",
		"blank": "  ",
		"pe":    12.5,
		"n":     7,
		"s":     "3.5",
		"bad":   "abc",
		"nil":   nil,
	}

	assert.Equal(t, "Acme", p.TextOr("name"))
	assert.Equal(t, NotAvailable, p.TextOr("blank"))
	assert.Equal(t, NotAvailable, p.TextOr("missing"))

	f, ok := p.Number("pe")
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)
	f, ok = p.Number("n")
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)
	f, ok = p.Number("s")
	assert.True(t, ok)
	assert.Equal(t, 3.5, f)
	_, ok = p.Number("bad")
	assert.False(t, ok)
	assert.False(t, p.Value("nil").Available())
}

func TestStatementLatestIsLastElement(t *testing.T) {
	s := Statement{"x": {1, 2, 3}, "empty": {}}

	v, ok := s.Latest("x")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	assert.False(t, s.Has("empty"))
	assert.Equal(t, -1.0, s.LatestOr("missing", -1))
}
