package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// This test verifies the sealed interface pattern compiles correctly.
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"string", "PG-13", String("PG-13")},
		{"int", 7, Int(7)},
		{"int64", int64(7), Int(7)},
		{"float", 2.5, Float(2.5)},
		{"bool", true, Bool(true)},
		{"json integer", json.Number("12"), Int(12)},
		{"json decimal", json.Number("1.25"), Float(1.25)},
		{"already a value", String("x"), String("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ValueOf([]string{"nope"})
	assert.Error(t, err)
}

func TestFloatKeepsFraction(t *testing.T) {
	data, err := json.Marshal([]Value{Float(3), Float(2.5), Int(3)})
	require.NoError(t, err)
	assert.Equal(t, "[3.0,2.5,3]", string(data))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "3.0", FormatFloat(3))
	assert.Equal(t, "0.5", FormatFloat(0.5))
	assert.Equal(t, "-10.0", FormatFloat(-10))
}

func TestFormatValueList(t *testing.T) {
	vs := []Value{String("G"), String("PG"), Int(1), Float(2), Bool(false)}
	assert.Equal(t, "['G', 'PG', 1, 2.0, false]", FormatValueList(vs))
	assert.Equal(t, "[]", FormatValueList(nil))
	assert.Equal(t, "['Movie', 'Person']", FormatStringList([]string{"Movie", "Person"}))
}
