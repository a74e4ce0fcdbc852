package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame_KeepsKeyOrder(t *testing.T) {
	f, err := DecodeFrame([]byte(`[
		{"zeta": 1, "alpha": "a", "mid": null},
		{"zeta": 2.5, "alpha": "b", "extra": true}
	]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, f.Columns)
	assert.Equal(t, Row{"zeta": 1.0, "alpha": "a", "mid": nil}, f.Rows[0])
	assert.Equal(t, Row{"zeta": 2.5, "alpha": "b", "extra": true}, f.Rows[1])
	assert.Equal(t, 2, f.Len())
}

func TestDecodeFrame_Invalid(t *testing.T) {
	for _, doc := range []string{`{"a": 1}`, `[1, 2]`} {
		_, err := DecodeFrame([]byte(doc))
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation, doc)
	}
	_, err := DecodeFrame([]byte(`[{"a": `))
	assert.Error(t, err)
}

func TestFrame_JSONRoundTripOrder(t *testing.T) {
	var f Frame
	require.NoError(t, json.Unmarshal([]byte(`[{"b": 1, "a": "x"}]`), &f))

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"b": 1, "a": "x"}]`, string(out))
	assert.Equal(t, `[{"b":1,"a":"x"}]`, string(out))
}

func TestFrame_CloneIsDeep(t *testing.T) {
	f := NewFrame([]string{"a", "nested"}, []Row{{"a": 1.0, "nested": []any{"x"}}})
	c := f.Clone()

	c.Rows[0]["a"] = 2.0
	c.Rows[0]["nested"].([]any)[0] = "y"
	c.Columns[0] = "z"

	assert.Equal(t, 1.0, f.Rows[0]["a"])
	assert.Equal(t, []any{"x"}, f.Rows[0]["nested"])
	assert.Equal(t, "a", f.Columns[0])
	assert.True(t, f.HasColumn("nested"))
	assert.False(t, f.HasColumn("z"))
}
