package keynorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/tablelint/item"
)

func TestNormalize_NumberKey(t *testing.T) {
	k, ok := Normalize(&item.Expr{Tag: item.Number, Num: 3}, false)
	assert.True(t, ok)
	n, numeric := k.Numeric()
	assert.True(t, numeric)
	assert.Equal(t, 3.0, n)
	assert.Equal(t, "3", k.String())
}

func TestNormalize_StringKeyStaysStringOutsidePositionalOp(t *testing.T) {
	k, ok := Normalize(&item.Expr{Tag: item.String, Str: "2"}, false)
	assert.True(t, ok)
	_, numeric := k.Numeric()
	assert.False(t, numeric)
	assert.Equal(t, "2", k.String())
}

func TestNormalize_StringKeyCoercedForPositionalOp(t *testing.T) {
	k, ok := Normalize(&item.Expr{Tag: item.String, Str: "2"}, true)
	assert.True(t, ok)
	n, numeric := k.Numeric()
	assert.True(t, numeric)
	assert.Equal(t, 2.0, n)
}

func TestNormalize_NonNumericStringNotCoerced(t *testing.T) {
	k, ok := Normalize(&item.Expr{Tag: item.String, Str: "abc"}, true)
	assert.True(t, ok)
	_, numeric := k.Numeric()
	assert.False(t, numeric)
	assert.Equal(t, "abc", k.String())
}

func TestNormalize_NonConstantKey(t *testing.T) {
	_, ok := Normalize(&item.Expr{Tag: item.Id, Binding: &item.VariableBinding{Name: "i"}}, false)
	assert.False(t, ok)
}

func TestNormalize_NilKeyExpr(t *testing.T) {
	_, ok := Normalize(nil, false)
	assert.False(t, ok)
}

func TestNormalize_InfAndNaNStringsRejected(t *testing.T) {
	for _, s := range []string{"Inf", "-Inf", "NaN", "1e400"} {
		k, ok := Normalize(&item.Expr{Tag: item.String, Str: s}, true)
		assert.True(t, ok)
		_, numeric := k.Numeric()
		assert.False(t, numeric, "string %q must not coerce to numeric", s)
	}
}

func TestNumberKey(t *testing.T) {
	k := NumberKey(5)
	n, ok := k.Numeric()
	assert.True(t, ok)
	assert.Equal(t, 5.0, n)
}

func TestKey_Equality(t *testing.T) {
	a, _ := Normalize(&item.Expr{Tag: item.Number, Num: 4}, false)
	b := NumberKey(4)
	assert.Equal(t, a, b)
}
