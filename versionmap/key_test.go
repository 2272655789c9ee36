package versionmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFromLegacy(t *testing.T) {
	tests := []struct {
		legacy int32
		want   Key
	}{
		{0, LocalKey(0)},
		{5, LocalKey(5)},
		{StackBase - 1, LocalKey(StackBase - 1)},
		{StackBase, StackKey(0)},
		{StackBase + 2, StackKey(2)},
		{-1, FieldKey(1)},
		{-3, FieldKey(3)},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			got := KeyFromLegacy(tt.legacy)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.legacy, got.Legacy())
		})
	}
}

func TestKeyLegacyPanics(t *testing.T) {
	assert.Panics(t, func() { FieldKey(0).Legacy() })
	assert.Panics(t, func() { LocalKey(StackBase).Legacy() })
	assert.Panics(t, func() { Key{Domain: 7}.Legacy() })
}

func TestDomainString(t *testing.T) {
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "stack", Stack.String())
	assert.Equal(t, "field", Field.String())
	assert.Equal(t, "Domain(9)", Domain(9).String())
	assert.Equal(t, "stack:2", StackKey(2).String())
}

func TestKeyJSON(t *testing.T) {
	for _, k := range []Key{LocalKey(3), StackKey(1), FieldKey(2)} {
		b, err := json.Marshal(k)
		assert.NoError(t, err)

		var got Key
		assert.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, k, got)
	}

	b, err := json.Marshal(StackKey(4))
	assert.NoError(t, err)
	assert.Equal(t, "10004", string(b))

	_, err = json.Marshal(FieldKey(0))
	assert.Error(t, err)

	var k Key
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &k))
}
