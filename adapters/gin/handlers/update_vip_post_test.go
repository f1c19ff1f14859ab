package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpaqueValue(t *testing.T) {
	cases := []struct {
		in   string
		want opaqueValue
	}{
		{`"abc"`, "abc"},
		{`""`, ""},
		{`42`, "42"},
		{`-7`, "-7"},
		{`1.50`, "1.50"},
		{`12345678901234567890`, "12345678901234567890"},
		{`true`, ""},
		{`null`, ""},
		{`{"a":1}`, ""},
		{`[1]`, ""},
	}
	for _, tc := range cases {
		var v opaqueValue
		assert.NoError(t, json.Unmarshal([]byte(tc.in), &v), tc.in)
		assert.Equal(t, tc.want, v, tc.in)
	}
}
