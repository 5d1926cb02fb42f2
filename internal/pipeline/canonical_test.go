package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"sorted keys", `{"b": 1, "a": {"d": true, "c": null}}`, `{"a":{"c":null,"d":true},"b":1}`},
		{"numbers keep their text", `[1, 2.50, -3e2]`, `[1,2.50,-3e2]`},
		{"no html escaping", `{"k": "<a & b>"}`, `{"k":"<a & b>"}`},
		{"nfc strings", "{\"k\": \"cafe\u0301\"}", "{\"k\":\"caf\u00e9\"}"},
		{"utf16 key order", "{\"\U0001F600\": 1, \"ﬁ\": 2}", "{\"\U0001F600\":1,\"ﬁ\":2}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCanonicalize_InvalidJSON(t *testing.T) {
	_, err := Canonicalize([]byte(`{`))
	assert.Error(t, err)
}
