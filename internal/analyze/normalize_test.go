package analyze

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStripsFences(t *testing.T) {
	const doc = `{"profile":{"username":"Ghost"},"combatRecord":{"kd":"1.97"}}`
	cases := map[string]string{
		"plain":          doc,
		"padded":         "\n  " + doc + "  \n",
		"json fence":     "```json\n" + doc + "\n```",
		"bare fence":     "```\n" + doc + "\n```",
		"inline fence":   "```json" + doc + "```",
		"no closing":     "```json\n" + doc,
		"trailing space": "```json\n" + doc + "\n```\n\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := Normalize(KindOverall, raw)
			require.NoError(t, err)
			assert.JSONEq(t, doc, string(out))
		})
	}
}

func TestNormalizeErrorPayload(t *testing.T) {
	_, err := Normalize(KindOverall, `{"error":"Invalid screenshots. Please upload Call of Duty Mobile screenshots showing profile and stats pages."}`)
	var rejected *UpstreamValidationError
	require.True(t, errors.As(err, &rejected))
	assert.Contains(t, rejected.Message, "Invalid screenshots")

	_, err = Normalize(KindSeasonal, `{"error":true}`)
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, genericRejection, rejected.Message)
}

func TestNormalizeIgnoresFalsyError(t *testing.T) {
	out, err := Normalize(KindSeasonal, `{"error":null,"player_info":{},"seasonal_data":{"rank":"Legendary"}}`)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = Normalize(KindSeasonal, `{"error":"","player_info":{},"seasonal_data":{}}`)
	assert.NoError(t, err)
}

func TestNormalizeRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  string
	}{
		{"overall missing combat record", KindOverall, `{"profile":{}}`},
		{"overall null profile", KindOverall, `{"profile":null,"combatRecord":{}}`},
		{"seasonal missing player info", KindSeasonal, `{"seasonal_data":{}}`},
		{"seasonal given overall doc", KindSeasonal, `{"profile":{},"combatRecord":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.kind, tt.raw)
			var rejected *UpstreamValidationError
			require.True(t, errors.As(err, &rejected), "got %v", err)
			assert.Equal(t, kinds[tt.kind].invalid, rejected.Message)
		})
	}
}

func TestNormalizeUnparseable(t *testing.T) {
	for _, raw := range []string{"", "not json", "[1,2]", "null", `{"profile":`} {
		_, err := Normalize(KindOverall, raw)
		assert.ErrorIs(t, err, ErrUpstream, "raw=%q", raw)
	}
}
