package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, IsValidIdentifier("public"))
	assert.True(t, IsValidIdentifier("_analytics2"))
	assert.False(t, IsValidIdentifier("2fast"))
	assert.False(t, IsValidIdentifier("public; DROP TABLE orders"))
	assert.False(t, IsValidIdentifier(""))
}

func TestQuoteConnValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"localhost", "localhost"},
		{"", "''"},
		{"pa ss", "'pa ss'"},
		{`it's`, `'it\'s'`},
		{`back\slash`, `'back\\slash'`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, QuoteConnValue(tc.in), tc.in)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "overview", Slugify(" Overview"))
	assert.Equal(t, "sales-revenue", Slugify("Sales & Revenue"))
	assert.Equal(t, "time-series-analysis", Slugify("Time Series Analysis"))
}
