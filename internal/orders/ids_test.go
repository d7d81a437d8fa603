package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayID(t *testing.T) {
	assert.Equal(t, "ORD-000042", DisplayID(42))
	assert.Equal(t, "ORD-000001", DisplayID(1))
	assert.Equal(t, "ORD-1234567", DisplayID(1234567)) // no truncation past six digits
}

func TestParseOrderID(t *testing.T) {
	for _, in := range []string{"42", "ORD-000042", " ORD-000042 "} {
		id, err := ParseOrderID(in)
		require.NoError(t, err, in)
		assert.Equal(t, int64(42), id, in)
	}
}

func TestParseOrderIDInvalid(t *testing.T) {
	for _, in := range []string{"", "ORD-", "abc", "-5", "0"} {
		_, err := ParseOrderID(in)
		assert.Error(t, err, "%q", in)
	}
}
