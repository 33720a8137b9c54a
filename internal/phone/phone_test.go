package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanFormattedNumber(t *testing.T) {
	res := Clean("+61 (417) 890 602")

	require.True(t, res.Valid)
	require.NotNil(t, res.Normalized)
	assert.Equal(t, "61417890602", *res.Normalized)
	assert.Equal(t, "+61 (417) 890 602", res.Raw)
}

func TestCleanObfuscatedNumber(t *testing.T) {
	res := Clean("61*17890602")

	assert.False(t, res.Valid)
	assert.Nil(t, res.Normalized)
	assert.Equal(t, "61*17890602", res.Raw)
}

func TestCleanRejectsNonDigits(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "6141x890602", "+61-417"} {
		res := Clean(raw)
		assert.False(t, res.Valid, "raw=%q", raw)
		assert.Nil(t, res.Normalized, "raw=%q", raw)
	}
}

func TestCleanTrimsRaw(t *testing.T) {
	res := Clean("  0417890602 ")

	require.True(t, res.Valid)
	assert.Equal(t, "0417890602", *res.Normalized)
	assert.Equal(t, "0417890602", res.Raw)
}

func TestDestination(t *testing.T) {
	assert.Equal(t, "whatsapp:61417890602", Destination("61417890602"))
	assert.Equal(t, "whatsapp:61417890602", Destination("whatsapp:61417890602"))
}
