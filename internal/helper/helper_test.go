package helper

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	// runes, not bytes
	assert.Equal(t, "привет", Truncate("приветмир", 6))
	assert.Equal(t, 300, len([]rune(Truncate(strings.Repeat("ж", 301), 300))))
}

func TestTooLong(t *testing.T) {
	assert.False(t, TooLong("NY", 40))
	assert.True(t, TooLong(strings.Repeat("x", 21), 20))
	assert.False(t, TooLong(strings.Repeat("ё", 20), 20))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID(" 42 ")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-3", "abc", "1.5"} {
		_, ok := ParseID(raw)
		assert.False(t, ok, raw)
	}
}

func TestDate(t *testing.T) {
	d, ok := Date(2024, 2, 29)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, ok = Date(2023, 2, 29)
	assert.False(t, ok)
	_, ok = Date(2024, 13, 1)
	assert.False(t, ok)
	_, ok = Date(2024, 4, 31)
	assert.False(t, ok)
}

func TestNormSymbol(t *testing.T) {
	assert.Equal(t, "EURUSD", NormSymbol(" eurusd\t"))
}
