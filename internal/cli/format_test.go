package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-journal/internal/models"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "108.00", FormatPrice(108))
	assert.Equal(t, "1.2345", FormatPrice(1.2345))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "longstr...", TruncateString("longstring-overflow", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestDashIfNil(t *testing.T) {
	assert.Equal(t, "-", dashIfNil(nil, FormatPrice))
	assert.Equal(t, "108.00", dashIfNil(models.Float64(108), FormatPrice))
}

func TestParseDate(t *testing.T) {
	empty, err := parseDate("")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	dateOnly, err := parseDate("2026-08-24")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local), dateOnly)

	withTime, err := parseDate("2026-08-24 15:04")
	require.NoError(t, err)
	assert.Equal(t, 15, withTime.Hour())

	_, err = parseDate("24/08/2026")
	assert.Error(t, err)
}
