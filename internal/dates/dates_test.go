package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWeekdays(t *testing.T) {
	assert.Equal(t, 5, Weekdays(d("2024-05-06"), d("2024-05-12"))) // Mon..Sun
	assert.Equal(t, 0, Weekdays(d("2024-05-11"), d("2024-05-12"))) // weekend
	assert.Equal(t, 1, Weekdays(d("2024-05-08"), d("2024-05-08")))
	assert.Equal(t, 0, Weekdays(d("2024-05-09"), d("2024-05-08")))
}

func TestMonday(t *testing.T) {
	assert.Equal(t, "2024-05-06", Format(Monday(d("2024-05-06"))))
	assert.Equal(t, "2024-05-06", Format(Monday(d("2024-05-12"))))
	assert.Equal(t, "2024-04-29", Format(Monday(d("2024-05-01"))))
}

func TestToday(t *testing.T) {
	now := time.Date(2024, 5, 6, 23, 30, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06", Today(now, time.UTC))
	assert.Equal(t, "2024-05-07", Today(now, tokyo))
}

func TestRange(t *testing.T) {
	now := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	from, to, err := Range("", "", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", from)
	assert.Equal(t, "2024-05-31", to)

	_, _, err = Range("2024-06-01", "2024-05-01", now, time.UTC)
	assert.Error(t, err)
	_, _, err = Range("yesterday", "", now, time.UTC)
	assert.Error(t, err)
}
