package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixed_Zone(t *testing.T) {
	c := New(4)
	_, offset := c.Now().Zone()
	assert.Equal(t, 4*60*60, offset)
	assert.Equal(t, "UTC+4", c.Location().String())
}

func TestToday_CrossesMidnightBeforeUTC(t *testing.T) {
	// 21:30 UTC is already the next day at UTC+4.
	utc := time.Date(2024, 3, 9, 21, 30, 0, 0, time.UTC)
	c := Static{T: utc.In(New(4).Location())}
	assert.Equal(t, "2024-03-10", FormatDate(c.Today()))
}

func TestParseDate(t *testing.T) {
	loc := New(4).Location()

	d, err := ParseDate("2024-02-29", loc)
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	_, err = ParseDate("2024-13-01", loc)
	assert.Error(t, err)

	_, err = ParseDate("yesterday", loc)
	assert.Error(t, err)
}
