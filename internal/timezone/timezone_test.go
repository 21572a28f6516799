package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(time.Date(2024, time.February, 17, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", start)
	assert.Equal(t, "2024-02-29", end)

	start, end = MonthRange(time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2023-12-01", start)
	assert.Equal(t, "2023-12-31", end)
}

func TestLocationFallsBackToDefault(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.NotNil(t, Location("Not/AZone"))
}
