package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotAvailabilityDaily(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.SlotAvailability()
	require.NoError(t, err)

	// Built from the raw slot table: every slot day appears, including
	// days with no appointments.
	require.Len(t, result.DailyAvailability, 4)

	first := result.DailyAvailability[0]
	assert.Equal(t, "2024-03-04", first.AppointmentDate)
	assert.Equal(t, 1, first.Booked)
	assert.Equal(t, 1, first.Available)
	assert.InDelta(t, 50.0, float64(first.Utilization), 1e-9)

	open := result.DailyAvailability[3]
	assert.Equal(t, "2024-03-12", open.AppointmentDate)
	assert.Equal(t, 0, open.Booked)
	assert.Equal(t, 1, open.Available)
	assert.InDelta(t, 0.0, float64(open.Utilization), 1e-9)
}

func TestSlotAvailabilityHourly(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.SlotAvailability()
	require.NoError(t, err)

	require.Len(t, result.HourlyAvailability, 4)

	byHour := map[int]HourlyAvailabilityRow{}
	for _, row := range result.HourlyAvailability {
		byHour[row.Hour] = row
	}

	assert.Equal(t, 1, byHour[9].Booked)
	assert.Equal(t, 1, byHour[9].Available)
	assert.InDelta(t, 50.0, float64(byHour[9].Utilization), 1e-9)

	assert.Equal(t, 0, byHour[10].Booked)
	assert.InDelta(t, 0.0, float64(byHour[10].Utilization), 1e-9)

	assert.InDelta(t, 100.0, float64(byHour[13].Utilization), 1e-9)
	assert.InDelta(t, 100.0, float64(byHour[18].Utilization), 1e-9)
}
