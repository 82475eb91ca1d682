package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinsight/clinic-analytics/internal/dataset"
)

func TestAppointmentVolumeByDay(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.AppointmentVolume(TimeframeDay)
	require.NoError(t, err)
	rows := result.([]DayVolumeRow)

	assert.Equal(t, []DayVolumeRow{
		{AppointmentDate: "2024-03-04", Count: 2},
		{AppointmentDate: "2024-03-05", Count: 1},
		{AppointmentDate: "2024-03-11", Count: 1},
		{AppointmentDate: "2024-03-12", Count: 1},
		{AppointmentDate: "2024-04-01", Count: 1},
	}, rows)
}

func TestAppointmentVolumeByWeek(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.AppointmentVolume(TimeframeWeek)
	require.NoError(t, err)
	rows := result.([]WeekVolumeRow)

	assert.Equal(t, []WeekVolumeRow{
		{Date: 10, Count: 3},
		{Date: 11, Count: 2},
		{Date: 14, Count: 1},
	}, rows)
}

func TestAppointmentVolumeByMonth(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.AppointmentVolume(TimeframeMonth)
	require.NoError(t, err)
	rows := result.([]MonthVolumeRow)

	assert.Equal(t, []MonthVolumeRow{
		{Month: 3, Count: 5, Date: "Mar"},
		{Month: 4, Count: 1, Date: "Apr"},
	}, rows)
}

// Regardless of timeframe, grouping only redistributes the rows, so each
// result sums to the fact-table row count.
func TestAppointmentVolumeTotalsAgree(t *testing.T) {
	e := newTestEngine(t)

	var day, week, month int

	result, err := e.AppointmentVolume(TimeframeDay)
	require.NoError(t, err)
	for _, r := range result.([]DayVolumeRow) {
		day += r.Count
	}
	result, err = e.AppointmentVolume(TimeframeWeek)
	require.NoError(t, err)
	for _, r := range result.([]WeekVolumeRow) {
		week += r.Count
	}
	result, err = e.AppointmentVolume(TimeframeMonth)
	require.NoError(t, err)
	for _, r := range result.([]MonthVolumeRow) {
		month += r.Count
	}

	assert.Equal(t, 6, day)
	assert.Equal(t, day, week)
	assert.Equal(t, day, month)
}

func TestAppointmentVolumeInvalidTimeframe(t *testing.T) {
	e := newTestEngine(t)

	for _, tf := range []string{"year", "Day", "hour", "weeks"} {
		_, err := e.AppointmentVolume(tf)
		assert.ErrorIs(t, err, ErrInvalidTimeframe, "timeframe %q", tf)
	}
}

func TestAppointmentVolumeNotLoaded(t *testing.T) {
	e := emptyEngine(t)

	_, err := e.AppointmentVolume(TimeframeDay)
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)
}
