package analytics

import (
	"sort"
	"time"

	"github.com/clinsight/clinic-analytics/internal/dataset"
)

// Timeframe values accepted by AppointmentVolume.
const (
	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

type DayVolumeRow struct {
	AppointmentDate string `json:"appointment_date"`
	Count           int    `json:"count"`
}

type WeekVolumeRow struct {
	Date  int `json:"date"` // ISO week number
	Count int `json:"count"`
}

type MonthVolumeRow struct {
	Month int    `json:"month"`
	Count int    `json:"count"`
	Date  string `json:"date"` // three-letter month abbreviation
}

// AppointmentVolume counts appointments grouped by the requested
// timeframe. The row shape differs per timeframe, matching the API
// contract; an unknown timeframe is ErrInvalidTimeframe.
func (e *Engine) AppointmentVolume(timeframe string) (any, error) {
	switch timeframe {
	case TimeframeDay:
		return e.volumeByDay()
	case TimeframeWeek:
		return e.volumeByWeek()
	case TimeframeMonth:
		return e.volumeByMonth()
	default:
		return nil, ErrInvalidTimeframe
	}
}

func (e *Engine) volumeByDay() ([]DayVolumeRow, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, row := range snap.Fact {
		counts[dataset.DateKey(row.Date)]++
	}

	out := make([]DayVolumeRow, 0, len(counts))
	for _, day := range sortedKeys(counts) {
		out = append(out, DayVolumeRow{AppointmentDate: day, Count: counts[day]})
	}
	return out, nil
}

func (e *Engine) volumeByWeek() ([]WeekVolumeRow, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	counts := map[int]int{}
	for _, row := range snap.Fact {
		_, week := row.Date.ISOWeek()
		counts[week]++
	}

	weeks := make([]int, 0, len(counts))
	for w := range counts {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	out := make([]WeekVolumeRow, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, WeekVolumeRow{Date: w, Count: counts[w]})
	}
	return out, nil
}

func (e *Engine) volumeByMonth() ([]MonthVolumeRow, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	counts := map[int]int{}
	for _, row := range snap.Fact {
		counts[int(row.Date.Month())]++
	}

	months := make([]int, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Ints(months)

	out := make([]MonthVolumeRow, 0, len(months))
	for _, m := range months {
		out = append(out, MonthVolumeRow{
			Month: m,
			Count: counts[m],
			Date:  time.Month(m).String()[:3],
		})
	}
	return out, nil
}
