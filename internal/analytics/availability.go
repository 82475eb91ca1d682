package analytics

import (
	"sort"

	"github.com/clinsight/clinic-analytics/internal/dataset"
)

type DailyAvailabilityRow struct {
	AppointmentDate string `json:"appointment_date"`
	Booked          int    `json:"booked"`
	Available       int    `json:"available"`
	Utilization     Rate   `json:"utilization"`
}

type HourlyAvailabilityRow struct {
	Hour        int  `json:"hour"`
	Booked      int  `json:"booked"`
	Available   int  `json:"available"`
	Utilization Rate `json:"utilization"`
}

type SlotAvailability struct {
	DailyAvailability  []DailyAvailabilityRow  `json:"daily_availability"`
	HourlyAvailability []HourlyAvailabilityRow `json:"hourly_availability"`
}

// SlotAvailability reports booked-versus-available counts straight from
// the raw slot table, independent of appointment data. This is the one
// query that bypasses the fact table.
func (e *Engine) SlotAvailability() (*SlotAvailability, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	type pivot struct{ booked, available int }

	daily := map[string]*pivot{}
	hourly := map[int]*pivot{}
	for _, slot := range snap.Slots {
		day := dataset.DateKey(slot.Date)
		dp := daily[day]
		if dp == nil {
			dp = &pivot{}
			daily[day] = dp
		}
		hp := hourly[slot.Time.Hour()]
		if hp == nil {
			hp = &pivot{}
			hourly[slot.Time.Hour()] = hp
		}
		if slot.IsAvailable {
			dp.available++
			hp.available++
		} else {
			dp.booked++
			hp.booked++
		}
	}

	dailyRows := make([]DailyAvailabilityRow, 0, len(daily))
	for _, day := range sortedKeys(daily) {
		p := daily[day]
		dailyRows = append(dailyRows, DailyAvailabilityRow{
			AppointmentDate: day,
			Booked:          p.booked,
			Available:       p.available,
			Utilization:     pct(float64(p.booked), float64(p.booked+p.available)),
		})
	}

	hours := make([]int, 0, len(hourly))
	for h := range hourly {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	hourlyRows := make([]HourlyAvailabilityRow, 0, len(hours))
	for _, h := range hours {
		p := hourly[h]
		hourlyRows = append(hourlyRows, HourlyAvailabilityRow{
			Hour:        h,
			Booked:      p.booked,
			Available:   p.available,
			Utilization: pct(float64(p.booked), float64(p.booked+p.available)),
		})
	}

	return &SlotAvailability{
		DailyAvailability:  dailyRows,
		HourlyAvailability: hourlyRows,
	}, nil
}
