package analytics

import (
	"sort"

	"github.com/clinsight/clinic-analytics/internal/dataset"
)

type SlotUsageRow struct {
	AppointmentDate string            `json:"appointment_date"`
	AppointmentTime dataset.TimeOfDay `json:"appointment_time"`
	Booked          int               `json:"booked"`
	Available       int               `json:"available"`
	UtilizationRate Rate              `json:"utilization_rate"`
}

type NoShowBySlotRow struct {
	AppointmentTime dataset.TimeOfDay `json:"appointment_time"`
	NoShowRate      Rate              `json:"no_show_rate"`
}

type SlotUtilization struct {
	SlotUsage    []SlotUsageRow    `json:"slot_usage"`
	NoShowBySlot []NoShowBySlotRow `json:"no_show_by_slot"`
}

type dateTimeKey struct {
	date string
	time dataset.TimeOfDay
}

// SlotUtilization pivots the availability flag of slot-matched fact rows
// into booked/available counts per (date, time), and derives the no-show
// rate per time slot across all appointments.
func (e *Engine) SlotUtilization() (*SlotUtilization, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	type pivot struct{ booked, available int }
	usage := map[dateTimeKey]*pivot{}
	for _, row := range snap.Fact {
		if row.Slot == nil {
			continue
		}
		key := dateTimeKey{date: dataset.DateKey(row.Date), time: row.Time}
		p := usage[key]
		if p == nil {
			p = &pivot{}
			usage[key] = p
		}
		if row.Slot.IsAvailable {
			p.available++
		} else {
			p.booked++
		}
	}

	usageKeys := make([]dateTimeKey, 0, len(usage))
	for k := range usage {
		usageKeys = append(usageKeys, k)
	}
	sort.Slice(usageKeys, func(i, j int) bool {
		if usageKeys[i].date != usageKeys[j].date {
			return usageKeys[i].date < usageKeys[j].date
		}
		return usageKeys[i].time < usageKeys[j].time
	})

	slotUsage := make([]SlotUsageRow, 0, len(usageKeys))
	for _, k := range usageKeys {
		p := usage[k]
		slotUsage = append(slotUsage, SlotUsageRow{
			AppointmentDate: k.date,
			AppointmentTime: k.time,
			Booked:          p.booked,
			Available:       p.available,
			UtilizationRate: pct(float64(p.booked), float64(p.booked+p.available)),
		})
	}

	type slotCounts struct{ total, noShow int }
	byTime := map[dataset.TimeOfDay]*slotCounts{}
	for _, row := range snap.Fact {
		c := byTime[row.Time]
		if c == nil {
			c = &slotCounts{}
			byTime[row.Time] = c
		}
		c.total++
		if row.Status == dataset.StatusDidNotAttend {
			c.noShow++
		}
	}

	times := make([]dataset.TimeOfDay, 0, len(byTime))
	for t := range byTime {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	noShow := make([]NoShowBySlotRow, 0, len(times))
	for _, t := range times {
		c := byTime[t]
		noShow = append(noShow, NoShowBySlotRow{
			AppointmentTime: t,
			NoShowRate:      pct(float64(c.noShow), float64(c.total)),
		})
	}

	return &SlotUtilization{SlotUsage: slotUsage, NoShowBySlot: noShow}, nil
}
