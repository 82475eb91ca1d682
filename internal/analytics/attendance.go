package analytics

import (
	"fmt"

	"github.com/clinsight/clinic-analytics/internal/dataset"
)

type DailyAttendanceRow struct {
	AppointmentDate string `json:"appointment_date"`
	Attended        int    `json:"attended"`
	DidNotAttend    int    `json:"did_not_attend"`
	Other           int    `json:"other"`
	NoShowRate      Rate   `json:"no_show_rate"`
}

type TimeOfDayRow struct {
	TimeOfDayCategory string `json:"time_of_day_category"`
	NoShowRate        Rate   `json:"no_show_rate"`
}

type IntervalRow struct {
	SchedulingIntervalBin string `json:"scheduling_interval_bin"`
	NoShowRate            Rate   `json:"no_show_rate"`
}

type AttendancePatterns struct {
	DailyAttendance  []DailyAttendanceRow `json:"daily_attendance"`
	NoShowByTime     []TimeOfDayRow       `json:"no_show_by_time"`
	NoShowByInterval []IntervalRow        `json:"no_show_by_interval"`
}

// Time-of-day buckets are half-open on the lower bound: [0,12) Morning,
// [12,17) Afternoon, [17,24) Evening.
var timeOfDayCategories = []string{"Morning", "Afternoon", "Evening"}

func timeOfDayCategory(t dataset.TimeOfDay) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Morning"
	case h < 17:
		return "Afternoon"
	default:
		return "Evening"
	}
}

// Scheduling-interval buckets are open-closed: (0,1], (1,3], ... (90,365].
// Values at or below the first boundary, or above the last, fall outside
// every bucket and are dropped from this breakdown.
var intervalBounds = []int{0, 1, 3, 7, 14, 30, 90, 365}

func intervalBucket(days int) (string, bool) {
	for i := 1; i < len(intervalBounds); i++ {
		if days > intervalBounds[i-1] && days <= intervalBounds[i] {
			return intervalLabel(i), true
		}
	}
	return "", false
}

func intervalLabel(i int) string {
	return fmt.Sprintf("(%d, %d]", intervalBounds[i-1], intervalBounds[i])
}

// AttendancePatterns breaks no-show behavior down by day, by time-of-day
// bucket, and by scheduling-interval bucket. Every bucket is reported even
// when empty; empty buckets carry the undefined rate.
func (e *Engine) AttendancePatterns() (*AttendancePatterns, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	type statusPivot struct{ attended, didNotAttend, other int }
	daily := map[string]*statusPivot{}
	for _, row := range snap.Fact {
		day := dataset.DateKey(row.Date)
		p := daily[day]
		if p == nil {
			p = &statusPivot{}
			daily[day] = p
		}
		switch row.Status {
		case dataset.StatusAttended:
			p.attended++
		case dataset.StatusDidNotAttend:
			p.didNotAttend++
		default:
			p.other++
		}
	}

	dailyRows := make([]DailyAttendanceRow, 0, len(daily))
	for _, day := range sortedKeys(daily) {
		p := daily[day]
		dailyRows = append(dailyRows, DailyAttendanceRow{
			AppointmentDate: day,
			Attended:        p.attended,
			DidNotAttend:    p.didNotAttend,
			Other:           p.other,
			NoShowRate:      pct(float64(p.didNotAttend), float64(p.attended+p.didNotAttend)),
		})
	}

	type indicator struct{ total, noShow int }
	byCategory := map[string]*indicator{}
	for _, c := range timeOfDayCategories {
		byCategory[c] = &indicator{}
	}
	for _, row := range snap.Fact {
		c := byCategory[timeOfDayCategory(row.Time)]
		c.total++
		if row.Status == dataset.StatusDidNotAttend {
			c.noShow++
		}
	}

	timeRows := make([]TimeOfDayRow, 0, len(timeOfDayCategories))
	for _, cat := range timeOfDayCategories {
		c := byCategory[cat]
		timeRows = append(timeRows, TimeOfDayRow{
			TimeOfDayCategory: cat,
			NoShowRate:        pct(float64(c.noShow), float64(c.total)),
		})
	}

	byBucket := map[string]*indicator{}
	for i := 1; i < len(intervalBounds); i++ {
		byBucket[intervalLabel(i)] = &indicator{}
	}
	for _, row := range snap.Fact {
		label, ok := intervalBucket(row.SchedulingInterval)
		if !ok {
			continue
		}
		c := byBucket[label]
		c.total++
		if row.Status == dataset.StatusDidNotAttend {
			c.noShow++
		}
	}

	intervalRows := make([]IntervalRow, 0, len(intervalBounds)-1)
	for i := 1; i < len(intervalBounds); i++ {
		label := intervalLabel(i)
		c := byBucket[label]
		intervalRows = append(intervalRows, IntervalRow{
			SchedulingIntervalBin: label,
			NoShowRate:            pct(float64(c.noShow), float64(c.total)),
		})
	}

	return &AttendancePatterns{
		DailyAttendance:  dailyRows,
		NoShowByTime:     timeRows,
		NoShowByInterval: intervalRows,
	}, nil
}
