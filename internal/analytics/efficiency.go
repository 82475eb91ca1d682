package analytics

import (
	"github.com/clinsight/clinic-analytics/internal/dataset"
)

type WaitingRow struct {
	AppointmentDate string `json:"appointment_date"`
	WaitingMinutes  Rate   `json:"waiting_minutes"`
}

type DurationRow struct {
	DoctorSpecialty string `json:"doctor_specialty"`
	Mean            Rate   `json:"mean"`
	Median          Rate   `json:"median"`
	Std             Rate   `json:"std"`
}

type CheckInRow struct {
	AppointmentDate string `json:"appointment_date"`
	CheckInDiff     Rate   `json:"check_in_diff"`
}

type OperationalEfficiency struct {
	WaitingStats  []WaitingRow  `json:"waiting_stats"`
	DurationStats []DurationRow `json:"duration_stats"`
	CheckInStats  []CheckInRow  `json:"check_in_stats"`
}

// OperationalEfficiency derives waiting-time, duration, and check-in
// metrics over attended appointments only. Check-in difference is actual
// check-in minus scheduled time, in minutes; appointments without a
// recorded check-in contribute nothing to their day's mean.
func (e *Engine) OperationalEfficiency() (*OperationalEfficiency, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	waitingByDay := map[string][]float64{}
	checkInByDay := map[string][]float64{}
	durationBySpecialty := map[string][]float64{}

	for _, row := range snap.Fact {
		if row.Status != dataset.StatusAttended {
			continue
		}
		day := dataset.DateKey(row.Date)

		waitingByDay[day] = append(waitingByDay[day], row.WaitingTime)

		if row.CheckInTime != nil {
			diff := row.CheckInTime.Minutes() - row.Time.Minutes()
			checkInByDay[day] = append(checkInByDay[day], diff)
		} else if _, ok := checkInByDay[day]; !ok {
			checkInByDay[day] = nil
		}

		if row.Slot != nil && row.Slot.DoctorSpecialty != "" {
			spec := row.Slot.DoctorSpecialty
			durationBySpecialty[spec] = append(durationBySpecialty[spec], row.Duration)
		}
	}

	waitingRows := make([]WaitingRow, 0, len(waitingByDay))
	for _, day := range sortedKeys(waitingByDay) {
		waitingRows = append(waitingRows, WaitingRow{
			AppointmentDate: day,
			WaitingMinutes:  Rate(mean(waitingByDay[day])),
		})
	}

	durationRows := make([]DurationRow, 0, len(durationBySpecialty))
	for _, spec := range sortedKeys(durationBySpecialty) {
		values := durationBySpecialty[spec]
		durationRows = append(durationRows, DurationRow{
			DoctorSpecialty: spec,
			Mean:            Rate(mean(values)),
			Median:          Rate(median(values)),
			Std:             Rate(sampleStd(values)),
		})
	}

	checkInRows := make([]CheckInRow, 0, len(checkInByDay))
	for _, day := range sortedKeys(checkInByDay) {
		checkInRows = append(checkInRows, CheckInRow{
			AppointmentDate: day,
			CheckInDiff:     Rate(mean(checkInByDay[day])),
		})
	}

	return &OperationalEfficiency{
		WaitingStats:  waitingRows,
		DurationStats: durationRows,
		CheckInStats:  checkInRows,
	}, nil
}
