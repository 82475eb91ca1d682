package dataset

import (
	"fmt"
	"time"
)

// Appointment statuses as they appear in the source files.
const (
	StatusAttended     = "attended"
	StatusDidNotAttend = "did not attend"
)

// TimeOfDay is a wall-clock time stored as seconds since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a canonical HH:MM:SS value. Any other format is an
// error, per the load contract.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("dataset: invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

// Hour returns the hour component (0-23).
func (t TimeOfDay) Hour() int { return int(t) / 3600 }

// Minutes returns the time as fractional minutes since midnight.
func (t TimeOfDay) Minutes() float64 { return float64(t) / 60.0 }

func (t TimeOfDay) String() string {
	secs := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// MarshalJSON renders the canonical HH:MM:SS form.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// Appointment is one scheduled visit. Immutable once loaded.
type Appointment struct {
	PatientID          int
	Date               time.Time
	Time               TimeOfDay
	SchedulingDate     time.Time
	Status             string
	SchedulingInterval int
	WaitingTime        float64 // minutes; NaN when absent
	Duration           float64 // minutes; NaN when absent
	CheckInTime        *TimeOfDay
}

// Patient is a demographic reference row.
type Patient struct {
	ID        int
	Sex       string
	AgeGroup  string
	Insurance string
}

// Slot is a bookable date/time unit, independent of appointments.
type Slot struct {
	Date            time.Time
	Time            TimeOfDay
	IsAvailable     bool
	DoctorSpecialty string
}

// FactRow is one appointment enriched with its (optional) patient and slot
// matches. Status and timing fields always come from the appointment.
type FactRow struct {
	Appointment
	Patient *Patient
	Slot    *Slot
}

// Snapshot is a fully-built, immutable view of the loaded datasets. It is
// only ever replaced wholesale, never mutated.
type Snapshot struct {
	Appointments []Appointment
	Patients     []Patient
	Slots        []Slot
	Fact         []FactRow
	LoadedAt     time.Time
}

// DateKey formats a calendar date the way the API reports it.
func DateKey(d time.Time) string {
	return d.Format("2006-01-02")
}
