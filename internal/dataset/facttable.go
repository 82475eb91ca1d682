package dataset

// slotKey joins appointments to slots on (date, time).
type slotKey struct {
	date string
	time TimeOfDay
}

// BuildFactTable left-joins patients and slots onto appointments. Every
// appointment row survives; unmatched joins leave nil Patient/Slot. The
// result has exactly one row per appointment.
func BuildFactTable(appointments []Appointment, patients []Patient, slots []Slot) []FactRow {
	byPatient := make(map[int]*Patient, len(patients))
	for i := range patients {
		p := &patients[i]
		if _, ok := byPatient[p.ID]; !ok {
			byPatient[p.ID] = p
		}
	}

	bySlot := make(map[slotKey]*Slot, len(slots))
	for i := range slots {
		s := &slots[i]
		key := slotKey{date: DateKey(s.Date), time: s.Time}
		if _, ok := bySlot[key]; !ok {
			bySlot[key] = s
		}
	}

	fact := make([]FactRow, 0, len(appointments))
	for _, a := range appointments {
		fact = append(fact, FactRow{
			Appointment: a,
			Patient:     byPatient[a.PatientID],
			Slot:        bySlot[slotKey{date: DateKey(a.Date), time: a.Time}],
		})
	}
	return fact
}
