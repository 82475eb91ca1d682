package analytics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clinsight/clinic-analytics/internal/dataset"
)

// Fixture notes: patient 3 has no demographics row, and the 2024-04-01
// appointment has no matching slot, so both left-join misses are covered.
const (
	fixtureAppointments = `patient_id,appointment_date,appointment_time,scheduling_date,status,scheduling_interval,waiting_time,appointment_duration,check_in_time
1,2024-03-04,09:00:00,2024-03-01,attended,3,10,30,09:05:00
2,2024-03-04,09:00:00,2024-02-25,did not attend,8,,,
1,2024-03-05,13:00:00,2024-03-05,attended,0,20,40,12:55:00
3,2024-03-11,18:30:00,2024-02-10,did not attend,30,,,
2,2024-04-01,11:59:59,2024-03-02,attended,400,30,50,
1,2024-03-12,09:00:00,2024-03-10,attended,2,15,25,09:00:00
`
	fixturePatients = `patient_id,sex,age_group,insurance
1,F,25-34,public
2,M,35-44,private
`
	fixtureSlots = `appointment_date,appointment_time,is_available,doctor_specialty
2024-03-04,09:00:00,false,cardiology
2024-03-04,10:00:00,true,cardiology
2024-03-05,13:00:00,false,dermatology
2024-03-11,18:30:00,false,cardiology
2024-03-12,09:00:00,true,dermatology
`
)

func newTestStore(t *testing.T, appointments, patients, slots string) *dataset.Store {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"clean_appointments.csv":             appointments,
		"patients_cleaned.csv":               patients,
		"slots_cleaned_with_doctor_info.csv": slots,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	store := dataset.NewStore(dataset.NewLoader(dir, dataset.DefaultFiles(), nil), nil, nil)
	require.NoError(t, store.Reload())
	return store
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(newTestStore(t, fixtureAppointments, fixturePatients, fixtureSlots))
}

func mustTod(t *testing.T, s string) dataset.TimeOfDay {
	t.Helper()
	tod, err := dataset.ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func emptyEngine(t *testing.T) *Engine {
	t.Helper()
	store := dataset.NewStore(dataset.NewLoader(t.TempDir(), dataset.DefaultFiles(), nil), nil, nil)
	return NewEngine(store)
}
