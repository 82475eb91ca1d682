package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/clinsight/clinic-analytics/pkg/logging"
)

const dateLayout = "2006-01-02"

// Files names the three source files inside the data directory.
type Files struct {
	Appointments string
	Patients     string
	Slots        string
}

// DefaultFiles returns the canonical source file names.
func DefaultFiles() Files {
	return Files{
		Appointments: "clean_appointments.csv",
		Patients:     "patients_cleaned.csv",
		Slots:        "slots_cleaned_with_doctor_info.csv",
	}
}

// Loader reads the three source CSV files and assembles a Snapshot.
// It validates each file against an explicit column schema at load time;
// a missing file, a missing column, or a malformed date/time value fails
// the whole load and the caller keeps whatever snapshot it already had.
type Loader struct {
	dir    string
	files  Files
	logger *logging.Logger
}

// NewLoader creates a loader for the given data directory.
func NewLoader(dir string, files Files, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Default()
	}
	return &Loader{dir: dir, files: files, logger: logger}
}

// Load reads and parses all three files and builds the fact table.
// It returns an error instead of panicking on any failure.
func (l *Loader) Load() (*Snapshot, error) {
	if info, err := os.Stat(l.dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("dataset: data directory %s does not exist", l.dir)
	}

	appointments, err := l.loadAppointments(filepath.Join(l.dir, l.files.Appointments))
	if err != nil {
		return nil, err
	}
	l.logger.Info("loaded appointments", "file", l.files.Appointments, "rows", len(appointments))

	patients, err := l.loadPatients(filepath.Join(l.dir, l.files.Patients))
	if err != nil {
		return nil, err
	}
	l.logger.Info("loaded patients", "file", l.files.Patients, "rows", len(patients))

	slots, err := l.loadSlots(filepath.Join(l.dir, l.files.Slots))
	if err != nil {
		return nil, err
	}
	l.logger.Info("loaded slots", "file", l.files.Slots, "rows", len(slots))

	return &Snapshot{
		Appointments: appointments,
		Patients:     patients,
		Slots:        slots,
		Fact:         BuildFactTable(appointments, patients, slots),
		LoadedAt:     time.Now().UTC(),
	}, nil
}

// table is one parsed CSV file: a header index plus raw records.
type table struct {
	name   string
	header map[string]int
	rows   [][]string
}

func readTable(path string, required []string) (*table, error) {
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	headerRow, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header of %s: %w", name, err)
	}

	header := make(map[string]int, len(headerRow))
	for i, col := range headerRow {
		header[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("dataset: %s: missing required column %q", name, col)
		}
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read %s: %w", name, err)
		}
		rows = append(rows, record)
	}
	return &table{name: name, header: header, rows: rows}, nil
}

func (t *table) field(row []string, col string) string {
	idx, ok := t.header[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *table) hasColumn(col string) bool {
	_, ok := t.header[col]
	return ok
}

func (l *Loader) loadAppointments(path string) ([]Appointment, error) {
	t, err := readTable(path, []string{
		"patient_id", "appointment_date", "appointment_time",
		"scheduling_date", "status", "scheduling_interval",
	})
	if err != nil {
		return nil, err
	}

	appointments := make([]Appointment, 0, len(t.rows))
	for i, row := range t.rows {
		a := Appointment{Status: t.field(row, "status")}

		if a.PatientID, err = parseIntField(t, row, "patient_id", i); err != nil {
			return nil, err
		}
		if a.Date, err = parseDateField(t, row, "appointment_date", i); err != nil {
			return nil, err
		}
		if a.Time, err = parseTimeField(t, row, "appointment_time", i); err != nil {
			return nil, err
		}
		if a.SchedulingDate, err = parseDateField(t, row, "scheduling_date", i); err != nil {
			return nil, err
		}
		if a.SchedulingInterval, err = parseIntField(t, row, "scheduling_interval", i); err != nil {
			return nil, err
		}
		a.WaitingTime = parseFloatOrNaN(t.field(row, "waiting_time"))
		a.Duration = parseFloatOrNaN(t.field(row, "appointment_duration"))

		// check_in_time is only present for attended appointments; an empty
		// cell means "not recorded", anything else must be canonical.
		if raw := t.field(row, "check_in_time"); raw != "" {
			ci, err := ParseTimeOfDay(raw)
			if err != nil {
				return nil, fmt.Errorf("dataset: %s row %d: %w", t.name, i+1, err)
			}
			a.CheckInTime = &ci
		}

		appointments = append(appointments, a)
	}
	return appointments, nil
}

func (l *Loader) loadPatients(path string) ([]Patient, error) {
	t, err := readTable(path, []string{"patient_id", "sex", "age_group", "insurance"})
	if err != nil {
		return nil, err
	}

	patients := make([]Patient, 0, len(t.rows))
	for i, row := range t.rows {
		p := Patient{
			Sex:       t.field(row, "sex"),
			AgeGroup:  t.field(row, "age_group"),
			Insurance: t.field(row, "insurance"),
		}
		if p.ID, err = parseIntField(t, row, "patient_id", i); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, nil
}

func (l *Loader) loadSlots(path string) ([]Slot, error) {
	t, err := readTable(path, []string{"appointment_date", "appointment_time", "is_available"})
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, len(t.rows))
	for i, row := range t.rows {
		s := Slot{DoctorSpecialty: t.field(row, "doctor_specialty")}

		if s.Date, err = parseDateField(t, row, "appointment_date", i); err != nil {
			return nil, err
		}
		if s.Time, err = parseTimeField(t, row, "appointment_time", i); err != nil {
			return nil, err
		}

		raw := t.field(row, "is_available")
		avail, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("dataset: %s row %d: invalid is_available %q", t.name, i+1, raw)
		}
		s.IsAvailable = avail

		slots = append(slots, s)
	}
	return slots, nil
}

func parseDateField(t *table, row []string, col string, idx int) (time.Time, error) {
	raw := t.field(row, col)
	d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		// Some exports write dates with a midnight timestamp attached.
		d, err = time.ParseInLocation(dateLayout+" 15:04:05", raw, time.UTC)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("dataset: %s row %d: invalid %s %q", t.name, idx+1, col, raw)
	}
	return d, nil
}

func parseTimeField(t *table, row []string, col string, idx int) (TimeOfDay, error) {
	tod, err := ParseTimeOfDay(t.field(row, col))
	if err != nil {
		return 0, fmt.Errorf("dataset: %s row %d: %w", t.name, idx+1, err)
	}
	return tod, nil
}

func parseIntField(t *table, row []string, col string, idx int) (int, error) {
	raw := t.field(row, col)
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Some exports write integer columns as floats ("3.0").
		if f, ferr := strconv.ParseFloat(raw, 64); ferr == nil && f == math.Trunc(f) {
			return int(f), nil
		}
		return 0, fmt.Errorf("dataset: %s row %d: invalid %s %q", t.name, idx+1, col, raw)
	}
	return n, nil
}

func parseFloatOrNaN(raw string) float64 {
	if raw == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
