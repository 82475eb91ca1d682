package analytics

import (
	"sort"

	"github.com/clinsight/clinic-analytics/internal/dataset"
)

type InsuranceRow struct {
	Insurance  string `json:"insurance"`
	NoShowRate Rate   `json:"no_show_rate"`
}

// PatientDemographics holds the demographic breakdowns. The two age/sex
// pivots carry one column per sex value found in the data, so their rows
// are field maps rather than fixed structs.
type PatientDemographics struct {
	AgeSexDistribution []map[string]any `json:"age_sex_distribution"`
	NoShowAgeSex       []map[string]any `json:"no_show_age_sex"`
	InsuranceStats     []InsuranceRow   `json:"insurance_stats"`
}

// PatientDemographics computes age/sex distribution, the no-show rate per
// (age group, sex), and per-insurance no-show rates. Rows without a
// matching patient have no demographic attributes and are dropped, the
// same way a group-by drops null keys.
func (e *Engine) PatientDemographics() (*PatientDemographics, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	type cell struct{ total, noShow int }
	type ageSexKey struct{ ageGroup, sex string }

	cells := map[ageSexKey]*cell{}
	sexes := map[string]struct{}{}
	ageGroups := map[string]struct{}{}
	insurance := map[string]*cell{}

	for _, row := range snap.Fact {
		if row.Patient == nil {
			continue
		}
		noShow := row.Status == dataset.StatusDidNotAttend

		key := ageSexKey{ageGroup: row.Patient.AgeGroup, sex: row.Patient.Sex}
		c := cells[key]
		if c == nil {
			c = &cell{}
			cells[key] = c
		}
		c.total++
		if noShow {
			c.noShow++
		}
		sexes[key.sex] = struct{}{}
		ageGroups[key.ageGroup] = struct{}{}

		ic := insurance[row.Patient.Insurance]
		if ic == nil {
			ic = &cell{}
			insurance[row.Patient.Insurance] = ic
		}
		ic.total++
		if noShow {
			ic.noShow++
		}
	}

	sexList := make([]string, 0, len(sexes))
	for s := range sexes {
		sexList = append(sexList, s)
	}
	sort.Strings(sexList)

	ageList := make([]string, 0, len(ageGroups))
	for a := range ageGroups {
		ageList = append(ageList, a)
	}
	sort.Strings(ageList)

	distribution := make([]map[string]any, 0, len(ageList))
	noShowPivot := make([]map[string]any, 0, len(ageList))
	for _, ag := range ageList {
		distRow := map[string]any{"age_group": ag}
		rateRow := map[string]any{"age_group": ag}
		for _, sex := range sexList {
			c := cells[ageSexKey{ageGroup: ag, sex: sex}]
			if c == nil {
				// Pivot cells with no observations are reported as zero.
				distRow[sex] = 0
				rateRow[sex] = Rate(0)
				continue
			}
			distRow[sex] = c.total
			rateRow[sex] = pct(float64(c.noShow), float64(c.total))
		}
		distribution = append(distribution, distRow)
		noShowPivot = append(noShowPivot, rateRow)
	}

	insuranceRows := make([]InsuranceRow, 0, len(insurance))
	for _, name := range sortedKeys(insurance) {
		c := insurance[name]
		insuranceRows = append(insuranceRows, InsuranceRow{
			Insurance:  name,
			NoShowRate: pct(float64(c.noShow), float64(c.total)),
		})
	}

	return &PatientDemographics{
		AgeSexDistribution: distribution,
		NoShowAgeSex:       noShowPivot,
		InsuranceStats:     insuranceRows,
	}, nil
}
