package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// BMI bounds applied before scaling.
const (
	MinBMI = 10.0
	MaxBMI = 60.0
)

// infectedSoonWindowDays is the inclusive upper bound for the
// infected-soon-after-vaccine flag.
const infectedSoonWindowDays = 14

// binaryUnknown marks a Yes/No field holding any other literal.
const binaryUnknown = -1

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FeatureDeriver turns patient records into model-ready rows using the
// stored scaler and categorical encoders. It never mutates its inputs or
// the artifacts, so one instance is safe for concurrent use.
type FeatureDeriver struct {
	scaler   driven.FeatureScaler
	encoders driven.CategoricalEncoders
}

// NewFeatureDeriver creates a feature deriver.
func NewFeatureDeriver(scaler driven.FeatureScaler, encoders driven.CategoricalEncoders) *FeatureDeriver {
	return &FeatureDeriver{
		scaler:   scaler,
		encoders: encoders,
	}
}

// FeatureNames returns the column order of every derived row.
func (d *FeatureDeriver) FeatureNames() []string {
	return d.scaler.FeatureNames()
}

// DeriveOne derives the scaled feature vector for a single record.
func (d *FeatureDeriver) DeriveOne(record domain.PatientRecord) (domain.FeatureVector, error) {
	m, err := d.Derive([]domain.PatientRecord{record})
	if err != nil {
		return nil, err
	}
	return m[0], nil
}

// Derive derives one scaled feature vector per record, in scaler column order.
func (d *FeatureDeriver) Derive(records []domain.PatientRecord) (domain.FeatureMatrix, error) {
	rows, err := d.Columns(records)
	if err != nil {
		return nil, err
	}

	names := d.scaler.FeatureNames()
	out := make(domain.FeatureMatrix, len(rows))
	for i, row := range rows {
		raw := make([]float64, len(names))
		for j, name := range names {
			// Columns the record does not supply stay 0.
			raw[j] = row[name]
		}
		scaled, err := d.scaler.Transform(raw)
		if err != nil {
			return nil, fmt.Errorf("scale row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

// Columns derives the unscaled model columns for each record, keyed by
// column name. Raw date columns are absorbed into the derived features and
// do not appear in the result.
func (d *FeatureDeriver) Columns(records []domain.PatientRecord) ([]map[string]float64, error) {
	rows := make([]map[string]float64, len(records))
	for i := range records {
		row, err := deriveNumeric(&records[i])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = row
	}

	cats := make([]map[string]string, len(records))
	for i := range records {
		cats[i] = records[i].Categoricals()
	}

	// Encoder-less columns are factorised across the whole batch in
	// first-seen order, one code space per column.
	for _, col := range domain.CategoricalColumns {
		if d.encoders != nil && d.encoders.Has(col) {
			for i := range records {
				code, ok := d.encoders.Encode(col, cats[i][col])
				if !ok {
					code = 0
				}
				rows[i][col] = float64(code)
			}
			continue
		}
		seen := make(map[string]int)
		for i := range records {
			v := cats[i][col]
			code, ok := seen[v]
			if !ok {
				code = len(seen)
				seen[v] = code
			}
			rows[i][col] = float64(code)
		}
	}

	for _, row := range rows {
		for k, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[k] = 0
			}
		}
	}
	return rows, nil
}

func deriveNumeric(p *domain.PatientRecord) (map[string]float64, error) {
	dates := make(map[string]*time.Time, len(domain.DateColumns))
	raw := p.Dates()
	for _, col := range domain.DateColumns {
		t, err := ParseDate(raw[col])
		if err != nil {
			return nil, &domain.SchemaMismatchError{Field: col, Value: raw[col], Err: err}
		}
		dates[col] = t
	}

	row := map[string]float64{
		domain.ColAge:           float64(p.Age),
		domain.ColDosesReceived: float64(p.DosesReceived),
		domain.ColBMI:           ClampBMI(p.BMI),
	}

	bin := p.Binaries()
	for _, col := range domain.BinaryColumns {
		row[col] = float64(MapBinary(bin[col]))
	}

	recovery := dayDelta(dates[domain.ColDateOfRecovery], dates[domain.ColDateOfInfection])
	reinfection := dayDelta(dates[domain.ColDateOfReinfection], dates[domain.ColDateOfRecovery])
	vaccine := dayDelta(dates[domain.ColDateOfInfection], dates[domain.ColDateOfLastDose])
	stay := dayDelta(dates[domain.ColHospitalDischargeDate], dates[domain.ColHospitalAdmissionDate])

	row[domain.ColRecoveryDuration] = floorZero(recovery)
	row[domain.ColTimeToReinfection] = floorZero(reinfection)
	row[domain.ColReinfectedLater] = flag(reinfection > 0)
	row[domain.ColVaccineToInfectionDays] = vaccine
	row[domain.ColHospitalStayDuration] = floorZero(stay)
	row[domain.ColInfectedSoonAfterVaccine] = flag(vaccine >= 0 && vaccine <= infectedSoonWindowDays)

	return row, nil
}

// ParseDate reads a wire timestamp and normalises it to UTC. Zone-less
// values are taken as UTC. An empty value is absent and yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			u := t.UTC()
			return &u, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("unrecognised timestamp: %w", firstErr)
}

// dayDelta returns whole days from start to end, rounded toward negative
// infinity. Absent dates yield 0.
func dayDelta(end, start *time.Time) float64 {
	if end == nil || start == nil {
		return 0
	}
	return math.Floor(end.Sub(*start).Hours() / 24)
}

// MapBinary maps "Yes" to 1, "No" to 0 and anything else to -1.
// Matching is exact: "yes" is unknown.
func MapBinary(v string) int {
	switch v {
	case "Yes":
		return 1
	case "No":
		return 0
	default:
		return binaryUnknown
	}
}

// ClampBMI clips v into [MinBMI, MaxBMI].
func ClampBMI(v float64) float64 {
	return math.Max(MinBMI, math.Min(MaxBMI, v))
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
