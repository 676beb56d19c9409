package services

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// BuildQuery renders a patient into the retrieval query sent to the
// evidence retriever and recorded in the query log.
func BuildQuery(p domain.PatientRecord) string {
	base := fmt.Sprintf("Patient: %d years, %s, Vaccine: %s (%d doses), Conditions: %s, Strain: %s, Symptoms: %s (%s)",
		p.Age, p.Gender, p.VaccineType, p.DosesReceived, p.PreexistingCondition,
		p.COVIDStrain, p.Symptoms, p.Severity)

	clinical := fmt.Sprintf("Hospitalized: %s, ICU: %s, Ventilator: %s, BMI: %s, Smoking: %s",
		p.Hospitalized, p.ICUAdmission, p.VentilatorSupport,
		strconv.FormatFloat(p.BMI, 'f', -1, 64), p.SmokingStatus)

	timing := fmt.Sprintf("Last infection: %s, Last dose: %s", p.DateOfInfection, p.DateOfLastDose)

	return "COVID-19 reinfection risk assessment considering:\n" +
		"1. " + base + "\n" +
		"2. " + clinical + "\n" +
		"3. " + timing
}
