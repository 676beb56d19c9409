package domain

import (
	"fmt"
	"strings"
)

// PatientRecord is one individual's clinical and demographic profile as
// submitted to the prediction API. JSON names match the wire format used by
// the front ends and by the stored scaler's column names.
type PatientRecord struct {
	Age                    int     `json:"Age"`
	Gender                 string  `json:"Gender"`
	Region                 string  `json:"Region"`
	PreexistingCondition   string  `json:"Preexisting_Condition"`
	DateOfInfection        string  `json:"Date_of_Infection"`
	COVIDStrain            string  `json:"COVID_Strain"`
	Symptoms               string  `json:"Symptoms"`
	Severity               string  `json:"Severity"`
	Hospitalized           string  `json:"Hospitalized"`
	HospitalAdmissionDate  string  `json:"Hospital_Admission_Date"`
	HospitalDischargeDate  string  `json:"Hospital_Discharge_Date"`
	ICUAdmission           string  `json:"ICU_Admission"`
	VentilatorSupport      string  `json:"Ventilator_Support"`
	Recovered              string  `json:"Recovered"`
	DateOfRecovery         string  `json:"Date_of_Recovery"`
	DateOfReinfection      string  `json:"Date_of_Reinfection"`
	VaccinationStatus      string  `json:"Vaccination_Status"`
	VaccineType            string  `json:"Vaccine_Type"`
	DosesReceived          int     `json:"Doses_Received"`
	DateOfLastDose         string  `json:"Date_of_Last_Dose"`
	LongCOVIDSymptoms      string  `json:"Long_COVID_Symptoms"`
	Occupation             string  `json:"Occupation"`
	SmokingStatus          string  `json:"Smoking_Status"`
	BMI                    float64 `json:"BMI"`
	RecoveryClassification string  `json:"Recovery_Classification"`
}

// Column names shared by the feature pipeline and the stored artifacts.
const (
	ColAge                    = "Age"
	ColGender                 = "Gender"
	ColRegion                 = "Region"
	ColPreexistingCondition   = "Preexisting_Condition"
	ColDateOfInfection        = "Date_of_Infection"
	ColCOVIDStrain            = "COVID_Strain"
	ColSymptoms               = "Symptoms"
	ColSeverity               = "Severity"
	ColHospitalized           = "Hospitalized"
	ColHospitalAdmissionDate  = "Hospital_Admission_Date"
	ColHospitalDischargeDate  = "Hospital_Discharge_Date"
	ColICUAdmission           = "ICU_Admission"
	ColVentilatorSupport      = "Ventilator_Support"
	ColRecovered              = "Recovered"
	ColDateOfRecovery         = "Date_of_Recovery"
	ColDateOfReinfection      = "Date_of_Reinfection"
	ColVaccinationStatus      = "Vaccination_Status"
	ColVaccineType            = "Vaccine_Type"
	ColDosesReceived          = "Doses_Received"
	ColDateOfLastDose         = "Date_of_Last_Dose"
	ColLongCOVIDSymptoms      = "Long_COVID_Symptoms"
	ColOccupation             = "Occupation"
	ColSmokingStatus          = "Smoking_Status"
	ColBMI                    = "BMI"
	ColRecoveryClassification = "Recovery_Classification"

	ColRecoveryDuration         = "Recovery_Duration"
	ColTimeToReinfection        = "Time_to_Reinfection"
	ColReinfectedLater          = "Reinfected_Later"
	ColVaccineToInfectionDays   = "Vaccine_to_Infection_Days"
	ColHospitalStayDuration     = "Hospital_Stay_Duration"
	ColInfectedSoonAfterVaccine = "Infected_soon_after_vaccine"
)

// DateColumns are the raw timestamp columns. They are absorbed into derived
// features and never reach the classifier.
var DateColumns = []string{
	ColDateOfInfection,
	ColDateOfRecovery,
	ColDateOfReinfection,
	ColHospitalAdmissionDate,
	ColHospitalDischargeDate,
	ColDateOfLastDose,
}

// BinaryColumns are the Yes/No clinical fields.
var BinaryColumns = []string{
	ColHospitalized,
	ColICUAdmission,
	ColVentilatorSupport,
	ColRecovered,
	ColVaccinationStatus,
}

// Dates returns the raw date strings keyed by column name.
func (p *PatientRecord) Dates() map[string]string {
	return map[string]string{
		ColDateOfInfection:       p.DateOfInfection,
		ColDateOfRecovery:        p.DateOfRecovery,
		ColDateOfReinfection:     p.DateOfReinfection,
		ColHospitalAdmissionDate: p.HospitalAdmissionDate,
		ColHospitalDischargeDate: p.HospitalDischargeDate,
		ColDateOfLastDose:        p.DateOfLastDose,
	}
}

// Binaries returns the Yes/No fields keyed by column name.
func (p *PatientRecord) Binaries() map[string]string {
	return map[string]string{
		ColHospitalized:      p.Hospitalized,
		ColICUAdmission:      p.ICUAdmission,
		ColVentilatorSupport: p.VentilatorSupport,
		ColRecovered:         p.Recovered,
		ColVaccinationStatus: p.VaccinationStatus,
	}
}

// Categoricals returns the free categorical fields keyed by column name.
func (p *PatientRecord) Categoricals() map[string]string {
	return map[string]string{
		ColGender:                 p.Gender,
		ColRegion:                 p.Region,
		ColPreexistingCondition:   p.PreexistingCondition,
		ColCOVIDStrain:            p.COVIDStrain,
		ColSymptoms:               p.Symptoms,
		ColSeverity:               p.Severity,
		ColVaccineType:            p.VaccineType,
		ColLongCOVIDSymptoms:      p.LongCOVIDSymptoms,
		ColOccupation:             p.Occupation,
		ColSmokingStatus:          p.SmokingStatus,
		ColRecoveryClassification: p.RecoveryClassification,
	}
}

// CategoricalColumns lists categorical columns in schema order.
var CategoricalColumns = []string{
	ColGender,
	ColRegion,
	ColPreexistingCondition,
	ColCOVIDStrain,
	ColSymptoms,
	ColSeverity,
	ColVaccineType,
	ColLongCOVIDSymptoms,
	ColOccupation,
	ColSmokingStatus,
	ColRecoveryClassification,
}

// Validate enforces the schema boundary: required fields present and
// non-negative counts. BMI range and Yes/No literals are left to the
// feature pipeline.
func (p *PatientRecord) Validate() error {
	if p.Age < 0 {
		return fmt.Errorf("%w: Age must be non-negative, got %d", ErrInvalidInput, p.Age)
	}
	if p.DosesReceived < 0 {
		return fmt.Errorf("%w: Doses_Received must be non-negative, got %d", ErrInvalidInput, p.DosesReceived)
	}

	var missing []string
	for _, f := range []struct{ col, val string }{
		{ColGender, p.Gender},
		{ColSeverity, p.Severity},
		{ColSmokingStatus, p.SmokingStatus},
		{ColDateOfInfection, p.DateOfInfection},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// Label is the classifier's reinfection verdict.
type Label string

// Reinfection labels.
const (
	LabelYes Label = "Yes"
	LabelNo  Label = "No"

	// LabelUnknown stands in when no prediction is available.
	LabelUnknown Label = "Unknown"
)

// LabelFromClass maps the classifier's binary output to a label.
func LabelFromClass(class int) Label {
	if class == 1 {
		return LabelYes
	}
	return LabelNo
}

// String returns the string representation.
func (l Label) String() string {
	return string(l)
}

// FeatureVector is one model-ready row in the scaler's column order.
type FeatureVector []float64

// FeatureMatrix holds one FeatureVector per patient.
type FeatureMatrix []FeatureVector
