package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Raw payload keys accepted by the prediction endpoint
const (
	FieldGeneralHealth   = "General_Health"
	FieldCheckup         = "Checkup"
	FieldExercise        = "Exercise"
	FieldSkinCancer      = "Skin_Cancer"
	FieldOtherCancer     = "Other_Cancer"
	FieldDepression      = "Depression"
	FieldDiabetes        = "Diabetes"
	FieldArthritis       = "Arthritis"
	FieldSex             = "Sex"
	FieldAge             = "Age"
	FieldHeight          = "Height_(cm)"
	FieldWeight          = "Weight_(kg)"
	FieldSmokingHistory  = "Smoking_History"
	FieldAlcohol         = "Alcohol_Consumption"
	FieldFruit           = "Fruit_Consumption"
	FieldGreenVegetables = "Green_Vegetables_Consumption"
	FieldFriedPotato     = "FriedPotato_Consumption"
	FeatureAgeCategory   = "Age_Category"
	FeatureBMI           = "BMI"
	FeatureSexFemale     = "Sex_Female"
	FeatureSexMale       = "Sex_Male"
)

// AgeCategoryCatchAll is the bucket for ages outside 18-79
const AgeCategoryCatchAll = 12

// RequiredFields lists the raw payload keys, in the order missing ones are reported
var RequiredFields = []string{
	FieldGeneralHealth,
	FieldCheckup,
	FieldExercise,
	FieldSkinCancer,
	FieldOtherCancer,
	FieldDepression,
	FieldDiabetes,
	FieldArthritis,
	FieldSex,
	FieldAge,
	FieldHeight,
	FieldWeight,
	FieldSmokingHistory,
	FieldAlcohol,
	FieldFruit,
	FieldGreenVegetables,
	FieldFriedPotato,
}

// FeatureNames is the column order the model was trained on.
// Changing it silently corrupts every prediction.
var FeatureNames = []string{
	FieldGeneralHealth,
	FieldCheckup,
	FieldExercise,
	FieldSkinCancer,
	FieldOtherCancer,
	FieldDepression,
	FieldDiabetes,
	FieldArthritis,
	FeatureAgeCategory,
	FieldHeight,
	FieldWeight,
	FeatureBMI,
	FieldSmokingHistory,
	FieldAlcohol,
	FieldFruit,
	FieldGreenVegetables,
	FieldFriedPotato,
	FeatureSexFemale,
	FeatureSexMale,
}

// yesNoFields are encoded as 1 for the exact string "Yes" and 0 otherwise
var yesNoFields = []string{
	FieldExercise,
	FieldSkinCancer,
	FieldOtherCancer,
	FieldDepression,
	FieldDiabetes,
	FieldArthritis,
	FieldSmokingHistory,
	FieldAlcohol,
	FieldFruit,
	FieldGreenVegetables,
	FieldFriedPotato,
}

var generalHealthScale = map[string]float64{
	"excellent": 4,
	"very_good": 3,
	"good":      2,
	"fair":      1,
	"poor":      0,
}

var checkupScale = map[string]float64{
	"within_1_year":   4,
	"within_2_years":  3,
	"within_5_years":  2,
	"5_or_more_years": 1,
	"never":           0,
}

// FeatureError represents a payload value that cannot be turned into a feature
type FeatureError struct {
	Field   string
	Message string
	Err     error
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FeatureError) Unwrap() error {
	return e.Err
}

// MissingFields returns the required keys absent from the payload
func MissingFields(payload map[string]interface{}) []string {
	missing := []string{}
	for _, field := range RequiredFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// EncodeGeneralHealth maps a general health category onto its ordinal value.
// Unknown categories pass through when they are already numeric.
func EncodeGeneralHealth(value interface{}) (float64, error) {
	return encodeOrdinal(FieldGeneralHealth, generalHealthScale, value)
}

// EncodeCheckup maps a checkup recency category onto its ordinal value.
// Unknown categories pass through when they are already numeric.
func EncodeCheckup(value interface{}) (float64, error) {
	return encodeOrdinal(FieldCheckup, checkupScale, value)
}

func encodeOrdinal(field string, scale map[string]float64, value interface{}) (float64, error) {
	if s, ok := value.(string); ok {
		if v, known := scale[s]; known {
			return v, nil
		}
	}

	v, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, &FeatureError{Field: field, Message: fmt.Sprintf("unrecognized value %v", value)}
	}
	return v, nil
}

// EncodeYesNo returns 1 for the exact string "Yes" and 0 for anything else
func EncodeYesNo(value interface{}) float64 {
	if s, ok := value.(string); ok && s == "Yes" {
		return 1
	}
	return 0
}

// AgeCategory buckets an age into 13 ordinal groups of five years starting at 18-24.
// Ages below 18 share the catch-all bucket with 80 and above.
func AgeCategory(age float64) int {
	a := int(math.Floor(age))
	switch {
	case a >= 18 && a <= 24:
		return 0
	case a >= 25 && a <= 79:
		return (a-25)/5 + 1
	default:
		return AgeCategoryCatchAll
	}
}

// EncodeSex returns the (Sex_Female, Sex_Male) one-hot pair
func EncodeSex(value interface{}) (female, male float64) {
	s, _ := value.(string)
	switch s {
	case "Female":
		return 1, 0
	case "Male":
		return 0, 1
	}
	return 0, 0
}

// BuildFeatureVector turns a raw prediction payload into the model's input vector.
// The payload must already contain every field in RequiredFields.
func BuildFeatureVector(payload map[string]interface{}) ([]float64, error) {
	if missing := MissingFields(payload); len(missing) > 0 {
		return nil, &FeatureError{Field: strings.Join(missing, ", "), Message: "missing"}
	}

	features := make(map[string]float64, len(FeatureNames))

	generalHealth, err := EncodeGeneralHealth(payload[FieldGeneralHealth])
	if err != nil {
		return nil, err
	}
	features[FieldGeneralHealth] = generalHealth

	checkup, err := EncodeCheckup(payload[FieldCheckup])
	if err != nil {
		return nil, err
	}
	features[FieldCheckup] = checkup

	for _, field := range yesNoFields {
		features[field] = EncodeYesNo(payload[field])
	}

	age, err := numericField(payload, FieldAge)
	if err != nil {
		return nil, err
	}
	features[FeatureAgeCategory] = float64(AgeCategory(age))

	features[FeatureSexFemale], features[FeatureSexMale] = EncodeSex(payload[FieldSex])

	height, err := numericField(payload, FieldHeight)
	if err != nil {
		return nil, err
	}
	weight, err := numericField(payload, FieldWeight)
	if err != nil {
		return nil, err
	}
	features[FieldHeight] = height
	features[FieldWeight] = weight

	bmi, err := CalculateBMI(height, weight)
	if err != nil {
		return nil, &FeatureError{Field: FieldHeight, Message: err.Error(), Err: err}
	}
	features[FeatureBMI] = bmi

	vector := make([]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		vector[i] = features[name]
	}
	return vector, nil
}

func numericField(payload map[string]interface{}, field string) (float64, error) {
	v, err := cast.ToFloat64E(payload[field])
	if err != nil {
		return 0, &FeatureError{Field: field, Message: "must be a number"}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FeatureError{Field: field, Message: "must be a finite number"}
	}
	return v, nil
}
