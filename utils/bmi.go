package utils

import (
	"errors"
	"math"
)

// ErrInvalidHeight is returned when a BMI is requested for a non-positive height
var ErrInvalidHeight = errors.New("height must be greater than zero")

// CalculateBMI expects height in centimeters and weight in kilograms.
// The result is rounded to 2 decimal places.
func CalculateBMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || math.IsNaN(heightCm) || math.IsInf(heightCm, 0) {
		return 0, ErrInvalidHeight
	}

	h := heightCm / 100.0 // to meters
	bmi := weightKg / (h * h)
	if math.IsNaN(bmi) || math.IsInf(bmi, 0) {
		return 0, errors.New("bmi is not a finite number")
	}

	return RoundTo(bmi, 2), nil
}

// RoundTo rounds v half away from zero to the given number of decimal places
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
