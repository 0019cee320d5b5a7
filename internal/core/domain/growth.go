package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sex of a baby, used to select the growth reference population
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// IsValidSex checks if a sex value is valid
func IsValidSex(sex Sex) bool {
	return sex == SexMale || sex == SexFemale
}

// MeasurementType identifies a growth measurement axis
type MeasurementType string

const (
	MeasurementHeight   MeasurementType = "height"
	MeasurementWeight   MeasurementType = "weight"
	MeasurementHeadSize MeasurementType = "head_size"
)

// ValidMeasurementTypes returns all valid growth measurement types
func ValidMeasurementTypes() []MeasurementType {
	return []MeasurementType{MeasurementHeight, MeasurementWeight, MeasurementHeadSize}
}

// IsValidMeasurementType checks if a growth measurement type is valid
func IsValidMeasurementType(measurementType MeasurementType) bool {
	for _, t := range ValidMeasurementTypes() {
		if t == measurementType {
			return true
		}
	}
	return false
}

// GrowthSample is one recorded growth measurement for a baby.
// Height and head size are centimeters, weight is kilograms.
type GrowthSample struct {
	ID         uuid.UUID       `json:"id"`
	BabyID     uuid.UUID       `json:"baby_id"`
	Type       MeasurementType `json:"type"`
	Value      float64         `json:"value"`
	MeasuredAt time.Time       `json:"measured_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BandTopOut is the band reported when a measured value exceeds the
// 99th-percentile reference value. The 99th-percentile column is
// exposed under key 100 on purpose: a top-out is a classification, not
// an error, and the boundary label makes that explicit.
const BandTopOut = 100

// PercentileBand pairs a percentile key with the reference value at
// that percentile for one row
type PercentileBand struct {
	Percentile int     `json:"percentile"`
	Value      float64 `json:"value"`
}

// PercentileRow is one static reference row keyed by
// (sex, measurement type, day of life). Percentile values are
// monotonically non-decreasing across the percentile axis.
type PercentileRow struct {
	Sex       Sex
	Type      MeasurementType
	DayOfLife int
	P3        float64
	P10       float64
	P25       float64
	P50       float64
	P75       float64
	P90       float64
	P97       float64
	P99       float64
}

// Bands returns the row's percentile ladder as a sorted
// (percentile, value) array, with the 99th-percentile value exposed
// under BandTopOut
func (r PercentileRow) Bands() []PercentileBand {
	return []PercentileBand{
		{Percentile: 3, Value: r.P3},
		{Percentile: 10, Value: r.P10},
		{Percentile: 25, Value: r.P25},
		{Percentile: 50, Value: r.P50},
		{Percentile: 75, Value: r.P75},
		{Percentile: 90, Value: r.P90},
		{Percentile: 97, Value: r.P97},
		{Percentile: BandTopOut, Value: r.P99},
	}
}

// ClassifyBand locates the smallest percentile band whose reference
// value is >= the measured value. A value exactly equal to a boundary
// classifies into that boundary's band; a value above the
// 99th-percentile reference tops out at BandTopOut.
func (r PercentileRow) ClassifyBand(value float64) int {
	for _, band := range r.Bands() {
		if value <= band.Value {
			return band.Percentile
		}
	}
	return BandTopOut
}

// GrowthTrendPoint is one point of the charting series: the population
// median at a sampled day of life, optionally overlaid with the baby's
// own measured value at that day. The two series use independent time
// grids and are merged only for display, never interpolated against
// each other.
type GrowthTrendPoint struct {
	DayOfLife        int      `json:"day_of_life"`
	PopulationMedian *float64 `json:"population_median,omitempty"`
	MeasuredValue    *float64 `json:"measured_value,omitempty"`
}

// MedianSampleCadenceDays is the fixed day-of-life sampling step for
// the population median trend series
const MedianSampleCadenceDays = 14

// DayOfLife returns the integer number of full days elapsed between
// birth and the given instant, floored
func DayOfLife(birthDate time.Time, now time.Time) int {
	birth := time.Date(birthDate.Year(), birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(birth).Hours() / 24)
}
