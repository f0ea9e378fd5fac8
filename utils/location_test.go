package utils

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	// Same point
	if d := HaversineDistance(18.0858, -15.9785, 18.0858, -15.9785); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}

	// Nouakchott to Nouadhibou, great-circle, roughly 335 km
	d := HaversineDistance(18.0858, -15.9785, 20.9330, -17.0330)
	if math.Abs(d-335) > 10 {
		t.Errorf("Nouakchott-Nouadhibou distance = %f km, want ~335", d)
	}

	// Symmetric
	reversed := HaversineDistance(20.9330, -17.0330, 18.0858, -15.9785)
	if math.Abs(d-reversed) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d, reversed)
	}
}

func TestIsLocationValid(t *testing.T) {
	tests := []struct {
		lat, lng float64
		want     bool
	}{
		{18.0858, -15.9785, true},
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{91, 0, false},
		{0, 181, false},
		{-91, 0, false},
	}

	for _, tt := range tests {
		if got := IsLocationValid(tt.lat, tt.lng); got != tt.want {
			t.Errorf("IsLocationValid(%f, %f) = %v, want %v", tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestValidateSearchRadius(t *testing.T) {
	if !ValidateSearchRadius(GetDefaultSearchRadius()) {
		t.Error("default radius must be valid")
	}
	if !ValidateSearchRadius(GetMaxSearchRadius()) {
		t.Error("max radius must be valid")
	}
	if ValidateSearchRadius(0) {
		t.Error("zero radius must be invalid")
	}
	if ValidateSearchRadius(-5) {
		t.Error("negative radius must be invalid")
	}
	if ValidateSearchRadius(GetMaxSearchRadius() + 1) {
		t.Error("radius above max must be invalid")
	}
}
