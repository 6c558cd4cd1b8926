package tesseractpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_SizingFormula(t *testing.T) {
	tests := []struct {
		name       string
		maxWorkers int
		numImages  int
		expectMax  int
	}{
		{"auto sizing below minimum floors to minWorkers", -1, 1, minWorkers},
		{"auto sizing caps at numImages when above minimum", -1, 10, 10},
		{"explicit max below minWorkers floors to minWorkers", 2, 10, minWorkers},
		{"explicit max above numImages shrinks to numImages", 8, 5, 5},
		{"explicit max between minimum and numImages is kept", 4, 10, 4},
		{"zero numImages with auto sizing floors to minimum", -1, 0, minWorkers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.maxWorkers, tt.numImages)
			defer p.Close()
			assert.Equal(t, tt.expectMax, p.max)
		})
	}
}

func TestNew_NeverConstructsMoreThanMinWorkersEagerly(t *testing.T) {
	p := New(-1, 100)
	defer p.Close()
	assert.LessOrEqual(t, len(p.workers), minWorkers)
}

func TestDetectRotation_NoOrientationLineDefaultsToZero(t *testing.T) {
	degrees, err := extractDegrees("Orientation confidence: 5.0")
	assert.NoError(t, err)
	assert.Equal(t, 0, degrees)
}

func TestDetectRotation_ParsesKnownAngles(t *testing.T) {
	tests := []struct {
		text   string
		expect int
	}{
		{"Orientation in degrees: 90", 90},
		{"Orientation in degrees: 180", 180},
		{"Orientation in degrees: 270", 270},
		{"Orientation in degrees: 0", 0},
		{"Orientation in degrees: 45", 0}, // not one of the four recognized angles
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			degrees, err := extractDegrees(tt.text)
			assert.NoError(t, err)
			assert.Equal(t, tt.expect, degrees)
		})
	}
}
