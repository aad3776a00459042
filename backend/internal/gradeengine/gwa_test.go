package gradeengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGWA(t *testing.T) {
	tests := []struct {
		grade float64
		want  float64
	}{
		{100, 1.00},
		{90, 1.00},
		{89.99, 1.25},
		{89, 1.25},
		{85, 1.25},
		{84.99, 1.50},
		{80, 1.50},
		{75, 1.75},
		{70, 2.00},
		{65, 2.25},
		{60, 2.50},
		{55, 2.75},
		{50, 3.00},
		{49.99, 5.00},
		{49, 5.00},
		{0, 5.00},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, GWA(tc.grade), "grade %.2f", tc.grade)
	}
}

func TestGWAMonotonic(t *testing.T) {
	prev := GWA(100)
	for g := 100.0; g >= 0; g -= 0.25 {
		cur := GWA(g)
		assert.GreaterOrEqual(t, cur, prev, "grade %.2f", g)
		prev = cur
	}
}

func TestClassifyRisk(t *testing.T) {
	assert.Equal(t, RiskLow, ClassifyRisk(100))
	assert.Equal(t, RiskLow, ClassifyRisk(85))
	assert.Equal(t, RiskModerate, ClassifyRisk(84.99))
	assert.Equal(t, RiskModerate, ClassifyRisk(80))
	assert.Equal(t, RiskHigh, ClassifyRisk(79.99))
	assert.Equal(t, RiskHigh, ClassifyRisk(0))
}

func TestIsPassing(t *testing.T) {
	assert.True(t, IsPassing(3.00))
	assert.False(t, IsPassing(GWA(10)))
}
