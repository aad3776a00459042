package gradeengine

// FailingGWA is returned for any overall grade below the lowest band.
const FailingGWA = 5.00

type gwaBand struct {
	min float64
	gwa float64
}

// gwaBands must stay sorted by min, descending.
var gwaBands = []gwaBand{
	{90, 1.00},
	{85, 1.25},
	{80, 1.50},
	{75, 1.75},
	{70, 2.00},
	{65, 2.25},
	{60, 2.50},
	{55, 2.75},
	{50, 3.00},
}

// GWA maps an overall grade onto the 1.00 (best) to 5.00 (failing) scale.
// A grade exactly on a boundary belongs to the better band.
func GWA(overallGrade float64) float64 {
	for _, b := range gwaBands {
		if overallGrade >= b.min {
			return b.gwa
		}
	}
	return FailingGWA
}

// ClassifyRisk places an overall grade in one of three risk tiers.
func ClassifyRisk(overallGrade float64) RiskTier {
	switch {
	case overallGrade >= 85:
		return RiskLow
	case overallGrade >= 80:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// IsPassing reports whether a GWA is a passing mark.
func IsPassing(gwa float64) bool {
	return gwa < FailingGWA
}
