package analytics

const (
	Weekly    Frequency = "Weekly"
	Monthly   Frequency = "Monthly"
	Quarterly Frequency = "Quarterly"
	Yearly    Frequency = "Yearly"
)

type (
	Frequency string

	// Cadence describes one billing rhythm: the band of observed average gaps
	// (inclusive, in days) that classifies into it, the canonical period used
	// to forecast the next payment, and the factors that scale a single
	// payment to a yearly and a monthly figure.
	Cadence struct {
		Frequency     Frequency
		MinGap        float64
		MaxGap        float64
		PeriodDays    int
		AnnualFactor  float64
		MonthlyFactor float64
	}
)

// cadences is ordered by MinGap and never modified.
var cadences = []Cadence{
	{Frequency: Weekly, MinGap: 7, MaxGap: 8, PeriodDays: 7, AnnualFactor: 52, MonthlyFactor: 4.33},
	{Frequency: Monthly, MinGap: 28, MaxGap: 32, PeriodDays: 30, AnnualFactor: 12, MonthlyFactor: 1},
	{Frequency: Quarterly, MinGap: 88, MaxGap: 95, PeriodDays: 90, AnnualFactor: 4, MonthlyFactor: 1.0 / 3},
	{Frequency: Yearly, MinGap: 360, MaxGap: 370, PeriodDays: 365, AnnualFactor: 1, MonthlyFactor: 1.0 / 12},
}

// ClassifyCadence returns the cadence whose gap band contains avgGap.
func ClassifyCadence(avgGap float64) (Cadence, bool) {
	for _, c := range cadences {
		if avgGap >= c.MinGap && avgGap <= c.MaxGap {
			return c, true
		}
	}
	return Cadence{}, false
}
