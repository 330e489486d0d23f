package emission

// Impact levels for accumulated CO2, lowest first.
const (
	ImpactExcellent = "Excellent"
	ImpactGood      = "Good"
	ImpactFair      = "Fair"
	ImpactHigh      = "High Impact"
)

// Impact is a coarse band of total CO2 with the fill percentage the
// dashboard progress bar shows for it.
type Impact struct {
	Label   string
	Percent int
}

// Classify maps a total CO2 amount to its impact band.
func Classify(totalCO2 float64) Impact {
	switch {
	case totalCO2 < 10:
		return Impact{Label: ImpactExcellent, Percent: 25}
	case totalCO2 < 25:
		return Impact{Label: ImpactGood, Percent: 50}
	case totalCO2 < 50:
		return Impact{Label: ImpactFair, Percent: 75}
	default:
		return Impact{Label: ImpactHigh, Percent: 90}
	}
}
