package core

// CombinedMonthlyObligation folds the annual ledger into a monthly
// figure: monthly total plus one twelfth of the annual total, in RON.
func CombinedMonthlyObligation(monthly, annual Totals) float64 {
	return monthly.TotalRON + annual.TotalRON/12
}

// Snapshot is the read model the rendering layer consumes. It is
// recomputed whole on every refresh cycle; nothing in it is stored.
type Snapshot struct {
	Monthly    Totals  `json:"monthly"`
	Annual     Totals  `json:"annual"`
	Obligation float64 `json:"obligation_ron"`

	UtilitiesAverage   float64 `json:"utilities_average_ron"`
	Administration     float64 `json:"administration_ron"`
	SupermarketAverage float64 `json:"supermarket_average_ron"`
	CarAverage         float64 `json:"car_average_ron"`

	Electricity []ConsumptionPoint `json:"electricity"`
	Gas         []ConsumptionPoint `json:"gas"`
	Water       []WaterPoint       `json:"water"`

	SupermarketMonthly map[string]float64 `json:"supermarket_monthly"`
	CarMonthly         map[string]float64 `json:"car_monthly"`
	FuelEconomy        []FuelPoint        `json:"fuel_economy"`

	Rates Rates `json:"rates"`
}

// Snapshot builds the read model from the current state under the given
// rate table.
func (s *State) Snapshot(rates Rates) Snapshot {
	monthly := s.Monthly.Totals(rates)
	annual := s.Annual.Totals(rates)
	return Snapshot{
		Monthly:    monthly,
		Annual:     annual,
		Obligation: CombinedMonthlyObligation(monthly, annual),

		UtilitiesAverage:   round2(s.Utilities.Payments.AverageRON(rates)),
		Administration:     round2(s.Administration.Payments.LatestRON(rates)),
		SupermarketAverage: round2(s.Daily.AverageOfMonthlyTotals(rates)),
		CarAverage:         round2(s.Car.AverageOfMonthlyTotals(rates)),

		Electricity: s.Utilities.Electricity.ConsumptionSeries(),
		Gas:         s.Utilities.Gas.ConsumptionSeries(),
		Water:       s.Administration.Water.ConsumptionSeries(s.Administration.CostPerM3),

		SupermarketMonthly: s.Daily.MonthlyTotals(rates),
		CarMonthly:         s.Car.MonthlyTotals(rates),
		FuelEconomy:        s.Car.FuelEconomy(),

		Rates: rates,
	}
}
