package core

// SyncAutoRows recomputes the four derived figures and upserts their
// rows into the Monthly ledger. The label function maps each auto flag
// to its display name in the user's language.
//
// The operation is idempotent: with unchanged ledgers a second call
// leaves row count, values, and positions identical. Removing an auto
// row's data source zeroes the row, it never removes it.
func (s *State) SyncAutoRows(rates Rates, label func(AutoFlag) string) {
	s.Monthly.UpsertAutoRow(AutoUtilitiesAverage, label(AutoUtilitiesAverage),
		s.Utilities.Payments.AverageRON(rates))
	s.Monthly.UpsertAutoRow(AutoAdministration, label(AutoAdministration),
		s.Administration.Payments.LatestRON(rates))
	s.Monthly.UpsertAutoRow(AutoSupermarketAverage, label(AutoSupermarketAverage),
		s.Daily.AverageOfMonthlyTotals(rates))
	s.Monthly.UpsertAutoRow(AutoCarAverage, label(AutoCarAverage),
		s.Car.AverageOfMonthlyTotals(rates))
}
