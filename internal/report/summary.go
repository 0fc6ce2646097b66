// Package report computes financial summaries over record sets. All
// arithmetic stays in integer cents so totals are exact.
package report

import "tally/internal/core"

// CategoryTotal carries both sides of a category, even when one side
// is zero.
type CategoryTotal struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// Summary is the aggregate view of a record set.
type Summary struct {
	TotalIncome  core.Money               `json:"totalIncome"`
	TotalExpense core.Money               `json:"totalExpense"`
	Balance      core.Money               `json:"balance"`
	ByCategory   map[string]CategoryTotal `json:"byCategory"`
}

// Summarize aggregates the records in a single pass. Balance may be
// negative; an empty input yields all-zero totals and an empty (not
// nil) category map.
func Summarize(records []core.Record) Summary {
	s := Summary{ByCategory: make(map[string]CategoryTotal, 8)}
	for _, r := range records {
		ct := s.ByCategory[r.Category]
		switch r.Kind {
		case core.KindIncome:
			s.TotalIncome = s.TotalIncome.Add(r.Amount)
			ct.Income = ct.Income.Add(r.Amount)
		case core.KindExpense:
			s.TotalExpense = s.TotalExpense.Add(r.Amount)
			ct.Expense = ct.Expense.Add(r.Amount)
		}
		s.ByCategory[r.Category] = ct
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}
